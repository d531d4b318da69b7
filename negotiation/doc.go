/*
Package negotiation picks the codec to use for one exchange.

A Registry is an ordered collection of codec descriptors. Each descriptor declares the
media types its codec produces (for a producer registry) or consumes (for a consumer
registry), optionally with an intrinsic quality:

	producers := negotiation.NewRegistry[encoding.Encoder]("producers")
	producers.Register("json", jsonEncoder, "application/json")
	producers.Register("text-json", textJSONEncoder, "text/json", "application/json;q=0.9")

Registration happens once at startup. The first selection freezes the registry, after
which Register returns ErrRegistryFrozen and selections read the descriptor list
without locking.

# Producer selection

The Accept ranges are ordered by descending quality, ties kept in header order. The
first range with any matching codec decides the outcome; lower quality ranges are
never consulted once a higher one matched. Among the codecs matching that range the
winner is the one whose matching declared media type has the fewest wildcards, then
the highest intrinsic quality, then the earliest registration. When no range matches
the registry's fallback codec is returned, if one was set.

# Consumer selection

A single Content-Type is matched the same way, except that the codec's declared
parameters must be present on the Content-Type. A blank or unparsable Content-Type is
"unspecified" and resolves to the fallback consumer.

No match is never an error at this level: selections return (Match, false) and callers
decide how to report it.
*/
package negotiation
