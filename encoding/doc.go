// Arbitrarily encode and decode message body content.
/*
Package encoding drives the codecs of a service through content negotiation, so that
content can be encoded and decoded dynamically based on message headers or mimetype
sniffing, and mimetype-specific methods never have to be called explicitly when
handling content.

Specific objectives

1. Clients can send arbitrary object serializations and request back whichever encoding
type they are most comfortable with.

2. Service developers do not have to explicitly add support for encoding types to a
given service or handler. Support for a mimetype is added once to a shared engine and
every handler using that engine gets it.

3. Content encoding and decoding support is independent of service pattern. Adding a
decoder upgrades both the HTTP layer and the CLI.

4. Developers can extend all of their services to support a new content type by
registering their own Encoder / Decoder with the media types it declares.

Each SpanEngine owns two negotiation registries: one of producers (Encoder) and one
of consumers (Decoder). Codecs are registered once, before the engine is first used;
the first selection freezes both registries.
*/
package encoding
