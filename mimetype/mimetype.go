/*
Package mimetype holds the media type value types used for content negotiation.

A MediaType is the normalized (type, subtype, parameters) triple of a format
identifier such as "application/json; charset=utf-8". A Range is a MediaType carrying
a quality weight and its ordinal position inside an Accept-style header, so that
ranges of equal quality can be ordered the way the client listed them.

This package is the canonical parser and formatter for the header grammar:

	type/subtype;param=value, type2/subtype2;q=0.5

Values produced by String() and FormatRanges() always parse back to equal values.
*/
package mimetype

import (
	"strings"
)

// Default media types. Non default media types can be used by parsing a custom
// string:
//
//	mimetype.MustParse("text/csv")
var (
	JSON     = New("application", "json")
	BSON     = New("application", "bson")
	YAML     = New("application", "yaml")
	CBOR     = New("application", "cbor")
	PROTOBUF = New("application", "x-protobuf")
	TEXT     = New("text", "plain")
	// ANY is the */* wildcard.
	ANY = New("*", "*")
	// UNKNOWN is used when the incoming string is blank or cannot be parsed.
	UNKNOWN = MediaType{}
)

// List of default media types that are encoded to / from objects (as opposed to raw
// text). Used to resolve the lenient aliases accepted by FromString.
var objectMediaTypes = []MediaType{JSON, BSON, YAML, CBOR, PROTOBUF}

// Interface for object used to get headers such as http.Request.Header or
// http.Response.Header
type headerFetcher interface {
	Get(string) string
}

// FromHeader extracts the content type from a message / request header.
func FromHeader(headers headerFetcher) MediaType {
	return FromString(headers.Get("Content-Type"))
}

/*
FromString converts a MediaType from a loosely written string. Ignores case. If the
media type is a default object type, multiple spellings are respected. For instance,
all of the following will yield mimetype.JSON:

• "application/json"

• "application/JSON"

• "application/x-json"

• "json"

• "x-json"

Parameters are kept. Strings that cannot be parsed at all yield UNKNOWN.
*/
func FromString(incoming string) MediaType {
	incoming = strings.TrimSpace(incoming)
	lowered := strings.ToLower(incoming)

	if lowered == "" {
		return UNKNOWN
	}
	if lowered == "text" {
		return TEXT
	}

	// Bare names like "json" or "x-bson" have no slash, so they never parse on their
	// own.
	if !strings.ContainsRune(lowered, '/') {
		if alias, ok := lookupAlias(lowered); ok {
			return alias
		}
		return UNKNOWN
	}

	parsed, err := Parse(incoming)
	if err != nil {
		return UNKNOWN
	}

	if parsed.mainType == "application" {
		if alias, ok := lookupAlias(parsed.subType); ok {
			return New(alias.mainType, alias.subType, parsed.params...)
		}
	}

	return parsed
}

// Resolves "json", "x-json", "protobuf", "x-protobuf" and friends to their default
// object media type.
func lookupAlias(name string) (MediaType, bool) {
	name = strings.TrimPrefix(name, "x-")
	for _, mediaType := range objectMediaTypes {
		if strings.TrimPrefix(mediaType.subType, "x-") == name {
			return mediaType, true
		}
	}
	return UNKNOWN, false
}
