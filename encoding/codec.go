package encoding

import (
	"io"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
)

// Encoder writes content to a writer. engine is the ContentEngine driving the
// encoder, or the engine set through SpanEngine.SetPassedEngine.
type Encoder interface {
	Encode(engine ContentEngine, writer io.Writer, content interface{}) error
}

// Decoder reads content from a reader into contentReceiver.
type Decoder interface {
	Decode(engine ContentEngine, reader io.Reader, contentReceiver interface{}) error
}

/*
ContentEngine details the contract for a content encoding engine. The goal of the
content engine is to allow a common decoding and encoding methodology for any
supported media type, allowing easy support for client-requested payload encodings,
and a shared interface for different types of services to add support for various
encoding types.
*/
type ContentEngine interface {
	// Registers an encoder declaring one or more media types in header grammar, e.g.
	// "application/json", "text/json;q=0.9".
	RegisterEncoder(name string, encoder Encoder, declared ...string) error

	// Registers a decoder declaring one or more media types in header grammar.
	RegisterDecoder(name string, decoder Decoder, declared ...string) error

	// Returns true if the engine has a registered encoder for the media type.
	HandlesEncode(mediaType mimetype.MediaType) bool

	// Returns true if the engine has a registered decoder for the media type.
	HandlesDecode(mediaType mimetype.MediaType) bool

	// Returns true if the engine has a registered encoder AND decoder for the media
	// type.
	Handles(mediaType mimetype.MediaType) bool

	// Whether the engine will attempt to decode unknown media types.
	SniffType() bool

	// Decode content from reader using the decoder selected for mediaType. Decoded
	// content is stored in contentReceiver.
	Decode(
		mediaType mimetype.MediaType,
		contentReceiver interface{},
		reader io.Reader,
	) error

	// Encode content to writer using the encoder selected for mediaType.
	Encode(
		mediaType mimetype.MediaType,
		content interface{},
		writer io.Writer,
	) error
}
