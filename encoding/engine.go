package encoding

import (
	"bytes"
	"io"
	"reflect"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/negotiation"
	"github.com/ugorji/go/codec"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

var (
	// ErrNoEncoder is returned when no encoder declares the requested media type.
	ErrNoEncoder = xerrors.New("no encoder")
	// ErrNoDecoder is returned when no decoder declares the content media type.
	ErrNoDecoder = xerrors.New("no decoder")
	// ErrSniffDisabled is returned when decoding content of unknown media type with an
	// engine that does not sniff.
	ErrSniffDisabled = xerrors.New("mimetype is unknown and sniffing is disabled")
	// ErrSniffFailed is returned when every decoder failed on sniffed content.
	ErrSniffFailed = xerrors.New("no decoder could sniff content")
	// ErrNotAcceptable is returned when a negotiated exchange has no producer.
	ErrNotAcceptable = xerrors.New("no acceptable encoder")
	// ErrUnsupportedMediaType is returned when a negotiated exchange has no consumer
	// for the declared content type.
	ErrUnsupportedMediaType = xerrors.New("unsupported media type")
)

// Session is a negotiation session between the encoders and decoders of an engine.
type Session = negotiation.Session[Encoder, Decoder]

/*
SpanEngine is the default implementation of the ContentEngine interface.
Implementation is done through an Interface so that the Engine can be extended
through type wrapping.

# Instantiation

Use NewContentEngine() to create a new SpanEngine.

# Default Media Types

Codecs are registered in this order, which is also the sniffing order:

• json: application/json, text/json;q=0.9

• bson: application/bson

• yaml: application/yaml, application/x-yaml;q=0.9, text/yaml;q=0.8

• cbor: application/cbor

• protobuf: application/x-protobuf, application/protobuf;q=0.9

• text: text/plain

Object encoding/decoders have been selected to be extensible, and SpanEngine exposes
functions to let you add custom type handlers to each.

# Default JSON Extensions

SpanEngine uses the codec library to encode/decode json
(https://godoc.org/github.com/ugorji/go/codec), which allows the definition of
extensions. SpanEngine ships with the following types handled:

• UUIDs from "github.com/satori/go.uuid"

• Binary blob data is represented as a hex string. To signal that this conversion
should take place, you must use the named type BinData in the "spantypes" package of
this module.

• BSON primitive.Binary data will be encoded as a string for 0x3 subtype (UUID) and a
hex string for 0x0 subtype (arbitrary binary data). Other subtypes are not currently
supported and will panic.

• BSON raw is converted to a map and THEN encoded to a json object.

Additional json extensions can be registered through AddJSONExtensions() by passing
a slice of JSONExtensionOpts objects.

# Default BSON Codecs

SpanEngine handles the encoding and decoding of Bson data through the official bson
driver (https://godoc.org/go.mongodb.org/mongo-driver).

The following type extensions ship with SpanEngine:

• primitive.Binary of subtype 0x3 can be decoded to / encoded from UUID objects from
"github.com/satori/go.uuid".

• primitive.Binary of subtype 0x0 can be decoded to / encoded from the BinData named
type of []byte in the "spantypes" module.

Default Text/Plain Returns

When encoding to plaintext, fmt.Sprint is used on the passed object, so any type
can be sent and represented as text.

# Type Sniffing

If created with "allowSniff" set to true, when decoding content of unknown media type
SpanEngine will attempt each decoder in registration order until one does not return
an error or panic.

# Panics

If an encoder or decoder panics during execution, that panic is caught and returned as
an error.
*/
type SpanEngine struct {
	// Encoders, selected by the Accept side of a negotiation.
	producers *negotiation.Registry[Encoder]
	// Decoders, selected by the Content-Type side of a negotiation.
	consumers *negotiation.Registry[Decoder]
	// Whether to attempt decoding when no explicit mimetype is known.
	sniffMimeType bool

	logger *zap.Logger

	// JSON handle for default JSON encoder
	jsonHandle *codec.JsonHandle
	// BSON registry for default BSON encoder
	bsonRegistry *bsoncodec.Registry
	// BSON codecs
	bsonCodecs []*BsonCodecOpts
	// Engine to pass to Encoder.Encoder() and Decoder.Decode() methods.
	passedEngine ContentEngine
}

// Option configures a SpanEngine at creation.
type Option func(*engineOptions)

type engineOptions struct {
	logger          *zap.Logger
	defaultProducer mimetype.MediaType
	defaultConsumer mimetype.MediaType
}

// WithLogger sets the logger of the engine and its registries.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *engineOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithDefaultProducer sets the encoder used when nothing a client accepts is
// available. It must be declared by one of the default encoders.
func WithDefaultProducer(mediaType mimetype.MediaType) Option {
	return func(opts *engineOptions) {
		opts.defaultProducer = mediaType
	}
}

// WithDefaultConsumer sets the decoder used for content with no declared media type.
// It must be declared by one of the default decoders.
func WithDefaultConsumer(mediaType mimetype.MediaType) Option {
	return func(opts *engineOptions) {
		opts.defaultConsumer = mediaType
	}
}

// Change the engine passed into Encoder.Encode() and decoder.Decode()
func (engine *SpanEngine) SetPassedEngine(newEngine ContentEngine) {
	engine.passedEngine = newEngine
}

// RegisterEncoder adds an encoder declaring media types in header grammar.
func (engine *SpanEngine) RegisterEncoder(
	name string, encoder Encoder, declared ...string,
) error {
	_, err := engine.producers.Register(name, encoder, declared...)
	return err
}

// RegisterDecoder adds a decoder declaring media types in header grammar. Decoders
// are sniffed in registration order.
func (engine *SpanEngine) RegisterDecoder(
	name string, decoder Decoder, declared ...string,
) error {
	_, err := engine.consumers.Register(name, decoder, declared...)
	return err
}

// SetEncoder registers an encoder for a single media type, named after it.
func (engine *SpanEngine) SetEncoder(mediaType mimetype.MediaType, encoder Encoder) error {
	_, err := engine.producers.RegisterRanges(
		mediaType.Essence(),
		encoder,
		mimetype.NewRange(mediaType, mimetype.DefaultQuality),
	)
	return err
}

// SetDecoder registers a decoder for a single media type, named after it.
func (engine *SpanEngine) SetDecoder(mediaType mimetype.MediaType, decoder Decoder) error {
	_, err := engine.consumers.RegisterRanges(
		mediaType.Essence(),
		decoder,
		mimetype.NewRange(mediaType, mimetype.DefaultQuality),
	)
	return err
}

// SetDefaultEncoder makes the encoder declaring mediaType the producer fallback.
func (engine *SpanEngine) SetDefaultEncoder(mediaType mimetype.MediaType) error {
	descriptor, ok := declaring(engine.producers, mediaType)
	if !ok {
		return xerrors.Errorf("%v: %w", mediaType, ErrNoEncoder)
	}
	return engine.producers.SetFallback(descriptor)
}

// SetDefaultDecoder makes the decoder declaring mediaType the consumer fallback.
func (engine *SpanEngine) SetDefaultDecoder(mediaType mimetype.MediaType) error {
	descriptor, ok := declaring(engine.consumers, mediaType)
	if !ok {
		return xerrors.Errorf("%v: %w", mediaType, ErrNoDecoder)
	}
	return engine.consumers.SetFallback(descriptor)
}

// Finds the first codec declaring mediaType without freezing the registry.
func declaring[C any](
	registry *negotiation.Registry[C], mediaType mimetype.MediaType,
) (*negotiation.Descriptor[C], bool) {
	for _, descriptor := range registry.Registered() {
		for _, declared := range descriptor.MediaTypes() {
			if declared.MediaType.Equal(mediaType) {
				return descriptor, true
			}
		}
	}
	return nil, false
}

// Producers returns the registered encoders in registration order.
func (engine *SpanEngine) Producers() []*negotiation.Descriptor[Encoder] {
	return engine.producers.Descriptors()
}

// Consumers returns the registered decoders in registration order.
func (engine *SpanEngine) Consumers() []*negotiation.Descriptor[Decoder] {
	return engine.consumers.Descriptors()
}

// DefaultEncoder returns the producer fallback, if one was set.
func (engine *SpanEngine) DefaultEncoder() (*negotiation.Descriptor[Encoder], bool) {
	return engine.producers.Fallback()
}

// DefaultDecoder returns the consumer fallback, if one was set.
func (engine *SpanEngine) DefaultDecoder() (*negotiation.Descriptor[Decoder], bool) {
	return engine.consumers.Fallback()
}

// Whether SpanEngine will attempt to decode UNKNOWN content.
func (engine *SpanEngine) SniffType() bool {
	return engine.sniffMimeType
}

// Whether the SpanEngine has a registered encoder for mediaType.
func (engine *SpanEngine) HandlesEncode(mediaType mimetype.MediaType) bool {
	if mediaType.IsZero() {
		return false
	}
	match, ok := engine.producers.ForceProducer(mediaType)
	return ok && !match.Fallback
}

// Whether the SpanEngine has a registered decoder for mediaType.
func (engine *SpanEngine) HandlesDecode(mediaType mimetype.MediaType) bool {
	if mediaType.IsZero() {
		return false
	}
	_, ok := engine.consumers.SelectConsumerType(mediaType)
	return ok
}

// Whether the SpanEngine has a registered decoder AND encoder for mediaType.
func (engine *SpanEngine) Handles(mediaType mimetype.MediaType) bool {
	return engine.HandlesEncode(mediaType) && engine.HandlesDecode(mediaType)
}

// Select what engine to pass into the encoder / decoder in case we are extending
// the engine type.
func (engine *SpanEngine) getEngine() (passEngine ContentEngine) {
	if engine.passedEngine != nil {
		passEngine = engine.passedEngine
	} else {
		passEngine = engine
	}

	return passEngine
}

// Uses an encoder while catching panics to return as errors
func (engine *SpanEngine) safeEncode(
	encoder Encoder, writer io.Writer, content interface{},
) (err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = xerrors.Errorf("panic during encode: %v", recovered)
		}
	}()

	passEngine := engine.getEngine()
	err = encoder.Encode(passEngine, writer, content)
	return err
}

// Uses a decoder while catching panics to return as errors
func (engine *SpanEngine) safeDecode(
	decoder Decoder, reader io.Reader, contentReceiver interface{},
) (err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = xerrors.Errorf("panic during decode: %v", recovered)
		}
	}()

	passEngine := engine.getEngine()
	err = decoder.Decode(passEngine, reader, contentReceiver)

	return err
}

// Attempts to decode content with all registered decoders until one succeeds or all
// fail.
func (engine *SpanEngine) sniffContent(
	contentReceiver interface{},
	reader io.Reader,
) error {
	// We need to read the content multiple times, so lets load the bytes into a var.
	// This will cause a slight performance hit, which is why this is a separate process
	// from loading a KNOWN mimetype.
	contentBuffer := bytes.NewBuffer(make([]byte, 0))
	if _, err := contentBuffer.ReadFrom(reader); err != nil {
		return xerrors.Errorf("error reading contentBytes: %w", err)
	}

	var failures []string
	for _, descriptor := range engine.consumers.Descriptors() {
		// Make a buffer for this attempt, otherwise we'll run out of bytes.
		thisReader := bytes.NewBuffer(contentBuffer.Bytes())
		err := engine.safeDecode(descriptor.Codec(), thisReader, contentReceiver)
		if err == nil {
			engine.logger.Debug("sniffed content",
				zap.String("decoder", descriptor.Name()),
			)
			return nil
		}
		failures = append(failures, descriptor.Name()+": "+err.Error())
	}

	return xerrors.Errorf("tried [%s]: %w", strings.Join(failures, "; "), ErrSniffFailed)
}

// Picks the media type for encoding objects when the target media type is unknown:
// text for strings, then the default producer, then JSON.
func (engine *SpanEngine) pickEncodeType(
	mediaType mimetype.MediaType, content interface{},
) mimetype.MediaType {
	if !mediaType.IsZero() {
		return mediaType
	}

	switch content.(type) {
	case string, *string:
		return mimetype.TEXT
	}

	if fallback, ok := engine.producers.Fallback(); ok {
		return fallback.MediaTypes()[0].MediaType
	}
	return mimetype.JSON
}

// Decode content of mediaType from reader into contentReceiver. UNKNOWN content is
// decoded as text into a *string receiver, then by the default decoder, then by
// sniffing when enabled.
func (engine *SpanEngine) Decode(
	mediaType mimetype.MediaType,
	contentReceiver interface{},
	reader io.Reader,
) error {
	// Close the reader if it's a closer.
	if readCloser, ok := reader.(io.ReadCloser); ok {
		defer func() {
			_ = readCloser.Close()
		}()
	}

	if _, isString := contentReceiver.(*string); isString && mediaType.IsZero() {
		mediaType = mimetype.TEXT
	}

	var decoder Decoder
	if mediaType.IsZero() {
		fallback, ok := engine.consumers.Fallback()
		if !ok {
			if !engine.SniffType() {
				return ErrSniffDisabled
			}
			return engine.sniffContent(contentReceiver, reader)
		}
		decoder = fallback.Codec()
	} else {
		match, ok := engine.consumers.SelectConsumerType(mediaType)
		if !ok {
			return xerrors.Errorf("%v: %w", mediaType, ErrNoDecoder)
		}
		decoder = match.Codec()
	}

	err := engine.safeDecode(decoder, reader, contentReceiver)
	if err != nil {
		return xerrors.Errorf("decode err: %w", err)
	}

	return nil
}

// Encode content as mediaType to writer. UNKNOWN picks text for strings, then the
// default encoder, then JSON.
func (engine *SpanEngine) Encode(
	mediaType mimetype.MediaType,
	content interface{},
	writer io.Writer,
) error {
	mediaType = engine.pickEncodeType(mediaType, content)

	match, ok := engine.producers.ForceProducer(mediaType)
	if !ok || match.Fallback {
		return xerrors.Errorf("%v: %w", mediaType, ErrNoEncoder)
	}

	err := engine.safeEncode(match.Codec(), writer, content)
	if err != nil {
		return xerrors.Errorf("encode err: %w", err)
	}
	return nil
}

// Negotiate resolves the encoder and decoder of one exchange.
func (engine *SpanEngine) Negotiate(request negotiation.Request) *Session {
	session := negotiation.NewSession(engine.producers, engine.consumers, request)
	engine.logger.Debug("negotiated", zap.Stringer("session", session))
	return session
}

// EncodeNegotiated encodes content with the producer of session and returns the
// media type to advertise as the Content-Type of the payload.
func (engine *SpanEngine) EncodeNegotiated(
	session *Session, content interface{}, writer io.Writer,
) (mimetype.MediaType, error) {
	match, ok := session.Producer()
	if !ok {
		return mimetype.UNKNOWN, xerrors.Errorf(
			"accept %q: %w", mimetype.FormatRanges(session.AcceptRanges()), ErrNotAcceptable,
		)
	}

	if err := engine.safeEncode(match.Codec(), writer, content); err != nil {
		return mimetype.UNKNOWN, xerrors.Errorf("encode err: %w", err)
	}
	return match.MediaType(), nil
}

// DecodeNegotiated decodes content with the consumer of session. Content with no
// content type and no default decoder falls back to Decode, which may sniff it.
func (engine *SpanEngine) DecodeNegotiated(
	session *Session, contentReceiver interface{}, reader io.Reader,
) error {
	match, ok := session.Consumer()
	if !ok {
		if session.ContentType().IsZero() {
			return engine.Decode(mimetype.UNKNOWN, contentReceiver, reader)
		}
		if readCloser, isCloser := reader.(io.ReadCloser); isCloser {
			_ = readCloser.Close()
		}
		return xerrors.Errorf("%v: %w", session.ContentType(), ErrUnsupportedMediaType)
	}

	if readCloser, isCloser := reader.(io.ReadCloser); isCloser {
		defer func() {
			_ = readCloser.Close()
		}()
	}

	if err := engine.safeDecode(match.Codec(), reader, contentReceiver); err != nil {
		return xerrors.Errorf("decode err: %w", err)
	}
	return nil
}

// Returns the internal codec.JsonHandle used by the json encoder/decoder.
func (engine *SpanEngine) JSONHandle() *codec.JsonHandle {
	return engine.jsonHandle
}

// Returns the internal bsoncodec.BSONRegistry used by the bson encoder/decoder.
func (engine *SpanEngine) BSONRegistry() *bsoncodec.Registry {
	return engine.bsonRegistry
}

// Adds JSON extensions to handle.
func (engine *SpanEngine) AddJSONExtensions(extensions []*JSONExtensionOpts) error {
	for _, extOpts := range extensions {
		err := engine.jsonHandle.SetInterfaceExt(
			extOpts.ValueType, 1, extOpts.ExtInterface,
		)
		if err != nil {
			return xerrors.Errorf(
				"error adding json extension to content engine: %w", err,
			)
		}
	}
	return nil
}

// Adds BSON codecs to engine for use when encoding/decoding bson data. The registry
// is rebuilt with every codec added so far.
func (engine *SpanEngine) AddBSONCodecs(codecs []*BsonCodecOpts) error {
	engine.bsonCodecs = append(engine.bsonCodecs, codecs...)

	registry := bson.NewRegistry()
	for _, codecOpts := range engine.bsonCodecs {
		registry.RegisterTypeEncoder(codecOpts.ValueType, codecOpts.Codec)
		registry.RegisterTypeDecoder(codecOpts.ValueType, codecOpts.Codec)
	}
	engine.bsonRegistry = registry

	// Now redeclare the json extension for bson raw with this registry so it has access
	// to any additional codecs
	err := engine.jsonHandle.SetInterfaceExt(
		reflect.TypeOf(bson.Raw{}),
		1,
		&jsonExtBsonRaw{engine.bsonRegistry},
	)
	if err != nil {
		return xerrors.Errorf("error adding bson raw json extension: %w", err)
	}

	return nil
}

// A default codec and the media types it declares on both registries.
type defaultCodec struct {
	name     string
	encoder  Encoder
	decoder  Decoder
	declared []string
}

func defaultCodecs() ([]defaultCodec, error) {
	cborCodec, err := newCborCodec()
	if err != nil {
		return nil, err
	}

	return []defaultCodec{
		{
			name:     "json",
			encoder:  &jsonEncoder{},
			decoder:  &jsonEncoder{},
			declared: []string{"application/json", "text/json;q=0.9"},
		},
		{
			name:     "bson",
			encoder:  &bsonEncoder{},
			decoder:  &bsonEncoder{},
			declared: []string{"application/bson"},
		},
		{
			name:    "yaml",
			encoder: &yamlEncoder{},
			decoder: &yamlEncoder{},
			declared: []string{
				"application/yaml", "application/x-yaml;q=0.9", "text/yaml;q=0.8",
			},
		},
		{
			name:     "cbor",
			encoder:  cborCodec,
			decoder:  cborCodec,
			declared: []string{"application/cbor"},
		},
		{
			name:     "protobuf",
			encoder:  newProtoCodec(),
			decoder:  newProtoCodec(),
			declared: []string{"application/x-protobuf", "application/protobuf;q=0.9"},
		},
		{
			name:     "text",
			encoder:  textCodec{},
			decoder:  textCodec{},
			declared: []string{"text/plain"},
		},
	}, nil
}

// NewContentEngine creates a new SpanEngine with the default codecs registered.
// allowSniff sets whether content of unknown media type is sniffed.
func NewContentEngine(allowSniff bool, opts ...Option) (*SpanEngine, error) {
	config := engineOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&config)
	}

	logger := config.logger.Named("encoding")
	engine := &SpanEngine{
		producers: negotiation.NewRegistry[Encoder](
			"producers", negotiation.WithLogger(logger),
		),
		consumers: negotiation.NewRegistry[Decoder](
			"consumers", negotiation.WithLogger(logger),
		),
		sniffMimeType: allowSniff,
		logger:        logger,
		jsonHandle:    &codec.JsonHandle{},
		bsonCodecs:    nil,
		passedEngine:  nil,
	}

	codecs, err := defaultCodecs()
	if err != nil {
		return nil, err
	}
	for _, defaultCodec := range codecs {
		err := engine.RegisterEncoder(
			defaultCodec.name, defaultCodec.encoder, defaultCodec.declared...,
		)
		if err != nil {
			return nil, err
		}
		err = engine.RegisterDecoder(
			defaultCodec.name, defaultCodec.decoder, defaultCodec.declared...,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := engine.AddJSONExtensions(defaultJSONExtensions); err != nil {
		return nil, err
	}
	if err := engine.AddBSONCodecs(defaultBsonCodecs); err != nil {
		return nil, err
	}

	if !config.defaultProducer.IsZero() {
		if err := engine.SetDefaultEncoder(config.defaultProducer); err != nil {
			return nil, err
		}
	}
	if !config.defaultConsumer.IsZero() {
		if err := engine.SetDefaultDecoder(config.defaultConsumer); err != nil {
			return nil, err
		}
	}

	return engine, nil
}
