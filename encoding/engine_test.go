package encoding_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"io"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/negotiation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

type Name struct {
	First string
	Last  string
}

var csv = mimetype.MustParse("text/csv")

type PanickyEncoder struct{}

func (encoder *PanickyEncoder) Encode(
	handler encoding.ContentEngine, writer io.Writer, content interface{},
) error {
	panic(xerrors.New("encode panicked"))
}

func (encoder *PanickyEncoder) Decode(
	handler encoding.ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	panic(xerrors.New("decode panicked"))
}

func createEngine(test *testing.T) *encoding.SpanEngine {
	engine, err := encoding.NewContentEngine(true)
	require.NoError(test, err)
	return engine
}

func TestCreateEngineDefault(test *testing.T) {
	assert := assert.New(test)

	engine, err := encoding.NewContentEngine(false)

	assert.Nil(err)
	assert.NotNil(engine)

	assert.NotNil(engine.JSONHandle())
	assert.NotNil(engine.BSONRegistry())

	// Test that all the defaults registered appropriately.
	assert.True(engine.Handles(mimetype.JSON))
	assert.True(engine.Handles(mimetype.BSON))
	assert.True(engine.Handles(mimetype.YAML))
	assert.True(engine.Handles(mimetype.CBOR))
	assert.True(engine.Handles(mimetype.PROTOBUF))
	assert.True(engine.Handles(mimetype.TEXT))
	assert.True(engine.Handles(mimetype.MustParse("text/yaml")))
	assert.True(engine.HandlesDecode(mimetype.MustParse("text/plain; charset=utf-8")))

	assert.False(engine.Handles(csv))
	assert.False(engine.Handles(mimetype.UNKNOWN))

	assert.False(engine.SniffType())

	names := make([]string, 0)
	for _, descriptor := range engine.Producers() {
		names = append(names, descriptor.Name())
	}
	assert.Equal([]string{"json", "bson", "yaml", "cbor", "protobuf", "text"}, names)
	assert.Len(engine.Consumers(), 6)
}

// Generic function for round-tripping a basic name object for a given media type
func roundTripName(
	test *testing.T, encodeType mimetype.MediaType, decodeType mimetype.MediaType,
) {
	engine := createEngine(test)

	testName := Name{
		First: "Harry",
		Last:  "Potter",
	}

	buffer := bytes.Buffer{}

	err := engine.Encode(encodeType, testName, &buffer)
	require.NoError(test, err)

	loaded := Name{}
	err = engine.Decode(decodeType, &loaded, &buffer)
	require.NoError(test, err)

	assert.Equal(test, testName, loaded)
}

func TestRoundTrips(test *testing.T) {
	cases := []struct {
		name   string
		encode mimetype.MediaType
		decode mimetype.MediaType
	}{
		{"json", mimetype.JSON, mimetype.JSON},
		{"bson", mimetype.BSON, mimetype.BSON},
		{"yaml", mimetype.YAML, mimetype.YAML},
		{"cbor", mimetype.CBOR, mimetype.CBOR},
		{"unknown", mimetype.UNKNOWN, mimetype.UNKNOWN},
		{"json sniffed", mimetype.JSON, mimetype.UNKNOWN},
		{"bson sniffed", mimetype.BSON, mimetype.UNKNOWN},
		{"yaml sniffed", mimetype.YAML, mimetype.UNKNOWN},
		{"text/json", mimetype.MustParse("text/json"), mimetype.JSON},
		{"x-yaml", mimetype.MustParse("application/x-yaml"), mimetype.MustParse("text/yaml")},
		{"json charset", mimetype.JSON, mimetype.MustParse("application/json; charset=utf-8")},
	}

	for _, thisCase := range cases {
		test.Run(thisCase.name, func(test *testing.T) {
			roundTripName(test, thisCase.encode, thisCase.decode)
		})
	}
}

func TestTextRoundTrip(test *testing.T) {
	engine, err := encoding.NewContentEngine(false)
	require.NoError(test, err)

	stringPayload := "Test String."
	buffer := bytes.Buffer{}

	err = engine.Encode(mimetype.TEXT, stringPayload, &buffer)
	require.NoError(test, err)

	loaded := ""
	err = engine.Decode(mimetype.TEXT, &loaded, &buffer)
	require.NoError(test, err)

	assert.Equal(test, stringPayload, loaded)
}

func TestTextRoundUnknown(test *testing.T) {
	assert := assert.New(test)
	engine, err := encoding.NewContentEngine(false)
	require.NoError(test, err)

	stringPayload := "Test String."
	buffer := bytes.Buffer{}

	err = engine.Encode(mimetype.UNKNOWN, &stringPayload, &buffer)
	assert.NoError(err)
	assert.Equal(stringPayload, buffer.String())

	// No sniffing needed for string receivers.
	loaded := ""
	err = engine.Decode(mimetype.UNKNOWN, &loaded, &buffer)
	assert.NoError(err)
	assert.Equal(stringPayload, loaded)
}

func TestNoDecoderError(test *testing.T) {
	engine := createEngine(test)
	buffer := &bytes.Buffer{}
	receiver := make(map[string]interface{})

	err := engine.Decode(csv, &receiver, buffer)

	assert.ErrorIs(test, err, encoding.ErrNoDecoder)
	assert.EqualError(test, err, "text/csv: no decoder")
}

func TestNoEncoderError(test *testing.T) {
	engine := createEngine(test)
	buffer := &bytes.Buffer{}
	data := make(map[string]interface{})

	err := engine.Encode(csv, data, buffer)

	assert.ErrorIs(test, err, encoding.ErrNoEncoder)
	assert.EqualError(test, err, "text/csv: no encoder")
}

func TestEncodePanicsError(test *testing.T) {
	engine := createEngine(test)
	buffer := &bytes.Buffer{}

	require.NoError(test, engine.SetEncoder(csv, &PanickyEncoder{}))

	data := make(map[string]interface{})
	err := engine.Encode(csv, data, buffer)

	assert.EqualError(
		test, err, "encode err: panic during encode: encode panicked",
	)
}

func TestDecoderPanicsError(test *testing.T) {
	engine := createEngine(test)
	buffer := &bytes.Buffer{}

	require.NoError(test, engine.SetDecoder(csv, &PanickyEncoder{}))

	data := make(map[string]interface{})
	err := engine.Decode(csv, data, buffer)

	assert.EqualError(
		test, err, "decode err: panic during decode: decode panicked",
	)
}

func TestNoSniffError(test *testing.T) {
	engine, err := encoding.NewContentEngine(false)
	require.NoError(test, err)

	buffer := &bytes.Buffer{}
	receiver := make(map[string]interface{})

	err = engine.Decode(mimetype.UNKNOWN, &receiver, buffer)
	assert.ErrorIs(test, err, encoding.ErrSniffDisabled)
	assert.EqualError(
		test, err, "mimetype is unknown and sniffing is disabled",
	)
}

func TestSniffFailsError(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)
	buffer := &bytes.Buffer{}

	type TestData struct {
		SubData string
	}

	data := map[string]interface{}{
		"SubData": map[string]interface{}{"Field": 10},
	}

	err := engine.Encode(mimetype.JSON, data, buffer)
	require.NoError(test, err)

	receiver := &TestData{}

	err = engine.Decode(mimetype.UNKNOWN, receiver, buffer)
	assert.ErrorIs(err, encoding.ErrSniffFailed)
	assert.Contains(
		err.Error(),
		"text: *encoding_test.TestData: receiver cannot hold text",
	)
	assert.Contains(err.Error(), "json: ")
	assert.Contains(err.Error(), "protobuf: ")
}

type failingReader struct{}

func (reader failingReader) Read(p []byte) (int, error) {
	return 0, xerrors.New("mock reader error")
}

func TestSniffErrorReadingBytes(test *testing.T) {
	engine := createEngine(test)
	receiver := make(map[string]interface{})

	err := engine.Decode(mimetype.UNKNOWN, &receiver, failingReader{})
	assert.EqualError(
		test, err, "error reading contentBytes: mock reader error",
	)
}

type TestCloser struct {
	Buffer *bytes.Buffer
	Closed bool
}

func (closer *TestCloser) Read(p []byte) (n int, err error) {
	return closer.Buffer.Read(p)
}

func (closer *TestCloser) Close() error {
	closer.Closed = true
	return nil
}

func TestClosesReader(test *testing.T) {
	assert := assert.New(test)

	engine := createEngine(test)
	buffer := &bytes.Buffer{}

	name := &Name{
		First: "Harry",
		Last:  "Potter",
	}

	err := engine.Encode(mimetype.JSON, name, buffer)
	require.NoError(test, err)

	closer := &TestCloser{
		Buffer: buffer,
	}

	assert.False(closer.Closed)

	loaded := &Name{}
	err = engine.Decode(mimetype.JSON, loaded, closer)
	assert.NoError(err)

	assert.True(closer.Closed)
	assert.Equal(name, loaded)
}

// Custom Engine and encoder we are going to use in the next test
type CustomEngine struct {
	*encoding.SpanEngine
	AppName string
}

type CustomTextEncoder struct{}

func (encoder CustomTextEncoder) Encode(
	engine encoding.ContentEngine, writer io.Writer, content interface{},
) error {
	// Make a type assert to convert the engine interface passed in to the encoder
	// to our engine type.
	ourEngine := engine.(*CustomEngine)

	// This Encoder is only going to accept strings, so we're going to assert the
	// type here.
	contentString := content.(string)
	contentString = ourEngine.AppName + " says: '" + contentString + "'."

	_, err := writer.Write([]byte(contentString))
	if err != nil {
		return xerrors.Errorf("error writing text to payload: %w", err)
	}
	return nil
}

func TestExtendEngine(test *testing.T) {
	assert := assert.New(test)

	engine, err := encoding.NewContentEngine(false)
	require.NoError(test, err)

	ourEngine := &CustomEngine{
		SpanEngine: engine,
		AppName:    "MyAwesomeApp",
	}
	ourEngine.SetPassedEngine(ourEngine)

	greeting := mimetype.MustParse("text/x-greeting")
	require.NoError(test, ourEngine.SetEncoder(greeting, &CustomTextEncoder{}))

	buffer := new(bytes.Buffer)
	err = ourEngine.Encode(greeting, "some message", buffer)
	require.NoError(test, err)

	assert.Equal("MyAwesomeApp says: 'some message'.", buffer.String())

	// Default codecs keep working through the wrapping engine.
	buffer.Reset()
	assert.NoError(ourEngine.Encode(mimetype.JSON, Name{First: "Harry"}, buffer))
	assert.Contains(buffer.String(), "Harry")
}

func TestRegisterAfterUse(test *testing.T) {
	engine := createEngine(test)
	assert.True(test, engine.Handles(mimetype.JSON))

	err := engine.SetEncoder(csv, &PanickyEncoder{})
	assert.ErrorIs(test, err, negotiation.ErrRegistryFrozen)
	err = engine.RegisterDecoder("csv", &PanickyEncoder{}, "text/csv")
	assert.ErrorIs(test, err, negotiation.ErrRegistryFrozen)
}

func TestRegisterMalformed(test *testing.T) {
	engine := createEngine(test)
	err := engine.RegisterEncoder("bad", &PanickyEncoder{}, "not a media type")
	assert.ErrorIs(test, err, mimetype.ErrMalformed)
}

func TestDefaultProducer(test *testing.T) {
	assert := assert.New(test)

	engine, err := encoding.NewContentEngine(
		false, encoding.WithDefaultProducer(mimetype.YAML),
	)
	require.NoError(test, err)

	buffer := &bytes.Buffer{}
	err = engine.Encode(mimetype.UNKNOWN, Name{First: "Harry", Last: "Potter"}, buffer)
	assert.NoError(err)
	assert.Equal("first: Harry\nlast: Potter\n", buffer.String())

	// The fallback never stands in for an explicit media type.
	err = engine.Encode(csv, Name{}, buffer)
	assert.ErrorIs(err, encoding.ErrNoEncoder)

	session := engine.Negotiate(negotiation.Request{Accept: "text/csv"})
	buffer.Reset()
	mediaType, err := engine.EncodeNegotiated(session, Name{First: "Ron"}, buffer)
	assert.NoError(err)
	assert.Equal("application/yaml", mediaType.String())
	assert.Contains(buffer.String(), "first: Ron")

	descriptor, ok := engine.DefaultEncoder()
	require.True(test, ok)
	assert.Equal("yaml", descriptor.Name())

	_, ok = engine.DefaultDecoder()
	assert.False(ok)
}

func TestDefaultConsumer(test *testing.T) {
	assert := assert.New(test)

	engine, err := encoding.NewContentEngine(
		false, encoding.WithDefaultConsumer(mimetype.JSON),
	)
	require.NoError(test, err)

	loaded := Name{}
	err = engine.Decode(
		mimetype.UNKNOWN, &loaded, bytes.NewBufferString(`{"First":"Harry"}`),
	)
	assert.NoError(err)
	assert.Equal("Harry", loaded.First)
}

func TestDefaultNotDeclared(test *testing.T) {
	_, err := encoding.NewContentEngine(false, encoding.WithDefaultProducer(csv))
	assert.ErrorIs(test, err, encoding.ErrNoEncoder)

	_, err = encoding.NewContentEngine(false, encoding.WithDefaultConsumer(csv))
	assert.ErrorIs(test, err, encoding.ErrNoDecoder)
}

func TestNegotiatedRoundTrip(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	session := engine.Negotiate(negotiation.Request{
		Accept:      "application/json;q=0.5, application/yaml",
		ContentType: "application/json; charset=utf-8",
	})
	assert.Equal("produce=yaml consume=json", session.String())

	loaded := Name{}
	err := engine.DecodeNegotiated(
		session, &loaded, bytes.NewBufferString(`{"First":"Harry","Last":"Potter"}`),
	)
	require.NoError(test, err)
	assert.Equal(Name{First: "Harry", Last: "Potter"}, loaded)

	buffer := &bytes.Buffer{}
	mediaType, err := engine.EncodeNegotiated(session, loaded, buffer)
	require.NoError(test, err)
	assert.True(mediaType.Equal(mimetype.YAML))
	assert.Equal("first: Harry\nlast: Potter\n", buffer.String())
}

func TestNegotiatedWildcardAdvertisesDeclared(test *testing.T) {
	engine := createEngine(test)
	session := engine.Negotiate(negotiation.Request{Accept: "text/*"})

	buffer := &bytes.Buffer{}
	mediaType, err := engine.EncodeNegotiated(session, Name{First: "Harry"}, buffer)
	require.NoError(test, err)
	// text/plain has the highest intrinsic quality of the text/* declarations.
	assert.Equal(test, "text/plain", mediaType.String())
}

func TestNegotiatedNotAcceptable(test *testing.T) {
	engine := createEngine(test)
	session := engine.Negotiate(negotiation.Request{Accept: "text/csv"})

	_, err := engine.EncodeNegotiated(session, Name{}, &bytes.Buffer{})
	assert.ErrorIs(test, err, encoding.ErrNotAcceptable)
}

func TestNegotiatedUnsupported(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)
	session := engine.Negotiate(negotiation.Request{ContentType: "text/csv"})

	closer := &TestCloser{Buffer: bytes.NewBufferString("a,b")}
	err := engine.DecodeNegotiated(session, &Name{}, closer)
	assert.ErrorIs(err, encoding.ErrUnsupportedMediaType)
	assert.True(closer.Closed)
}

func TestNegotiatedSniffsMissingContentType(test *testing.T) {
	engine := createEngine(test)
	session := engine.Negotiate(negotiation.Request{})

	loaded := Name{}
	err := engine.DecodeNegotiated(
		session, &loaded, bytes.NewBufferString(`{"First":"Harry"}`),
	)
	assert.NoError(test, err)
	assert.Equal(test, "Harry", loaded.First)
}

func TestNegotiatedForced(test *testing.T) {
	engine := createEngine(test)
	session := engine.Negotiate(negotiation.Request{
		Accept:           "application/json",
		ForceAccept:      mimetype.CBOR,
		ContentType:      "text/csv",
		ForceContentType: mimetype.JSON,
	})
	assert.Equal(test, "produce=cbor consume=json", session.String())
}
