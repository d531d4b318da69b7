package encoding

import (
	"bufio"
	"bytes"
	"io"
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"golang.org/x/xerrors"
)

// BsonListSepString is a delimiter for top-level bson lists, which bson does not not
// normally support. When multiple documents are being sent in a single payload, the
// unicode SYMBOL FOR RECORD SEPARATOR is used.
// (http://fileformat.info/info/unicode/char/241e/index.htm)
const BsonListSepString = "\u241E"

// BsonListSepBytes is a byte representation of BsonListSepString.
var BsonListSepBytes = []byte(BsonListSepString)

// split function used to separate the bson records.
func splitBsonFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {

	// Return nothing if at end of file and no data passed
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// Find the index of a separator
	if i := bytes.Index(data, BsonListSepBytes); i >= 0 {
		return i + len(BsonListSepBytes), data[0:i], nil
	}

	// If at end of file with data return the data
	if atEOF {
		return len(data), data, nil
	}

	return advance, token, err
}

// BsonCodecOpts holds options for registering new BSON codecs with SpanEngine.
type BsonCodecOpts struct {
	// Type this codec handles encoding / decoding to.
	ValueType reflect.Type

	// Codec to register for this type.
	Codec bsoncodec.ValueCodec
}

var defaultBsonCodecs = []*BsonCodecOpts{
	{
		ValueType: reflect.TypeOf(uuid.UUID{}),
		Codec:     bsonCodecUUID{},
	},
	{
		ValueType: reflect.TypeOf(spantypes.BinData{}),
		Codec:     bsonCodecBinData{},
	},
}

// Engines handing their BSON registry to the bson encoder.
type bsonRegistrar interface {
	BSONRegistry() *bsoncodec.Registry
}

// CODECS

// bsonCodecUUID Handles encoding and decoding of UUID to and from bson.
type bsonCodecUUID struct{}

// Encodes uuid value to bson.
func (codec bsonCodecUUID) EncodeValue(
	encodeCTX bsoncodec.EncodeContext,
	valueWriter bsonrw.ValueWriter,
	value reflect.Value,
) error {
	valueUUID, ok := value.Interface().(uuid.UUID)
	if !ok {
		return bsoncodec.ValueEncoderError{
			Name:     "UUIDEncodeValue",
			Types:    []reflect.Type{reflect.TypeOf(uuid.UUID{})},
			Received: value,
		}
	}
	return valueWriter.WriteBinaryWithSubtype(valueUUID.Bytes(), 0x3)
}

// Decodes uuid value from bson.
func (codec bsonCodecUUID) DecodeValue(
	decodeCTX bsoncodec.DecodeContext,
	valueReader bsonrw.ValueReader,
	value reflect.Value,
) error {
	bytesUUID, _, err := valueReader.ReadBinary()
	if err != nil {
		return err
	}

	uuidVal, err := uuid.FromBytes(bytesUUID)
	if err != nil {
		return err
	}

	value.Set(reflect.ValueOf(uuidVal))

	return nil
}

// bsonCodecBinData handles BinData as a generic (0x0) bson binary.
type bsonCodecBinData struct{}

func (codec bsonCodecBinData) EncodeValue(
	encodeCTX bsoncodec.EncodeContext,
	valueWriter bsonrw.ValueWriter,
	value reflect.Value,
) error {
	if value.IsNil() {
		return valueWriter.WriteNull()
	}
	return valueWriter.WriteBinaryWithSubtype(value.Bytes(), 0x0)
}

func (codec bsonCodecBinData) DecodeValue(
	decodeCTX bsoncodec.DecodeContext,
	valueReader bsonrw.ValueReader,
	value reflect.Value,
) error {
	if valueReader.Type() == bsontype.Null {
		value.SetBytes(nil)
		return valueReader.ReadNull()
	}

	data, subtype, err := valueReader.ReadBinary()
	if err != nil {
		return err
	}
	if subtype != 0x0 {
		return xerrors.Errorf("cannot decode binary subtype %#x to BinData", subtype)
	}

	value.SetBytes(data)
	return nil
}

// BSON Encoder for writing BSON Data to content.
type bsonEncoder struct{}

func (encoder *bsonEncoder) registry(engine ContentEngine) (*bsoncodec.Registry, error) {
	registrar, ok := engine.(bsonRegistrar)
	if !ok {
		return nil, xerrors.Errorf("engine %T does not expose a BSON registry", engine)
	}
	return registrar.BSONRegistry(), nil
}

func (encoder *bsonEncoder) encodeSingle(
	registry *bsoncodec.Registry, writer io.Writer, content interface{},
) error {
	var bodyBSON bson.Raw

	switch incomingRaw := content.(type) {
	case *bson.Raw:
		bodyBSON = *incomingRaw
	case bson.Raw:
		bodyBSON = incomingRaw
	default:
		marshalled, err := bson.MarshalWithRegistry(registry, content)
		if err != nil {
			return err
		}
		bodyBSON = marshalled
	}

	_, err := writer.Write(bodyBSON)
	return err
}

// Used to encode multiple bson objects to s single payload.
func (encoder *bsonEncoder) encodeMany(
	registry *bsoncodec.Registry, writer io.Writer, content reflect.Value,
) error {
	// We need to know when we are on the final index so if we hit the last item we
	// know that we don't need to write the separator.
	finalIndex := content.Len() - 1

	for arrayIndex := 0; arrayIndex <= finalIndex; arrayIndex++ {
		listValue := content.Index(arrayIndex)

		err := encoder.encodeSingle(registry, writer, listValue.Interface())
		if err != nil {
			return err
		}

		if arrayIndex != finalIndex {
			_, err = writer.Write(BsonListSepBytes)
			if err != nil {
				return xerrors.Errorf(
					"error writing document separator: %w", err,
				)
			}
		}
	}
	return nil
}

// Detects whether content to encode is a sequence (array or slice). bson.Raw is a
// byte slice but a single document.
func (encoder *bsonEncoder) isSequence(value reflect.Value) bool {
	if value.Type() == reflect.TypeOf(bson.Raw{}) {
		return false
	}
	return value.Kind() == reflect.Slice || value.Kind() == reflect.Array
}

// Encodes bson content
func (encoder *bsonEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	registry, err := encoder.registry(engine)
	if err != nil {
		return err
	}

	contentValue := reflect.Indirect(reflect.ValueOf(content))
	if contentValue.IsValid() && encoder.isSequence(contentValue) {
		return encoder.encodeMany(registry, writer, contentValue)
	}
	return encoder.encodeSingle(registry, writer, content)
}

// Decodes a single bson document
func (encoder *bsonEncoder) decodeSingle(
	registry *bsoncodec.Registry, reader io.Reader, contentReceiver interface{},
) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	// Validate before unmarshalling so a bogus length prefix is rejected up front.
	document := bson.Raw(data)
	if err := document.Validate(); err != nil {
		return err
	}

	return bson.UnmarshalWithRegistry(registry, document, contentReceiver)
}

// Decodes multiple bson elements.
func (encoder *bsonEncoder) decodeMany(
	registry *bsoncodec.Registry, reader io.Reader, contentReceiver interface{},
) error {
	slicePointer := reflect.ValueOf(contentReceiver)
	if slicePointer.Kind() != reflect.Ptr {
		return xerrors.New("slice receiver must be pointer")
	}
	sliceValue := slicePointer.Elem()

	elementType := sliceValue.Type().Elem()
	docScanner := bufio.NewScanner(reader)
	docScanner.Split(splitBsonFunc)

	for docScanner.Scan() {
		docBuff := bytes.NewBuffer(docScanner.Bytes())
		newElement := reflect.New(elementType)

		err := encoder.decodeSingle(registry, docBuff, newElement.Interface())
		if err != nil {
			return err
		}

		sliceValue.Set(reflect.Append(sliceValue, newElement.Elem()))
	}

	return docScanner.Err()
}

// Decode bson content
func (encoder *bsonEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	registry, err := encoder.registry(engine)
	if err != nil {
		return err
	}

	receiverValue := reflect.Indirect(reflect.ValueOf(contentReceiver))
	if receiverValue.IsValid() && encoder.isSequence(receiverValue) {
		return encoder.decodeMany(registry, reader, contentReceiver)
	}
	return encoder.decodeSingle(registry, reader, contentReceiver)
}
