package encoding

import (
	"encoding/hex"
	"io"
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"github.com/ugorji/go/codec"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/xerrors"
)

// JSONExtensionOpts holds options For Json Handle extension to add to the handle on
// server setup.
type JSONExtensionOpts struct {
	ValueType    reflect.Type
	ExtInterface codec.InterfaceExt
}

// defaultJSONExtensions holds all the JSONExtensionOpts to add to the JSONHandle on
// server setup
var defaultJSONExtensions = []*JSONExtensionOpts{
	{
		ValueType:    reflect.TypeOf(primitive.Binary{}),
		ExtInterface: &jsonExtBsonBinary{},
	},
	{
		ValueType:    reflect.TypeOf(spantypes.BinData{}),
		ExtInterface: &jsonExtBinData{},
	},
}

// Engines handing their JSON handle to the json encoder.
type jsonHandler interface {
	JSONHandle() *codec.JsonHandle
}

// Converts BSON binary fields to json. Currently supports Binary blobs and UUIDs.
type jsonExtBsonBinary struct{}

func (ext *jsonExtBsonBinary) ConvertExt(value interface{}) interface{} {
	var valueBin primitive.Binary
	switch typed := value.(type) {
	case *primitive.Binary:
		valueBin = *typed
	case primitive.Binary:
		valueBin = typed
	}

	if valueBin.Subtype == 0x3 {
		valueUUID, err := uuid.FromBytes(valueBin.Data)
		if err != nil {
			panic(xerrors.Errorf("Error converting bson uuid: %w", err))
		}
		return valueUUID
	}

	if valueBin.Subtype == 0x0 {
		return hex.EncodeToString(valueBin.Data)
	}

	panic(xerrors.New("unsupported Binary BSON format"))
}

func (ext *jsonExtBsonBinary) UpdateExt(dest interface{}, value interface{}) {
	panic(
		xerrors.New(
			"decoding to bson binary field not supported -- " +
				"use uuid or BinData type as intermediary",
		),
	)
}

// Converts BinData to and from a hex string.
type jsonExtBinData struct{}

func (ext *jsonExtBinData) ConvertExt(value interface{}) interface{} {
	switch typed := value.(type) {
	case *spantypes.BinData:
		return typed.Hex()
	case spantypes.BinData:
		return typed.Hex()
	}
	panic(xerrors.Errorf("error encoding BinData to hex: unexpected %T", value))
}

func (ext *jsonExtBinData) UpdateExt(dest interface{}, value interface{}) {
	encoded, ok := value.(string)
	if !ok {
		panic(xerrors.Errorf("could not decode hex: expected string, got %T", value))
	}

	decoded, err := spantypes.ParseBinData(encoded)
	if err != nil {
		panic(err)
	}

	*dest.(*spantypes.BinData) = decoded
}

// Converts BSON Raw document to json object.
type jsonExtBsonRaw struct {
	bsonRegistry *bsoncodec.Registry
}

func (ext *jsonExtBsonRaw) ConvertExt(value interface{}) interface{} {
	var valueRaw bson.Raw
	switch typed := value.(type) {
	case *bson.Raw:
		valueRaw = *typed
	case bson.Raw:
		valueRaw = typed
	}

	unmarshaled := make(map[string]interface{})

	if len(valueRaw) > 0 {
		err := bson.UnmarshalWithRegistry(
			ext.bsonRegistry, valueRaw, &unmarshaled,
		)
		if err != nil {
			panic(xerrors.Errorf(
				"error while unmarshalling bson for encoding: %w", err,
			))
		}
	}

	return unmarshaled
}

func (ext *jsonExtBsonRaw) UpdateExt(dest interface{}, value interface{}) {
	panic(xerrors.New("Decoding to BSON raw field not supported"))
}

// default JSON encoder for SpanEngine.
type jsonEncoder struct{}

func (encoder *jsonEncoder) handle(engine ContentEngine) (*codec.JsonHandle, error) {
	handler, ok := engine.(jsonHandler)
	if !ok {
		return nil, xerrors.Errorf("engine %T does not expose a JSON handle", engine)
	}
	return handler.JSONHandle(), nil
}

func (encoder *jsonEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	handle, err := encoder.handle(engine)
	if err != nil {
		return err
	}
	jsonEncoder := codec.NewEncoder(writer, handle)
	return jsonEncoder.Encode(content)
}

func (encoder *jsonEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	handle, err := encoder.handle(engine)
	if err != nil {
		return err
	}
	jsonDecoder := codec.NewDecoder(reader, handle)
	return jsonDecoder.Decode(contentReceiver)
}
