package encoding

import (
	"io"

	"golang.org/x/xerrors"
	"google.golang.org/protobuf/proto"
)

// Handles encoding to / decoding from protobuf. Only proto.Message content and
// receivers are supported.
type protoEncoder struct {
	marshal   proto.MarshalOptions
	unmarshal proto.UnmarshalOptions
}

func newProtoCodec() *protoEncoder {
	return &protoEncoder{
		marshal:   proto.MarshalOptions{Deterministic: true},
		unmarshal: proto.UnmarshalOptions{},
	}
}

func (encoder *protoEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	message, ok := content.(proto.Message)
	if !ok {
		return xerrors.Errorf("content does not implement proto.Message: %T", content)
	}

	data, err := encoder.marshal.Marshal(message)
	if err != nil {
		return err
	}

	_, err = writer.Write(data)
	return err
}

func (encoder *protoEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	message, ok := contentReceiver.(proto.Message)
	if !ok {
		return xerrors.Errorf(
			"content receiver does not implement proto.Message: %T", contentReceiver,
		)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	return encoder.unmarshal.Unmarshal(data, message)
}
