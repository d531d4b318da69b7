package encoding

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Handles encoding to / decoding from cbor. Encoding is canonical (RFC 8949 core
// deterministic), so equal content always yields equal bytes.
type cborEncoder struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

func newCborCodec() (*cborEncoder, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	decMode, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return &cborEncoder{encMode: encMode, decMode: decMode}, nil
}

func (encoder *cborEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	return encoder.encMode.NewEncoder(writer).Encode(content)
}

func (encoder *cborEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	return encoder.decMode.NewDecoder(reader).Decode(contentReceiver)
}
