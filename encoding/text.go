package encoding

import (
	stdencoding "encoding"
	"fmt"
	"io"

	"golang.org/x/xerrors"
)

// ErrTextReceiver is returned when text/plain content is decoded into a receiver that
// cannot hold text.
var ErrTextReceiver = xerrors.New("receiver cannot hold text")

/*
Handles text/plain. Strings, byte slices and fmt.Stringer values are written as they
are, encoding.TextMarshaler values through MarshalText, anything else with
fmt.Sprint. Text is read into *string, *[]byte, *interface{} (as a string) or an
encoding.TextUnmarshaler.
*/
type textCodec struct{}

func (codec textCodec) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	var text []byte

	switch typed := content.(type) {
	case string:
		text = []byte(typed)
	case *string:
		if typed != nil {
			text = []byte(*typed)
		}
	case []byte:
		text = typed
	case stdencoding.TextMarshaler:
		marshalled, err := typed.MarshalText()
		if err != nil {
			return xerrors.Errorf("error marshalling %T to text: %w", content, err)
		}
		text = marshalled
	case fmt.Stringer:
		text = []byte(typed.String())
	default:
		text = []byte(fmt.Sprint(content))
	}

	_, err := writer.Write(text)
	return err
}

func (codec textCodec) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	switch contentReceiver.(type) {
	case *string, *[]byte, *interface{}, stdencoding.TextUnmarshaler:
	default:
		return xerrors.Errorf("%T: %w", contentReceiver, ErrTextReceiver)
	}

	text, err := io.ReadAll(reader)
	if err != nil {
		return xerrors.Errorf("error reading text: %w", err)
	}

	switch receiver := contentReceiver.(type) {
	case *string:
		*receiver = string(text)
	case *[]byte:
		*receiver = text
	case *interface{}:
		*receiver = string(text)
	case stdencoding.TextUnmarshaler:
		return receiver.UnmarshalText(text)
	}
	return nil
}
