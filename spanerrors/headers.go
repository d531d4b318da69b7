package spanerrors

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"
)

// Response headers a span error travels in.
const (
	HeaderName    = "error-name"
	HeaderCode    = "error-code"
	HeaderMessage = "error-message"
	HeaderID      = "error-id"
	HeaderData    = "error-data"
)

var (
	// ErrNoErrorHeaders is returned by ErrorFromHeaders when the headers carry no
	// error code.
	ErrNoErrorHeaders = xerrors.New("no error in headers")

	// ErrMalformedHeaders is wrapped by ErrorFromHeaders when the headers carry an
	// error that cannot be loaded.
	ErrMalformedHeaders = xerrors.New("malformed error headers")
)

type headerSetter interface {
	Set(key string, value string)
}

type headerFetcher interface {
	Get(key string) string
}

func malformed(format string, args ...interface{}) error {
	return xerrors.Errorf(format+": %w", append(args, ErrMalformedHeaders)...)
}

// ToHeader writes the error to setter, usually an http.Header. Error data is encoded
// as JSON with dataEngine and left out when there is none.
func (spanError *SpanError) ToHeader(
	setter headerSetter, dataEngine encoding.ContentEngine,
) error {
	setter.Set(HeaderName, spanError.name)
	setter.Set(HeaderCode, strconv.Itoa(spanError.apiCode))
	setter.Set(HeaderMessage, spanError.Message)
	setter.Set(HeaderID, spanError.ID.String())

	if spanError.ErrorData == nil {
		return nil
	}

	encoded := &bytes.Buffer{}
	if err := dataEngine.Encode(mimetype.JSON, spanError.ErrorData, encoded); err != nil {
		return err
	}
	setter.Set(HeaderData, encoded.String())
	return nil
}

/*
ErrorFromHeaders loads the span error written by ToHeader, looking its type up in
typeIndex by api code.

hasError reports whether the headers carry an error code at all. Headers without one
return ErrNoErrorHeaders, as do headers whose code is not a number. Headers with a
code that cannot be loaded return hasError true and an error wrapping
ErrMalformedHeaders.
*/
func ErrorFromHeaders(
	headers headerFetcher,
	dataEngine encoding.ContentEngine,
	typeIndex map[int]*SpanErrorType,
) (spanError *SpanError, hasError bool, err error) {
	codeValue := headers.Get(HeaderCode)
	if codeValue == "" {
		return nil, false, ErrNoErrorHeaders
	}

	code, err := strconv.Atoi(codeValue)
	if err != nil {
		return nil, false, xerrors.Errorf(
			"error-code %q is not an int: %w", codeValue, ErrNoErrorHeaders,
		)
	}

	if typeIndex == nil {
		return nil, true, xerrors.New("no error type index given")
	}

	errorType, ok := typeIndex[code]
	if !ok {
		return nil, true, malformed("no error type with code %d", code)
	}

	if name := headers.Get(HeaderName); name != "" && name != errorType.Name() {
		return nil, true, malformed("error-name %q does not match %v", name, errorType)
	}

	errorID, err := uuid.FromString(headers.Get(HeaderID))
	if err != nil {
		return nil, true, malformed("error-id is not a uuid")
	}

	errorData := make(map[string]interface{})
	if encoded := headers.Get(HeaderData); encoded != "" {
		err := dataEngine.Decode(mimetype.JSON, &errorData, strings.NewReader(encoded))
		if err != nil {
			return nil, true, malformed("error-data is not a JSON object")
		}
	}

	spanError = errorType.New(headers.Get(HeaderMessage), errorData, nil)
	spanError.ID = errorID
	return spanError, true, nil
}
