package spanerrors

import (
	"fmt"
	"runtime/debug"
	"strconv"

	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap/zapcore"
	"golang.org/x/xerrors"
)

/*
Used to define a TYPE of error that CAN be returned by a service, as opposed to an
error instance that WAS returned.

Each SpanErrorType for a given ecosystem should have a unique Name and APICode.

Codes 1000-1999 are reserved for the default error definitions of this package.

Since types are declared as pointers, to protect against accidental mutation of the
error type by other packages, the underlying fields of this struct are private and
accessed through functions. Define new error types using NewSpanErrorType()
*/
type SpanErrorType struct {
	// Unique human-readable name of the error type for the API ecosystem.
	name string

	// Unique number to identify the error type in the API ecosystem.
	apiCode int

	// HTTP code that should be returned when this error type is returned. Set to -1
	// if the http error is determined dynamically.
	httpCode int
}

// NewSpanErrorType declares an error type. Declare each type once, in a package every
// service shares, so names and codes agree across the ecosystem.
func NewSpanErrorType(name string, apiCode int, httpCode int) *SpanErrorType {
	return &SpanErrorType{
		name:     name,
		apiCode:  apiCode,
		httpCode: httpCode,
	}
}

// Returns a new span error to be returned by the route handler or panicked.
func (errorType *SpanErrorType) New(
	message string,
	errorData map[string]interface{},
	source error,
) *SpanError {
	spanError := SpanError{
		SpanErrorType: errorType,
		Message:       message,
		ID:            uuid.NewV4(),
		ErrorData:     errorData,
		sourceErr:     source,
		sourceStack:   debug.Stack(),
		frame:         xerrors.Caller(1),
	}
	return &spanError
}

/*
Creates a new error that is immediately passed to a panic. Expected to be recovered
by the spanhttp recovery middleware. Allows span errors to be raised from anywhere
inside a route handler without passing them up a chain of nested function returns.
*/
func (errorType *SpanErrorType) Panic(
	message string,
	errorData map[string]interface{},
	source error,
) {
	spanError := errorType.New(message, errorData, source)
	panic(spanError)
}

// Unique human-readable name of the error type for the API ecosystem.
func (errorType *SpanErrorType) Name() string {
	return errorType.name
}

// Unique number to identify the error type in the API ecosystem.
func (errorType *SpanErrorType) ApiCode() int {
	return errorType.apiCode
}

// HTTP code that should be returned when this error type is returned. Set to -1
// if the http error is determined dynamically.
func (errorType *SpanErrorType) HttpCode() int {
	return errorType.httpCode
}

// Returns a copy of the error type with the given http code replaced.
func (errorType *SpanErrorType) WithHttpCode(newHttpCode int) *SpanErrorType {
	return &SpanErrorType{
		name:     errorType.name,
		apiCode:  errorType.apiCode,
		httpCode: newHttpCode,
	}
}

// Allows the error type definition itself to also be a valid error for things like
// testing error equality.
func (errorType *SpanErrorType) Error() string {
	return errorType.name +
		" (" + strconv.Itoa(errorType.apiCode) + ")"
}

// Used to return a specific error instance.
type SpanError struct {
	// The type of error we are returning.
	*SpanErrorType

	// A message detailing what caused the error.
	Message string

	// An id for the error being returned.
	ID uuid.UUID

	// A string / any mapping of data related to the error.
	ErrorData map[string]interface{}

	// If this error was returned because of another error, the original error is stored
	// here.
	sourceErr error

	// The debug.Stack() from where this error was instantiated.
	sourceStack []byte

	// The xerrors.Frame from where this error was instantiated.
	frame xerrors.Frame
}

// Returns true if the underlying type of this error is the same as errorType. Some
// errors may have multiple http codes possible, se we can't just compare ErrorType
// field equality directly.
func (spanError *SpanError) IsType(errorType *SpanErrorType) bool {
	return spanError.SpanErrorType.Error() == errorType.Error()
}

// Is lets xerrors.Is match a span error against its type definition.
func (spanError *SpanError) Is(target error) bool {
	errorType, ok := target.(*SpanErrorType)
	if !ok {
		return false
	}
	return spanError.IsType(errorType)
}

// Error string to conform to builtin error interface.
func (spanError *SpanError) Error() string {
	return spanError.SpanErrorType.Error() + " - " + spanError.Message
}

// Implements xerrors.Wrapper.
func (spanError *SpanError) Unwrap() error {
	return spanError.sourceErr
}

// Implements xerrors.Formatter so "%+v" prints the frame the error was created at.
func (spanError *SpanError) Format(state fmt.State, verb rune) {
	xerrors.FormatError(spanError, state, verb)
}

func (spanError *SpanError) FormatError(printer xerrors.Printer) error {
	printer.Print(spanError.Error())
	spanError.frame.Format(printer)
	return spanError.sourceErr
}

// More verbose error message that includes a debug.Stack() and source error
// information. This is not part of the Error(), Message, or ErrorData by default since
// it may contain sensitive information that is not desirable to return to the client.
func (spanError *SpanError) LogMessage() string {
	loggerMessage := fmt.Sprint(
		"\nMESSAGE: ",
		spanError.Error(),
		"\nORIGINAL: ",
		spanError.sourceErr,
		"\nPANIC STACK:\n",
		string(spanError.sourceStack),
	)
	return loggerMessage
}

// MarshalLogObject lets the error be logged with zap.Object. The stack is left out;
// use LogMessage when it is needed.
func (spanError *SpanError) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("name", spanError.name)
	encoder.AddInt("code", spanError.apiCode)
	encoder.AddString("id", spanError.ID.String())
	encoder.AddString("message", spanError.Message)
	if spanError.sourceErr != nil {
		encoder.AddString("source", spanError.sourceErr.Error())
	}
	return nil
}

/*
FromError converts any error into a span error. If err already is (or wraps) a
SpanError, that error is returned. Otherwise a new error of fallback type is made with
err as its source.
*/
func FromError(err error, fallback *SpanErrorType) *SpanError {
	var spanError *SpanError
	if xerrors.As(err, &spanError) {
		return spanError
	}
	return fallback.New(err.Error(), nil, err)
}
