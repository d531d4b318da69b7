/*
Package spanerrors defines the errors spanmarshal services raise and the way they
travel between a server and its clients.

Two types carry the model:

• SpanErrorType names a kind of error: a name, an api code shared by every service and
the http status it is answered with.

• SpanError is one occurrence of a SpanErrorType, with a message, a unique ID, optional
data and the error that caused it.

# Headers

SpanError.ToHeader writes an error into the error-name, error-code, error-message,
error-id and error-data headers of a response. error-data is encoded with the engine
the response was written with. ErrorFromHeaders reads the error back on the client,
looking its type up by api code.

# Wrapping

FromError returns the first SpanError in an error chain, wrapping anything else in a
fallback type. SpanError also implements zapcore.ObjectMarshaler, so handlers log it
with zap.Object.

# Default SpanErrorType Variables

ErrorList holds every type defined here, from APIError (1000) through NotFoundError
(1009). NotAcceptableError and UnsupportedMediaTypeError answer requests the engine
found no codec for.
*/
package spanerrors
