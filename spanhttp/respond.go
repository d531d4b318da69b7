package spanhttp

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// Non-error panic values recovered from handlers.
type panicValue struct {
	value interface{}
}

func (recovered panicValue) Error() string {
	return fmt.Sprint(recovered.value)
}

// Body written with error responses when a producer was negotiated.
type errorBody struct {
	Name    string                 `json:"name" yaml:"name" bson:"name"`
	Code    int                    `json:"code" yaml:"code" bson:"code"`
	Message string                 `json:"message" yaml:"message" bson:"message"`
	ID      string                 `json:"id" yaml:"id" bson:"id"`
	Data    map[string]interface{} `json:"data,omitempty" yaml:"data,omitempty" bson:"data,omitempty"`
}

// Returns the session stored by the negotiation middleware, or negotiates one for
// requests that never reached it.
func (server *Server) session(request *http.Request) *encoding.Session {
	if session, ok := SessionFrom(request.Context()); ok {
		return session
	}
	return server.engine.Negotiate(NegotiationRequest(request))
}

/*
Write encodes content with the negotiated producer and sends it with status. The
payload is encoded in full before anything is written, so encoding failures are
answered with a ResponseValidationError instead of a truncated body.
*/
func (server *Server) Write(
	writer http.ResponseWriter, request *http.Request, status int, content interface{},
) {
	session := server.session(request)

	buffer := &bytes.Buffer{}
	mediaType, err := server.engine.EncodeNegotiated(session, content, buffer)
	if err != nil {
		if xerrors.Is(err, encoding.ErrNotAcceptable) {
			server.WriteError(writer, request, spanerrors.NotAcceptableError.New(
				err.Error(), nil, err,
			))
			return
		}
		server.WriteError(writer, request, spanerrors.ResponseValidationError.New(
			"error encoding response content", nil, err,
		))
		return
	}

	writer.Header().Set("Content-Type", mediaType.String())
	writer.Header().Set("Content-Length", strconv.Itoa(buffer.Len()))
	writer.WriteHeader(status)
	if _, err := buffer.WriteTo(writer); err != nil {
		server.logger.Warn("error writing response",
			zap.String("request_id", middleware.GetReqID(request.Context())),
			zap.Error(err),
		)
	}
}

// Read decodes the request body into receiver with the negotiated consumer.
func (server *Server) Read(request *http.Request, receiver interface{}) error {
	err := server.engine.DecodeNegotiated(server.session(request), receiver, request.Body)
	if err == nil {
		return nil
	}

	if xerrors.Is(err, encoding.ErrUnsupportedMediaType) {
		return spanerrors.UnsupportedMediaTypeError.New(
			"no decoder for content-type "+server.session(request).ContentType().String(),
			nil,
			err,
		)
	}
	return spanerrors.RequestValidationError.New(
		"error reading request content", nil, err,
	)
}

/*
WriteError sends err as a span error. Errors that are not span errors become an
APIError. Headers always carry the error; a body is added when a producer was
negotiated.
*/
func (server *Server) WriteError(
	writer http.ResponseWriter, request *http.Request, err error,
) {
	spanError := spanerrors.FromError(err, spanerrors.APIError)

	status := spanError.HttpCode()
	if status < 0 {
		status = http.StatusInternalServerError
	}

	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(request.Context())),
		zap.Object("error", spanError),
	}
	if status >= http.StatusInternalServerError {
		server.logger.Error("request failed", fields...)
	} else {
		server.logger.Info("request failed", fields...)
	}

	if err := spanError.ToHeader(writer.Header(), server.engine); err != nil {
		server.logger.Warn("error data could not be written to headers", zap.Error(err))
	}

	body := errorBody{
		Name:    spanError.Name(),
		Code:    spanError.ApiCode(),
		Message: spanError.Message,
		ID:      spanError.ID.String(),
		Data:    spanError.ErrorData,
	}

	buffer := &bytes.Buffer{}
	mediaType, encodeErr := server.engine.EncodeNegotiated(server.session(request), body, buffer)
	if encodeErr != nil {
		writer.WriteHeader(status)
		return
	}

	writer.Header().Set("Content-Type", mediaType.String())
	writer.Header().Set("Content-Length", strconv.Itoa(buffer.Len()))
	writer.WriteHeader(status)
	_, _ = buffer.WriteTo(writer)
}
