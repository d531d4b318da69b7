package spanhttp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/negotiation"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"go.uber.org/zap"
)

// Query parameters that replace the negotiation headers.
const (
	AcceptParam      = "accept"
	ContentTypeParam = "content-type"
)

type sessionKey struct{}

// SessionFrom returns the negotiation session of a request context.
func SessionFrom(ctx context.Context) (*encoding.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*encoding.Session)
	return session, ok
}

// NegotiationRequest reads the negotiation inputs of request. Query overrides that
// do not resolve to a media type are ignored.
func NegotiationRequest(request *http.Request) negotiation.Request {
	negotiationRequest := negotiation.Request{
		Accept:      request.Header.Get("Accept"),
		ContentType: request.Header.Get("Content-Type"),
	}

	query := request.URL.Query()
	if override := query.Get(AcceptParam); override != "" {
		negotiationRequest.ForceAccept = mimetype.FromString(override)
	}
	if override := query.Get(ContentTypeParam); override != "" {
		negotiationRequest.ForceContentType = mimetype.FromString(override)
	}
	return negotiationRequest
}

// Resolves the session of the request. Requests nothing can be written for are
// answered with a NotAcceptableError right away.
func (server *Server) negotiate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		session := server.engine.Negotiate(NegotiationRequest(request))

		ctx := context.WithValue(request.Context(), sessionKey{}, session)
		request = request.WithContext(ctx)

		if _, ok := session.Producer(); !ok {
			server.logger.Info("no acceptable producer",
				zap.String("request_id", middleware.GetReqID(ctx)),
				zap.String("accept", mimetype.FormatRanges(session.AcceptRanges())),
			)
			server.WriteError(writer, request, spanerrors.NotAcceptableError.New(
				"no encoder for accept "+mimetype.FormatRanges(session.AcceptRanges()),
				nil,
				nil,
			))
			return
		}

		server.logger.Debug("negotiated",
			zap.String("request_id", middleware.GetReqID(ctx)),
			zap.Stringer("session", session),
		)
		next.ServeHTTP(writer, request)
	})
}

// Writes span errors panicked by handlers. Any other panic is a ServerError.
func (server *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			spanError, ok := recovered.(*spanerrors.SpanError)
			if !ok {
				err, isErr := recovered.(error)
				if !isErr {
					err = panicValue{value: recovered}
				}
				spanError = spanerrors.ServerError.WithHttpCode(
					http.StatusInternalServerError,
				).New("panic while handling request", nil, err)
			}
			server.WriteError(writer, request, spanError)
		}()

		next.ServeHTTP(writer, request)
	})
}

// Logs one line per request once it is answered.
func (server *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		started := time.Now()
		wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)

		next.ServeHTTP(wrapped, request)

		server.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(request.Context())),
			zap.String("method", request.Method),
			zap.String("path", request.URL.Path),
			zap.Int("status", wrapped.Status()),
			zap.Int("bytes", wrapped.BytesWritten()),
			zap.Duration("duration", time.Since(started)),
		)
	})
}
