/*
Package spanhttp serves content negotiation over HTTP.

Every request passes through the negotiation middleware, which resolves a producer
from the Accept header and a consumer from the Content-Type header. The session is
stored on the request context, where Read and Write pick it up:

	func handler(writer http.ResponseWriter, request *http.Request) {
		var payload map[string]interface{}
		if err := server.Read(request, &payload); err != nil {
			server.WriteError(writer, request, err)
			return
		}
		server.Write(writer, request, http.StatusOK, payload)
	}

# Query Overrides

Browsers and command line tools cannot always set headers. The "accept" and
"content-type" query parameters replace the matching header and take the lenient
spellings of mimetype.FromString, so "?accept=yaml" asks for application/yaml.

# Errors

Failures are written as span errors: the error-name, error-code, error-message,
error-id and error-data headers carry the error, and the status is the http code of
its type. No acceptable producer is a NotAcceptableError (406), and a body of a
content type no decoder handles is an UnsupportedMediaTypeError (415). Handlers may
also panic with a *spanerrors.SpanError; the recovery middleware writes it.

# Routes

• POST /convert: decodes the body by its Content-Type and encodes it back by Accept.
With "?type=name" the body is read as the properties of a registered type first.

• GET /codecs: lists the registered codecs, paged, filtered by "?role=".

• GET /types: lists the registered types, paged.

• GET /types/{name}: describes one type.
*/
package spanhttp
