package spanhttp

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/illuscio-dev/spanmarshal-go/beans"
	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/models"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/protobuf/types/known/structpb"
)

// TypeParam names the registered type /convert reads the body as.
const TypeParam = "type"

// Decoded content is read into these receivers when the consumer needs one.
const (
	textCodec  = "text"
	protoCodec = "protobuf"
)

func (server *Server) handleConvert(writer http.ResponseWriter, request *http.Request) {
	session := server.session(request)

	content, err := server.readContent(request, session)
	if err != nil {
		server.WriteError(writer, request, err)
		return
	}

	if typeName := request.URL.Query().Get(TypeParam); typeName != "" {
		content, err = server.asBean(typeName, content)
		if err != nil {
			server.WriteError(writer, request, err)
			return
		}
	}

	content, err = server.forProducer(session, content)
	if err != nil {
		server.WriteError(writer, request, err)
		return
	}

	server.Write(writer, request, http.StatusOK, content)
}

// Decodes the body into a generic value the producers can all write back.
func (server *Server) readContent(
	request *http.Request, session *encoding.Session,
) (interface{}, error) {
	consumer, ok := session.Consumer()
	if ok {
		switch consumer.Descriptor.Name() {
		case textCodec:
			var text string
			err := server.Read(request, &text)
			return text, err
		case protoCodec:
			message := &structpb.Struct{}
			if err := server.Read(request, message); err != nil {
				return nil, err
			}
			return message.AsMap(), nil
		}
	}

	var content interface{}
	if err := server.Read(request, &content); err != nil {
		return nil, err
	}
	return normalize(content), nil
}

/*
normalize rewrites decoded content into values every encoder accepts:

• maps with interface{} keys, as YAML and CBOR decode them, get string keys.

• BSON documents become Properties, which keep the document order.

• BSON arrays become []interface{}.
*/
func normalize(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(typed))
		for key, element := range typed {
			normalized[fmt.Sprint(key)] = normalize(element)
		}
		return normalized
	case map[string]interface{}:
		normalized := make(map[string]interface{}, len(typed))
		for key, element := range typed {
			normalized[key] = normalize(element)
		}
		return normalized
	case primitive.M:
		return normalize(map[string]interface{}(typed))
	case primitive.D:
		properties := beans.NewProperties("")
		for _, element := range typed {
			properties.Set(element.Key, normalize(element.Value))
		}
		return properties
	case primitive.A:
		return normalize([]interface{}(typed))
	case []interface{}:
		normalized := make([]interface{}, len(typed))
		for i, element := range typed {
			normalized[i] = normalize(element)
		}
		return normalized
	}
	return value
}

// Reads content as the properties of the type registered as typeName.
func (server *Server) asBean(typeName string, content interface{}) (interface{}, error) {
	descriptor, ok := beans.Lookup(server.registry, typeName)
	if !ok {
		return nil, spanerrors.NotFoundError.New(
			"no type named "+typeName, map[string]interface{}{"type": typeName}, nil,
		)
	}

	var values map[string]interface{}
	switch typed := content.(type) {
	case map[string]interface{}:
		values = typed
	case *beans.Properties:
		values = typed.Map()
	default:
		return nil, spanerrors.RequestValidationError.New(
			fmt.Sprintf("content of type %T is not an object", content), nil, nil,
		)
	}

	built, err := beans.FromMap(server.registry, descriptor, values)
	if err != nil {
		return nil, spanerrors.RequestValidationError.New(
			"content does not fit type "+typeName,
			map[string]interface{}{"type": typeName},
			err,
		)
	}

	properties, err := beans.ToMap(server.registry, built)
	if err != nil {
		return nil, spanerrors.ResponseValidationError.New(
			"error reading properties of "+typeName, nil, err,
		)
	}
	return properties, nil
}

// Protobuf only writes messages, so content headed there is wrapped in a struct
// value first.
func (server *Server) forProducer(
	session *encoding.Session, content interface{},
) (interface{}, error) {
	producer, ok := session.Producer()
	if !ok || producer.Descriptor.Name() != protoCodec {
		return content, nil
	}

	plain := plainValue(content)
	if object, isObject := plain.(map[string]interface{}); isObject {
		message, err := structpb.NewStruct(object)
		if err != nil {
			return nil, spanerrors.ResponseValidationError.New(
				"content cannot be written as protobuf", nil, err,
			)
		}
		return message, nil
	}

	message, err := structpb.NewValue(plain)
	if err != nil {
		return nil, spanerrors.ResponseValidationError.New(
			"content cannot be written as protobuf", nil, err,
		)
	}
	return message, nil
}

// Unwraps Properties into plain maps.
func plainValue(value interface{}) interface{} {
	switch typed := value.(type) {
	case *beans.Properties:
		plain := make(map[string]interface{}, typed.Len())
		for _, property := range typed.List() {
			plain[property.Name] = plainValue(property.Value)
		}
		return plain
	case map[string]interface{}:
		plain := make(map[string]interface{}, len(typed))
		for key, element := range typed {
			plain[key] = plainValue(element)
		}
		return plain
	case []interface{}:
		plain := make([]interface{}, len(typed))
		for i, element := range typed {
			plain[i] = plainValue(element)
		}
		return plain
	}
	return value
}

// Reads paging parameters and writes the paging headers of a listing.
func (server *Server) page(
	writer http.ResponseWriter, request *http.Request, totalItems int,
) (start int, end int, err error) {
	pagingReq, err := models.PagingReqFromParams(request.URL.Query(), server.pageLimit)
	if err != nil {
		return 0, 0, spanerrors.RequestValidationError.New(
			"invalid paging parameters", nil, err,
		)
	}

	start, end = pagingReq.Window(totalItems)
	models.NewPagingResp(pagingReq, totalItems, request.URL).ToHeaders(writer.Header())
	return start, end, nil
}

func (server *Server) handleCodecs(writer http.ResponseWriter, request *http.Request) {
	role := request.URL.Query().Get("role")
	if role != "" && role != models.RoleProducer && role != models.RoleConsumer {
		server.WriteError(writer, request, spanerrors.RequestValidationError.New(
			"role must be producer or consumer",
			map[string]interface{}{"role": role},
			nil,
		))
		return
	}

	infos := CodecInfos(server.engine, role)
	start, end, err := server.page(writer, request, len(infos))
	if err != nil {
		server.WriteError(writer, request, err)
		return
	}
	server.Write(writer, request, http.StatusOK, infos[start:end])
}

// CodecInfos lists the codecs of engine, producers first. role filters to one side
// when set.
func CodecInfos(engine *encoding.SpanEngine, role string) []models.CodecInfo {
	infos := make([]models.CodecInfo, 0)

	if role == "" || role == models.RoleProducer {
		fallback, _ := engine.DefaultEncoder()
		for _, descriptor := range engine.Producers() {
			infos = append(infos, models.CodecInfo{
				Index:      descriptor.Index(),
				Name:       descriptor.Name(),
				Role:       models.RoleProducer,
				MediaTypes: rangeStrings(descriptor.MediaTypes()),
				Default:    descriptor == fallback,
			})
		}
	}

	if role == "" || role == models.RoleConsumer {
		fallback, _ := engine.DefaultDecoder()
		for _, descriptor := range engine.Consumers() {
			infos = append(infos, models.CodecInfo{
				Index:      descriptor.Index(),
				Name:       descriptor.Name(),
				Role:       models.RoleConsumer,
				MediaTypes: rangeStrings(descriptor.MediaTypes()),
				Default:    descriptor == fallback,
			})
		}
	}

	return infos
}

func rangeStrings(ranges []mimetype.Range) []string {
	formatted := make([]string, len(ranges))
	for i, mediaRange := range ranges {
		formatted[i] = mediaRange.String()
	}
	return formatted
}

func (server *Server) handleTypes(writer http.ResponseWriter, request *http.Request) {
	types := server.registry.Types()
	start, end, err := server.page(writer, request, len(types))
	if err != nil {
		server.WriteError(writer, request, err)
		return
	}

	infos := make([]models.TypeInfo, 0, end-start)
	for _, descriptor := range types[start:end] {
		infos = append(infos, beans.Describe(server.registry, descriptor))
	}
	server.Write(writer, request, http.StatusOK, infos)
}

func (server *Server) handleType(writer http.ResponseWriter, request *http.Request) {
	name := chi.URLParam(request, "name")
	descriptor, ok := beans.Lookup(server.registry, name)
	if !ok {
		server.WriteError(writer, request, spanerrors.NotFoundError.New(
			"no type named "+name, map[string]interface{}{"type": name}, nil,
		))
		return
	}
	server.Write(writer, request, http.StatusOK, beans.Describe(server.registry, descriptor))
}
