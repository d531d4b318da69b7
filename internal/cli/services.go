package cli

import (
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/beans"
	"github.com/illuscio-dev/spanmarshal-go/config"
	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/introspect"
	"github.com/illuscio-dev/spanmarshal-go/models"
	"go.uber.org/zap"
)

// NewEngine builds the content engine described by cfg.
func NewEngine(cfg config.NegotiationConfig, logger *zap.Logger) (*encoding.SpanEngine, error) {
	return encoding.NewContentEngine(
		cfg.Sniff,
		encoding.WithLogger(logger),
		encoding.WithDefaultProducer(cfg.Producer()),
		encoding.WithDefaultConsumer(cfg.Consumer()),
	)
}

// The payload types of the service, described by GET /types.
var serviceTypes = []reflect.Type{
	reflect.TypeOf(models.CodecInfo{}),
	reflect.TypeOf(models.TypeInfo{}),
	reflect.TypeOf(models.PropertyInfo{}),
	reflect.TypeOf(models.MetadataInfo{}),
	reflect.TypeOf(models.PagingResp{}),
}

/*
NewRegistry reflects the payload types of the service. Their bean names and
property names are the lower camel case of the Go names, matching the JSON tags the
payloads are written with.
*/
func NewRegistry(logger *zap.Logger) (*introspect.Registry, error) {
	builder := introspect.NewBuilder(
		introspect.WithTag(beans.TagKey, beans.DecodeTag),
		introspect.WithLogger(logger),
	)

	pkg := serviceTypes[0].PkgPath()
	builder.AnnotatePackage(pkg, beans.KindTypeName, beans.NameFunc(beans.LowerCamel))
	builder.AnnotatePackage(pkg, beans.KindPropertyName, beans.NameFunc(beans.LowerCamel))

	for _, goType := range serviceTypes {
		if _, err := builder.Reflect(goType); err != nil {
			return nil, err
		}
	}
	return builder.Build()
}
