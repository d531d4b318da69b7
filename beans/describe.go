package beans

import (
	"fmt"
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/introspect"
	"github.com/illuscio-dev/spanmarshal-go/models"
)

// Kinds Describe reports metadata for.
var describedKinds = []introspect.Kind{
	KindTypeName, KindProperties, KindPropertyName, KindIgnore,
}

// Describe summarizes a type: its hierarchy, bean properties, constructors and the
// bean metadata that applies to it, child-first.
func Describe(registry *introspect.Registry, owner *introspect.TypeDescriptor) models.TypeInfo {
	info := models.TypeInfo{
		Name:          TypeName(registry, owner),
		QualifiedName: owner.QualifiedName(),
		Kind:          owner.Kind().String(),
		Ancestors:     make([]string, 0),
		Interfaces:    make([]string, 0),
		Properties:    make([]models.PropertyInfo, 0),
		Constructors:  make([]string, 0),
		Metadata:      make([]models.MetadataInfo, 0),
	}

	for _, ancestor := range owner.Ancestors() {
		info.Ancestors = append(info.Ancestors, ancestor.QualifiedName())
	}
	for _, implemented := range owner.InterfaceClosure() {
		info.Interfaces = append(info.Interfaces, implemented.QualifiedName())
	}

	for _, prop := range collect(registry, owner) {
		propInfo := models.PropertyInfo{Name: prop.name, Field: prop.field.Name()}
		if fieldType, ok := prop.field.FieldType(); ok {
			propInfo.Type = fieldType.QualifiedName()
		}
		info.Properties = append(info.Properties, propInfo)
	}

	for _, constructor := range owner.Constructors() {
		info.Constructors = append(info.Constructors, constructor.Signature())
	}

	resolver := registry.Resolver()
	for _, kind := range describedKinds {
		for _, entry := range resolver.ResolveAll(owner, kind, introspect.ChildFirst) {
			info.Metadata = append(info.Metadata, models.MetadataInfo{
				Kind:     string(entry.Kind),
				Value:    describeValue(entry.Value),
				Location: entry.Location.String(),
				Declarer: entry.Declarer(),
			})
		}
	}

	return info
}

func describeValue(value any) string {
	if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
		return "func"
	}
	return fmt.Sprint(value)
}
