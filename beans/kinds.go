package beans

import (
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/introspect"
)

// Metadata kinds consulted by the bean layer.
const (
	KindTypeName     introspect.Kind = "beans.typeName"
	KindProperties   introspect.Kind = "beans.properties"
	KindPropertyName introspect.Kind = "beans.propertyName"
	KindIgnore       introspect.Kind = "beans.ignore"
)

// TagKey is the struct tag DecodeTag reads.
const TagKey = "span"

// NameFunc derives a type or property name from its Go name.
type NameFunc func(name string) string

func asNameFunc(value any) (NameFunc, bool) {
	switch typed := value.(type) {
	case NameFunc:
		return typed, typed != nil
	case func(string) string:
		return typed, typed != nil
	}
	return nil, false
}

/*
DecodeTag turns a `span` struct tag into field metadata, for use with
introspect.WithTag(TagKey, DecodeTag):

	span:"-"              ignore the field
	span:"name"           name the property
	span:"name,ignore"    name the property and ignore it
	span:",ignore"        ignore the field
*/
func DecodeTag(tag string) map[introspect.Kind]any {
	metadata := make(map[introspect.Kind]any)
	if tag == "-" {
		metadata[KindIgnore] = true
		return metadata
	}

	parts := strings.Split(tag, ",")
	if name := strings.TrimSpace(parts[0]); name != "" {
		metadata[KindPropertyName] = name
	}
	for _, option := range parts[1:] {
		if strings.TrimSpace(option) == "ignore" {
			metadata[KindIgnore] = true
		}
	}
	return metadata
}

// LowerCamel lowercases the leading run of upper case letters, keeping the last
// one of a run followed by a lower case letter: "ID" -> "id", "HTTPCode" ->
// "httpCode", "Name" -> "name".
func LowerCamel(name string) string {
	runes := []rune(name)
	for i := range runes {
		upper := runes[i] >= 'A' && runes[i] <= 'Z'
		if !upper {
			break
		}
		nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
		if i > 0 && nextLower {
			break
		}
		runes[i] = runes[i] + ('a' - 'A')
	}
	return string(runes)
}
