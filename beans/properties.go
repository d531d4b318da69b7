package beans

import (
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/ugorji/go/codec"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v2"
)

// Property is one named value of a bean.
type Property struct {
	Name  string
	Value any
}

/*
Properties is an ordered property map. Order is kept when encoded as YAML, BSON or
JSON (through the ugorji codec). CBOR output uses canonical key order.
*/
type Properties struct {
	// TypeName is the bean name of the type the properties were read from.
	TypeName string

	list  []Property
	index map[string]int
}

// NewProperties returns an empty property map for typeName.
func NewProperties(typeName string) *Properties {
	return &Properties{TypeName: typeName, index: make(map[string]int)}
}

// Set adds a property, or replaces the value of an existing one in place.
func (properties *Properties) Set(name string, value any) {
	if properties.index == nil {
		properties.index = make(map[string]int)
	}
	if position, ok := properties.index[name]; ok {
		properties.list[position].Value = value
		return
	}
	properties.index[name] = len(properties.list)
	properties.list = append(properties.list, Property{Name: name, Value: value})
}

// Get returns the value of a property.
func (properties *Properties) Get(name string) (any, bool) {
	position, ok := properties.index[name]
	if !ok {
		return nil, false
	}
	return properties.list[position].Value, true
}

// Len returns the number of properties.
func (properties *Properties) Len() int {
	return len(properties.list)
}

// Names returns the property names in order.
func (properties *Properties) Names() []string {
	names := make([]string, len(properties.list))
	for i, property := range properties.list {
		names[i] = property.Name
	}
	return names
}

// List returns a copy of the properties in order.
func (properties *Properties) List() []Property {
	list := make([]Property, len(properties.list))
	copy(list, properties.list)
	return list
}

// Map returns the properties as a plain map.
func (properties *Properties) Map() map[string]any {
	plain := make(map[string]any, len(properties.list))
	for _, property := range properties.list {
		plain[property.Name] = property.Value
	}
	return plain
}

// MarshalYAML implements yaml.Marshaler.
func (properties *Properties) MarshalYAML() (interface{}, error) {
	ordered := make(yaml.MapSlice, len(properties.list))
	for i, property := range properties.list {
		ordered[i] = yaml.MapItem{Key: property.Name, Value: property.Value}
	}
	return ordered, nil
}

// MarshalBSON implements bson.Marshaler.
func (properties *Properties) MarshalBSON() ([]byte, error) {
	ordered := make(bson.D, len(properties.list))
	for i, property := range properties.list {
		ordered[i] = bson.E{Key: property.Name, Value: property.Value}
	}
	return bson.Marshal(ordered)
}

// MarshalCBOR implements cbor.Marshaler.
func (properties *Properties) MarshalCBOR() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(properties.Map())
}

// Flattened key, value pairs the ugorji codec writes as a map.
type orderedPairs []interface{}

func (pairs orderedPairs) MapBySlice() {}

// CodecEncodeSelf implements codec.Selfer.
func (properties *Properties) CodecEncodeSelf(encoder *codec.Encoder) {
	pairs := make(orderedPairs, 0, len(properties.list)*2)
	for _, property := range properties.list {
		pairs = append(pairs, property.Name, property.Value)
	}
	encoder.MustEncode(pairs)
}

// CodecDecodeSelf implements codec.Selfer. Decoded keys are sorted, since the
// order of a decoded map is not known.
func (properties *Properties) CodecDecodeSelf(decoder *codec.Decoder) {
	decoded := make(map[string]interface{})
	decoder.MustDecode(&decoded)

	names := make([]string, 0, len(decoded))
	for name := range decoded {
		names = append(names, name)
	}
	sort.Strings(names)

	properties.list = nil
	properties.index = make(map[string]int, len(names))
	for _, name := range names {
		properties.Set(name, decoded[name])
	}
}
