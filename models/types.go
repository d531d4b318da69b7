package models

// Role a codec is registered under.
const (
	RoleProducer = "producer"
	RoleConsumer = "consumer"
)

// CodecInfo describes one registered codec for codec listings.
type CodecInfo struct {
	Index      int      `json:"index" yaml:"index" bson:"index"`
	Name       string   `json:"name" yaml:"name" bson:"name"`
	Role       string   `json:"role" yaml:"role" bson:"role"`
	MediaTypes []string `json:"mediaTypes" yaml:"mediaTypes" bson:"mediaTypes"`
	// Default is true for the codec used when negotiation finds no match.
	Default bool `json:"default" yaml:"default" bson:"default"`
}

// PropertyInfo describes one bean property of a type.
type PropertyInfo struct {
	Name  string `json:"name" yaml:"name" bson:"name"`
	Field string `json:"field" yaml:"field" bson:"field"`
	Type  string `json:"type" yaml:"type" bson:"type"`
}

// MetadataInfo describes one resolved metadata entry.
type MetadataInfo struct {
	Kind     string `json:"kind" yaml:"kind" bson:"kind"`
	Value    string `json:"value" yaml:"value" bson:"value"`
	Location string `json:"location" yaml:"location" bson:"location"`
	Declarer string `json:"declarer" yaml:"declarer" bson:"declarer"`
}

// TypeInfo describes an introspected type.
type TypeInfo struct {
	Name          string         `json:"name" yaml:"name" bson:"name"`
	QualifiedName string         `json:"qualifiedName" yaml:"qualifiedName" bson:"qualifiedName"`
	Kind          string         `json:"kind" yaml:"kind" bson:"kind"`
	Ancestors     []string       `json:"ancestors" yaml:"ancestors" bson:"ancestors"`
	Interfaces    []string       `json:"interfaces" yaml:"interfaces" bson:"interfaces"`
	Properties    []PropertyInfo `json:"properties" yaml:"properties" bson:"properties"`
	Constructors  []string       `json:"constructors" yaml:"constructors" bson:"constructors"`
	Metadata      []MetadataInfo `json:"metadata" yaml:"metadata" bson:"metadata"`
}
