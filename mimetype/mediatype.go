package mimetype

import (
	"strings"

	"golang.org/x/xerrors"
)

// ErrMalformed is wrapped by every parse error returned from this package.
var ErrMalformed = xerrors.New("malformed media type")

const wildcard = "*"

// Param is a single media type parameter. Names are always lower case.
type Param struct {
	Name  string
	Value string
}

/*
MediaType is an immutable (type, subtype, parameters) triple. Type, subtype and
parameter names are normalized to lower case; parameter values keep their case and
their declaration order.

The zero value is UNKNOWN.
*/
type MediaType struct {
	mainType string
	subType  string
	params   []Param
}

// New builds a media type from its components. Components are lower cased; params
// are copied.
func New(mainType string, subType string, params ...Param) MediaType {
	mediaType := MediaType{
		mainType: strings.ToLower(mainType),
		subType:  strings.ToLower(subType),
	}
	if len(params) > 0 {
		mediaType.params = make([]Param, len(params))
		for i, param := range params {
			mediaType.params[i] = Param{
				Name:  strings.ToLower(param.Name),
				Value: param.Value,
			}
		}
	}
	return mediaType
}

// Parse parses a single media type such as "text/html; charset=utf-8". A "q"
// parameter gets no special treatment here; use ParseRange for Accept entries.
func Parse(value string) (MediaType, error) {
	mainType, subType, params, err := scanMediaType(value)
	if err != nil {
		return UNKNOWN, err
	}
	return MediaType{mainType: mainType, subType: subType, params: params}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for package level
// declarations.
func MustParse(value string) MediaType {
	mediaType, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return mediaType
}

// Type returns the top level type, e.g. "application".
func (mediaType MediaType) Type() string {
	return mediaType.mainType
}

// Subtype returns the subtype, e.g. "json".
func (mediaType MediaType) Subtype() string {
	return mediaType.subType
}

// Essence returns "type/subtype" without parameters.
func (mediaType MediaType) Essence() string {
	if mediaType.IsZero() {
		return ""
	}
	return mediaType.mainType + "/" + mediaType.subType
}

// Params returns a copy of the parameters in declaration order.
func (mediaType MediaType) Params() []Param {
	if len(mediaType.params) == 0 {
		return nil
	}
	params := make([]Param, len(mediaType.params))
	copy(params, mediaType.params)
	return params
}

// Param returns the value of the first parameter called name.
func (mediaType MediaType) Param(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, param := range mediaType.params {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// IsZero reports whether this is the UNKNOWN media type.
func (mediaType MediaType) IsZero() bool {
	return mediaType.mainType == "" && mediaType.subType == ""
}

// Wildcards counts the wildcard components: 0 for "type/subtype", 1 for "type/*"
// and 2 for "*/*".
func (mediaType MediaType) Wildcards() int {
	count := 0
	if mediaType.mainType == wildcard {
		count++
	}
	if mediaType.subType == wildcard {
		count++
	}
	return count
}

// WithoutParams returns the essence of this media type as a MediaType.
func (mediaType MediaType) WithoutParams() MediaType {
	return MediaType{mainType: mediaType.mainType, subType: mediaType.subType}
}

// Equal reports whether both media types have the same components and the same
// parameters in the same order.
func (mediaType MediaType) Equal(other MediaType) bool {
	if mediaType.mainType != other.mainType || mediaType.subType != other.subType {
		return false
	}
	if len(mediaType.params) != len(other.params) {
		return false
	}
	for i, param := range mediaType.params {
		if param != other.params[i] {
			return false
		}
	}
	return true
}

// Matches reports whether the type and subtype components are compatible. A wildcard
// on either side matches anything. Parameters are not considered.
func (mediaType MediaType) Matches(other MediaType) bool {
	return componentMatches(mediaType.mainType, other.mainType) &&
		componentMatches(mediaType.subType, other.subType)
}

// Satisfies reports whether every parameter of required is present on this media
// type with an equal (case-insensitive) value.
func (mediaType MediaType) Satisfies(required MediaType) bool {
	for _, wanted := range required.params {
		value, ok := mediaType.Param(wanted.Name)
		if !ok || !strings.EqualFold(value, wanted.Value) {
			return false
		}
	}
	return true
}

// String formats the media type in header grammar: "type/subtype;name=value".
// Values that are not tokens are quoted.
func (mediaType MediaType) String() string {
	if mediaType.IsZero() {
		return ""
	}

	builder := strings.Builder{}
	builder.WriteString(mediaType.Essence())
	for _, param := range mediaType.params {
		builder.WriteByte(';')
		builder.WriteString(param.Name)
		builder.WriteByte('=')
		writeParamValue(&builder, param.Value)
	}
	return builder.String()
}

func componentMatches(left string, right string) bool {
	return left == wildcard || right == wildcard || left == right
}
