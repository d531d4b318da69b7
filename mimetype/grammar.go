package mimetype

import (
	"strings"

	"golang.org/x/xerrors"
)

// Splits value on sep, ignoring separators inside quoted strings. Backslash escapes
// inside quotes are kept as written so unquote can process them later.
func splitQuoted(value string, sep byte) []string {
	var parts []string

	start := 0
	inQuotes := false
	escaped := false

	for i := 0; i < len(value); i++ {
		char := value[i]
		switch {
		case escaped:
			escaped = false
		case inQuotes && char == '\\':
			escaped = true
		case char == '"':
			inQuotes = !inQuotes
		case char == sep && !inQuotes:
			parts = append(parts, value[start:i])
			start = i + 1
		}
	}

	return append(parts, value[start:])
}

// Parses "type/subtype; name=value; ..." into lower cased components.
func scanMediaType(value string) (string, string, []Param, error) {
	segments := splitQuoted(value, ';')

	essence := strings.TrimSpace(segments[0])
	slash := strings.IndexByte(essence, '/')
	if slash < 0 {
		return "", "", nil, xerrors.Errorf("missing '/' in %q: %w", value, ErrMalformed)
	}

	mainType := strings.ToLower(strings.TrimSpace(essence[:slash]))
	subType := strings.ToLower(strings.TrimSpace(essence[slash+1:]))

	if !isToken(mainType) || !isToken(subType) {
		return "", "", nil, xerrors.Errorf("invalid type %q: %w", essence, ErrMalformed)
	}
	if mainType == wildcard && subType != wildcard {
		return "", "", nil, xerrors.Errorf(
			"wildcard type with concrete subtype %q: %w", essence, ErrMalformed,
		)
	}

	var params []Param
	for _, segment := range segments[1:] {
		segment = strings.TrimSpace(segment)
		// Tolerate trailing or doubled separators.
		if segment == "" {
			continue
		}

		param, err := scanParam(segment)
		if err != nil {
			return "", "", nil, err
		}
		params = append(params, param)
	}

	return mainType, subType, params, nil
}

func scanParam(segment string) (Param, error) {
	equals := strings.IndexByte(segment, '=')
	if equals < 0 {
		return Param{}, xerrors.Errorf(
			"parameter %q has no value: %w", segment, ErrMalformed,
		)
	}

	name := strings.ToLower(strings.TrimSpace(segment[:equals]))
	if !isToken(name) {
		return Param{}, xerrors.Errorf(
			"invalid parameter name %q: %w", name, ErrMalformed,
		)
	}

	rawValue := strings.TrimSpace(segment[equals+1:])
	if strings.HasPrefix(rawValue, `"`) {
		value, err := unquote(rawValue)
		if err != nil {
			return Param{}, err
		}
		return Param{Name: name, Value: value}, nil
	}

	if !isToken(rawValue) {
		return Param{}, xerrors.Errorf(
			"invalid parameter value %q: %w", rawValue, ErrMalformed,
		)
	}
	return Param{Name: name, Value: rawValue}, nil
}

func unquote(quoted string) (string, error) {
	if len(quoted) < 2 || quoted[len(quoted)-1] != '"' {
		return "", xerrors.Errorf(
			"unterminated quoted string %q: %w", quoted, ErrMalformed,
		)
	}

	builder := strings.Builder{}
	inner := quoted[1 : len(quoted)-1]
	for i := 0; i < len(inner); i++ {
		char := inner[i]
		if char == '\\' {
			if i+1 == len(inner) {
				return "", xerrors.Errorf(
					"dangling escape in %q: %w", quoted, ErrMalformed,
				)
			}
			i++
			char = inner[i]
		} else if char == '"' {
			return "", xerrors.Errorf("stray quote in %q: %w", quoted, ErrMalformed)
		}
		builder.WriteByte(char)
	}
	return builder.String(), nil
}

func writeParamValue(builder *strings.Builder, value string) {
	if isToken(value) {
		builder.WriteString(value)
		return
	}

	builder.WriteByte('"')
	for i := 0; i < len(value); i++ {
		if value[i] == '"' || value[i] == '\\' {
			builder.WriteByte('\\')
		}
		builder.WriteByte(value[i])
	}
	builder.WriteByte('"')
}

// RFC 7230 token.
func isToken(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if !isTokenChar(value[i]) {
			return false
		}
	}
	return true
}

func isTokenChar(char byte) bool {
	switch {
	case char >= 'a' && char <= 'z', char >= 'A' && char <= 'Z', char >= '0' && char <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", char) >= 0
}
