package beans

import (
	"fmt"
	"reflect"

	"github.com/illuscio-dev/spanmarshal-go/introspect"
	"golang.org/x/xerrors"
)

/*
Converts a decoded value to want. Decoders produce float64 or int64 numbers,
[]interface{} lists and map[string]interface{} or map[interface{}]interface{}
objects; those are converted to numeric fields, typed slices and nested registered
structs.
*/
func convertValue(registry *introspect.Registry, value any, want reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(want), nil
	}

	reflected := reflect.ValueOf(value)
	switch {
	case reflected.Type().AssignableTo(want):
		return reflected, nil
	case want.Kind() == reflect.Ptr:
		inner, err := convertValue(registry, value, want.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		boxed := reflect.New(want.Elem())
		boxed.Elem().Set(inner)
		return boxed, nil
	case isNumeric(reflected.Kind()) && isNumeric(want.Kind()):
		return reflected.Convert(want), nil
	case reflected.Kind() == reflect.String && want.Kind() == reflect.String:
		return reflected.Convert(want), nil
	case want.Kind() == reflect.Slice && reflected.Kind() == reflect.Slice:
		return convertSlice(registry, reflected, want)
	case want.Kind() == reflect.Struct && reflected.Kind() == reflect.Map:
		return convertStruct(registry, reflected, want)
	}

	return reflect.Value{}, xerrors.Errorf(
		"%v into %v: %w", reflected.Type(), want, ErrPropertyType,
	)
}

func isNumeric(kind reflect.Kind) bool {
	return kind >= reflect.Int && kind <= reflect.Float64
}

func convertSlice(
	registry *introspect.Registry, reflected reflect.Value, want reflect.Type,
) (reflect.Value, error) {
	converted := reflect.MakeSlice(want, reflected.Len(), reflected.Len())
	for i := 0; i < reflected.Len(); i++ {
		element, err := convertValue(registry, reflected.Index(i).Interface(), want.Elem())
		if err != nil {
			return reflect.Value{}, xerrors.Errorf("index %d: %w", i, err)
		}
		converted.Index(i).Set(element)
	}
	return converted, nil
}

func convertStruct(
	registry *introspect.Registry, reflected reflect.Value, want reflect.Type,
) (reflect.Value, error) {
	values := make(map[string]any, reflected.Len())
	iter := reflected.MapRange()
	for iter.Next() {
		values[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
	}

	target := reflect.New(want)
	if err := Populate(registry, target.Interface(), values); err != nil {
		return reflect.Value{}, err
	}
	return target.Elem(), nil
}
