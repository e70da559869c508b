package simpleexcel

import (
	"fmt"
	"reflect"
)

// ConvertToRecords flattens a struct, or a slice of structs, into Records keyed by
// field name. Map fields are flattened with a prefix: Meta["Brand"] becomes "Meta_Brand".
// Unexported fields are skipped.
func ConvertToRecords(data interface{}) ([]Record, error) {
	val := reflect.ValueOf(data)

	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Struct:
		rec, err := flattenStruct(val)
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	case reflect.Slice, reflect.Array:
		return flattenSlice(val)
	default:
		return nil, fmt.Errorf("expected struct or slice, got %v", val.Kind())
	}
}

func flattenStruct(val reflect.Value) (Record, error) {
	result := make(Record)

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		fieldType := typ.Field(i)
		if fieldType.PkgPath != "" {
			continue
		}
		field := val.Field(i)

		if field.Kind() == reflect.Map {
			if field.IsNil() {
				continue
			}
			for _, key := range field.MapKeys() {
				flattenedKey := fmt.Sprintf("%s_%v", fieldType.Name, key.Interface())
				result[flattenedKey] = field.MapIndex(key).Interface()
			}
			continue
		}
		result[fieldType.Name] = field.Interface()
	}

	return result, nil
}

func flattenSlice(val reflect.Value) ([]Record, error) {
	result := make([]Record, val.Len())

	for i := 0; i < val.Len(); i++ {
		elem := val.Index(i)
		if elem.Kind() == reflect.Ptr || elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}

		if elem.Kind() != reflect.Struct {
			return nil, fmt.Errorf("expected slice of structs, got slice of %v", elem.Kind())
		}

		flattened, err := flattenStruct(elem)
		if err != nil {
			return nil, err
		}
		result[i] = flattened
	}

	return result, nil
}
