package util

import (
	"fmt"
	"reflect"
)

// IsStructInitialized checks that all exported fields of the given struct pointer are non-zero.
// Fields tagged with `wire:"-"` are skipped.
func IsStructInitialized(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct, got %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("wire") == "-" {
			continue
		}

		if v.Field(i).IsZero() {
			return fmt.Errorf("struct field %q is not initialized", field.Name)
		}
	}

	return nil
}
