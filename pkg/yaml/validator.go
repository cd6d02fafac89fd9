package yaml

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/reflectwalk"
)

var structValidator = validator.New()

// validationWalker validates every struct found while walking a decoded value,
// including structs nested in maps and slices.
type validationWalker struct{}

func (validationWalker) Struct(v reflect.Value) error {
	if !v.CanInterface() {
		return nil
	}
	return structValidator.Struct(v.Interface())
}

func (validationWalker) StructField(reflect.StructField, reflect.Value) error {
	return nil
}

func ValidateStructs(s interface{}) error {
	return reflectwalk.Walk(s, validationWalker{})
}
