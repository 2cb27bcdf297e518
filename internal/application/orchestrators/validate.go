package orchestrators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"motoclub/internal/application/apperr"
)

// Views that render program data. Program writes invalidate all of them.
var ProgramViewPaths = []string{"/admin/program", "/program", "/"}

// Views that render gallery data.
var GalleryViewPaths = []string{"/admin/photos", "/photos", "/"}

// Invalidator drops cached renderings of the given path prefixes.
type Invalidator interface {
	Invalidate(prefixes ...string)
}

func invalidate(inv Invalidator, paths []string) {
	if inv != nil {
		inv.Invalidate(paths...)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// checkInput runs struct-tag validation and returns the first failure as a ValidationFailure.
func checkInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return apperr.Wrap(apperr.ValidationFailure, "dati non validi", err)
	}
	return apperr.Wrap(apperr.ValidationFailure, fieldMessage(ve[0]), err)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("il campo %s è obbligatorio", field)
	case "email":
		return fmt.Sprintf("il campo %s deve essere un indirizzo email valido", field)
	case "datetime":
		return fmt.Sprintf("il campo %s deve avere il formato %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("il campo %s deve essere uno tra: %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("il campo %s deve essere almeno %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("il campo %s non può superare %s", field, fe.Param())
	case "url", "http_url":
		return fmt.Sprintf("il campo %s deve essere un URL valido", field)
	case "eqfield":
		return fmt.Sprintf("il campo %s non corrisponde", field)
	default:
		return fmt.Sprintf("il campo %s non è valido", field)
	}
}
