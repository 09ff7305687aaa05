package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/samandr77/microservices/backoffice/internal/entity"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	lo.Must0(v.RegisterValidation("billno", func(fl validator.FieldLevel) bool {
		return entity.BillNoRegexp.MatchString(fl.Field().String())
	}))

	lo.Must0(v.RegisterValidation("productcode", func(fl validator.FieldLevel) bool {
		return entity.ProductCodeRegexp.MatchString(fl.Field().String())
	}))

	return v
}

// validateStruct runs struct tag validation and flattens field errors into one message.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := lo.Map(fieldErrs, func(fe validator.FieldError, _ int) string {
		if fe.Param() != "" {
			return fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}

		return fmt.Sprintf("%s: %s", fe.Field(), fe.Tag())
	})

	return fmt.Errorf("%w: %s", entity.ErrInvalidArgument, strings.Join(msgs, ", "))
}
