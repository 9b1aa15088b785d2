package services

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct turns the first validator failure into a 400 with a readable message.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.BadRequest("invalid request")
	}

	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Slice {
			return apperror.BadRequest(fmt.Sprintf("%s must not be empty", field))
		}
		return apperror.BadRequest(fmt.Sprintf("%s is required", field))
	case "min":
		if fe.Kind() == reflect.Slice {
			return apperror.BadRequest(fmt.Sprintf("%s must not be empty", field))
		}
		return apperror.BadRequest(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	case "gt":
		return apperror.BadRequest(fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
	case "gte":
		return apperror.BadRequest(fmt.Sprintf("%s must be %s or more", field, fe.Param()))
	case "oneof":
		return apperror.BadRequest(fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
	default:
		return apperror.BadRequest(fmt.Sprintf("%s is invalid", field))
	}
}

// fieldPath drops the root struct name: "createOrderInput.items[0].price" -> "items[0].price".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperror.BadRequest(fmt.Sprintf("invalid %s id", what))
	}
	return id, nil
}
