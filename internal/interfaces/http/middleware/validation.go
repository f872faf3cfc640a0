package middleware

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/interfaces/http/dto"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{6,19}$`)

var setupOnce sync.Once

// SetupValidator makes gin's validator report JSON field names and
// registers the phone, pdcode and trk tags. It is safe to call repeatedly.
func SetupValidator() error {
	var err error
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected validator engine")
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form", "uri"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		err = errors.Join(
			v.RegisterValidation("phone", stringRule(phonePattern.MatchString)),
			v.RegisterValidation("pdcode", stringRule(partner.IsPDCode)),
			v.RegisterValidation("trk", stringRule(casework.IsTrackingCode)),
		)
	})
	return err
}

func stringRule(ok func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return ok(strings.TrimSpace(fl.Field().String()))
	}
}

// ValidationDetails converts binding errors to response details. It returns
// nil for errors that are not validation failures.
func ValidationDetails(err error) []dto.ValidationDetail {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, dto.ValidationDetail{
			Field:   fieldPath(e),
			Message: validationMessage(e),
			Tag:     e.Tag(),
		})
	}
	return details
}

// fieldPath drops the top-level struct name from the namespace, so nested
// fields read as patient.email
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func validationMessage(e validator.FieldError) string {
	isString := e.Kind() == reflect.String
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "phone":
		return "Invalid phone number"
	case "pdcode":
		return "Invalid referral code"
	case "trk":
		return "Invalid tracking code"
	case "uuid":
		return "Invalid UUID format"
	case "datetime":
		return "Must be a date in the format " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "min":
		if isString {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if isString {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	default:
		return "Invalid value"
	}
}
