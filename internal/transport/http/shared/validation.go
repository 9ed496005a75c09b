package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"

	"perfeval/internal/platform/apperr"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

func payloadValidator() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		locale := en.New()
		translator, _ = ut.New(locale, locale).GetTranslator("en")
		if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
			panic(fmt.Sprintf("register validator translations: %v", err))
		}
	})
	return validate, translator
}

// Struct checks the validate tags on payload and reports every failing field
// as an apperr.ValidationError.
func Struct(payload any) error {
	v, trans := payloadValidator()
	err := v.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &apperr.ValidationError{}
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		reason := strings.TrimSpace(strings.TrimPrefix(fe.Translate(trans), fe.Field()))
		verr.Add(field, reason)
	}
	return verr.OrNil()
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

// DecodeJSON reads a JSON body into dst and validates it. An empty or
// malformed body is a validation failure, never a partial decode.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("body", "request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("body", "request body is required")
		}
		return apperr.Validation("body", "invalid JSON payload")
	}
	return Struct(dst)
}

// PathUUID validates an identifier taken from the URL.
func PathUUID(field, raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", apperr.Validation(field, "must be a valid UUID")
	}
	return id.String(), nil
}
