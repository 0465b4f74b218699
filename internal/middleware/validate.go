package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/bilgisen/newsinsight/internal/logger"
	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const validatedKey = "validated"

// Validator is a struct that holds the validator instance
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate validates the request body against the provided struct
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// ValidateBody parses the request body into a fresh T per request,
// validates it and stores it for Validated.
func ValidateBody[T any]() fiber.Handler {
	v := NewValidator()

	return func(c *fiber.Ctx) error {
		body := new(T)
		if err := c.BodyParser(body); err != nil {
			logger.Get().Debug().Err(err).Str("path", c.Path()).Msg("Unparseable request body")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "Invalid request body",
				"code":   models.ErrCodeInvalidField,
				"action": "Request body ko JSON mein bhejein.",
			})
		}

		if err := v.Validate(body); err != nil {
			fields := make(map[string]string)
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					fields[fe.Field()] = fe.Tag()
				}
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "Validation failed",
				"code":   models.ErrCodeInvalidField,
				"action": "Galat fields theek karke dobara bhejein.",
				"fields": fields,
			})
		}

		c.Locals(validatedKey, body)
		return c.Next()
	}
}

// Validated returns the body stored by ValidateBody.
func Validated[T any](c *fiber.Ctx) *T {
	body, _ := c.Locals(validatedKey).(*T)
	return body
}

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch {
	case appErr.Code == models.ErrCodeBusy:
		return fiber.StatusConflict
	case appErr.Code == models.ErrCodeInvalidUpload:
		return fiber.StatusUnsupportedMediaType
	case appErr.Category == models.CategoryValidation:
		return fiber.StatusUnprocessableEntity
	case appErr.Category == models.CategoryService:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is a middleware that handles errors in a consistent way
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusFor(err)

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return c.Status(code).JSON(fiber.Map{
			"error":  appErr.Message,
			"code":   appErr.Code,
			"action": appErr.Action,
		})
	}

	if code >= fiber.StatusInternalServerError {
		logger.Get().Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", code).
			Msg("HTTP error")
	}

	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}
