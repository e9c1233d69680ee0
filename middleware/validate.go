package middleware

import (
	"errors"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/core/validator"
)

type validatedBodyKey struct{}

// ValidateConfig configures the body validation middleware.
type ValidateConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// Validator checks the raw body. Required.
	Validator validator.BodyValidator

	// ErrorHandler builds the fault for bodies that fail validation.
	// Defaults to 422 with the field errors under details.errors.
	ErrorHandler func(req *request.Request, errs validator.ValidationErrors) error
}

// Validate rejects requests whose body does not satisfy v. The decoded body
// is available to handlers through ValidatedBody.
func Validate(v validator.BodyValidator) handler.Middleware {
	return ValidateWithConfig(ValidateConfig{Validator: v})
}

// ValidateWithConfig returns the validation middleware configured by cfg.
// It panics when cfg.Validator is nil. Bodies that are not valid JSON fail
// with 400.
func ValidateWithConfig(cfg ValidateConfig) handler.Middleware {
	if cfg.Validator == nil {
		panic("validate middleware: validator is required")
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(req *request.Request, errs validator.ValidationErrors) error {
			return response.ErrUnprocessableEntity.
				WithError(errs).
				WithDetails(map[string]any{"errors": errs})
		}
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		body, err := req.Body()
		if err != nil {
			return nil, err
		}

		data, err := cfg.Validator.Validate(body)
		switch {
		case errors.Is(err, validator.ErrInvalidBody):
			return nil, response.ErrBadRequest.WithMessage("Invalid request body").WithError(err)
		case validator.IsValidationError(err):
			return nil, cfg.ErrorHandler(req, validator.ExtractValidationErrors(err))
		case err != nil:
			return nil, err
		}

		req.Set(validatedBodyKey{}, data)
		return next()
	}
}

// ValidatedBody returns the body decoded by Validate.
func ValidatedBody(req *request.Request) (any, bool) {
	v := req.Value(validatedBodyKey{})
	return v, v != nil
}

// ValidatedMap returns the body decoded by Validate as a JSON object.
func ValidatedMap(req *request.Request) (map[string]any, bool) {
	m, ok := req.Value(validatedBodyKey{}).(map[string]any)
	return m, ok
}
