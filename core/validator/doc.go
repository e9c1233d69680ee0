// Package validator checks request data and reports every failure at once.
//
// Three styles share one error type, ValidationErrors, which renders as
// 422 Unprocessable Entity when it escapes a handler:
//
// An explicit Schema of ordered fields and rules, for JSON bodies:
//
//	signup := validator.NewSchema().
//		Field("email", validator.Required(), validator.Tag("email")).
//		Field("password", validator.Required(), validator.MinLength(8)).
//		Field("age", validator.Number(), validator.Min(18))
//
//	data, err := signup.Validate(body)
//
// Struct tags, evaluated by go-playground/validator with JSON field names:
//
//	type Signup struct {
//		Email string `json:"email" validate:"required,email"`
//		Age   int    `json:"age" validate:"gte=18"`
//	}
//
//	err := validator.Struct(&Signup{})
//
// JSON Schema documents, compiled once and reused:
//
//	schema := validator.MustCompileJSONSchema("signup.json", schemaDoc)
//	data, err := schema.Validate(body)
//
// Programmatic checks build Rules directly and run them with Apply:
//
//	err := validator.Apply(validator.Required()("name", name))
//
// Handlers can inspect failures with ExtractValidationErrors:
//
//	if verrs := validator.ExtractValidationErrors(err); verrs.Has("email") {
//		// ...
//	}
package validator
