// Package validation checks job variables and request bodies against JSON schemas.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "bida-banking-workers/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages returns "field: message" strings for every error.
func (r *ValidationResult) GetErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return msgs
}

// ValidateInput validates input against a JSON schema given as a Go map.
func ValidateInput(input map[string]interface{}, schema map[string]interface{}) *ValidationResult {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(input),
	)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "SCHEMA_ERROR",
			}},
		}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

// Decode validates input and then decodes it into out. Validation failures
// come back as INVALID_BANK_REQUEST errors.
func Decode(input map[string]interface{}, schema map[string]interface{}, out interface{}) error {
	if input == nil {
		input = map[string]interface{}{}
	}

	res := ValidateInput(input, schema)
	if !res.Valid {
		return apperrors.NewInvalidBankRequestError(strings.Join(res.GetErrorMessages(), "; "))
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return apperrors.NewInvalidBankRequestError(fmt.Sprintf("encode input: %v", err))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewInvalidBankRequestError(fmt.Sprintf("decode input: %v", err))
	}
	return nil
}

// Common schema fragments shared by the banking workers and the HTTP API.
var (
	InvestorIDProperty = map[string]interface{}{"type": "string", "minLength": 1}
	NonEmptyString     = map[string]interface{}{"type": "string", "minLength": 1}
	PositiveAmount     = map[string]interface{}{
		"type":             []interface{}{"number", "string"},
		"pattern":          `^[0-9]+(\.[0-9]+)?$`,
		"exclusiveMinimum": 0,
	}
	CurrencyCode = map[string]interface{}{"type": "string", "pattern": "^[A-Za-z]{3}$"}
)

// ObjectSchema builds an object schema with the given properties and required keys.
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	req := make([]interface{}, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}
	return map[string]interface{}{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": properties,
		"required":   req,
	}
}
