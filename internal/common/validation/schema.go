package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "analytics-chat/internal/common/errors"
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

// Schema is a compiled JSON schema for model output or request input.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

func MustCompile(name, source string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

func (s *Schema) Name() string { return s.name }

// Check validates a JSON document and reports every violation.
func (s *Schema) Check(doc string) *ValidationResult {
	return s.check(gojsonschema.NewStringLoader(doc))
}

// CheckValue validates an already decoded Go value.
func (s *Schema) CheckValue(v interface{}) *ValidationResult {
	return s.check(gojsonschema.NewGoLoader(v))
}

func (s *Schema) check(loader gojsonschema.JSONLoader) *ValidationResult {
	result, err := s.schema.Validate(loader)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: "document is not valid JSON",
			Code:    "INVALID_JSON",
		}}}
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

// Validate returns nil for a valid document and an ErrValidationFailure
// otherwise.
func (s *Schema) Validate(doc string) error {
	return s.asError(s.Check(doc))
}

func (s *Schema) ValidateValue(v interface{}) error {
	return s.asError(s.CheckValue(v))
}

func (s *Schema) asError(r *ValidationResult) error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Errorf("%w: %s: %s", apperrors.ErrValidationFailure, s.name, strings.Join(msgs, "; "))
}

// Accepts is a boolean view of Validate, usable as a retry validator once the
// JSON has been extracted.
func (s *Schema) Accepts(doc string) bool {
	return s.Check(doc).Valid
}

// DecodeValid validates doc and decodes it into dst.
func (s *Schema) DecodeValid(doc string, dst interface{}) error {
	if err := s.Validate(doc); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(doc), dst); err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrValidationFailure, s.name, err)
	}
	return nil
}
