package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "github.com/target/veille-api/internal/errors"
)

const researchRequestSchemaID = "inmemory://research_request.json"

const researchRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["subject"],
  "additionalProperties": false,
  "properties": {
    "subject": {"type": "string", "minLength": 1, "pattern": "\\S"},
    "previous_responses": {"type": ["array", "null"], "items": {"type": "string"}},
    "model": {"type": ["string", "null"], "maxLength": 128},
    "verbosity": {"enum": ["low", "medium", "high", "", null]},
    "reasoning_effort": {"enum": ["minimal", "low", "medium", "high", "", null]}
  }
}`

//nolint:gochecknoglobals // compiled once, read-only afterwards
var researchSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(researchRequestSchemaID, strings.NewReader(researchRequestSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(researchRequestSchemaID)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
})

// validateResearchBody checks a submit body against the research request schema.
// Violations are validation errors; a broken schema is internal.
func validateResearchBody(body []byte) error {
	schema, err := researchSchema()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "research request schema unavailable")
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return apperrors.Validationf("request body is not valid JSON: %v", err)
	}
	if err := schema.Validate(payload); err != nil {
		return apperrors.Validation(describeSchemaError(err))
	}
	return nil
}

func describeSchemaError(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	location := leaf.InstanceLocation
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("request body invalid at %s: %s", location, leaf.Message)
}
