package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/veille-api/internal/errors"
)

func TestValidateResearchBody(t *testing.T) {
	valid := []string{
		`{"subject":"Graphene"}`,
		`{"subject":"Graphene","previous_responses":["a","b"],"model":"gpt-5","verbosity":"high","reasoning_effort":"minimal"}`,
		`{"subject":"Graphene","verbosity":""}`,
	}
	for _, body := range valid {
		assert.NoError(t, validateResearchBody([]byte(body)), body)
	}

	invalid := map[string]string{
		"not json":       `{`,
		"not an object":  `["subject"]`,
		"missing":        `{}`,
		"blank":          `{"subject":" "}`,
		"extra field":    `{"subject":"x","extra":true}`,
		"bad effort":     `{"subject":"x","reasoning_effort":"ultra"}`,
		"number subject": `{"subject":1}`,
	}
	for name, body := range invalid {
		err := validateResearchBody([]byte(body))
		require.Error(t, err, name)
		assert.True(t, apperrors.IsValidation(err), name)
	}
}

func TestValidateResearchBody_ReportsLocation(t *testing.T) {
	err := validateResearchBody([]byte(`{"subject":"x","previous_responses":["ok",3]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/previous_responses/1")
}
