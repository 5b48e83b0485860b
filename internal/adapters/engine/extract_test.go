package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/veille-api/internal/domain/model"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "consolidated text wins",
			raw:  `{"output_text":"Top","output":[{"content":[{"type":"output_text","text":"ignored"}]}]}`,
			want: "Top",
		},
		{
			name: "fragments joined in order",
			raw:  `{"output":[{"content":[{"type":"output_text","text":"A"}]},{"content":[{"type":"output_text","text":"B"}]}]}`,
			want: "A\n\nB",
		},
		{
			name: "non text fragments skipped",
			raw:  `{"output":[{"content":[{"type":"reasoning","text":"hidden"},{"type":"output_text","text":"Only"}]}]}`,
			want: "Only",
		},
		{
			name: "empty consolidated text falls back",
			raw:  `{"output_text":"","output":[{"content":[{"type":"output_text","text":"Fallback"}]}]}`,
			want: "Fallback",
		},
		{
			name: "nothing qualifies",
			raw:  `{"output":[{"type":"web_search_call"}]}`,
			want: model.NoTextOutputSentinel,
		},
		{
			name: "empty object",
			raw:  `{}`,
			want: model.NoTextOutputSentinel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractText_InvalidJSON(t *testing.T) {
	_, err := ExtractText([]byte(`[`))
	require.Error(t, err)
}

func TestEncodeSubject_NilPreviousBecomesEmptyList(t *testing.T) {
	got, err := encodeSubject("Café ☕", nil)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"Subject\": \"Café ☕\",\n  \"PreviousResponses\": []\n}", got)
}
