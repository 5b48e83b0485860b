package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/target/veille-api/internal/domain/model"
)

type outputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outputItem struct {
	Type    string          `json:"type"`
	Content []outputContent `json:"content"`
}

type responsesReply struct {
	OutputText string       `json:"output_text"`
	Output     []outputItem `json:"output"`
}

// ExtractText returns the narrative carried by a Responses API reply.
//
// The consolidated output_text field wins when present. Otherwise every content fragment of type
// output_text is collected in order across all output items and joined with a blank line.
// With no qualifying fragment the result is model.NoTextOutputSentinel.
func ExtractText(raw []byte) (string, error) {
	var reply responsesReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("decode engine reply: %w", err)
	}
	return reply.text(), nil
}

func (r *responsesReply) text() string {
	if r.OutputText != "" {
		return r.OutputText
	}

	var fragments []string
	for _, item := range r.Output {
		for _, c := range item.Content {
			if c.Type == contentTypeOutputText {
				fragments = append(fragments, c.Text)
			}
		}
	}
	if len(fragments) == 0 {
		return model.NoTextOutputSentinel
	}
	return strings.Join(fragments, "\n\n")
}
