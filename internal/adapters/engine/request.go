package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/target/veille-api/internal/core"
)

// researchInstruction is the developer message sent with every research call.
const researchInstruction = "You are an expert technology watch assistant. Your mission is to carry out " +
	"thorough, structured research on a given subject, using the Web Search tool to find reliable, " +
	"recent and relevant information.\n\n" +
	"Research the newest advances, as recent as possible.\n\n" +
	"The subject is provided as JSON in the user message.\n" +
	"If the 'PreviousResponses' field contains anything, analyse those earlier responses " +
	"and avoid repeating the same information."

const (
	roleDeveloper           = "developer"
	roleUser                = "user"
	contentTypeInputText    = "input_text"
	contentTypeOutputText   = "output_text"
	toolTypeWebSearch       = "web_search"
	searchContextSizeHigh   = "high"
	userLocationApproximate = "approximate"
	textFormatText          = "text"
)

// includeFields asks the engine to keep the reasoning trace and search sources with the stored call.
var includeFields = []string{ //nolint:gochecknoglobals // read-only request constant
	"reasoning.encrypted_content",
	"web_search_call.action.sources",
}

type inputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type textFormat struct {
	Type string `json:"type"`
}

type textOptions struct {
	Format    textFormat `json:"format"`
	Verbosity string     `json:"verbosity,omitempty"`
}

type reasoningOptions struct {
	Effort string `json:"effort,omitempty"`
}

type userLocation struct {
	Type string `json:"type"`
}

type webSearchTool struct {
	Type              string       `json:"type"`
	UserLocation      userLocation `json:"user_location"`
	SearchContextSize string       `json:"search_context_size"`
}

type responsesRequest struct {
	Model     string           `json:"model"`
	Input     []inputMessage   `json:"input"`
	Text      textOptions      `json:"text"`
	Reasoning reasoningOptions `json:"reasoning"`
	Tools     []webSearchTool  `json:"tools"`
	Store     bool             `json:"store"`
	Include   []string         `json:"include"`
}

// subjectPayload is the user message body. Field names are part of the instruction contract.
type subjectPayload struct {
	Subject           string   `json:"Subject"`
	PreviousResponses []string `json:"PreviousResponses"`
}

// encodeSubject renders the user payload as indented JSON with non-ASCII and HTML characters kept verbatim.
func encodeSubject(subject string, previous []string) (string, error) {
	if previous == nil {
		previous = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(subjectPayload{Subject: subject, PreviousResponses: previous}); err != nil {
		return "", fmt.Errorf("encode subject payload: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// buildRequest translates an engine request into the Responses API call body.
func buildRequest(req core.EngineRequest) (*responsesRequest, error) {
	payload, err := encodeSubject(req.Subject, req.PreviousResponses)
	if err != nil {
		return nil, err
	}

	return &responsesRequest{
		Model: req.Params.Model,
		Input: []inputMessage{
			{
				Role:    roleDeveloper,
				Content: []inputContent{{Type: contentTypeInputText, Text: researchInstruction}},
			},
			{
				Role:    roleUser,
				Content: []inputContent{{Type: contentTypeInputText, Text: payload}},
			},
		},
		Text: textOptions{
			Format:    textFormat{Type: textFormatText},
			Verbosity: string(req.Params.Verbosity),
		},
		Reasoning: reasoningOptions{Effort: string(req.Params.ReasoningEffort)},
		Tools: []webSearchTool{
			{
				Type:              toolTypeWebSearch,
				UserLocation:      userLocation{Type: userLocationApproximate},
				SearchContextSize: searchContextSizeHigh,
			},
		},
		Store:   true,
		Include: includeFields,
	}, nil
}
