package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ResponseGenService produces AI candidate responses for corpus prompts
// that shipped without one. Used only by the content import tool, never
// at game time: the corpus is read-only once the server is up.
type ResponseGenService struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewResponseGenService(apiKey string) (*ResponseGenService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.7)
	model.SetTopP(0.95)

	return &ResponseGenService{client: client, model: model}, nil
}

func (s *ResponseGenService) Close() {
	s.client.Close()
}

// Generate answers one corpus prompt in the register the human responses
// use: first person, a few sentences, no preamble.
func (s *ResponseGenService) Generate(ctx context.Context, prompt string) (string, error) {
	instruction := fmt.Sprintf(
		"Answer the following prompt in the first person, in at most three sentences, "+
			"as someone describing their own lived experience. "+
			"Respond with the answer only, no preamble or quotation marks.\n\nPrompt: %s",
		prompt,
	)

	resp, err := s.model.GenerateContent(ctx, genai.Text(instruction))
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
