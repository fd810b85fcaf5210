package enrich

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Gemini is a Model backed by the Gemini API or Vertex AI. Credentials and
// backend come from the standard GOOGLE_API_KEY / GOOGLE_GENAI_USE_VERTEXAI
// environment.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini/" + g.model }

func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	// The v1 endpoint has no system role; the instruction leads the prompt.
	contents := []*genai.Content{
		genai.NewContentFromText(system+"\n\n"+prompt, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.3),
		MaxOutputTokens: 600,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}
