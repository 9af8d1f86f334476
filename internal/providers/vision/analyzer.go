package vision

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("vision: api key is required")

// Analyzer extracts a short free-text attribute summary from a reference image.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imageDataURI string) (string, error)
}

// The fixed instruction mirrors the attribute set the prompt rewriter expects.
const attributeInstruction = "Describe the person in this image for an image generation prompt. " +
	"Cover: gender, style, hair, face structure, body figure, bust/chest, build, ethnicity, skin tone " +
	"and any other notable features. Respond with a plain-text summary of at most 100 words, no preamble."

// Options configures the OpenRouter-backed analyzer.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *openai.Client
}

// OpenRouterAnalyzer calls a vision-capable chat model through the
// OpenAI-compatible OpenRouter API.
type OpenRouterAnalyzer struct {
	client *openai.Client
	model  string
	apiKey string
}

// NewOpenRouterAnalyzer constructs an analyzer with sane defaults.
func NewOpenRouterAnalyzer(opts Options) *OpenRouterAnalyzer {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "openai/gpt-4o-mini"
	}
	client := opts.Client
	if client == nil && strings.TrimSpace(opts.APIKey) != "" {
		cfg := openai.DefaultConfig(opts.APIKey)
		if baseURL := strings.TrimRight(opts.BaseURL, "/"); baseURL != "" {
			cfg.BaseURL = baseURL
		}
		client = openai.NewClientWithConfig(cfg)
	}
	return &OpenRouterAnalyzer{client: client, model: model, apiKey: strings.TrimSpace(opts.APIKey)}
}

// HasCredentials reports whether the analyzer can perform remote calls.
func (a *OpenRouterAnalyzer) HasCredentials() bool {
	return a != nil && a.client != nil
}

// AnalyzeImage sends the inline image plus the fixed attribute instruction to
// the vision model. An empty completion is reported as an error so the caller
// can treat it as "no attributes extracted".
func (a *OpenRouterAnalyzer) AnalyzeImage(ctx context.Context, imageDataURI string) (string, error) {
	if !a.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: 200,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: attributeInstruction},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    imageDataURI,
					Detail: openai.ImageURLDetailLow,
				}},
			},
		}},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("vision: empty completion")
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", errors.New("vision: empty completion")
	}
	return summary, nil
}

var _ Analyzer = (*OpenRouterAnalyzer)(nil)
