package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const rewriteSystemInstruction = "You write prompts for a photorealistic image generation model. " +
	"Fold the user's request, the character context and the visual attributes into one single " +
	"descriptive prompt of at most 200 words. Respond with the prompt text only, no quotes, no preamble."

// OpenRouterOptions configures the LLM-backed rewriter.
type OpenRouterOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *openai.Client
}

// OpenRouterRewriter rewrites prompts through an OpenAI-compatible chat API.
type OpenRouterRewriter struct {
	client *openai.Client
	model  string
}

func NewOpenRouterRewriter(opts OpenRouterOptions) *OpenRouterRewriter {
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
	return &OpenRouterRewriter{client: client, model: model}
}

// Rewrite asks the text model for a single enriched prompt.
func (r *OpenRouterRewriter) Rewrite(ctx context.Context, req EnrichRequest) (string, error) {
	if r == nil || r.client == nil {
		return "", errors.New("prompt: rewriter not configured")
	}
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0.6,
		MaxTokens:   400,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rewriteSystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: buildRewritePayload(req)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("prompt: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildRewritePayload(req EnrichRequest) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "User request: %s", strings.TrimSpace(req.RawPrompt))
	if block := CompanionContext(req.Companion); block != "" {
		fmt.Fprintf(sb, "\nCharacter context: %s", block)
	}
	if attrs := strings.TrimSpace(req.Attributes); attrs != "" {
		fmt.Fprintf(sb, "\nVisual attributes from the reference image: %s", attrs)
	}
	return sb.String()
}

var _ Rewriter = (*OpenRouterRewriter)(nil)
