package getimg

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("getimg: api key is required")

// Options configures the getimg.ai text-to-image client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client performs synchronous HTTP calls to the getimg.ai image API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// ImageAsset is the normalized result from the getimg API.
type ImageAsset struct {
	Data   []byte
	Format string
	Seed   int64
}

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	OutputFormat   string `json:"output_format"`
}

type generationResponse struct {
	Image string `json:"image"`
	Seed  int64  `json:"seed"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.getimg.ai/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "stable-diffusion-xl-v1-0"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

// GenerateImage invokes the synchronous endpoint once and returns the decoded image.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*ImageAsset, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("getimg: prompt is required")
	}
	payload := generationRequest{
		Model:        c.model,
		Prompt:       prompt,
		Width:        1024,
		Height:       1024,
		OutputFormat: "jpeg",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("getimg: encode request: %w", err)
	}
	endpoint := c.baseURL + "/stable-diffusion-xl/text-to-image"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("getimg: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("getimg: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("getimg: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
			return nil, fmt.Errorf("getimg: %s (%s)", detail.Error.Message, detail.Error.Type)
		}
		return nil, fmt.Errorf("getimg: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("getimg: decode response: %w", err)
	}
	if strings.TrimSpace(decoded.Image) == "" {
		return nil, errors.New("getimg: empty image payload")
	}
	data, err := base64.StdEncoding.DecodeString(decoded.Image)
	if err != nil {
		return nil, fmt.Errorf("getimg: decode image: %w", err)
	}
	return &ImageAsset{Data: data, Format: "image/jpeg", Seed: decoded.Seed}, nil
}
