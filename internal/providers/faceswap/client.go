package faceswap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("faceswap: api key is required")

// Options configures the face-identity transfer client.
type Options struct {
	APIKey         string
	Endpoint       string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client performs synchronous face-swap calls. Quality parameters are fixed:
// background enhancement and face restoration/upsampling on, JPEG output.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

type swapRequest struct {
	SourceImage       string `json:"source_image"`
	TargetImage       string `json:"target_image"`
	BackgroundEnhance bool   `json:"background_enhance"`
	FaceRestore       bool   `json:"face_restore"`
	FaceUpsample      bool   `json:"face_upsample"`
	OutputFormat      string `json:"output_format"`
}

type swapResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Image   string `json:"image"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = "https://api.segmind.com/v1/faceswap-v2"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

// SwapFaces transfers the identity from the base64-encoded source image onto
// the target image and returns the resulting base64 payload.
func (c *Client) SwapFaces(ctx context.Context, sourceB64, targetB64 string) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	if sourceB64 == "" || targetB64 == "" {
		return "", errors.New("faceswap: source and target images are required")
	}
	payload := swapRequest{
		SourceImage:       sourceB64,
		TargetImage:       targetB64,
		BackgroundEnhance: true,
		FaceRestore:       true,
		FaceUpsample:      true,
		OutputFormat:      "jpeg",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("faceswap: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("faceswap: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("faceswap: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("faceswap: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("faceswap: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded swapResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("faceswap: decode response: %w", err)
	}
	if decoded.Status != "" && !strings.EqualFold(decoded.Status, "success") {
		return "", fmt.Errorf("faceswap: incomplete job status %q: %s", decoded.Status, decoded.Message)
	}
	if strings.TrimSpace(decoded.Image) == "" {
		return "", errors.New("faceswap: missing result payload")
	}
	return decoded.Image, nil
}
