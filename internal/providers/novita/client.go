package novita

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("novita: api key is required")

// Job states as reported by the async task API.
const (
	JobQueued     = "TASK_STATUS_QUEUED"
	JobProcessing = "TASK_STATUS_PROCESSING"
	JobSucceeded  = "TASK_STATUS_SUCCEED"
	JobFailed     = "TASK_STATUS_FAILED"
)

// Options configures the Novita async text-to-image client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client talks to Novita's asynchronous job API: submit, then poll until the
// task reaches a terminal status.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// JobStatus is one observation of a submitted task.
type JobStatus struct {
	Status    string
	ResultURL string
	Reason    string
}

type submitRequest struct {
	Extra   submitExtra   `json:"extra"`
	Request submitPayload `json:"request"`
}

type submitExtra struct {
	ResponseImageType string `json:"response_image_type"`
}

type submitPayload struct {
	ModelName string `json:"model_name"`
	Prompt    string `json:"prompt"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageNum  int    `json:"image_num"`
	Steps     int    `json:"steps"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
}

type resultResponse struct {
	Task struct {
		TaskID string `json:"task_id"`
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"task"`
	Images []struct {
		ImageURL  string `json:"image_url"`
		ImageType string `json:"image_type"`
	} `json:"images"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.novita.ai"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "sd_xl_base_1.0.safetensors"
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

// SubmitJob enqueues one text-to-image task and returns the opaque task id.
func (c *Client) SubmitJob(ctx context.Context, prompt string) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("novita: prompt is required")
	}
	payload := submitRequest{
		Extra: submitExtra{ResponseImageType: "jpeg"},
		Request: submitPayload{
			ModelName: c.model,
			Prompt:    prompt,
			Width:     1024,
			Height:    1024,
			ImageNum:  1,
			Steps:     30,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("novita: encode request: %w", err)
	}
	endpoint := c.baseURL + "/v3/async/txt2img"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("novita: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("novita: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("novita: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("novita: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("novita: decode response: %w", err)
	}
	if strings.TrimSpace(decoded.TaskID) == "" {
		if decoded.Msg != "" {
			return "", fmt.Errorf("novita: %s (code %d)", decoded.Msg, decoded.Code)
		}
		return "", errors.New("novita: empty task id")
	}
	return decoded.TaskID, nil
}

// PollJob queries the status of a submitted task once.
func (c *Client) PollJob(ctx context.Context, taskID string) (*JobStatus, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	endpoint := fmt.Sprintf("%s/v3/async/task-result?task_id=%s", c.baseURL, url.QueryEscape(taskID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("novita: build poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("novita: poll request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("novita: read poll response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("novita: poll status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded resultResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("novita: decode poll response: %w", err)
	}
	status := &JobStatus{Status: decoded.Task.Status, Reason: decoded.Task.Reason}
	if len(decoded.Images) > 0 {
		status.ResultURL = strings.TrimSpace(decoded.Images[0].ImageURL)
	}
	return status, nil
}

// Download fetches the result image referenced by a succeeded task.
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || parsed.Scheme == "" {
		return nil, "", fmt.Errorf("novita: invalid image url: %s", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("novita: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("novita: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("novita: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("novita: read image: %w", err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "image/jpeg"
	}
	return data, format, nil
}
