package imaging

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Helpers for moving images between the three shapes the providers speak:
// remote URLs, data URIs and raw base64 payloads.

const maxDownloadBytes = 20 << 20

// IsDataURI reports whether ref is an inline data: reference.
func IsDataURI(ref string) bool {
	return strings.HasPrefix(strings.TrimSpace(ref), "data:")
}

// Download fetches a remote image and returns its bytes plus content type.
func Download(ctx context.Context, client *http.Client, imageURL string) ([]byte, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || parsed.Scheme == "" {
		return nil, "", fmt.Errorf("imaging: invalid image url: %s", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("imaging: build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("imaging: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("imaging: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: read image: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return data, mime, nil
}

// ToDataURI converts a URL or data URI reference into a data URI, downloading
// when needed.
func ToDataURI(ctx context.Context, client *http.Client, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("imaging: empty image reference")
	}
	if IsDataURI(ref) {
		return ref, nil
	}
	data, mime, err := Download(ctx, client, ref)
	if err != nil {
		return "", err
	}
	return EncodeDataURI(data, mime), nil
}

// ToBase64 converts a URL or data URI reference into a bare base64 payload.
func ToBase64(ctx context.Context, client *http.Client, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if IsDataURI(ref) {
		payload, _, err := DecodeDataURI(ref)
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(payload), nil
	}
	data, _, err := Download(ctx, client, ref)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// EncodeDataURI builds a data URI from raw bytes.
func EncodeDataURI(data []byte, mime string) string {
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a data URI into payload bytes and mime type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	uri = strings.TrimSpace(uri)
	if !IsDataURI(uri) {
		return nil, "", errors.New("imaging: not a data uri")
	}
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return nil, "", errors.New("imaging: malformed data uri")
	}
	meta := uri[len("data:"):comma]
	mime := strings.SplitN(meta, ";", 2)[0]
	if mime == "" {
		mime = "image/jpeg"
	}
	payload, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode data uri: %w", err)
	}
	return payload, mime, nil
}
