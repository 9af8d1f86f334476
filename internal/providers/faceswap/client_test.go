package faceswap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSwapFacesReturnsImagePayload(t *testing.T) {
	var captured swapRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("x-api-key"); key != "test-key" {
			t.Fatalf("x-api-key = %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(swapResponse{Status: "success", Image: "c3dhcHBlZA=="})
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "test-key", Endpoint: server.URL})
	got, err := client.SwapFaces(context.Background(), "c291cmNl", "dGFyZ2V0")
	if err != nil {
		t.Fatalf("swap faces: %v", err)
	}
	if got != "c3dhcHBlZA==" {
		t.Fatalf("image = %q", got)
	}
	if captured.SourceImage != "c291cmNl" || captured.TargetImage != "dGFyZ2V0" {
		t.Fatalf("request payload = %+v", captured)
	}
	if !captured.FaceRestore || !captured.BackgroundEnhance || !captured.FaceUpsample {
		t.Fatalf("quality flags should all be enabled: %+v", captured)
	}
	if captured.OutputFormat != "jpeg" {
		t.Fatalf("output format = %q", captured.OutputFormat)
	}
}

func TestSwapFacesIncompleteStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(swapResponse{Status: "failed", Message: "no face detected"})
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "test-key", Endpoint: server.URL})
	if _, err := client.SwapFaces(context.Background(), "c291cmNl", "dGFyZ2V0"); err == nil {
		t.Fatalf("expected error for incomplete status")
	}
}

func TestSwapFacesMissingPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(swapResponse{Status: "success"})
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "test-key", Endpoint: server.URL})
	if _, err := client.SwapFaces(context.Background(), "c291cmNl", "dGFyZ2V0"); err == nil {
		t.Fatalf("expected error for missing payload")
	}
}

func TestSwapFacesWithoutCredentials(t *testing.T) {
	client := NewClient(Options{})
	if client.HasCredentials() {
		t.Fatalf("expected no credentials")
	}
	_, err := client.SwapFaces(context.Background(), "c291cmNl", "dGFyZ2V0")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestSwapFacesRequiresBothImages(t *testing.T) {
	client := NewClient(Options{APIKey: "test-key"})
	if _, err := client.SwapFaces(context.Background(), "", "dGFyZ2V0"); err == nil {
		t.Fatalf("expected error for missing source")
	}
}
