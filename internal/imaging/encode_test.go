package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDataURIRoundTrip(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	uri := EncodeDataURI(payload, "image/png")
	if !IsDataURI(uri) {
		t.Fatalf("expected a data uri, got %q", uri)
	}
	decoded, mime, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("mime = %q", mime)
	}
	if !bytes.Equal(decoded, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestDecodeDataURIRejectsPlainURL(t *testing.T) {
	if _, _, err := DecodeDataURI("https://example.com/a.jpg"); err == nil {
		t.Fatalf("expected error for non data uri")
	}
}

func TestDownloadUsesContentType(t *testing.T) {
	want := []byte{0xff, 0xd8}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(want)
	}))
	defer server.Close()

	data, mime, err := Download(context.Background(), server.Client(), server.URL+"/a.jpg")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("bytes mismatch")
	}
	if mime != "image/jpeg" {
		t.Fatalf("mime = %q", mime)
	}
}

func TestDownloadRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, _, err := Download(context.Background(), server.Client(), server.URL+"/missing.jpg"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestToDataURIPassesThroughInlineReference(t *testing.T) {
	uri := EncodeDataURI([]byte{0x01}, "image/jpeg")
	got, err := ToDataURI(context.Background(), nil, uri)
	if err != nil {
		t.Fatalf("to data uri: %v", err)
	}
	if got != uri {
		t.Fatalf("got %q, want passthrough", got)
	}
}

func TestToBase64FromDataURI(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}
	uri := EncodeDataURI(payload, "image/jpeg")
	got, err := ToBase64(context.Background(), nil, uri)
	if err != nil {
		t.Fatalf("to base64: %v", err)
	}
	if got != base64.StdEncoding.EncodeToString(payload) {
		t.Fatalf("base64 mismatch: %q", got)
	}
}
