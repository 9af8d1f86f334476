package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"kompis/server/internal/domain"
	"kompis/server/internal/generation"
	"kompis/server/internal/infra"
	"kompis/server/internal/middleware"
)

// GenerationRunner runs one image generation request end to end.
type GenerationRunner interface {
	Run(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// ImageLister reads a user's generation history.
type ImageLister interface {
	ListByUser(ctx context.Context, userID string) ([]domain.GeneratedImage, error)
}

// CompanionReader looks up stored companion attributes.
type CompanionReader interface {
	GetAttributes(ctx context.Context, id string) *domain.Companion
}

// App is the handler container holding every request-scoped dependency.
type App struct {
	Config     *infra.Config
	Logger     zerolog.Logger
	Pipeline   GenerationRunner
	Images     ImageLister
	Companions CompanionReader
	HTTPClient *http.Client
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes the caller-facing failure shape: a short message, nothing else.
func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) httpClient() *http.Client {
	if a.HTTPClient != nil {
		return a.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}
