package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"kompis/server/internal/domain"
	"kompis/server/internal/generation"
	"kompis/server/internal/imaging"
	"kompis/server/internal/providers/image"
	"kompis/server/pkg/zip"
)

type generateImageRequest struct {
	Prompt         string `json:"prompt"`
	CharacterImage string `json:"characterImage"`
	CharacterID    string `json:"characterId,omitempty"`
}

type generateImageResponse struct {
	Success      bool   `json:"success"`
	ImageURL     string `json:"imageUrl"`
	BodyImageURL string `json:"bodyImageUrl,omitempty"`
	Prompt       string `json:"prompt"`
	Note         string `json:"note,omitempty"`
}

// GenerateImage runs the full generation pipeline for one request.
func (a *App) GenerateImage(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "missing user context")
		return
	}
	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := a.Pipeline.Run(r.Context(), generation.Request{
		UserID:         userID,
		Prompt:         req.Prompt,
		CharacterImage: req.CharacterImage,
		CharacterID:    req.CharacterID,
	})
	if err != nil {
		a.generationError(w, err)
		return
	}

	a.json(w, http.StatusOK, generateImageResponse{
		Success:      true,
		ImageURL:     result.ImageURL,
		BodyImageURL: result.BodyImageURL,
		Prompt:       result.Prompt,
		Note:         result.Note,
	})
}

// generationError maps pipeline failures onto the two caller-facing shapes:
// 400 for input problems, 500 for provider failures. Operational detail stays
// in the server logs.
func (a *App) generationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPromptRequired):
		a.error(w, http.StatusBadRequest, "Prompt is required")
	case errors.Is(err, domain.ErrImageRequired):
		a.error(w, http.StatusBadRequest, "Character image is required")
	case errors.Is(err, domain.ErrInsufficientTokens):
		a.error(w, http.StatusPaymentRequired, "Not enough tokens")
	case errors.Is(err, image.ErrProvidersUnavailable):
		a.error(w, http.StatusInternalServerError, "Image generation is currently unavailable")
	case errors.Is(err, image.ErrPollTimeout):
		a.error(w, http.StatusInternalServerError, "Image generation timed out")
	default:
		a.error(w, http.StatusInternalServerError, "Image generation failed")
	}
}

// ListImages returns the caller's generation history.
func (a *App) ListImages(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "missing user context")
		return
	}
	images, err := a.Images.ListByUser(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "failed to load images")
		return
	}
	items := make([]map[string]any, 0, len(images))
	for _, img := range images {
		items = append(items, map[string]any{
			"id":         img.ID,
			"prompt":     img.Prompt,
			"image_url":  img.ImageURL,
			"model_used": img.ModelUsed,
			"created_at": img.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ExportImages streams the caller's stored images as one zip archive.
func (a *App) ExportImages(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "missing user context")
		return
	}
	images, err := a.Images.ListByUser(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "failed to load images")
		return
	}
	client := a.httpClient()
	var assets []zip.Asset
	for _, img := range images {
		var data []byte
		mime := "image/jpeg"
		if imaging.IsDataURI(img.ImageURL) {
			data, mime, err = imaging.DecodeDataURI(img.ImageURL)
		} else {
			data, mime, err = imaging.Download(r.Context(), client, img.ImageURL)
		}
		if err != nil {
			a.Logger.Warn().Err(err).Str("image_id", img.ID).Msg("export: image fetch failed")
			continue
		}
		assets = append(assets, zip.Asset{Filename: img.ID, MIME: mime, Data: data})
	}
	archive := zip.ArchiveAssets(assets)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=images-%s.zip", userID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
