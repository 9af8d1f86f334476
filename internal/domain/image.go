package domain

import "time"

// GeneratedImage is the persisted record of one successful generation. The row
// is written only after the image bytes are durably stored, or carries the
// provider-hosted URL when upload degraded.
type GeneratedImage struct {
	ID        string
	UserID    string
	Prompt    string
	ImageURL  string
	ModelUsed string
	CreatedAt time.Time
}
