package domain

import "time"

// Companion holds the stored attributes of an AI companion character. The
// generation pipeline only reads these; creation and editing live in the
// companion management handlers.
type Companion struct {
	ID           string
	UserID       string
	Name         string
	Age          int
	Description  string
	Personality  string
	Body         string
	Ethnicity    string
	Relationship string
	CreatedAt    time.Time
}
