package image

import "context"

// Asset represents one synthesized image. Data holds the bytes when the
// provider returned them inline; URL points at the provider-hosted result
// otherwise.
type Asset struct {
	Data   []byte
	URL    string
	Format string
	Model  string
}

// Generator is the contract the pipeline depends on for image synthesis.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Asset, error)
}
