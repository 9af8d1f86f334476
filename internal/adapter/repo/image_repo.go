package repo

import (
	"context"

	"kompis/server/internal/domain"
	"kompis/server/internal/infra"
	"kompis/server/internal/sqlinline"
)

// ImageRepositoryPG persists generated image records in PostgreSQL.
type ImageRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewImageRepository constructs a new image repository instance.
func NewImageRepository(sql infra.SQLExecutor) *ImageRepositoryPG {
	return &ImageRepositoryPG{sql: sql}
}

// Insert writes one generation record and returns it with the assigned id.
func (r *ImageRepositoryPG) Insert(ctx context.Context, userID, prompt, imageURL, modelUsed string) (*domain.GeneratedImage, error) {
	rec := &domain.GeneratedImage{
		UserID:    userID,
		Prompt:    prompt,
		ImageURL:  imageURL,
		ModelUsed: modelUsed,
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertGeneratedImage, userID, prompt, imageURL, modelUsed)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByUser returns the caller's most recent generations.
func (r *ImageRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.GeneratedImage, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectUserImages, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.GeneratedImage
	for rows.Next() {
		var img domain.GeneratedImage
		if err := rows.Scan(&img.ID, &img.UserID, &img.Prompt, &img.ImageURL, &img.ModelUsed, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}
