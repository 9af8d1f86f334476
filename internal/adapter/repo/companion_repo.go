package repo

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"kompis/server/internal/domain"
	"kompis/server/internal/infra"
	"kompis/server/internal/sqlinline"
)

// CompanionRepositoryPG reads companion attributes from PostgreSQL.
type CompanionRepositoryPG struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
}

// NewCompanionRepository constructs a new companion repository instance.
func NewCompanionRepository(sql infra.SQLExecutor, logger zerolog.Logger) *CompanionRepositoryPG {
	return &CompanionRepositoryPG{sql: sql, logger: logger}
}

// GetAttributes fetches stored companion attributes by id. A missing id, an
// unknown companion or any lookup failure yields nil so the pipeline can fall
// back to an empty context instead of failing the request.
func (r *CompanionRepositoryPG) GetAttributes(ctx context.Context, id string) *domain.Companion {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	row := r.sql.QueryRow(ctx, sqlinline.QSelectCompanion, id)
	var c domain.Companion
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Age, &c.Description, &c.Personality, &c.Body, &c.Ethnicity, &c.Relationship, &c.CreatedAt); err != nil {
		r.logger.Debug().Err(err).Str("companion_id", id).Msg("companion lookup miss")
		return nil
	}
	return &c
}
