package adapters

import (
	"context"
	"fmt"

	"fleet-office/internal/core/db"
	"fleet-office/internal/features/reports/domain"
	"fleet-office/internal/features/reports/ports"
)

// PostgresArtifactRepository persists generated-report records in postgres.
type PostgresArtifactRepository struct {
	db db.Querier
}

// NewPostgresArtifactRepository creates a new PostgresArtifactRepository.
func NewPostgresArtifactRepository(q db.Querier) *PostgresArtifactRepository {
	return &PostgresArtifactRepository{db: q}
}

var _ ports.ArtifactRepository = (*PostgresArtifactRepository)(nil)

// Save inserts the artifact record.
func (r *PostgresArtifactRepository) Save(ctx context.Context, artifact *domain.Artifact) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO trip_reports (id, user_id, file) VALUES ($1, $2, $3)
		RETURNING created_at
	`, artifact.ID, artifact.UserID, artifact.File)
	if err := row.Scan(&artifact.CreatedAt); err != nil {
		return fmt.Errorf("failed to save report artifact: %w", err)
	}
	return nil
}

// List returns the user's artifacts, newest first.
func (r *PostgresArtifactRepository) List(ctx context.Context, userID string) ([]domain.Artifact, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, file, created_at FROM trip_reports
		WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []domain.Artifact
	for rows.Next() {
		var a domain.Artifact
		if err := rows.Scan(&a.ID, &a.UserID, &a.File, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report artifacts: %w", err)
	}
	return artifacts, nil
}
