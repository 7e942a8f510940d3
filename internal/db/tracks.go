package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres error codes and constraint names the repository translates.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"

	slugConstraint   = "tracks_slug_key"
	formatConstraint = "tracks_format_check"
)

const trackColumns = `id, slug, title, artist, owned_status, owned, format, album,
	release_year, bpm, camelot_key, comments, added_at, created_at, updated_at`

// TrackRepository handles track database operations.
type TrackRepository struct {
	pool    *pgxpool.Pool
	migrate func(ctx context.Context) error
}

func (r *TrackRepository) ensureSchema(ctx context.Context) error {
	if r.migrate == nil {
		return nil
	}
	return r.migrate(ctx)
}

// Upsert creates or updates a track by id.
// The legacy owned column is never written.
func (r *TrackRepository) Upsert(ctx context.Context, track *Track) error {
	query := `
		INSERT INTO tracks (id, slug, title, artist, owned_status, format, album,
			release_year, bpm, camelot_key, comments, added_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			title = EXCLUDED.title,
			artist = EXCLUDED.artist,
			owned_status = EXCLUDED.owned_status,
			format = EXCLUDED.format,
			album = EXCLUDED.album,
			release_year = EXCLUDED.release_year,
			bpm = EXCLUDED.bpm,
			camelot_key = EXCLUDED.camelot_key,
			comments = EXCLUDED.comments,
			added_at = EXCLUDED.added_at,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}
	err := r.pool.QueryRow(ctx, query,
		track.ID,
		track.Slug,
		track.Title,
		track.Artist,
		track.OwnedStatus,
		track.Format,
		track.Album,
		track.ReleaseYear,
		track.BPM,
		track.CamelotKey,
		track.Comments,
		track.AddedAt,
	).Scan(&track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting track %s: %w", track.ID, classify(err))
	}
	return nil
}

// List retrieves every track, oldest first.
func (r *TrackRepository) List(ctx context.Context) ([]Track, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		tracks = append(tracks, *track)
	}
	return tracks, rows.Err()
}

// Delete removes a track by ID.
// Deleting a track that does not exist is not an error.
func (r *TrackRepository) Delete(ctx context.Context, id string) error {
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM tracks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting track %s: %w", id, err)
	}
	return nil
}

func scanTrack(row pgx.Row) (*Track, error) {
	var track Track
	err := row.Scan(
		&track.ID,
		&track.Slug,
		&track.Title,
		&track.Artist,
		&track.OwnedStatus,
		&track.Owned,
		&track.Format,
		&track.Album,
		&track.ReleaseYear,
		&track.BPM,
		&track.CamelotKey,
		&track.Comments,
		&track.AddedAt,
		&track.CreatedAt,
		&track.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &track, nil
}

// classify maps constraint violations to the package sentinels while
// keeping the driver error in the chain.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == slugConstraint:
		return fmt.Errorf("%w: %w", ErrSlugConflict, err)
	case pgErr.Code == codeCheckViolation && pgErr.ConstraintName == formatConstraint:
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	default:
		return err
	}
}
