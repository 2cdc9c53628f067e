package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/hobby"
)

// Compile-time interface assertion.
var _ HobbyRepository = (*PostgresHobbyRepo)(nil)

// PostgresHobbyRepo implements HobbyRepository against the hosted Postgres
// backing the hobbies table.
type PostgresHobbyRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresHobbyRepo constructs the repository.
func NewPostgresHobbyRepo(pool *pgxpool.Pool) *PostgresHobbyRepo {
	return &PostgresHobbyRepo{pool: pool}
}

const hobbyColumns = `id, type_hobbies, type, anonymous, mal_id, title, image, score, year, url, genre, watching_status, created_at`

// List returns entries matching the filter, newest first.
func (r *PostgresHobbyRepo) List(ctx context.Context, filter hobby.Filter) ([]hobby.Entry, error) {
	query := `SELECT ` + hobbyColumns + ` FROM hobbies WHERE type_hobbies = $1`
	args := []any{filter.Kind}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.WatchingStatus != "" {
		args = append(args, filter.WatchingStatus)
		query += fmt.Sprintf(" AND watching_status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list hobbies: %w", err)
	}
	defer rows.Close()

	var entries []hobby.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list hobbies: %w", err)
	}
	return entries, nil
}

// ExistsByMALID reports whether an entry for the MAL id already exists,
// regardless of entry type.
func (r *PostgresHobbyRepo) ExistsByMALID(ctx context.Context, kind string, malID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM hobbies WHERE type_hobbies = $1 AND mal_id = $2)`,
		kind, malID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check hobby exists: %w", err)
	}
	return exists, nil
}

// Create inserts the entry. A unique violation on (type_hobbies, mal_id)
// maps to ErrDuplicate.
func (r *PostgresHobbyRepo) Create(ctx context.Context, entry hobby.Entry) (hobby.Entry, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO hobbies (id, type_hobbies, type, anonymous, mal_id, title, image, score, year, url, genre, watching_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at`,
		entry.ID, entry.Kind, entry.Type, entry.Anonymous, entry.MALID, entry.Title,
		entry.Image, entry.Score, entry.Year, entry.URL, entry.Genre, entry.WatchingStatus,
	).Scan(&entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return hobby.Entry{}, hobby.ErrDuplicate
		}
		return hobby.Entry{}, fmt.Errorf("insert hobby: %w", err)
	}
	return entry, nil
}

// UpdateWatchingStatus sets the watching_status of one entry.
func (r *PostgresHobbyRepo) UpdateWatchingStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE hobbies SET watching_status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("update watching status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return hobby.ErrNotFound
	}
	return nil
}

func scanEntry(rows pgx.Rows) (hobby.Entry, error) {
	var entry hobby.Entry
	err := rows.Scan(
		&entry.ID, &entry.Kind, &entry.Type, &entry.Anonymous, &entry.MALID,
		&entry.Title, &entry.Image, &entry.Score, &entry.Year, &entry.URL,
		&entry.Genre, &entry.WatchingStatus, &entry.CreatedAt,
	)
	if err != nil {
		return hobby.Entry{}, fmt.Errorf("scan hobby: %w", err)
	}
	return entry, nil
}
