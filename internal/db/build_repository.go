package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/buildplanner/internal/build"
	"github.com/udisondev/buildplanner/internal/planner"
)

// ErrBuildNotFound is returned when no build is stored under the id.
// It matches planner.ErrNotFound.
var ErrBuildNotFound = fmt.Errorf("stored %w", planner.ErrNotFound)

var _ planner.BuildStore = (*BuildRepository)(nil)

// BuildRepository stores builds as YAML documents keyed by id.
type BuildRepository struct {
	pool *pgxpool.Pool
}

// NewBuildRepository creates a new build repository.
func NewBuildRepository(pool *pgxpool.Pool) *BuildRepository {
	return &BuildRepository{pool: pool}
}

// Fingerprint returns the blake2b-256 digest of the encoded build.
// Equal builds have equal fingerprints regardless of map order.
func Fingerprint(b *build.Build) ([]byte, error) {
	_, sum, err := encode(b)
	return sum, err
}

func encode(b *build.Build) (doc, sum []byte, err error) {
	doc, err = yaml.Marshal(b.Normalized())
	if err != nil {
		return nil, nil, fmt.Errorf("encoding build: %w", err)
	}
	digest := blake2b.Sum256(doc)
	return doc, digest[:], nil
}

// Get loads the build stored under id.
func (r *BuildRepository) Get(ctx context.Context, id string) (*build.Build, error) {
	var doc string
	err := r.pool.QueryRow(ctx,
		`SELECT document FROM builds WHERE id = $1`, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("build %q: %w", id, ErrBuildNotFound)
		}
		return nil, fmt.Errorf("querying build %q: %w", id, err)
	}

	var b build.Build
	if err := yaml.Unmarshal([]byte(doc), &b); err != nil {
		return nil, fmt.Errorf("decoding build %q: %w", id, err)
	}
	return b.Normalized(), nil
}

// Save upserts b under id. The row is left untouched when the stored
// fingerprint matches; written reports whether anything changed.
func (r *BuildRepository) Save(ctx context.Context, id string, b *build.Build) (written bool, err error) {
	doc, sum, err := encode(b)
	if err != nil {
		return false, fmt.Errorf("saving build %q: %w", id, err)
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO builds (id, class, document, fingerprint)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   class = EXCLUDED.class,
		   document = EXCLUDED.document,
		   fingerprint = EXCLUDED.fingerprint,
		   updated_at = now()
		 WHERE builds.fingerprint <> EXCLUDED.fingerprint`,
		id, b.Normalized().Class, string(doc), sum,
	)
	if err != nil {
		return false, fmt.Errorf("saving build %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		slog.Debug("build unchanged, save skipped", "build", id)
		return false, nil
	}
	return true, nil
}

// List returns the ids of every stored build in order.
func (r *BuildRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM builds ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning build id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating builds: %w", err)
	}
	return ids, nil
}

// Delete removes the build stored under id.
func (r *BuildRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM builds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting build %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("build %q: %w", id, ErrBuildNotFound)
	}
	return nil
}
