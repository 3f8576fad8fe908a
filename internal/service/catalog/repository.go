package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/kapu/quien-soy-bot-go/internal/domain"
	"github.com/kapu/quien-soy-bot-go/internal/util"
	"github.com/kapu/quien-soy-bot-go/pkg/errors"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS characters (
	name        TEXT PRIMARY KEY,
	name_key    TEXT NOT NULL,
	category    TEXT NOT NULL,
	hints       TEXT[] NOT NULL,
	description TEXT NOT NULL,
	image_query TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS characters_name_key_idx ON characters (name_key);
`

// ErrEmpty is returned when every stored character is excluded.
var ErrEmpty = stderrors.New("catalog has no eligible character")

// DB is the subset of *sql.DB the repository uses.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Repository serves characters stored in PostgreSQL. It doubles as an
// offline character source when the generator is unreachable.
type Repository struct {
	db     DB
	logger *zap.Logger
}

func NewRepository(db DB, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.NewServiceError("failed to create characters table", "catalog", "ensure_schema", err)
	}
	return nil
}

// FetchCharacter returns a random stored character whose folded name is not
// in exclude.
func (r *Repository) FetchCharacter(ctx context.Context, exclude []string) (*domain.Character, error) {
	query := `
		SELECT name, category, hints, description, image_query
		FROM characters
		WHERE NOT (name_key = ANY($1))
		ORDER BY random()
		LIMIT 1
	`

	var (
		character domain.Character
		hints     pq.StringArray
	)
	err := r.db.QueryRowContext(ctx, query, pq.Array(excludeKeys(exclude))).Scan(
		&character.Name, &character.Category, &hints, &character.Description, &character.ImageQuery,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewGenerationError("catalog is exhausted", "catalog", ErrEmpty)
	}
	if err != nil {
		return nil, errors.NewGenerationError("catalog query failed", "catalog", err)
	}

	character.Hints = []string(hints)
	character.Normalize()
	if err := character.Validate(); err != nil {
		r.logger.Warn("Stored character is malformed", zap.String("name", character.Name), zap.Error(err))
		return nil, errors.NewGenerationError("stored character is malformed", "catalog", err)
	}

	r.logger.Debug("Character served from catalog", zap.String("category", character.Category))
	return &character, nil
}

// Save upserts the character keyed by its folded name.
func (r *Repository) Save(ctx context.Context, character *domain.Character) error {
	if err := character.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO characters (name, name_key, category, hints, description, image_query)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name_key) DO UPDATE SET
			category = EXCLUDED.category,
			hints = EXCLUDED.hints,
			description = EXCLUDED.description,
			image_query = EXCLUDED.image_query
	`

	_, err := r.db.ExecContext(ctx, query,
		character.Name,
		util.FoldKey(character.Name),
		character.Category,
		pq.Array(character.Hints),
		character.Description,
		character.ImageQuery,
	)
	if err != nil {
		return errors.NewServiceError(fmt.Sprintf("failed to save character %q", character.Name), "catalog", "save", err)
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM characters`).Scan(&n); err != nil {
		return 0, errors.NewServiceError("failed to count characters", "catalog", "count", err)
	}
	return n, nil
}

// Categories lists the distinct categories with their character counts.
func (r *Repository) Categories(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM characters GROUP BY category`)
	if err != nil {
		return nil, errors.NewServiceError("failed to list categories", "catalog", "categories", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, errors.NewServiceError("failed to scan category", "catalog", "categories", err)
		}
		result[category] = count
	}
	return result, rows.Err()
}

func excludeKeys(names []string) []string {
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if key := util.FoldKey(name); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
