// Package postgres implements repository.Repository as JSONB documents in
// a single PostgreSQL table, one collection per entity type.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/order-backend/internal/repository"
	"github.com/example/order-backend/internal/retry"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       JSONB NOT NULL,
	PRIMARY KEY (collection, id)
)`

// Connect opens and pings a PostgreSQL pool and creates the documents table.
func Connect(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}
	return db, nil
}

// Repository keeps each T as a JSON document under (collection, id).
// Secondary index queries become equality filters on a top-level document
// attribute; the index name only labels the log line.
type Repository[T any] struct {
	db         *sql.DB
	collection string
	keyOf      func(*T) string
	retry      *retry.Executor
	log        *zap.Logger
}

var _ repository.Repository[struct{}] = (*Repository[struct{}])(nil)

func NewRepository[T any](db *sql.DB, collection string, keyOf func(*T) string, exec *retry.Executor, log *zap.Logger) *Repository[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository[T]{
		db:         db,
		collection: collection,
		keyOf:      keyOf,
		retry:      exec,
		log:        log.With(zap.String("collection", collection)),
	}
}

func (r *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	body, err := retry.Value(ctx, r.retry, "postgres.select", func(ctx context.Context) ([]byte, error) {
		var body []byte
		err := r.db.QueryRowContext(ctx,
			`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
			r.collection, id,
		).Scan(&body)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return body, err
	})
	if err != nil {
		r.log.Error("failed to select document", zap.String("operation", "findById"), zap.String("id", id), zap.Error(err))
		return nil, repository.StoreFailure(fmt.Errorf("failed to select document %s: %w", id, err))
	}
	if body == nil {
		return nil, nil
	}

	var entity T
	if err := json.Unmarshal(body, &entity); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &entity, nil
}

func (r *Repository[T]) FindAll(ctx context.Context, params repository.PageParams) (*repository.Page[T], error) {
	return r.list(ctx, "findAll", "", nil, params)
}

func (r *Repository[T]) QueryByIndex(ctx context.Context, index string, cond repository.KeyCondition, params repository.PageParams) (*repository.Page[T], error) {
	r.log.Debug("querying index", zap.String("index", index), zap.String("attribute", cond.Attribute))
	return r.list(ctx, "queryByIndex", cond.Attribute, cond.Value, params)
}

// list pages through the collection in id order. A non-empty attr adds an
// equality filter on body->>attr.
func (r *Repository[T]) list(ctx context.Context, operation, attr string, value any, params repository.PageParams) (*repository.Page[T], error) {
	var after cursor
	if params.ContinuationToken != "" {
		if err := repository.DecodeToken(params.ContinuationToken, &after); err != nil {
			return nil, err
		}
	}
	query, args := listQuery(r.collection, attr, value, after.After, params.Limit)

	bodies, err := retry.Value(ctx, r.retry, "postgres.select", func(ctx context.Context) ([][]byte, error) {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var bodies [][]byte
		for rows.Next() {
			var body []byte
			if err := rows.Scan(&body); err != nil {
				return nil, err
			}
			bodies = append(bodies, body)
		}
		return bodies, rows.Err()
	})
	if err != nil {
		r.log.Error("failed to list documents", zap.String("operation", operation), zap.Error(err))
		return nil, repository.StoreFailure(fmt.Errorf("failed to list documents: %w", err))
	}

	more := params.Limit > 0 && len(bodies) > params.Limit
	if more {
		bodies = bodies[:params.Limit]
	}
	entities := make([]T, 0, len(bodies))
	for _, body := range bodies {
		var entity T
		if err := json.Unmarshal(body, &entity); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		entities = append(entities, entity)
	}

	page := &repository.Page[T]{Items: entities, Count: len(entities)}
	if more {
		last := r.keyOf(&entities[len(entities)-1])
		if page.ContinuationToken, err = repository.EncodeToken(cursor{After: last}); err != nil {
			return nil, err
		}
	}
	return page, nil
}

func (r *Repository[T]) Save(ctx context.Context, entity *T) (*T, error) {
	id := r.keyOf(entity)
	body, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	err = r.retry.Do(ctx, "postgres.upsert", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)
			ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body`,
			r.collection, id, string(body))
		return err
	})
	if err != nil {
		r.log.Error("failed to upsert document", zap.String("operation", "save"), zap.String("id", id), zap.Error(err))
		return nil, repository.StoreFailure(fmt.Errorf("failed to upsert document %s: %w", id, err))
	}
	return entity, nil
}

func (r *Repository[T]) Update(ctx context.Context, id string, patch repository.Patch) (*T, error) {
	query, args, err := updateQuery(r.collection, id, patch)
	if err != nil {
		return nil, err
	}

	body, err := retry.Value(ctx, r.retry, "postgres.update", func(ctx context.Context) ([]byte, error) {
		var body []byte
		err := r.db.QueryRowContext(ctx, query, args...).Scan(&body)
		if !errors.Is(err, sql.ErrNoRows) {
			return body, err
		}

		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`,
			r.collection, id,
		).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			return nil, retry.Permanent(repository.ErrConflict)
		}
		return nil, retry.Permanent(repository.ErrNotFound)
	})
	if err != nil {
		r.log.Error("failed to update document", zap.String("operation", "update"), zap.String("id", id), zap.Error(err))
		return nil, repository.StoreFailure(fmt.Errorf("failed to update document %s: %w", id, err))
	}

	var entity T
	if err := json.Unmarshal(body, &entity); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &entity, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	err := r.retry.Do(ctx, "postgres.delete", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = $1 AND id = $2`,
			r.collection, id)
		return err
	})
	if err != nil {
		r.log.Error("failed to delete document", zap.String("operation", "delete"), zap.String("id", id), zap.Error(err))
		return repository.StoreFailure(fmt.Errorf("failed to delete document %s: %w", id, err))
	}
	return nil
}
