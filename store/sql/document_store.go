// Package sqlstore backs the entity store contract with a relational
// database through bun. Every entity is stored as an opaque JSON document;
// the store never interprets payloads.
package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gnap/core"
	gnaprepo "github.com/goliatone/go-gnap/repository"
)

type DocumentStore struct {
	db   *bun.DB
	repo repository.Repository[*documentRecord]
}

func (s *DocumentStore) FindByID(ctx context.Context, collection, id string) ([]byte, bool, error) {
	if s == nil || s.repo == nil {
		return nil, false, fmt.Errorf("sqlstore: document store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("id", "=", documentKey(collection, id)),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Limit(1)
		}),
	)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0].Data, true, nil
}

func (s *DocumentStore) FindSingleton(ctx context.Context, collection string) ([]byte, bool, error) {
	if s == nil || s.repo == nil {
		return nil, false, fmt.Errorf("sqlstore: document store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("collection", "=", strings.TrimSpace(collection)),
		repository.OrderBy("created_at ASC"),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Limit(1)
		}),
	)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0].Data, true, nil
}

// Insert writes a whole-value document, replacing any previous version.
// Writes are replace-whole-value by contract, so the conflict path only
// touches data and updated_at.
func (s *DocumentStore) Insert(ctx context.Context, collection, id string, data []byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: document store is not configured")
	}
	if strings.TrimSpace(collection) == "" {
		return fmt.Errorf("sqlstore: collection is required")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("sqlstore: document id is required")
	}

	record := newDocumentRecord(collection, id, data, time.Now().UTC())
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: document store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*documentRecord)(nil)).
		Where("id = ?", documentKey(collection, id)).
		Exec(ctx)
	return err
}

// EnsureSchema creates the document table when it does not exist yet.
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: document store is not configured")
	}
	_, err := s.db.NewCreateTable().
		Model((*documentRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (s *DocumentStore) DB() *bun.DB {
	if s == nil {
		return nil
	}
	return s.db
}

var _ core.EntityStore = (*DocumentStore)(nil)

// SingletonID keeps callers on one constant for singleton documents.
const SingletonID = gnaprepo.SingletonID
