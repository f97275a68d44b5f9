package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gnap/core"
)

type StoreFactory struct {
	db    *bun.DB
	store *DocumentStore
}

func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

func NewStoreFactoryFromPersistence(client *persistence.Client) (*StoreFactory, error) {
	factory := NewStoreFactory()
	if _, err := factory.BuildStore(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewStoreFactoryFromDB(db *bun.DB) (*StoreFactory, error) {
	factory := NewStoreFactory()
	if _, err := factory.BuildStore(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *StoreFactory) BuildStore(persistenceClient any) (core.EntityStore, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: store factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.store != nil {
		return f.store, nil
	}

	documentRepo := repository.NewRepository[*documentRecord](f.db, documentHandlers())
	if validator, ok := documentRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid document repository wiring: %w", err)
		}
	}
	f.store = &DocumentStore{
		db:   f.db,
		repo: documentRepo,
	}
	return f.store, nil
}

func (f *StoreFactory) Store() *DocumentStore {
	if f == nil {
		return nil
	}
	return f.store
}

func (f *StoreFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
