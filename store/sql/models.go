package sqlstore

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// documentRecord is one persisted entity document. All entity types share
// a single table; the primary key is "{collection}:{doc_id}" so lookups
// stay single-row regardless of collection.
type documentRecord struct {
	bun.BaseModel `bun:"table:gnap_documents,alias:gd"`

	ID         string    `bun:"id,pk"`
	Collection string    `bun:"collection,notnull"`
	DocID      string    `bun:"doc_id,notnull"`
	Data       []byte    `bun:"data,type:jsonb,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func documentKey(collection, docID string) string {
	return strings.TrimSpace(collection) + ":" + strings.TrimSpace(docID)
}

func newDocumentRecord(collection, docID string, data []byte, now time.Time) *documentRecord {
	return &documentRecord{
		ID:         documentKey(collection, docID),
		Collection: strings.TrimSpace(collection),
		DocID:      strings.TrimSpace(docID),
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
