package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func documentHandlers() repository.ModelHandlers[*documentRecord] {
	return repository.ModelHandlers[*documentRecord]{
		NewRecord: func() *documentRecord {
			return &documentRecord{}
		},
		GetID: func(record *documentRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.DocID)
		},
		SetID: func(record *documentRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.DocID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *documentRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
