package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func tokenRecordHandlers() repository.ModelHandlers[*tokenRecordRow] {
	return repository.ModelHandlers[*tokenRecordRow]{
		NewRecord: func() *tokenRecordRow {
			return &tokenRecordRow{}
		},
		GetID: func(record *tokenRecordRow) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *tokenRecordRow, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "store_key"
		},
		GetIdentifierValue: func(record *tokenRecordRow) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.StoreKey)
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
