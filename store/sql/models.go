package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

const tokenTable = "scoopit_tokens"

type tokenRecordRow struct {
	bun.BaseModel `bun:"table:scoopit_tokens,alias:st"`

	ID            string    `bun:"id,pk"`
	StoreKey      string    `bun:"store_key,notnull,unique"`
	Payload       []byte    `bun:"payload,notnull"`
	PayloadFormat string    `bun:"payload_format,notnull"`
	Stage         string    `bun:"stage,notnull"`
	Encrypted     bool      `bun:"encrypted,notnull"`
	SavedAt       time.Time `bun:"saved_at,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
