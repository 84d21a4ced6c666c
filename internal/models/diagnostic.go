package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Diagnostic is one row of the persisted diagnostic log.
type Diagnostic struct {
	bun.BaseModel `bun:"table:diagnostics"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	Operation  string    `bun:"operation,notnull" json:"operation"`
	Target     string    `bun:"target" json:"target"`
	StatusCode int       `bun:"status_code" json:"statusCode"`
	Message    string    `bun:"message,notnull" json:"message"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"createdAt"`
}
