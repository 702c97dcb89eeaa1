package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

type Store interface {
	InsertAuditLog(ctx context.Context, entry store.AuditLog) error
}

type Logger struct {
	st Store
}

func NewLogger(st Store) *Logger {
	return &Logger{st: st}
}

type Entry struct {
	CompanyID  uuid.UUID
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	RequestID  string
	Metadata   map[string]any
}

func (l *Logger) Log(ctx context.Context, entry Entry) error {
	metadata := []byte("{}")
	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = encoded
	}

	row := store.AuditLog{
		CompanyID:  entry.CompanyID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
	}
	if entry.RequestID != "" {
		row.RequestID = &entry.RequestID
	}

	if err := l.st.InsertAuditLog(ctx, row); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
