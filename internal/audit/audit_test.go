package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horeca-backoffice/apps/api/internal/store/memstore"
)

func TestLogWritesEntry(t *testing.T) {
	st := memstore.New()
	companyID := uuid.New()
	listID := uuid.New()

	err := NewLogger(st).Log(context.Background(), Entry{
		CompanyID:  companyID,
		Action:     "imports.prices",
		EntityType: "price_list",
		EntityID:   &listID,
		RequestID:  "req-1",
		Metadata:   map[string]any{"itemsImported": 3},
	})
	require.NoError(t, err)

	logs := st.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, companyID, logs[0].CompanyID)
	assert.Equal(t, &listID, logs[0].EntityID)
	require.NotNil(t, logs[0].RequestID)
	assert.Equal(t, "req-1", *logs[0].RequestID)
	assert.JSONEq(t, `{"itemsImported":3}`, string(logs[0].Metadata))
}

func TestLogDefaultsMetadataAndWrapsErrors(t *testing.T) {
	st := memstore.New()
	require.NoError(t, NewLogger(st).Log(context.Background(), Entry{Action: "imports.customers"}))
	logs := st.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "{}", string(logs[0].Metadata))
	assert.Nil(t, logs[0].RequestID)

	st.Fail = func(op, _ string) error {
		if op == "InsertAuditLog" {
			return errors.New("relation audit_log does not exist")
		}
		return nil
	}
	err := NewLogger(st).Log(context.Background(), Entry{Action: "imports.products"})
	assert.ErrorContains(t, err, "insert audit log")
}
