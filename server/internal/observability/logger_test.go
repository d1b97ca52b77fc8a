package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestContext_GeneratesID(t *testing.T) {
	rc := NewRequestContext(nil, "", "/api/v1/caches")
	assert.Len(t, rc.RequestID, 36)

	rc = NewRequestContext(nil, "req-1", "/api/v1/caches")
	assert.Equal(t, "req-1", rc.RequestID)
}

func TestRequestContext_LogsBaseFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rc := NewRequestContext(logger, "req-42", "/api/v1/users/:user/preferences")
	rc.UserID = "alice"
	rc.Error("request failed", errors.New("boom"), slog.Int(LogFieldStatus, 500))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request failed", entry["msg"])
	assert.Equal(t, "req-42", entry[LogFieldRequestID])
	assert.Equal(t, "alice", entry[LogFieldUserID])
	assert.Equal(t, "/api/v1/users/:user/preferences", entry[LogFieldRoute])
	assert.Equal(t, "boom", entry["error"])
	assert.EqualValues(t, 500, entry[LogFieldStatus])
}

func TestRequestContext_OmitsEmptyUser(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	NewRequestContext(logger, "req-1", "/healthz").Info("ok")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry[LogFieldUserID]
	assert.False(t, ok)
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	rc := NewRequestContext(nil, "req-1", "/")
	got, ok := FromContext(WithRequestContext(context.Background(), rc))
	require.True(t, ok)
	assert.Same(t, rc, got)
}
