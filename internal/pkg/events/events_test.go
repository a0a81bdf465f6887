package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMarshal(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	body, err := Marshal(ReportResolved, map[string]string{"report_id": "r1"}, at)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "report.resolved", got["type"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["occurred_at"])
	assert.Equal(t, "r1", got["payload"].(map[string]interface{})["report_id"])
}

func TestNewWithoutURL(t *testing.T) {
	p, err := New("", "vidhub.events", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), VideoPublished, nil))
	assert.NoError(t, p.Close())
}
