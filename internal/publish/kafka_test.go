package publish

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
)

func TestSerializeToMessage(t *testing.T) {
	p, err := heatindex.NewParams(20, 30, 25)
	require.NoError(t, err)
	at := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	ev := NewScenarioEvent("runner", "Moderate", &workflow.Evaluation{
		Key:         "abc",
		City:        "Lisbon",
		Params:      p,
		Metrics:     heatindex.MetricsResult{AreaAboveThresholdKm2: 1.5},
		EvaluatedAt: at,
	})
	require.NotEmpty(t, ev.ID)

	msg, err := serializeToMessage(ev)
	require.NoError(t, err)
	assert.Equal(t, []byte("Lisbon"), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "runner", headers["source"])
	assert.Equal(t, ev.ID, headers["event_id"])
	assert.Equal(t, "2025-07-01T12:00:00Z", headers["evaluated_at"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "abc", body["input_key"])
	assert.Equal(t, "Moderate", body["preset"])
	params := body["params"].(map[string]any)
	assert.Equal(t, 30.0, params["roof_pct"])
	metrics := body["metrics"].(map[string]any)
	assert.Equal(t, 1.5, metrics["area_above_threshold_km2"])
}

func TestPublish_NoEventsIsNoOp(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, "scenario-events", slog.Default(), nil)
	defer w.Close()
	assert.NoError(t, w.Publish(context.Background()))
}
