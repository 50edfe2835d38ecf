// Package publish emits scenario evaluations as Kafka events.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/observability"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
)

// ScenarioEvent is the summary published for every evaluation. Rasters are
// not included.
type ScenarioEvent struct {
	ID              string                  `json:"id"`
	InputKey        string                  `json:"input_key"`
	Source          string                  `json:"source"`
	City            string                  `json:"city"`
	Preset          string                  `json:"preset,omitempty"`
	Params          heatindex.Params        `json:"params"`
	Metrics         heatindex.MetricsResult `json:"metrics"`
	BaselineAreaKm2 float64                 `json:"baseline_area_km2"`
	Outcomes        []planning.Outcome      `json:"outcomes"`
	EvaluatedAt     time.Time               `json:"evaluated_at"`
}

// NewScenarioEvent summarises an evaluation. preset may be empty.
func NewScenarioEvent(source, preset string, ev *workflow.Evaluation) ScenarioEvent {
	return ScenarioEvent{
		ID:              uuid.NewString(),
		InputKey:        ev.Key,
		Source:          source,
		City:            ev.City,
		Preset:          preset,
		Params:          ev.Params,
		Metrics:         ev.Metrics,
		BaselineAreaKm2: ev.BaselineAreaKm2,
		Outcomes:        ev.Outcomes,
		EvaluatedAt:     ev.EvaluatedAt,
	}
}

// Writer produces scenario events to a Kafka topic.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a producer for topic. metrics may be nil.
func NewWriter(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Publish writes events in one batch. Events for the same city share a
// partition.
func (w *Writer) Publish(ctx context.Context, events ...ScenarioEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		if w.metrics != nil {
			w.metrics.PublishErrors.Inc()
		}
		return fmt.Errorf("publish scenario events: %w", err)
	}
	if w.metrics != nil {
		w.metrics.EventsPublished.Add(float64(len(msgs)))
	}
	w.logger.Debug("scenario events published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeToMessage(ev ScenarioEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scenario event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.City),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(ev.ID)},
			{Key: "source", Value: []byte(ev.Source)},
			{Key: "evaluated_at", Value: []byte(ev.EvaluatedAt.Format(time.RFC3339))},
		},
	}, nil
}
