package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/irrigation-scheduler/internal/config"
	"github.com/couchcryptid/irrigation-scheduler/internal/cycle"
	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

const eventTypeScheduled = "irrigation.zone_scheduled"

// messageWriter is the subset of kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher streams scheduled zone runs to a Kafka topic for downstream
// consumers such as valve controllers. It implements cycle.Sink.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured schedule topic.
// The writer makes at most two attempts per batch.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaScheduleTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  2,
		WriteTimeout: cfg.StoreTimeout,
	}
	return &Publisher{writer: w, logger: logger}
}

// ZoneScheduled is the message published for every schedule entry.
type ZoneScheduled struct {
	CycleID   string `json:"cycle_id"`
	PlantName string `json:"plant_name,omitempty"`
	domain.ScheduleEntry
}

// StoreCycle publishes the cycle's schedule entries in a single
// WriteMessages call. Cycles with no entries publish nothing.
func (p *Publisher) StoreCycle(ctx context.Context, rec cycle.Record) (cycle.Receipt, error) {
	if len(rec.Schedules) == 0 {
		return cycle.Receipt{}, nil
	}

	names := make(map[int]string, len(rec.Decisions))
	for _, d := range rec.Decisions {
		names[d.PlantID] = d.PlantName
	}

	msgs := make([]kafkago.Message, len(rec.Schedules))
	for i, e := range rec.Schedules {
		msg, err := serializeToMessage(ZoneScheduled{CycleID: rec.CycleID, PlantName: names[e.PlantID], ScheduleEntry: e})
		if err != nil {
			return cycle.Receipt{}, err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return cycle.Receipt{}, fmt.Errorf("publish schedule: %w", err)
	}
	p.logger.Debug("schedule published", "cycle_id", rec.CycleID, "messages", len(msgs))
	return cycle.Receipt{}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a scheduled zone run into a Kafka message keyed
// by plant, so one plant's runs stay ordered within a partition.
func serializeToMessage(ev ZoneScheduled) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize schedule entry: %w", err)
	}
	return kafkago.Message{
		Key:   []byte("plant-" + strconv.Itoa(ev.PlantID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventTypeScheduled)},
			{Key: "cycle_id", Value: []byte(ev.CycleID)},
			{Key: "start_time", Value: []byte(ev.StartTime.UTC().Format(time.RFC3339))},
		},
	}, nil
}
