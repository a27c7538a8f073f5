package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// eventJob is the River job payload for one event.
type eventJob struct {
	Event
	Topic string `json:"topic"`

	kind string
}

func (j eventJob) Kind() string { return j.kind }

// riverQueuePublisher enqueues events as River jobs. The client is insert
// only; workers live in whatever service consumes the queue.
type riverQueuePublisher struct {
	pool   *pgxpool.Pool
	client *river.Client[pgx.Tx]
	cfg    RiverQueueConfig
}

func newRiverQueuePublisher(cfg RiverQueueConfig) (*riverQueuePublisher, error) {
	if cfg.DSN == "" {
		return nil, errors.New("riverqueue dsn is required")
	}
	pool, err := pgxpool.New(context.Background(), cfg.DSN)
	if err != nil {
		return nil, err
	}
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &riverQueuePublisher{pool: pool, client: client, cfg: cfg}, nil
}

func (p *riverQueuePublisher) Publish(ctx context.Context, topic string, event Event) error {
	metadata, err := json.Marshal(map[string]string{
		"run_id": event.RunID,
		"kind":   event.Kind,
		"topic":  topic,
	})
	if err != nil {
		return err
	}
	_, err = p.client.Insert(ctx, eventJob{Event: event, Topic: topic, kind: p.cfg.Kind}, &river.InsertOpts{
		Queue:       p.cfg.Queue,
		MaxAttempts: p.cfg.MaxAttempts,
		Priority:    p.cfg.Priority,
		Tags:        p.cfg.Tags,
		Metadata:    metadata,
	})
	return err
}

func (p *riverQueuePublisher) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
