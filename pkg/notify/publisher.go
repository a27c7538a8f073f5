package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher sends pass events to one or more brokers.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close() error
}

// NewPublisher builds a publisher for every configured driver. A driver that
// cannot be built is logged and left out; at least one must remain.
func NewPublisher(cfg Config) (Publisher, error) {
	logger := watermill.NewStdLogger(false, false)

	mux := &publisherMux{}
	for _, name := range driverNames(cfg) {
		pub, err := openDriver(cfg, name, logger)
		if err != nil {
			logger.Error("notify driver unavailable", err, watermill.LogFields{"driver": name})
			continue
		}
		mux.targets = append(mux.targets, target{driver: name, pub: pub})
	}
	if len(mux.targets) == 0 {
		return nil, errors.New("notify: none of the configured drivers could be opened")
	}
	return mux, nil
}

func driverNames(cfg Config) []string {
	raw := cfg.Drivers
	if len(raw) == 0 {
		raw = []string{cfg.Driver}
	}
	names := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, name := range raw {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if len(names) == 0 {
		names = append(names, "gochannel")
	}
	return names
}

func openDriver(cfg Config, name string, logger watermill.LoggerAdapter) (Publisher, error) {
	if name == "riverqueue" {
		return newRiverQueuePublisher(cfg.RiverQueue)
	}
	factory, ok := lookupDriver(name)
	if !ok {
		return nil, fmt.Errorf("unknown notify driver %q", name)
	}
	pub, closeFn, err := factory(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &eventPublisher{pub: pub, closeFn: closeFn}, nil
}

// eventPublisher encodes events as JSON Watermill messages.
type eventPublisher struct {
	pub     message.Publisher
	closeFn func() error
}

func (p *eventPublisher) Publish(ctx context.Context, topic string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("run_id", event.RunID)
	msg.Metadata.Set("kind", event.Kind)
	msg.SetContext(ctx)
	return p.pub.Publish(topic, msg)
}

func (p *eventPublisher) Close() error {
	err := p.pub.Close()
	if p.closeFn != nil {
		err = errors.Join(err, p.closeFn())
	}
	return err
}

type target struct {
	driver string
	pub    Publisher
}

// publisherMux fans every event out to all drivers and reports each failure.
type publisherMux struct {
	targets []target
}

func (m *publisherMux) Publish(ctx context.Context, topic string, event Event) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.pub.Publish(ctx, topic, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.driver, err))
		}
	}
	return errors.Join(errs...)
}

func (m *publisherMux) Close() error {
	var errs []error
	for _, t := range m.targets {
		if err := t.pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.driver, err))
		}
	}
	return errors.Join(errs...)
}
