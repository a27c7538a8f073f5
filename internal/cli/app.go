package cli

import (
	"context"
	"log"
	"net/http"
	"time"

	"curator/internal"
	"curator/pkg/curation"
	"curator/pkg/datastore"
	"curator/pkg/notify"
	"curator/pkg/providers/github"
	"curator/pkg/storage/history"
)

// app carries the resolved configuration shared by every command.
type app struct {
	configPath string
	dataDir    string
	outputDir  string

	cfg    internal.Config
	logger *log.Logger
}

func (a *app) load() error {
	cfg, err := internal.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.outputDir != "" {
		cfg.OutputDir = a.outputDir
	}
	a.cfg = cfg
	a.logger = internal.NewLogger("cli")
	return nil
}

func (a *app) store() *datastore.Dir {
	return datastore.New(a.cfg.DataDir, a.cfg.OutputDir)
}

func (a *app) githubClient(ctx context.Context) (*github.Client, error) {
	gh := a.cfg.GitHub
	return github.NewTokenClient(ctx, github.Config{
		Token:     gh.Token,
		BaseURL:   gh.BaseURL,
		Transport: internal.NewRateLimitedTransport(http.DefaultTransport, gh.RequestsPerSecond, gh.Burst),
		Timeout:   time.Duration(gh.TimeoutMS) * time.Millisecond,
	})
}

// observers builds the post-save observers of a cleanup pass. The returned
// function releases whatever was opened.
func (a *app) observers() ([]curation.Observer, func(), error) {
	var (
		out     []curation.Observer
		closers []func() error
	)
	release := func() {
		for _, fn := range closers {
			if err := fn(); err != nil {
				a.logger.Printf("close observer: %v", err)
			}
		}
	}

	out = append(out, internal.NewPassMetrics(a.cfg.Metrics))

	if a.cfg.Notify.Enabled {
		pub, err := notify.NewPublisher(a.cfg.Notify)
		if err != nil {
			release()
			return nil, nil, err
		}
		notifier := notify.NewNotifier(pub, a.cfg.Notify.Topic)
		out = append(out, notifier)
		closers = append(closers, notifier.Close)
	}

	if a.cfg.History.Enabled {
		store, err := history.Open(a.cfg.History)
		if err != nil {
			release()
			return nil, nil, err
		}
		out = append(out, store)
		closers = append(closers, store.Close)
	}

	return out, release, nil
}
