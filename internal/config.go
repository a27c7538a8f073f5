package internal

import (
	"fmt"
	"os"
	"strings"

	"curator/pkg/curation"
	"curator/pkg/notify"
	"curator/pkg/storage/history"

	"gopkg.in/yaml.v3"
)

// Config represents the curator configuration.
type Config struct {
	// DataDir holds the category files, blacklist, removed and grace.json.
	DataDir string `yaml:"data_dir"`
	// OutputDir receives the author notification file.
	OutputDir string `yaml:"output_dir"`
	// GitHub configures the repository metadata provider.
	GitHub GitHubConfig `yaml:"github"`
	// Organizations are swept even for repositories not listed in a category.
	Organizations []string `yaml:"organizations"`
	// Policy configures staleness and grace.
	Policy PolicyConfig `yaml:"policy"`
	// Publishers are banned publishers removed by remove-publishers.
	Publishers []curation.BannedPublisher `yaml:"publishers"`
	// Checks configures the one-shot gate commands.
	Checks ChecksConfig `yaml:"checks"`
	// Notify configures removal event publishing.
	Notify notify.Config `yaml:"notify"`
	// History configures the run history database.
	History history.Config `yaml:"history"`
	// Metrics configures the pass metrics push.
	Metrics MetricsConfig `yaml:"metrics"`
}

// GitHubConfig holds GitHub API settings.
type GitHubConfig struct {
	Token             string  `yaml:"token"`
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	TimeoutMS         int64   `yaml:"timeout_ms"`
}

// PolicyConfig holds the staleness policy.
type PolicyConfig struct {
	StaleAfterDays int `yaml:"stale_after_days"`
	GraceDays      int `yaml:"grace_days"`
	// When optionally replaces the default predicate with an expression.
	When string `yaml:"when"`
}

// ChecksConfig holds settings for the gate commands.
type ChecksConfig struct {
	EventRepositoryPath string `yaml:"event_repository_path"`
	BaseDir             string `yaml:"base_dir"`
}

// MetricsConfig holds the Pushgateway settings.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// LoadConfig loads the configuration from a YAML file.
// It expands environment variables and applies default values.
// An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return cfg, err
		}
	}

	applyDefaults(&cfg)
	orgs, err := normalizeOrganizations(cfg.Organizations)
	if err != nil {
		return cfg, err
	}
	cfg.Organizations = orgs
	publishers, err := normalizePublishers(cfg.Publishers)
	if err != nil {
		return cfg, err
	}
	cfg.Publishers = publishers
	if cfg.Policy.StaleAfterDays < 0 || cfg.Policy.GraceDays < 0 {
		return cfg, fmt.Errorf("policy days must not be negative")
	}
	return cfg, nil
}

var defaultPublishers = []curation.BannedPublisher{
	{Publisher: "reharmsen", Link: "https://github.com/hacs/integration/issues/2192"},
	{Publisher: "fred-oranje", Link: "https://github.com/hacs/integration/issues/2748"},
	{Publisher: "kraineff", Link: "https://github.com/hacs/integration/issues/2986"},
}

func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.GitHub.RequestsPerSecond == 0 {
		cfg.GitHub.RequestsPerSecond = 10
	}
	if cfg.GitHub.Burst == 0 {
		cfg.GitHub.Burst = 10
	}
	if cfg.GitHub.TimeoutMS == 0 {
		cfg.GitHub.TimeoutMS = 30000
	}
	if cfg.Organizations == nil {
		cfg.Organizations = append([]string(nil), curation.DefaultOrganizations...)
	}
	if cfg.Publishers == nil {
		cfg.Publishers = append([]curation.BannedPublisher(nil), defaultPublishers...)
	}
	if cfg.Policy.StaleAfterDays == 0 {
		cfg.Policy.StaleAfterDays = 180
	}
	if cfg.Policy.GraceDays == 0 {
		cfg.Policy.GraceDays = 60
	}
	if cfg.Checks.EventRepositoryPath == "" {
		cfg.Checks.EventRepositoryPath = "$.pull_request.head.repo.full_name"
	}
	if cfg.Checks.BaseDir == "" {
		cfg.Checks.BaseDir = "/tmp/repositories/default"
	}
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = "curator"
	}
	notify.ApplyDefaults(&cfg.Notify)
	history.ApplyDefaults(&cfg.History)
}

func normalizeOrganizations(orgs []string) ([]string, error) {
	out := make([]string, 0, len(orgs))
	seen := make(map[string]struct{}, len(orgs))
	for i, org := range orgs {
		org = strings.TrimSpace(org)
		if org == "" {
			return nil, fmt.Errorf("organization %d is empty", i)
		}
		key := strings.ToLower(org)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, org)
	}
	return out, nil
}

func normalizePublishers(publishers []curation.BannedPublisher) ([]curation.BannedPublisher, error) {
	out := make([]curation.BannedPublisher, 0, len(publishers))
	for i := range publishers {
		p := publishers[i]
		p.Publisher = strings.ToLower(strings.TrimSpace(p.Publisher))
		p.Link = strings.TrimSpace(p.Link)
		if p.Publisher == "" {
			return nil, fmt.Errorf("publisher %d is missing a name", i)
		}
		out = append(out, p)
	}
	return out, nil
}
