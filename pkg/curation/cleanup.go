package curation

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger is the logging surface the cleaner needs.
type Logger interface {
	Printf(format string, args ...interface{})
}

var defaultLogger = log.New(os.Stdout, "curator/cleanup ", log.LstdFlags|log.Lmicroseconds)

// DefaultOrganizations are the organizations whose repositories are swept
// even when they are not listed in a category.
var DefaultOrganizations = []string{"custom-components", "custom-cards", "home-assistant-community-themes"}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithPolicy replaces the default staleness evaluator.
func WithPolicy(p Policy) Option {
	return func(c *Cleaner) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithOrganizations sets the tracked organization allow-list.
func WithOrganizations(orgs ...string) Option {
	return func(c *Cleaner) {
		c.organizations = nil
		for _, org := range orgs {
			if org = strings.TrimSpace(org); org != "" {
				c.organizations = append(c.organizations, org)
			}
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(l Logger) Option {
	return func(c *Cleaner) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers observers notified after persistence.
func WithObserver(observers ...Observer) Option {
	return func(c *Cleaner) {
		for _, o := range observers {
			if o != nil {
				c.observers = append(c.observers, o)
			}
		}
	}
}

// Cleaner runs the removal pass over the index.
type Cleaner struct {
	store         Store
	provider      MetadataProvider
	policy        Policy
	organizations []string
	now           func() time.Time
	logger        Logger
	observers     []Observer
}

func NewCleaner(store Store, provider MetadataProvider, opts ...Option) *Cleaner {
	c := &Cleaner{
		store:         store,
		provider:      provider,
		policy:        NewEvaluator(DefaultStaleAfter),
		organizations: append([]string(nil), DefaultOrganizations...),
		now:           time.Now,
		logger:        defaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Report summarizes one pass.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	// Removed holds the records appended by the sweeps, in order.
	Removed []RemovalRecord
	// Backfilled holds the records appended by reconciliation.
	Backfilled []RemovalRecord
	// Healed lists blacklisted repositories dropped from a category without a new record.
	Healed    []RepositoryID
	Authors   []string
	Evaluated int
	Graced    int
}

// Notification renders the author list as "@a, @b".
func (r *Report) Notification() string {
	return FormatAuthors(r.Authors)
}

// FormatAuthors joins logins with ", " and prefixes each with "@".
func FormatAuthors(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	return "@" + strings.Join(authors, ", @")
}

// pass carries the state of one run through its stages.
type pass struct {
	*Cleaner
	stores     *Stores
	at         time.Time
	report     *Report
	evaluated  map[string]struct{}
	authors    map[string]struct{}
	orgPending []pendingRemoval
}

type pendingRemoval struct {
	repo RepositoryID
	meta RepositoryMetadata
}

// Run executes load, reconcile, category sweep, organization sweep,
// attribution and persistence, in that order. Nothing is written unless
// every earlier stage succeeded.
func (c *Cleaner) Run(ctx context.Context) (*Report, error) {
	if c.store == nil || c.provider == nil {
		return nil, errors.New("cleaner requires a store and a metadata provider")
	}
	stores, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	now := c.now()
	p := &pass{
		Cleaner:   c,
		stores:    stores,
		at:        now,
		report:    &Report{RunID: uuid.NewString(), StartedAt: now},
		evaluated: make(map[string]struct{}),
		authors:   make(map[string]struct{}),
	}
	for _, dup := range stores.Ledger.Duplicates() {
		c.logger.Printf("dropped duplicate blacklist entry repository=%s", dup)
	}

	if err := p.reconcile(); err != nil {
		return nil, err
	}
	if err := p.sweepCategories(ctx); err != nil {
		return nil, err
	}
	if err := p.sweepOrganizations(ctx); err != nil {
		return nil, err
	}
	if err := p.attribute(ctx); err != nil {
		return nil, err
	}

	if err := c.store.Save(stores, p.report.Authors); err != nil {
		return nil, err
	}
	p.report.FinishedAt = c.now()
	c.logger.Printf("pass complete run=%s evaluated=%d graced=%d removed=%d backfilled=%d authors=%d",
		p.report.RunID, p.report.Evaluated, p.report.Graced, len(p.report.Removed), len(p.report.Backfilled), len(p.report.Authors))

	for _, o := range c.observers {
		if err := o.Observe(ctx, p.report); err != nil {
			c.logger.Printf("observer failed run=%s: %v", p.report.RunID, err)
		}
	}
	return p.report, nil
}

func (p *pass) reconcile() error {
	added, err := p.stores.Ledger.Reconcile()
	if err != nil {
		return err
	}
	for _, record := range added {
		p.logger.Printf("backfilled ledger record repository=%s", record.Repository)
	}
	p.report.Backfilled = added
	return nil
}

func (p *pass) sweepCategories(ctx context.Context) error {
	cats := p.stores.Categories
	for _, category := range cats.Categories() {
		snapshot := cats.Members(category)
		var removals []RepositoryID
		for _, repo := range snapshot {
			if err := ctx.Err(); err != nil {
				return err
			}
			if p.graced(repo) {
				continue
			}
			if p.stores.Ledger.Blacklisted(repo) {
				p.logger.Printf("blacklisted repository still listed category=%s repository=%s", category, repo)
				removals = append(removals, repo)
				p.report.Healed = append(p.report.Healed, repo)
				continue
			}
			meta, stale, err := p.evaluate(ctx, repo)
			if err != nil {
				return err
			}
			if !stale {
				continue
			}
			removals = append(removals, repo)
			p.remove(repo)
			if meta.OwnerType == OwnerUser {
				p.addAuthor(meta.OwnerLogin)
			} else {
				p.orgPending = append(p.orgPending, pendingRemoval{repo: repo, meta: meta})
			}
			p.logger.Printf("removed stale repository category=%s repository=%s owner=%s", category, repo, meta.OwnerLogin)
		}
		for _, repo := range removals {
			cats.Remove(category, repo)
		}
	}
	return nil
}

func (p *pass) sweepOrganizations(ctx context.Context) error {
	for _, org := range p.organizations {
		repos, err := p.provider.OrganizationRepositories(ctx, org)
		if err != nil {
			return &FetchError{Op: "list organization repositories", Target: org, Err: err}
		}
		for _, repo := range repos {
			if err := ctx.Err(); err != nil {
				return err
			}
			if p.stores.Ledger.Blacklisted(repo) {
				continue
			}
			if _, seen := p.evaluated[repo.key()]; seen {
				continue
			}
			if p.graced(repo) {
				continue
			}
			meta, stale, err := p.evaluate(ctx, repo)
			if err != nil {
				return err
			}
			if !stale {
				continue
			}
			p.remove(repo)
			p.orgPending = append(p.orgPending, pendingRemoval{repo: repo, meta: meta})
			p.logger.Printf("removed stale organization repository org=%s repository=%s", org, repo)
		}
	}
	return nil
}

func (p *pass) attribute(ctx context.Context) error {
	for _, pending := range p.orgPending {
		contributors := pending.meta.Contributors
		if len(contributors) == 0 {
			fetched, err := p.provider.Contributors(ctx, pending.repo)
			if err != nil {
				return &FetchError{Op: "list contributors", Target: string(pending.repo), Err: err}
			}
			contributors = fetched
		}
		top, ok := TopContributor(contributors)
		if !ok {
			p.logger.Printf("no contributors to notify repository=%s", pending.repo)
			continue
		}
		p.addAuthor(top.Login)
	}
	return nil
}

// graced reports whether repo holds an active grace entry. A graced
// repository counts as seen so the organization sweep leaves it alone.
func (p *pass) graced(repo RepositoryID) bool {
	if !p.stores.Grace.IsGraced(repo, p.at) {
		return false
	}
	p.evaluated[repo.key()] = struct{}{}
	p.report.Graced++
	return true
}

// evaluate fetches metadata for repo and applies the policy.
func (p *pass) evaluate(ctx context.Context, repo RepositoryID) (RepositoryMetadata, bool, error) {
	p.evaluated[repo.key()] = struct{}{}
	meta, err := p.provider.Repository(ctx, repo)
	if err != nil {
		return RepositoryMetadata{}, false, &FetchError{Op: "fetch repository", Target: string(repo), Err: err}
	}
	p.report.Evaluated++
	return meta, p.policy.IsStale(meta, p.at), nil
}

func (p *pass) remove(repo RepositoryID) {
	p.stores.Ledger.AddToBlacklist(repo)
	record := NewRemovalRecord(repo, RemovalStale, "", "")
	p.stores.Ledger.RecordRemoval(record)
	p.report.Removed = append(p.report.Removed, record)
}

func (p *pass) addAuthor(login string) {
	if login == "" {
		return
	}
	if _, ok := p.authors[login]; ok {
		return
	}
	p.authors[login] = struct{}{}
	p.report.Authors = append(p.report.Authors, login)
}
