package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/logging"
)

// fetchTimeout bounds a single store round trip.
const fetchTimeout = 10 * time.Second

// Store fetches raw secret documents by id.
type Store interface {
	GetSecret(ctx context.Context, id string) ([]byte, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context, id string) ([]byte, error)

// GetSecret implements Store.
func (f StoreFunc) GetSecret(ctx context.Context, id string) ([]byte, error) {
	return f(ctx, id)
}

// Provider lazily fetches and caches one Credential.
//
// Thread Safety:
//   - Get and Invalidate are safe for concurrent use.
type Provider struct {
	store    Store
	secretID string
	recorder audit.Recorder
	logger   *logging.Logger

	mu         sync.RWMutex
	cached     *Credential
	generation uint64

	group   singleflight.Group
	fetches atomic.Uint64
}

// Option configures a Provider.
type Option func(*Provider)

// WithRecorder reports fetch outcomes as audit events.
func WithRecorder(r audit.Recorder) Option {
	return func(p *Provider) { p.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider returns a Provider reading secretID from store.
func NewProvider(store Store, secretID string, opts ...Option) *Provider {
	p := &Provider{
		store:    store,
		secretID: secretID,
		recorder: audit.Nop{},
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "credentials")
	return p
}

// Get returns the cached credential, fetching it first if needed.
// Every error wraps ErrConfiguration.
func (p *Provider) Get(ctx context.Context) (Credential, error) {
	p.mu.RLock()
	if p.cached != nil {
		c := *p.cached
		p.mu.RUnlock()
		return c, nil
	}
	p.mu.RUnlock()

	ch := p.group.DoChan(p.secretID, func() (any, error) {
		return p.fetch(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	case <-ctx.Done():
		return Credential{}, fmt.Errorf("%w: waiting for credentials: %w", ErrConfiguration, ctx.Err())
	}
}

// Invalidate drops the cached credential. A fetch already in flight when
// Invalidate is called does not repopulate the cache.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.generation++
	p.mu.Unlock()

	p.logger.Info("credential cache invalidated", "secret_id", p.secretID)
	p.recorder.Record(context.Background(), audit.Event{
		Type:     audit.EventCredentialsInvalidated,
		Message:  "Device-control credentials invalidated",
		Severity: audit.SeverityInfo,
		Context:  map[string]any{"secret_id": p.secretID},
	})
}

// Fetches returns how many store round trips have been made.
func (p *Provider) Fetches() uint64 {
	return p.fetches.Load()
}

func (p *Provider) fetch(ctx context.Context) (Credential, error) {
	p.mu.RLock()
	gen := p.generation
	p.mu.RUnlock()

	// The fetch is shared by every waiter, so one caller's cancellation must
	// not abort it for the others.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
	defer cancel()

	p.fetches.Add(1)
	data, err := p.store.GetSecret(fetchCtx, p.secretID)
	if err != nil {
		return Credential{}, p.fail(ctx, err)
	}

	c, err := ParseDocument(data)
	if err != nil {
		return Credential{}, p.fail(ctx, err)
	}

	p.mu.Lock()
	if p.generation == gen {
		cached := c
		p.cached = &cached
	}
	p.mu.Unlock()

	p.recorder.Record(ctx, audit.Event{
		Type:     audit.EventConfigRetrieved,
		Message:  "Device-control configuration retrieved",
		Severity: audit.SeverityInfo,
		Context:  map[string]any{"secret_id": p.secretID, "url": c.MaskedURL()},
	})
	return c, nil
}

func (p *Provider) fail(ctx context.Context, err error) error {
	if !errors.Is(err, ErrConfiguration) {
		err = fmt.Errorf("%w: fetching secret %q: %w", ErrConfiguration, p.secretID, err)
	}

	p.logger.Error("credential fetch failed", "secret_id", p.secretID, "error", err)
	p.recorder.Record(ctx, audit.Event{
		Type:     audit.EventConfigError,
		Message:  "Failed to retrieve device-control configuration",
		Severity: audit.SeverityHigh,
		Context:  map[string]any{"secret_id": p.secretID, "error": err.Error()},
	})
	return err
}
