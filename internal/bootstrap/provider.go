package bootstrap

import (
	"context"
	"sync"
	"sync/atomic"

	"rollsheet/internal/store/sqlite"
)

type OpenFunc func(ctx context.Context) (*sqlite.Client, *Report, error)

// Provider owns the session database. The first call to DB constructs it;
// callers arriving while construction runs wait for the same result, and the
// result (handle or error) is kept for the life of the Provider.
type Provider struct {
	open OpenFunc

	once   sync.Once
	done   atomic.Bool
	db     *sqlite.Client
	report *Report
	err    error
}

func NewProvider(open OpenFunc) *Provider {
	return &Provider{open: open}
}

// NewDefaultProvider wires the provider to Open with the given options.
func NewDefaultProvider(opts Options) *Provider {
	return NewProvider(func(ctx context.Context) (*sqlite.Client, *Report, error) {
		return Open(ctx, opts)
	})
}

// DB returns the shared handle. Construction keeps the first caller's values
// but not its cancellation, so a caller that gives up cannot poison the result
// for everyone else.
func (p *Provider) DB(ctx context.Context) (*sqlite.Client, error) {
	p.once.Do(func() {
		p.db, p.report, p.err = p.open(context.WithoutCancel(ctx))
		p.done.Store(true)
	})
	return p.db, p.err
}

// Report returns the construction report, or nil before the first DB call.
func (p *Provider) Report() *Report {
	if !p.done.Load() {
		return nil
	}
	return p.report
}

func (p *Provider) Close(ctx context.Context) error {
	if !p.done.Load() || p.db == nil {
		return nil
	}
	return p.db.Close(ctx)
}
