// Package session owns the credential lifecycle: load, validate, refresh, login and logout.
//
// [Manager.EnsureValid] is the only entry point consumers need. It re-reads the store on every
// call and refreshes an expired credential at most once at a time, no matter how many callers
// observe the expiry concurrently.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/store"
)

const (
	refreshKey            = "refresh"
	DefaultRefreshTimeout = 30 * time.Second
)

// Refresher exchanges a credential's refresh token for a new credential and persists it.
type Refresher interface {
	Refresh(ctx context.Context, prev *models.Credential) (*models.Credential, error)
}

// Authorizer runs an interactive login and persists the result.
type Authorizer interface {
	Login(ctx context.Context) (*models.Credential, error)
}

// Manager coordinates the store with the refresh and authorization flows.
type Manager struct {
	store      store.Store
	refresher  Refresher
	authorizer Authorizer
	logger     *log.Logger

	now            func() time.Time
	margin         time.Duration
	refreshTimeout time.Duration

	flight singleflight.Group
	// writeMu orders a refresh flight against Logout so a late refresh cannot resurrect a cleared credential.
	writeMu sync.Mutex
}

// Opts configures optional [Manager] behavior. Zero values pick defaults.
type Opts struct {
	Logger         *log.Logger
	Now            func() time.Time
	Margin         time.Duration // defaults to [models.SafetyMargin]
	RefreshTimeout time.Duration // bounds a refresh flight independently of any caller
}

func NewManager(s store.Store, r Refresher, a Authorizer, opts Opts) *Manager {
	m := &Manager{
		store:          s,
		refresher:      r,
		authorizer:     a,
		logger:         opts.Logger,
		now:            opts.Now,
		margin:         opts.Margin,
		refreshTimeout: opts.RefreshTimeout,
	}
	if m.logger == nil {
		m.logger = shared.DiscardLogger()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.margin <= 0 {
		m.margin = models.SafetyMargin
	}
	if m.refreshTimeout <= 0 {
		m.refreshTimeout = DefaultRefreshTimeout
	}
	return m
}

func (m *Manager) valid(c *models.Credential) bool {
	return c.IsValidAt(m.now(), m.margin)
}

// EnsureValid returns a credential that is valid now, refreshing it if needed.
//
// It returns nil with a nil error when no usable credential exists: nothing is stored, or the
// stored credential expired without a refresh token (in which case storage is cleared).
// Refresh failures are returned unchanged and leave storage untouched.
func (m *Manager) EnsureValid(ctx context.Context) (*models.Credential, error) {
	c, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	if m.valid(c) {
		return c, nil
	}

	ch := m.flight.DoChan(refreshKey, func() (any, error) {
		return m.refresh(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		cred, _ := res.Val.(*models.Credential)
		return cred.Clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh runs inside the single-flight gate. It detaches from the first caller's cancellation
// so that caller giving up does not fail the callers sharing the flight.
func (m *Manager) refresh(parent context.Context) (*models.Credential, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), m.refreshTimeout)
	defer cancel()

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	c, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	if m.valid(c) {
		m.logger.Debug("credential already refreshed")
		return c, nil
	}

	next, err := m.refresher.Refresh(ctx, c)
	switch {
	case errors.Is(err, shared.ErrNoRefreshToken):
		m.logger.Info("credential expired without a refresh token, clearing")
		if err := m.store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear unusable credential: %w", err)
		}
		return nil, nil
	case err != nil:
		m.logger.Warn("credential refresh failed", "error", err)
		return nil, err
	}

	m.logger.Debug("credential refreshed", "expires_at", next.ExpiresAtTime().Format(time.RFC3339))
	return next, nil
}

// Login runs the interactive authorization flow.
func (m *Manager) Login(ctx context.Context) (*models.Credential, error) {
	if m.authorizer == nil {
		return nil, fmt.Errorf("%w: no authorizer configured", shared.ErrNotImplemented)
	}
	return m.authorizer.Login(ctx)
}

// Logout clears the stored credential. It succeeds when nothing is stored.
func (m *Manager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	m.logger.Info("logged out")
	return nil
}

// Status describes the stored credential without refreshing it.
type Status struct {
	Authenticated bool
	Valid         bool
	Refreshable   bool
	ExpiresAt     time.Time
	Scope         string
	TokenType     string
}

// Status reports on the stored credential. It never contacts the provider.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	c, err := m.store.Load(ctx)
	if err != nil {
		return Status{}, err
	}
	if c == nil {
		return Status{}, nil
	}
	return Status{
		Authenticated: true,
		Valid:         m.valid(c),
		Refreshable:   c.CanRefresh(),
		ExpiresAt:     c.ExpiresAtTime(),
		Scope:         c.Scope,
		TokenType:     c.TokenType,
	}, nil
}
