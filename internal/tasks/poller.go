package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const DefaultInterval = 10 * time.Second

// ErrStopped is returned by [Handle.RefreshNow] after the poller has stopped.
var ErrStopped = errors.New("poller stopped")

// CredentialSource yields a valid credential, or nil when the user must log in.
type CredentialSource interface {
	EnsureValid(ctx context.Context) (*models.Credential, error)
}

// Poller periodically resolves a credential and fetches the current playback.
type Poller struct {
	creds    CredentialSource
	fetcher  services.NowPlayingFetcher
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
}

func NewPoller(creds CredentialSource, fetcher services.NowPlayingFetcher, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Poller{creds: creds, fetcher: fetcher, interval: interval, logger: logger, now: time.Now}
}

type refreshRequest struct {
	done chan struct{}
}

// Handle controls a running poll loop.
type Handle struct {
	cancel    context.CancelFunc
	done      chan struct{}
	refreshCh chan refreshRequest
	stopOnce  sync.Once
}

// Start runs the first tick immediately and then one tick per interval until ctx ends or
// [Handle.Stop] is called. The next tick is scheduled only after the previous one finishes,
// so ticks never overlap. A tick that finds no credential emits [PhaseLoginRequired] and
// pauses the schedule until [Handle.RefreshNow].
//
// emit is called from the poll goroutine. Updates from a tick interrupted by cancellation are dropped.
func (p *Poller) Start(ctx context.Context, emit func(Update)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel:    cancel,
		done:      make(chan struct{}),
		refreshCh: make(chan refreshRequest),
	}
	go p.loop(ctx, h, emit)
	return h
}

func (p *Poller) loop(ctx context.Context, h *Handle, emit func(Update)) {
	defer close(h.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	seq := 0
	run := func() {
		seq++
		paused := p.tick(ctx, seq, emit)
		if paused {
			p.logger.Info("polling paused until login")
			return
		}
		timer.Reset(p.interval)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("poller stopped", "ticks", seq)
			return
		case <-timer.C:
			run()
		case req := <-h.refreshCh:
			timer.Stop()
			run()
			close(req.done)
		}
	}
}

// tick performs one ensure-then-fetch cycle and reports whether polling should pause.
func (p *Poller) tick(ctx context.Context, seq int, emit func(Update)) (paused bool) {
	u, ok := p.poll(ctx, seq)
	if !ok {
		return false
	}
	emit(u)
	return u.Phase == PhaseLoginRequired
}

// poll returns false when ctx was cancelled before the result could be delivered.
func (p *Poller) poll(ctx context.Context, seq int) (Update, bool) {
	cred, err := p.creds.EnsureValid(ctx)
	if ctx.Err() != nil {
		return Update{}, false
	}
	if err != nil {
		p.logFailure("credential check failed", err)
		return errorUpdate(seq, p.now(), err), true
	}
	if cred == nil {
		return loginRequiredUpdate(seq, p.now()), true
	}

	np, err := p.fetcher.NowPlaying(ctx, cred.AccessToken)
	if ctx.Err() != nil {
		return Update{}, false
	}
	if err != nil {
		p.logFailure("now playing fetch failed", err)
		return errorUpdate(seq, p.now(), err), true
	}
	if np == nil {
		return idleUpdate(seq, p.now()), true
	}
	return playingUpdate(seq, p.now(), np), true
}

// logFailure logs transient failures as warnings; the next tick retries them.
func (p *Poller) logFailure(msg string, err error) {
	if shared.IsTransient(err) {
		p.logger.Warn(msg, "error", err, "retry", "next tick")
		return
	}
	p.logger.Error(msg, "error", err)
}

// Once runs a single ensure-then-fetch cycle outside any loop.
func (p *Poller) Once(ctx context.Context) (Update, error) {
	u, ok := p.poll(ctx, 1)
	if !ok {
		return Update{}, ctx.Err()
	}
	return u, nil
}

// RefreshNow runs a tick immediately, waits for it to be delivered, and resumes a paused schedule.
func (h *Handle) RefreshNow(ctx context.Context) error {
	req := refreshRequest{done: make(chan struct{})}

	select {
	case h.refreshCh <- req:
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the loop and waits for it to exit. No update is emitted after Stop returns.
func (h *Handle) Stop() {
	h.stopOnce.Do(h.cancel)
	<-h.done
}

// Done is closed when the loop exits.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
