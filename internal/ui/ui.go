package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	NowPlayingView ViewState = iota
	HistoryView
)

const historyLimit = 50

// Session is the subset of the session manager the TUI drives.
type Session interface {
	Login(ctx context.Context) (*models.Credential, error)
	Logout(ctx context.Context) error
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	view    ViewState
	session Session
	handle  *tasks.Handle
	updates chan tasks.Update
	last    *tasks.Update
	busy    string
	notice  string
	err     error
	history list.Model
	width   int
	height  int
	help    help.Model
	keys    keyMap
}

// NewModel creates the TUI model and starts polling. A nil poller leaves the model idle,
// which is only useful in tests.
func NewModel(ctx context.Context, session Session, poller *tasks.Poller) Model {
	ctx, cancel := context.WithCancel(ctx)

	delegate := list.NewDefaultDelegate()
	history := list.New([]list.Item{}, delegate, 0, 0)
	history.Title = "Recently played"
	history.SetShowHelp(false)

	m := Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    NowPlayingView,
		session: session,
		updates: make(chan tasks.Update, 8),
		history: history,
		help:    help.New(),
		keys:    newKeyMap(),
	}

	if poller != nil {
		ch := m.updates
		m.handle = poller.Start(ctx, func(u tasks.Update) {
			select {
			case ch <- u:
			case <-ctx.Done():
			}
		})
		go func(h *tasks.Handle) {
			<-h.Done()
			close(ch)
		}(m.handle)
	}
	return m
}

// Init returns the command that listens for the first poll update.
func (m Model) Init() tea.Cmd {
	if m.handle == nil {
		return nil
	}
	return waitForUpdate(m.updates)
}

// Update handles incoming messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.history.SetSize(msg.Width, max(msg.Height-4, 0))
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == HistoryView {
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) && (m.view != HistoryView || !m.history.SettingFilter()) {
		m.shutdown()
		return m, tea.Quit
	}

	if m.view == HistoryView {
		if key.Matches(msg, m.keys.back) && !m.history.SettingFilter() {
			m.view = NowPlayingView
			return m, nil
		}
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.history):
		m.view = HistoryView
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		if m.handle == nil {
			return m, nil
		}
		m.notice = "Refreshing…"
		return m, refreshCmd(m.ctx, m.handle)
	case key.Matches(msg, m.keys.login):
		if m.busy != "" {
			return m, nil
		}
		m.busy = "Waiting for authorization in your browser…"
		m.err = nil
		return m, loginCmd(m.ctx, m.session, m.handle)
	case key.Matches(msg, m.keys.logout):
		if m.busy != "" {
			return m, nil
		}
		m.busy = "Logging out…"
		m.err = nil
		return m, logoutCmd(m.ctx, m.session, m.handle)
	}
	return m, nil
}

func (m Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPollUpdate:
		u := msg.data.(tasks.Update)
		m.last = &u
		m.notice = ""
		if u.Phase == tasks.PhasePlaying && u.NowPlaying != nil {
			m.record(*u.NowPlaying, u)
		}
		return m, waitForUpdate(m.updates)
	case MsgPollClosed:
		return m, nil
	case MsgLoginDone:
		m.busy = ""
		m.err = msg.err
		if msg.err == nil {
			m.notice = "Logged in."
		}
		return m, nil
	case MsgLogoutDone:
		m.busy = ""
		m.err = msg.err
		if msg.err == nil {
			m.notice = "Logged out."
		}
		return m, nil
	case MsgRefreshDone:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		return m, nil
	}
	return m, nil
}

// record adds np to the history unless it repeats the most recent entry.
func (m *Model) record(np models.NowPlaying, u tasks.Update) {
	items := m.history.Items()
	if len(items) > 0 {
		if prev, ok := items[0].(historyItem); ok &&
			prev.np.AlbumName == np.AlbumName && prev.np.ArtistName == np.ArtistName {
			return
		}
	}
	m.history.InsertItem(0, historyItem{np: np, seen: u.At.Format("15:04:05")})
	if n := len(m.history.Items()); n > historyLimit {
		m.history.RemoveItem(n - 1)
	}
}

// shutdown stops polling and cancels any in-flight login.
func (m Model) shutdown() {
	m.cancel()
	if m.handle != nil {
		m.handle.Stop()
	}
}

// View renders the current view.
func (m Model) View() string {
	if m.view == HistoryView {
		return m.history.View() + "\n" + styles.help.Render("esc: back • q: quit")
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("♫ Now Playing"))
	b.WriteString("\n")
	b.WriteString(m.renderCurrent())
	b.WriteString("\n\n")

	if m.busy != "" {
		b.WriteString(styles.warn.Render(m.busy))
		b.WriteString("\n")
	} else if m.notice != "" {
		b.WriteString(styles.ok.Render(m.notice))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(styles.err.Render(describeError(m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderCurrent() string {
	if m.last == nil {
		return styles.card.Render(styles.help.Render("Checking playback…"))
	}

	u := m.last
	var body string
	switch u.Phase {
	case tasks.PhasePlaying:
		np := u.NowPlaying
		state := styles.ok.Render("▶ Playing")
		if !np.IsPlaying {
			state = styles.warn.Render("❚❚ Paused")
		}
		lines := []string{
			state,
			"",
			NewBold("#FFFFFF").Render(np.AlbumName),
			np.ArtistName,
		}
		if np.ArtworkURL != "" {
			lines = append(lines, "", styles.help.Render(np.ArtworkURL))
		}
		body = strings.Join(lines, "\n")
	case tasks.PhaseIdle:
		body = styles.help.Render(u.Message)
	case tasks.PhaseLoginRequired:
		body = styles.warn.Render(u.Message) + "\n" + styles.help.Render("Press l to log in with Spotify.")
	case tasks.PhaseError:
		body = styles.err.Render(describeError(u.Err))
	}

	footer := styles.help.Render(fmt.Sprintf("updated %s", u.At.Format("15:04:05")))
	return styles.card.Render(body + "\n\n" + footer)
}

// describeError turns auth and API failures into short user-facing text.
func describeError(err error) string {
	var status *shared.StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shared.ErrAuthDenied):
		return "Authorization was denied."
	case errors.Is(err, shared.ErrAuthCancelled):
		return "Login cancelled or timed out."
	case errors.Is(err, shared.ErrStorageCorrupt):
		return "Stored credential is unreadable. Log out and log in again."
	case errors.As(err, &status) && status.StatusCode == 429:
		return "Rate limited by Spotify. Retrying on the next update."
	case errors.As(err, &status) && status.StatusCode == 401:
		return "Spotify rejected the access token. Try logging in again."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func waitForUpdate(ch <-chan tasks.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return pollClosedMsg()
		}
		return pollUpdateMsg(u)
	}
}

func refreshCmd(ctx context.Context, h *tasks.Handle) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg(h.RefreshNow(ctx))
	}
}

// loginCmd runs the authorization flow and then resumes polling.
func loginCmd(ctx context.Context, s Session, h *tasks.Handle) tea.Cmd {
	return func() tea.Msg {
		if _, err := s.Login(ctx); err != nil {
			return loginDoneMsg(err)
		}
		if h != nil {
			go h.RefreshNow(ctx)
		}
		return loginDoneMsg(nil)
	}
}

func logoutCmd(ctx context.Context, s Session, h *tasks.Handle) tea.Cmd {
	return func() tea.Msg {
		if err := s.Logout(ctx); err != nil {
			return logoutDoneMsg(err)
		}
		if h != nil {
			go h.RefreshNow(ctx)
		}
		return logoutDoneMsg(nil)
	}
}
