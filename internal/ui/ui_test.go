package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

type fakeSession struct {
	mu        sync.Mutex
	loginErr  error
	logoutErr error
	logins    int
	logouts   int
}

func (f *fakeSession) Login(ctx context.Context) (*models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.Credential{AccessToken: "a", ExpiresIn: 3600, ObtainedAt: time.Now().UnixMilli()}, nil
}

func (f *fakeSession) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return f.logoutErr
}

type staticCreds struct{ cred *models.Credential }

func (s staticCreds) EnsureValid(ctx context.Context) (*models.Credential, error) {
	return s.cred, nil
}

type staticFetcher struct{ np *models.NowPlaying }

func (f staticFetcher) NowPlaying(ctx context.Context, token string) (*models.NowPlaying, error) {
	return f.np, nil
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func playing(album, artist string) tasks.Update {
	return tasks.Update{
		Phase:      tasks.PhasePlaying,
		Tick:       1,
		Message:    fmt.Sprintf("Playing: %s - %s", artist, album),
		NowPlaying: &models.NowPlaying{AlbumName: album, ArtistName: artist, IsPlaying: true},
		At:         time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestModel(t *testing.T) {
	t.Run("renders placeholder before the first update", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSession{}, nil)
		assert.Nil(t, m.Init())
		assert.Contains(t, m.View(), "Checking playback")
	})

	t.Run("renders playing update", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSession{}, nil)
		next, cmd := m.Update(pollUpdateMsg(playing("Kind of Blue", "Miles Davis")))
		require.NotNil(t, cmd)

		view := next.View()
		assert.Contains(t, view, "Kind of Blue")
		assert.Contains(t, view, "Miles Davis")
		assert.Contains(t, view, "Playing")
		assert.Contains(t, view, "12:30:00")
	})

	t.Run("renders paused state", func(t *testing.T) {
		u := playing("Blue", "Joni Mitchell")
		u.NowPlaying.IsPlaying = false
		m := NewModel(context.Background(), &fakeSession{}, nil)
		next, _ := m.Update(pollUpdateMsg(u))
		assert.Contains(t, next.View(), "Paused")
	})

	t.Run("renders login prompt", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSession{}, nil)
		next, _ := m.Update(pollUpdateMsg(tasks.Update{
			Phase:   tasks.PhaseLoginRequired,
			Message: "Not logged in. Log in to start polling.",
		}))
		assert.Contains(t, next.View(), "Press l to log in")
	})

	t.Run("renders poll error", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSession{}, nil)
		next, _ := m.Update(pollUpdateMsg(tasks.Update{
			Phase: tasks.PhaseError,
			Err:   shared.NewStatusError(shared.ErrAPIRequest, 429, nil),
		}))
		assert.Contains(t, next.View(), "Rate limited")
	})

	t.Run("quit key stops", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSession{}, nil)
		_, cmd := m.Update(keyMsg('q'))
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
		assert.Error(t, m.ctx.Err())
	})

	t.Run("window size updates dimensions", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSession{}, nil)
		next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		nm := next.(Model)
		assert.Equal(t, 80, nm.width)
		assert.Equal(t, 24, nm.height)
	})
}

func TestLoginLogout(t *testing.T) {
	t.Run("login success", func(t *testing.T) {
		sess := &fakeSession{}
		m := NewModel(context.Background(), sess, nil)

		next, cmd := m.Update(keyMsg('l'))
		require.NotNil(t, cmd)
		assert.Contains(t, next.View(), "Waiting for authorization")

		next, _ = next.Update(cmd())
		assert.Contains(t, next.View(), "Logged in.")
		assert.Equal(t, 1, sess.logins)
	})

	t.Run("login ignored while busy", func(t *testing.T) {
		sess := &fakeSession{}
		m := NewModel(context.Background(), sess, nil)

		next, _ := m.Update(keyMsg('l'))
		_, cmd := next.Update(keyMsg('l'))
		assert.Nil(t, cmd)
	})

	t.Run("login denied", func(t *testing.T) {
		sess := &fakeSession{loginErr: fmt.Errorf("login: %w", shared.ErrAuthDenied)}
		m := NewModel(context.Background(), sess, nil)

		next, cmd := m.Update(keyMsg('l'))
		next, _ = next.Update(cmd())
		assert.Contains(t, next.View(), "Authorization was denied.")
	})

	t.Run("logout", func(t *testing.T) {
		sess := &fakeSession{}
		m := NewModel(context.Background(), sess, nil)

		next, cmd := m.Update(keyMsg('o'))
		next, _ = next.Update(cmd())
		assert.Contains(t, next.View(), "Logged out.")
		assert.Equal(t, 1, sess.logouts)
	})

	t.Run("logout failure", func(t *testing.T) {
		sess := &fakeSession{logoutErr: errors.New("disk full")}
		m := NewModel(context.Background(), sess, nil)

		next, cmd := m.Update(keyMsg('o'))
		next, _ = next.Update(cmd())
		assert.Contains(t, next.View(), "disk full")
	})
}

func TestHistory(t *testing.T) {
	t.Run("records distinct albums newest first", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSession{}, nil)
		var next tea.Model = m
		for _, u := range []tasks.Update{
			playing("A", "X"),
			playing("A", "X"),
			playing("B", "Y"),
		} {
			next, _ = next.Update(pollUpdateMsg(u))
		}

		items := next.(Model).history.Items()
		require.Len(t, items, 2)
		assert.Equal(t, "B", items[0].(historyItem).Title())
		assert.Equal(t, "A", items[1].(historyItem).Title())
	})

	t.Run("toggles view", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSession{}, nil)
		next, _ := m.Update(keyMsg('h'))
		assert.Equal(t, HistoryView, next.(Model).view)

		next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.Equal(t, NowPlayingView, next.(Model).view)
	})

	t.Run("caps length", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeSession{}, nil)
		var next tea.Model = m
		for i := range historyLimit + 5 {
			next, _ = next.Update(pollUpdateMsg(playing(fmt.Sprintf("album %d", i), "artist")))
		}
		assert.Len(t, next.(Model).history.Items(), historyLimit)
	})
}

func TestModelWithPoller(t *testing.T) {
	t.Run("first update arrives through Init", func(t *testing.T) {
		cred := &models.Credential{AccessToken: "a", ExpiresIn: 3600, ObtainedAt: time.Now().UnixMilli()}
		np := &models.NowPlaying{AlbumName: "Vespertine", ArtistName: "Björk", IsPlaying: true}
		p := tasks.NewPoller(staticCreds{cred}, staticFetcher{np}, time.Hour, nil)

		m := NewModel(context.Background(), &fakeSession{}, p)
		defer m.shutdown()

		cmd := m.Init()
		require.NotNil(t, cmd)
		next, _ := m.Update(cmd())
		assert.Contains(t, next.View(), "Vespertine")
	})

	t.Run("login required when no credential", func(t *testing.T) {
		p := tasks.NewPoller(staticCreds{}, staticFetcher{}, time.Hour, nil)

		m := NewModel(context.Background(), &fakeSession{}, p)
		defer m.shutdown()

		next, _ := m.Update(m.Init()())
		assert.Contains(t, next.View(), "Press l to log in")
	})

	t.Run("channel closes after shutdown", func(t *testing.T) {
		p := tasks.NewPoller(staticCreds{}, staticFetcher{}, time.Hour, nil)
		m := NewModel(context.Background(), &fakeSession{}, p)
		m.shutdown()

		cmd := waitForUpdate(m.updates)
		msg := cmd()
		// A buffered update may still be pending; drain until closed.
		for msg.(Msg).kind == MsgPollUpdate {
			msg = cmd()
		}
		assert.Equal(t, MsgPollClosed, msg.(Msg).kind)
	})
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "denied", err: shared.ErrAuthDenied, want: "Authorization was denied."},
		{name: "cancelled", err: shared.ErrAuthCancelled, want: "Login cancelled or timed out."},
		{name: "corrupt", err: shared.ErrStorageCorrupt, want: "Stored credential is unreadable. Log out and log in again."},
		{name: "unauthorized", err: shared.NewStatusError(shared.ErrAPIRequest, 401, nil), want: "Spotify rejected the access token. Try logging in again."},
		{name: "other", err: errors.New("boom"), want: "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeError(tt.err))
		})
	}
}
