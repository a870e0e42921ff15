package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

// visit simulates the browser following the provider's redirect.
func visit(t *testing.T, ln net.Listener, query string) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		query = strings.ReplaceAll(query, "{state}", u.Query().Get("state"))

		resp, err := http.Get("http://" + ln.Addr().String() + "/callback?" + query)
		if err != nil {
			return err
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil
	}
}

func TestLoopbackPrompter(t *testing.T) {
	authURL := "https://accounts.example.com/authorize?state=s-1"

	t.Run("success", func(t *testing.T) {
		ln := listen(t)
		p := &LoopbackPrompter{Listener: ln, Open: visit(t, ln, "code=abc&state={state}"), Timeout: 5 * time.Second}

		out, err := p.Prompt(context.Background(), authURL)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSuccess, out.Kind)
		assert.Equal(t, "abc", out.Code)
		assert.Equal(t, "s-1", out.State)
	})

	t.Run("provider error", func(t *testing.T) {
		ln := listen(t)
		p := &LoopbackPrompter{Listener: ln, Open: visit(t, ln, "error=access_denied&state={state}"), Timeout: 5 * time.Second}

		out, err := p.Prompt(context.Background(), authURL)
		require.NoError(t, err)
		assert.Equal(t, OutcomeError, out.Kind)
		assert.Equal(t, "access_denied", out.ErrorCode)
	})

	t.Run("custom callback path", func(t *testing.T) {
		ln := listen(t)
		open := func(string) error {
			resp, err := http.Get("http://" + ln.Addr().String() + "/auth/done?code=xyz")
			if err == nil {
				resp.Body.Close()
			}
			return err
		}
		p := &LoopbackPrompter{Listener: ln, CallbackURL: "http://127.0.0.1:9999/auth/done", Open: open, Timeout: 5 * time.Second}

		out, err := p.Prompt(context.Background(), authURL)
		require.NoError(t, err)
		assert.Equal(t, "xyz", out.Code)
	})

	t.Run("timeout is cancellation", func(t *testing.T) {
		var buf bytes.Buffer
		p := &LoopbackPrompter{
			Listener: listen(t),
			Open:     func(string) error { return errors.New("no browser") },
			Out:      &buf,
			Timeout:  50 * time.Millisecond,
		}

		out, err := p.Prompt(context.Background(), authURL)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCancelled, out.Kind)
		assert.Contains(t, buf.String(), authURL, "URL is printed when the browser cannot be opened")
	})

	t.Run("context cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := &LoopbackPrompter{
			Listener: listen(t),
			Open:     func(string) error { cancel(); return nil },
			Timeout:  5 * time.Second,
		}

		out, err := p.Prompt(ctx, authURL)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCancelled, out.Kind)
	})

	t.Run("address in use", func(t *testing.T) {
		ln := listen(t)
		defer ln.Close()

		p := &LoopbackPrompter{Addr: ln.Addr().String()}
		_, err := p.Prompt(context.Background(), authURL)
		assert.Error(t, err)
	})
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
	assert.Equal(t, "error", OutcomeError.String())
	assert.Equal(t, "unknown", OutcomeKind(9).String())
}
