package server

import (
	"fmt"
	"html"
	"net/http"
	"sync"
)

// CallbackResult is the query of the provider's redirect back to the loopback server.
type CallbackResult struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// CallbackHandler captures the first authorization redirect and publishes it on [CallbackHandler.Result].
//
// It does not exchange the code; the caller holds the PKCE verifier and validates state.
type CallbackHandler struct {
	path    string
	results chan CallbackResult

	mu  sync.Mutex
	hit bool
}

// NewCallbackHandler serves path, defaulting to /callback.
func NewCallbackHandler(path string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{path: path, results: make(chan CallbackResult, 1)}
}

func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	q := r.URL.Query()
	result := CallbackResult{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
	h.results <- result
	close(h.results)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if result.Code == "" {
		msg := result.Error
		if result.ErrorDescription != "" {
			msg += ": " + result.ErrorDescription
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, page, "#E22134", "Authorization Failed", html.EscapeString(msg))
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, page, "#1DB954", "✓ Authorization Successful", "You can close this window and return to the terminal.")
}

// Result receives exactly one callback and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}

const page = `<!DOCTYPE html>
<html>
<head>
    <title>nowplaying</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: %s; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>
`
