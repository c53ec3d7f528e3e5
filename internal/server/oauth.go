package server

import (
	"fmt"
	"net/http"
	"sync"
)

// CallbackResult carries the outcome of the OAuth redirect back to the CLI.
type CallbackResult struct {
	Code string
	err  error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler receives the OAuth2 authorization code callback.
//
// The state parameter is validated against the token generated at flow start,
// and only the first callback is processed. The code itself is not exchanged
// here; the caller completes the exchange with its own client credentials.
type CallbackHandler struct {
	state       string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a callback handler expecting the given state
// token. The state token should be cryptographically random for CSRF
// protection.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.send(CallbackResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	h.send(CallbackResult{Code: code})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Login Complete</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #00ffff; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Login Complete</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// send delivers the result through the channel (only once).
func (h *CallbackHandler) send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// The channel receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
