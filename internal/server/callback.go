package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/nullisdefined/worlds-subscription/internal/services"
)

// CallbackHandler receives the OAuth redirect and forwards the parsed result.
//
// The handler does not verify state or exchange the code; both belong to the
// session manager, which holds the stored nonce and the backend gateway.
type CallbackHandler struct {
	resultChan chan *services.CallbackResult
	once       sync.Once

	mu          sync.Mutex
	callbackHit bool
}

// NewCallbackHandler creates a handler ready to receive one callback.
func NewCallbackHandler() *CallbackHandler {
	return &CallbackHandler{
		resultChan: make(chan *services.CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP parses the provider redirect and sends it through the result channel.
//
// Only the first callback is processed; replays get a 400.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	result, err := services.ParseCallback(r.URL.String())
	if err != nil || result.Kind == services.NoCallback {
		h.send(&services.CallbackResult{Kind: services.NoCallback})
		http.Error(w, "Missing callback parameters", http.StatusBadRequest)
		return
	}

	h.send(result)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if result.Kind == services.CallbackError {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, callbackPage, "Login Not Completed", result.UserMessage())
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, callbackPage, "✓ Login Received", "You can close this window and return to the terminal.")
}

// send delivers the result exactly once and closes the channel.
func (h *CallbackHandler) send(result *services.CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel carrying the single parsed callback.
func (h *CallbackHandler) Result() <-chan *services.CallbackResult {
	return h.resultChan
}

const callbackPage = `
<!DOCTYPE html>
<html>
<head>
    <title>wordsub</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #667eea; margin: 0 0 1rem 0; }
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
