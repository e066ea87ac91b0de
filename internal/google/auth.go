package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleoauth2 "golang.org/x/oauth2/google"
)

// The daemon only ever reads the calendar.
var oauthScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
}

// OAuthConfig builds the oauth2.Config used for both the auth flow and
// the refreshing token source.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     googleoauth2.Endpoint,
		Scopes:       oauthScopes,
		RedirectURL:  "http://localhost", // port appended at runtime
	}
}

// AuthFlow runs the OAuth2 authorization code flow with a loopback
// redirect: it starts a temporary localhost server, sends the user's
// browser to Google's consent screen, and captures the code from the
// redirect.
func AuthFlow(ctx context.Context, clientID, clientSecret string) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen on localhost: %w", err)
	}
	return authFlowWithListener(ctx, clientID, clientSecret, listener, true)
}

func authFlowWithListener(ctx context.Context, clientID, clientSecret string, listener net.Listener, showBrowser bool) (*oauth2.Token, error) {
	defer listener.Close()

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	state := hex.EncodeToString(stateBytes)

	port := listener.Addr().(*net.TCPAddr).Port
	cfg := OAuthConfig(clientID, clientSecret)
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d", port)

	if showBrowser {
		authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
		fmt.Printf("\nOpening browser to authorize vita...\n\n")
		fmt.Printf("If the browser doesn't open, visit this URL:\n\n  %s\n\n", authURL)
		openBrowser(authURL)
	}

	type result struct {
		code string
		err  error
	}
	ch := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			return
		}
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			http.Error(w, "Authorization denied: "+errParam, http.StatusForbidden)
			ch <- result{err: fmt.Errorf("authorization denied: %s", errParam)}
			return
		}
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			ch <- result{err: fmt.Errorf("state mismatch")}
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "No authorization code", http.StatusBadRequest)
			ch <- result{err: fmt.Errorf("no authorization code in callback")}
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h2>Authorization successful!</h2><p>You can close this tab.</p></body></html>")
		ch <- result{code: code}
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(listener)

	var res result
	select {
	case <-ctx.Done():
		srv.Close()
		return nil, ctx.Err()
	case res = <-ch:
	}

	// Graceful shutdown so the handler's response is flushed before the
	// connection goes away.
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutCancel()
	srv.Shutdown(shutCtx)

	if res.err != nil {
		return nil, res.err
	}
	token, err := cfg.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("exchange code for token: %w", err)
	}
	return token, nil
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		return
	}
	cmd.Start()
}

// PersistentTokenSource refreshes tokens through the wrapped source and
// writes refreshed tokens back to disk. Safe for concurrent use.
type PersistentTokenSource struct {
	mu        sync.Mutex
	source    oauth2.TokenSource
	tokenPath string
	lastToken *oauth2.Token
}

// NewPersistentTokenSource loads the token file and wraps it in an
// auto-refreshing, auto-persisting source.
func NewPersistentTokenSource(cfg *oauth2.Config, tokenPath string) (*PersistentTokenSource, error) {
	token, err := LoadTokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	return &PersistentTokenSource{
		source:    cfg.TokenSource(context.Background(), token),
		tokenPath: tokenPath,
		lastToken: token,
	}, nil
}

// Token returns a valid token, refreshing and persisting if needed.
func (p *PersistentTokenSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	token, err := p.source.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != p.lastToken.AccessToken {
		if saveErr := SaveTokenToFile(p.tokenPath, token); saveErr != nil {
			// The refreshed token is still valid in memory.
			fmt.Fprintf(os.Stderr, "warning: failed to save refreshed token: %v\n", saveErr)
		}
		p.lastToken = token
	}
	return token, nil
}

// LoadTokenFromFile reads an oauth2.Token from a JSON file.
func LoadTokenFromFile(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return &token, nil
}

// SaveTokenToFile writes an oauth2.Token to a JSON file with 0600
// permissions.
func SaveTokenToFile(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
