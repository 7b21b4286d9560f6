package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dialogues/internal/profiles"
)

// HTTPClient implements Client and ProfileStore against the Dialogues REST API.
// It holds the current session in process memory and pushes auth-state-change
// notifications to subscribers from its own goroutines.
type HTTPClient struct {
	baseURL string
	client  *http.Client

	mu       sync.RWMutex
	session  *Session
	handlers map[int]AuthChangeHandler
	nextID   int
}

// NewHTTPClient constructs a client for the given base URL.
func NewHTTPClient(baseURL string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		handlers: make(map[int]AuthChangeHandler),
	}
}

type sessionResponse struct {
	User        User      `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SignInWithPassword exchanges credentials for a session. The session is
// stored locally and announced via OnAuthStateChange.
func (c *HTTPClient) SignInWithPassword(ctx context.Context, email, password string) error {
	payload := map[string]string{"email": email, "password": password}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/token", "", payload, &resp); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	c.setSession(&Session{User: resp.User, AccessToken: resp.AccessToken, ExpiresAt: resp.ExpiresAt})
	return nil
}

// SignUp registers a new account. The backend issues a first session
// immediately (no email confirmation step), which is announced via
// OnAuthStateChange; the created user is returned to the caller.
func (c *HTTPClient) SignUp(ctx context.Context, email, password string) (*User, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", payload, &resp); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if resp.User.ID == uuid.Nil {
		return nil, fmt.Errorf("sign up: backend returned no user id")
	}

	c.setSession(&Session{User: resp.User, AccessToken: resp.AccessToken, ExpiresAt: resp.ExpiresAt})
	user := resp.User
	return &user, nil
}

// SignOut revokes the session with the backend. The local session is cleared
// only after the backend confirms.
func (c *HTTPClient) SignOut(ctx context.Context) error {
	token := c.currentToken()
	if token == "" {
		return nil
	}

	if err := c.do(ctx, http.MethodPost, "/api/auth/signout", token, nil, nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	c.setSession(nil)
	return nil
}

// GetUser revalidates the current session. A 401 clears the local session and
// announces the loss; no session at all is (nil, nil).
func (c *HTTPClient) GetUser(ctx context.Context) (*User, error) {
	token := c.currentToken()
	if token == "" {
		return nil, nil
	}

	var resp struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/auth/user", token, nil, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			c.setSession(nil)
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &resp.User, nil
}

// GetSession returns a copy of the current session, or nil.
func (c *HTTPClient) GetSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil {
		return nil
	}
	session := *c.session
	return &session
}

// OnAuthStateChange registers a handler for session transitions.
func (c *HTTPClient) OnAuthStateChange(handler AuthChangeHandler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.handlers[id] = handler

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers, id)
	}
}

// FindProfileByUserID fetches at most one profile for the user id.
func (c *HTTPClient) FindProfileByUserID(ctx context.Context, userID uuid.UUID) (*profiles.Profile, error) {
	return c.findProfile(ctx, url.Values{"user_id": {userID.String()}})
}

// FindProfileByUsername fetches at most one profile for the username.
func (c *HTTPClient) FindProfileByUsername(ctx context.Context, username string) (*profiles.Profile, error) {
	return c.findProfile(ctx, url.Values{"username": {username}})
}

func (c *HTTPClient) findProfile(ctx context.Context, query url.Values) (*profiles.Profile, error) {
	var profile profiles.Profile
	err := c.do(ctx, http.MethodGet, "/api/profiles?"+query.Encode(), c.currentToken(), nil, &profile)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// InsertProfile creates a profile row. A username conflict reported by the
// backend surfaces as profiles.ErrUsernameTaken.
func (c *HTTPClient) InsertProfile(ctx context.Context, profile profiles.Profile) (profiles.Profile, error) {
	var created profiles.Profile
	err := c.do(ctx, http.MethodPost, "/api/profiles", c.currentToken(), profile, &created)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return profiles.Profile{}, profiles.ErrUsernameTaken
		}
		return profiles.Profile{}, err
	}
	return created, nil
}

// UpdateProfile applies a partial update to the user's profile row.
func (c *HTTPClient) UpdateProfile(ctx context.Context, userID uuid.UUID, update profiles.Update) error {
	err := c.do(ctx, http.MethodPatch, "/api/profiles/"+userID.String(), c.currentToken(), update, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusNotFound:
				return profiles.ErrNotFound
			case http.StatusConflict:
				return profiles.ErrUsernameTaken
			}
		}
		return err
	}
	return nil
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

// setSession replaces the stored session and announces the transition.
func (c *HTTPClient) setSession(session *Session) {
	c.mu.Lock()
	c.session = session

	handlers := make([]AuthChangeHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	event := EventSignedOut
	var snapshot *Session
	if session != nil {
		event = EventSignedIn
		copied := *session
		snapshot = &copied
	}

	// Delivery is deliberately asynchronous relative to the triggering call.
	go func() {
		for _, h := range handlers {
			h(event, snapshot)
		}
	}()
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
