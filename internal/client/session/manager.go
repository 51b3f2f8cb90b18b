// Package session owns the client side of the authentication lifecycle. The
// Manager is the single source of truth for "is the caller authenticated"
// and the only component allowed to write the persisted token.
package session

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
	"unicode"

	authmodel "lungscreen/internal/auth/domain/model"
	"lungscreen/internal/client/config"
	"lungscreen/internal/client/storage"
	sharederrors "lungscreen/internal/shared/errors"
	"lungscreen/internal/shared/eventbus"
	"lungscreen/internal/shared/logger"
)

// State is the session lifecycle state.
type State string

const (
	StateUnknown         State = "unknown"
	StateRestoring       State = "restoring"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Snapshot is an immutable copy of the session state. Readers never observe
// a half-updated session; writes happen only through the Manager's methods.
type Snapshot struct {
	State State
	Token string
	User  *authmodel.Profile
}

// Authenticated reports whether the snapshot carries a live session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}

// Manager implements the session lifecycle and the authenticated request
// path every other client component goes through.
type Manager struct {
	cfg        *config.Config
	store      storage.CredentialStore
	httpClient *http.Client
	events     eventbus.EventBusInterface
	log        logger.Logger

	mu       sync.RWMutex
	state    State
	token    string
	user     *authmodel.Profile
	restored bool
}

// NewManager creates a session manager. The events bus may be nil when no
// navigation signals are needed.
func NewManager(cfg *config.Config, store storage.CredentialStore, events eventbus.EventBusInterface, log logger.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		events:     events,
		log:        log.WithComponent("client.session"),
		state:      StateUnknown,
	}
}

// Current returns an immutable snapshot of the session.
func (m *Manager) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{State: m.state, Token: m.token}
	if m.user != nil {
		user := *m.user
		snap.User = &user
	}
	return snap
}

// Restore loads persisted credentials and validates them against the verify
// endpoint. It never returns an error: any failure leaves the session
// unauthenticated with the persisted credentials cleared. Repeat calls with
// no intervening login or logout return the already-settled state.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	m.mu.Lock()
	if m.restored {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	m.state = StateRestoring
	m.mu.Unlock()

	creds, err := m.store.Load()
	if err != nil {
		if !errors.Is(err, storage.ErrNoCredentials) {
			m.log.Warnf("Failed to load persisted credentials: %v", err)
		}
		return m.settleRestore(nil)
	}

	user, err := m.verifyToken(ctx, creds.Token)
	if err != nil {
		m.log.Infof("Persisted session rejected: %v", err)
		if clearErr := m.store.Clear(); clearErr != nil {
			m.log.Warnf("Failed to clear rejected credentials: %v", clearErr)
		}
		return m.settleRestore(nil)
	}

	return m.settleRestore(&storage.Credentials{Token: creds.Token, User: *user})
}

func (m *Manager) settleRestore(creds *storage.Credentials) Snapshot {
	m.mu.Lock()
	m.restored = true
	if creds == nil {
		m.state = StateUnauthenticated
		m.token = ""
		m.user = nil
	} else {
		m.state = StateAuthenticated
		m.token = creds.Token
		user := creds.User
		m.user = &user
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if snap.Authenticated() {
		m.publish(eventbus.EventSessionEstablished, snap.User.Email)
	}
	return snap
}

func (m *Manager) verifyToken(ctx context.Context, token string) (*authmodel.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.BaseURL+"/api/verify", nil)
	if err != nil {
		return nil, sharederrors.NewRequestError("failed to build verify request: " + err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, sharederrors.NewServerError(serverMessage(raw, resp.StatusCode), resp.StatusCode)
	}

	var parsed struct {
		User *authmodel.Profile `json:"user"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.User == nil || parsed.User.Email == "" {
		return nil, sharederrors.NewServerError("malformed verify response", resp.StatusCode)
	}
	return parsed.User, nil
}

// Login authenticates with the backend, persists the token and profile
// together and transitions to the authenticated state.
func (m *Manager) Login(ctx context.Context, email, password string) (Snapshot, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return m.Current(), sharederrors.NewValidationError("email and password are required")
	}

	raw, status, err := m.post(ctx, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return m.Current(), err
	}
	if status != http.StatusOK {
		return m.Current(), sharederrors.NewServerError(serverMessage(raw, status), status)
	}

	var parsed struct {
		Token string             `json:"token"`
		User  *authmodel.Profile `json:"user"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Token == "" || parsed.User == nil || parsed.User.Email == "" {
		return m.Current(), sharederrors.NewServerError("malformed login response", status)
	}

	creds := &storage.Credentials{Token: parsed.Token, User: *parsed.User}
	if err := m.store.Save(creds); err != nil {
		return m.Current(), fmt.Errorf("failed to persist session: %w", err)
	}

	m.mu.Lock()
	m.restored = true
	m.state = StateAuthenticated
	m.token = parsed.Token
	user := *parsed.User
	m.user = &user
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(eventbus.EventSessionEstablished, parsed.User.Email)
	return snap, nil
}

// Signup registers a new account and, on success, performs a follow-up login
// with the same credentials. Validation failures never reach the network.
func (m *Manager) Signup(ctx context.Context, name, email, password string) (Snapshot, error) {
	if err := m.validateSignup(name, email, password); err != nil {
		return m.Current(), err
	}

	raw, status, err := m.post(ctx, "/api/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return m.Current(), err
	}
	if status != http.StatusCreated {
		return m.Current(), sharederrors.NewServerError(serverMessage(raw, status), status)
	}

	return m.Login(ctx, email, password)
}

func (m *Manager) validateSignup(name, email, password string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return sharederrors.NewValidationError("all fields are required")
	}
	if domain := m.cfg.RequiredEmailDomain; domain != "" && !strings.HasSuffix(email, domain) {
		return sharederrors.NewValidationError("email must belong to the " + domain + " domain")
	}
	if m.cfg.PasswordRequiresDigit && !strings.ContainsFunc(password, unicode.IsDigit) {
		return sharederrors.NewValidationError("password must contain at least one digit")
	}
	return nil
}

// Logout clears the session. The in-memory state is cleared unconditionally
// even when removing the persisted credentials fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.clearSession()
	err := m.store.Clear()
	m.publish(eventbus.EventSessionCleared, "")
	return err
}

func (m *Manager) clearSession() {
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.token = ""
	m.user = nil
	m.mu.Unlock()
}

// expireSession clears the session in response to a 401 from any
// authenticated call.
func (m *Manager) expireSession() {
	m.clearSession()
	if err := m.store.Clear(); err != nil {
		m.log.Warnf("Failed to clear persisted credentials on expiry: %v", err)
	}
	m.publish(eventbus.EventSessionExpired, "")
}

// Do is the sole authenticated request path. It attaches the bearer token,
// maps transport and server failures to typed errors and treats any 401 as
// session expiry: the session is cleared and ErrSessionExpired raised so
// callers can redirect to login.
func (m *Manager) Do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, sharederrors.NewValidationError("failed to encode request body: " + err.Error())
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, m.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, sharederrors.NewRequestError("failed to build request: " + err.Error())
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return m.doAuthenticated(req)
}

// doAuthenticated executes a prepared request with the session's bearer
// token and the shared error mapping.
func (m *Manager) doAuthenticated(req *http.Request) ([]byte, error) {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		m.expireSession()
		return nil, sharederrors.NewSessionExpiredError(serverMessage(raw, resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, sharederrors.NewServerError(serverMessage(raw, resp.StatusCode), resp.StatusCode)
	}
	return raw, nil
}

func (m *Manager) post(ctx context.Context, path string, body interface{}) ([]byte, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, sharederrors.NewValidationError("failed to encode request body: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, sharederrors.NewRequestError("failed to build request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, 0, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, transportError(err)
	}
	return raw, resp.StatusCode, nil
}

func (m *Manager) publish(eventType, email string) {
	if m.events == nil {
		return
	}
	payload := map[string]interface{}{}
	if email != "" {
		payload["email"] = email
	}
	m.events.PublishAndForget(context.Background(), eventbus.NewBasicEvent(eventType, payload))
}

// transportError maps a failure that produced no HTTP response. Timeouts and
// refused connections get distinct messages so the UI can phrase them apart.
func transportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return sharederrors.NewRequestError("request timed out").WithCause(err)
	}
	if strings.Contains(err.Error(), "connection refused") {
		return sharederrors.NewRequestError("could not connect to the server").WithCause(err)
	}
	return sharederrors.NewRequestError("network error: " + err.Error())
}

// serverMessage extracts the "message" field of an error payload, falling
// back to the HTTP status text.
func serverMessage(raw []byte, status int) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return http.StatusText(status)
}
