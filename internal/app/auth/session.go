// Package auth is the session state machine: establishment via password,
// one-time-code or OAuth redirect, a silent startup probe, profile and
// password mutation, and an unconditional logout that cascades clears to
// the cart and wishlist.
package auth

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/pkg/emitter"
	"github.com/murkotick/shophub-core/internal/pkg/validate"
)

// API is the remote collaborator consumed by the session manager. Every
// call returns either a success payload or an error carrying a
// human-readable message.
type API interface {
	LoginLocal(ctx context.Context, email, password string) (User, error)
	SendCode(ctx context.Context, method Method, contact string) error
	VerifyCode(ctx context.Context, method Method, contact, code string) (User, error)
	GetSession(ctx context.Context) (User, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, reg Registration) (User, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error)
	UpdatePassword(ctx context.Context, current, next string) error
	OAuthURL(provider OAuthProvider) string
}

// Clearer is anything whose owned state must be wiped when the session
// ends. The cart and wishlist engines satisfy it.
type Clearer interface {
	Clear()
}

// Manager owns the session state. Consumers observe exactly one of
// {anonymous, established session}; there is no partial state.
type Manager struct {
	api     API
	log     *zap.Logger
	hub     *emitter.Hub
	cascade []Clearer

	mu      sync.Mutex
	user    *User
	loading bool
	err     error
	expired bool
	flow    *Flow
}

// NewManager creates an anonymous session manager. The cascade targets
// are cleared on logout.
func NewManager(api API, log *zap.Logger, cascade ...Clearer) *Manager {
	return &Manager{api: api, log: log, hub: emitter.New(), cascade: cascade}
}

// Subscribe registers a listener notified after every state change.
func (m *Manager) Subscribe(fn func()) func() { return m.hub.Subscribe(fn) }

// User returns the established session's user.
func (m *Manager) User() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

// Authenticated reports whether a session is established.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

// Loading reports whether a session operation is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the last visible error, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// ClearErr drops the visible error.
func (m *Manager) ClearErr() {
	m.mu.Lock()
	m.err = nil
	m.mu.Unlock()
	m.hub.Notify()
}

// SessionExpired reports whether the session was dropped because an
// authenticated call was rejected; the host redirects to login when set.
func (m *Manager) SessionExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expired
}

// CheckSession probes for an existing session at process start. Probe
// failure is silent: the state stays (or becomes) anonymous and no error
// is surfaced.
func (m *Manager) CheckSession(ctx context.Context) {
	m.begin()

	user, err := m.api.GetSession(ctx)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.user = nil
	} else {
		m.user = &user
		m.expired = false
	}
	m.mu.Unlock()
	m.hub.Notify()
}

// Login attempts to establish a session with the given credential
// variant. Validation failures and remote rejections set the visible
// error and leave the state anonymous.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	switch c := creds.(type) {
	case LocalCredentials:
		return m.loginLocal(ctx, c)
	case PasswordlessCredentials:
		return m.loginPasswordless(ctx, c)
	case OAuthCredentials:
		// Redirect handoff only; the session resumes via CheckSession
		// when the provider sends the user back.
		m.BeginOAuth(c.Provider)
		return nil
	default:
		return fmt.Errorf("unsupported login method %T", creds)
	}
}

func (m *Manager) loginLocal(ctx context.Context, c LocalCredentials) error {
	if !validate.Email(c.Email) {
		return m.fail(ErrInvalidEmail)
	}
	if c.Password == "" {
		return m.fail(ErrPasswordRequired)
	}

	m.begin()
	user, err := m.api.LoginLocal(ctx, c.Email, c.Password)
	if err != nil {
		m.log.Warn("local login rejected", zap.Error(err))
		return m.fail(err)
	}
	m.establish(user)
	return nil
}

func (m *Manager) loginPasswordless(ctx context.Context, c PasswordlessCredentials) error {
	flow := m.Passwordless()

	m.mu.Lock()
	if flow.method != c.Method || flow.contact != c.Contact {
		flow.resetLocked()
		flow.method = c.Method
		flow.stage = StageContact
	}
	flow.contact = c.Contact
	m.mu.Unlock()

	if c.Code == "" {
		return flow.SendCode(ctx)
	}
	if len(c.Code) != CodeLength {
		return m.fail(ErrIncompleteCode)
	}
	m.mu.Lock()
	for i, r := range c.Code {
		flow.digits[i] = string(r)
	}
	m.mu.Unlock()
	return flow.VerifyCode(ctx)
}

// BeginOAuth returns the provider redirect URL. The engine does not model
// the provider handshake.
func (m *Manager) BeginOAuth(provider OAuthProvider) string {
	return m.api.OAuthURL(provider)
}

// Passwordless returns the current passwordless flow, starting one at the
// choose-method stage if none is in progress.
func (m *Manager) Passwordless() *Flow {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flow == nil {
		m.flow = newFlow(m)
	}
	return m.flow
}

// StartPasswordless abandons any flow in progress (cancelling its resend
// cooldown) and starts a fresh one.
func (m *Manager) StartPasswordless() *Flow {
	m.mu.Lock()
	m.flow = newFlow(m)
	flow := m.flow
	m.mu.Unlock()
	m.hub.Notify()
	return flow
}

// Register creates an account and establishes the session.
func (m *Manager) Register(ctx context.Context, reg Registration) error {
	if !validate.Email(reg.Email) {
		return m.fail(ErrInvalidEmail)
	}
	if len(reg.Password) < 8 {
		return m.fail(ErrPasswordTooShort)
	}

	m.begin()
	user, err := m.api.Register(ctx, reg)
	if err != nil {
		return m.fail(err)
	}
	m.establish(user)
	return nil
}

// Logout ends the session. It cannot fail from the caller's perspective:
// even when the remote call errors, local state is cleared and the
// cascade targets are emptied.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		m.log.Warn("remote logout failed, clearing local session anyway", zap.Error(err))
	}

	m.mu.Lock()
	m.user = nil
	m.loading = false
	m.err = nil
	m.expired = false
	m.flow = nil
	m.mu.Unlock()

	for _, c := range m.cascade {
		c.Clear()
	}
	m.hub.Notify()
}

// UpdateProfile mutates the profile of the established session.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	if !m.Authenticated() {
		return ErrNotAuthenticated
	}

	m.begin()
	user, err := m.api.UpdateProfile(ctx, update)
	if err != nil {
		return m.authFail(err)
	}

	m.mu.Lock()
	m.loading = false
	m.user = &user
	m.mu.Unlock()
	m.hub.Notify()
	return nil
}

// UpdatePassword changes the account password. The confirmation check is
// cross-field local validation: a mismatch never reaches the remote
// collaborator.
func (m *Manager) UpdatePassword(ctx context.Context, current, next, confirm string) error {
	if !m.Authenticated() {
		return ErrNotAuthenticated
	}
	if current == "" {
		return m.fail(ErrCurrentPasswordRequired)
	}
	if len(next) < 8 {
		return m.fail(ErrPasswordTooShort)
	}
	if next != confirm {
		return m.fail(ErrPasswordMismatch)
	}

	m.begin()
	if err := m.api.UpdatePassword(ctx, current, next); err != nil {
		return m.authFail(err)
	}

	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
	m.hub.Notify()
	return nil
}

// ExpireSession drops to anonymous after an authenticated call was
// rejected. Unlike logout, it does not cascade clears: the cart and
// wishlist survive a session expiry.
func (m *Manager) ExpireSession() {
	m.mu.Lock()
	m.user = nil
	m.loading = false
	m.expired = true
	m.mu.Unlock()
	m.hub.Notify()
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.loading = true
	m.err = nil
	m.mu.Unlock()
	m.hub.Notify()
}

// fail records err as the visible terminal outcome.
func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.loading = false
	m.err = err
	m.mu.Unlock()
	m.hub.Notify()
	return err
}

// authFail handles failures of authenticated calls: a 401-class response
// uniformly means the session expired.
func (m *Manager) authFail(err error) error {
	if isUnauthorized(err) {
		m.ExpireSession()
		return err
	}
	return m.fail(err)
}

func (m *Manager) establish(user User) {
	m.mu.Lock()
	m.loading = false
	m.err = nil
	m.user = &user
	m.expired = false
	m.mu.Unlock()
	m.hub.Notify()
}
