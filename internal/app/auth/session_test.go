package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	user User

	loginErr    error
	sessionErr  error
	logoutErr   error
	sendErr     error
	verifyErr   error
	registerErr error
	profileErr  error
	passwordErr error

	sendCalls   int
	verifyCalls int
	lastCode    string
}

func (f *fakeAPI) LoginLocal(_ context.Context, email, _ string) (User, error) {
	if f.loginErr != nil {
		return User{}, f.loginErr
	}
	u := f.user
	u.Email = email
	return u, nil
}

func (f *fakeAPI) SendCode(_ context.Context, _ Method, _ string) error {
	f.sendCalls++
	return f.sendErr
}

func (f *fakeAPI) VerifyCode(_ context.Context, _ Method, _ string, code string) (User, error) {
	f.verifyCalls++
	f.lastCode = code
	if f.verifyErr != nil {
		return User{}, f.verifyErr
	}
	return f.user, nil
}

func (f *fakeAPI) GetSession(_ context.Context) (User, error) {
	if f.sessionErr != nil {
		return User{}, f.sessionErr
	}
	return f.user, nil
}

func (f *fakeAPI) Logout(_ context.Context) error { return f.logoutErr }

func (f *fakeAPI) Register(_ context.Context, reg Registration) (User, error) {
	if f.registerErr != nil {
		return User{}, f.registerErr
	}
	return User{FirstName: reg.FirstName, Email: reg.Email}, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, update ProfileUpdate) (User, error) {
	if f.profileErr != nil {
		return User{}, f.profileErr
	}
	u := f.user
	if update.FirstName != "" {
		u.FirstName = update.FirstName
	}
	return u, nil
}

func (f *fakeAPI) UpdatePassword(_ context.Context, _, _ string) error {
	return f.passwordErr
}

func (f *fakeAPI) OAuthURL(provider OAuthProvider) string {
	return "https://auth.example.com/" + string(provider)
}

// clearSpy records cascade clears.
type clearSpy struct{ cleared int }

func (c *clearSpy) Clear() { c.cleared++ }

type unauthorizedErr struct{}

func (unauthorizedErr) Error() string   { return "unauthorized" }
func (unauthorizedErr) HTTPStatus() int { return 401 }

func newTestManager(api API, cascade ...Clearer) *Manager {
	return NewManager(api, zap.NewNop(), cascade...)
}

func TestLoginLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("success establishes session", func(t *testing.T) {
		api := &fakeAPI{user: User{ID: "u1", FirstName: "Ada"}}
		m := newTestManager(api)

		err := m.Login(ctx, LocalCredentials{Email: "ada@example.com", Password: "hunter22"})

		require.NoError(t, err)
		user, ok := m.User()
		require.True(t, ok)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.True(t, m.Authenticated())
		assert.False(t, m.Loading())
		assert.NoError(t, m.Err())
	})

	t.Run("invalid email fails locally", func(t *testing.T) {
		api := &fakeAPI{}
		m := newTestManager(api)

		err := m.Login(ctx, LocalCredentials{Email: "not-an-email", Password: "hunter22"})

		require.ErrorIs(t, err, ErrInvalidEmail)
		assert.ErrorIs(t, m.Err(), ErrInvalidEmail)
		assert.False(t, m.Authenticated())
	})

	t.Run("empty password fails locally", func(t *testing.T) {
		m := newTestManager(&fakeAPI{})

		err := m.Login(ctx, LocalCredentials{Email: "ada@example.com"})

		require.ErrorIs(t, err, ErrPasswordRequired)
	})

	t.Run("remote rejection surfaces and stays anonymous", func(t *testing.T) {
		rejected := errors.New("invalid credentials")
		m := newTestManager(&fakeAPI{loginErr: rejected})

		err := m.Login(ctx, LocalCredentials{Email: "ada@example.com", Password: "wrong-one"})

		require.ErrorIs(t, err, rejected)
		assert.ErrorIs(t, m.Err(), rejected)
		assert.False(t, m.Authenticated())
		assert.False(t, m.Loading())
	})
}

func TestCheckSession(t *testing.T) {
	ctx := context.Background()

	t.Run("existing session restores user", func(t *testing.T) {
		m := newTestManager(&fakeAPI{user: User{ID: "u1", FirstName: "Ada"}})

		m.CheckSession(ctx)

		assert.True(t, m.Authenticated())
	})

	t.Run("probe failure is silent", func(t *testing.T) {
		m := newTestManager(&fakeAPI{sessionErr: errors.New("no cookie")})

		m.CheckSession(ctx)

		assert.False(t, m.Authenticated())
		assert.NoError(t, m.Err(), "startup probe failure must not surface")
		assert.False(t, m.Loading())
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears session and cascades", func(t *testing.T) {
		cart := &clearSpy{}
		wishlist := &clearSpy{}
		m := newTestManager(&fakeAPI{user: User{ID: "u1"}}, cart, wishlist)
		m.CheckSession(ctx)
		require.True(t, m.Authenticated())

		m.Logout(ctx)

		assert.False(t, m.Authenticated())
		assert.Equal(t, 1, cart.cleared)
		assert.Equal(t, 1, wishlist.cleared)
	})

	t.Run("remote failure still clears everything", func(t *testing.T) {
		cart := &clearSpy{}
		api := &fakeAPI{user: User{ID: "u1"}, logoutErr: errors.New("network down")}
		m := newTestManager(api, cart)
		m.CheckSession(ctx)
		require.True(t, m.Authenticated())

		m.Logout(ctx)

		assert.False(t, m.Authenticated())
		assert.NoError(t, m.Err())
		assert.Equal(t, 1, cart.cleared)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("establishes session", func(t *testing.T) {
		m := newTestManager(&fakeAPI{})

		err := m.Register(ctx, Registration{FirstName: "Ada", Email: "ada@example.com", Password: "longenough"})

		require.NoError(t, err)
		assert.True(t, m.Authenticated())
	})

	t.Run("short password fails locally", func(t *testing.T) {
		m := newTestManager(&fakeAPI{})

		err := m.Register(ctx, Registration{FirstName: "Ada", Email: "ada@example.com", Password: "short"})

		require.ErrorIs(t, err, ErrPasswordTooShort)
	})
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()

	authed := func(t *testing.T, api *fakeAPI) *Manager {
		t.Helper()
		if api.user.ID == "" {
			api.user = User{ID: "u1"}
		}
		m := newTestManager(api)
		m.CheckSession(ctx)
		require.True(t, m.Authenticated())
		return m
	}

	cases := []struct {
		name                  string
		current, next, confirm string
		want                  error
	}{
		{"missing current", "", "newpassword", "newpassword", ErrCurrentPasswordRequired},
		{"too short", "oldpassword", "short", "short", ErrPasswordTooShort},
		{"mismatch", "oldpassword", "newpassword", "different1", ErrPasswordMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{}
			m := authed(t, api)

			err := m.UpdatePassword(ctx, tc.current, tc.next, tc.confirm)

			require.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("success", func(t *testing.T) {
		m := authed(t, &fakeAPI{})

		require.NoError(t, m.UpdatePassword(ctx, "oldpassword", "newpassword", "newpassword"))
	})

	t.Run("requires authentication", func(t *testing.T) {
		m := newTestManager(&fakeAPI{})

		err := m.UpdatePassword(ctx, "oldpassword", "newpassword", "newpassword")

		require.ErrorIs(t, err, ErrNotAuthenticated)
	})
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("401 on authenticated call expires without cascading", func(t *testing.T) {
		cart := &clearSpy{}
		api := &fakeAPI{user: User{ID: "u1"}}
		m := newTestManager(api, cart)
		m.CheckSession(ctx)
		require.True(t, m.Authenticated())

		api.profileErr = unauthorizedErr{}
		err := m.UpdateProfile(ctx, ProfileUpdate{FirstName: "Newname"})

		require.Error(t, err)
		assert.False(t, m.Authenticated())
		assert.True(t, m.SessionExpired())
		assert.Equal(t, 0, cart.cleared, "expiry must not clear the cart")
	})

	t.Run("other failures keep the session", func(t *testing.T) {
		api := &fakeAPI{user: User{ID: "u1"}, passwordErr: errors.New("weak password")}
		m := newTestManager(api)
		m.CheckSession(ctx)

		err := m.UpdatePassword(ctx, "oldpassword", "newpassword", "newpassword")

		require.Error(t, err)
		assert.True(t, m.Authenticated())
		assert.False(t, m.SessionExpired())
	})
}

func TestBeginOAuth(t *testing.T) {
	m := newTestManager(&fakeAPI{})

	url := m.BeginOAuth(ProviderGoogle)

	assert.Equal(t, "https://auth.example.com/google", url)
	assert.False(t, m.Authenticated(), "redirect handoff must not establish a session")
}
