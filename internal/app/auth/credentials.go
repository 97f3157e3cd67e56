package auth

// Method is the passwordless contact channel.
type Method string

const (
	MethodEmail Method = "email"
	MethodPhone Method = "phone"
)

// OAuthProvider identifies an external identity provider.
type OAuthProvider string

// ProviderGoogle is the only supported provider.
const ProviderGoogle OAuthProvider = "google"

// Credentials is the discriminated login payload. The concrete variants
// are LocalCredentials, PasswordlessCredentials and OAuthCredentials;
// Manager.Login matches them exhaustively.
type Credentials interface {
	credentials()
}

// LocalCredentials is an email + password login.
type LocalCredentials struct {
	Email    string
	Password string
}

// PasswordlessCredentials drives the one-time-code login. An empty Code
// requests a code for the contact (send_code); a non-empty Code verifies
// it (verify_code).
type PasswordlessCredentials struct {
	Method  Method
	Contact string
	Code    string
}

// OAuthCredentials is a redirect handoff to an external provider. The
// engine only initiates the redirect; the session resumes via the probe
// when the provider returns.
type OAuthCredentials struct {
	Provider OAuthProvider
}

func (LocalCredentials) credentials()        {}
func (PasswordlessCredentials) credentials() {}
func (OAuthCredentials) credentials()        {}
