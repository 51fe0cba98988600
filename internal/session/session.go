package session

// Credential is the opaque per-request credential the remote cart service
// expects. The engine never inspects its structure; it only forwards it.
type Credential interface {
	// Apply attaches the credential to an outgoing request, keyed by
	// whatever transport the caller uses (HTTP header name, etc.).
	Apply(setHeader func(key, value string))
}

// Identity is the authenticated session identity.
type Identity struct {
	UserID     int64
	Credential Credential
}

// TransitionKind distinguishes login from logout.
type TransitionKind string

const (
	TransitionLogin  TransitionKind = "login"
	TransitionLogout TransitionKind = "logout"
)

// Transition is emitted when a session changes between anonymous and
// authenticated.
type Transition struct {
	Kind     TransitionKind
	Identity Identity
}

// Provider reports the current identity and emits transitions.
type Provider interface {
	// Current returns the identity, or false while anonymous.
	Current() (Identity, bool)

	// Transitions returns the stream of login/logout events. The channel
	// stays open for the provider's lifetime.
	Transitions() <-chan Transition
}

// BasicCredential is an opaque pre-encoded basic-auth token.
type BasicCredential string

func (c BasicCredential) Apply(setHeader func(key, value string)) {
	setHeader("Authorization", "Basic "+string(c))
}

var _ Credential = BasicCredential("")
