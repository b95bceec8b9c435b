package enums

// AuthEvent names a transition emitted by the auth provider to its subscribers.
type AuthEvent string

const (
	AuthEventInitialSession AuthEvent = "INITIAL_SESSION"
	AuthEventSignedIn       AuthEvent = "SIGNED_IN"
	AuthEventSignedOut      AuthEvent = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	AuthEventUserUpdated    AuthEvent = "USER_UPDATED"
)

// String implements fmt.Stringer.
func (e AuthEvent) String() string {
	return string(e)
}

// CarriesSession reports whether listeners should expect a non-nil session with the event.
func (e AuthEvent) CarriesSession() bool {
	switch e {
	case AuthEventSignedIn, AuthEventTokenRefreshed, AuthEventUserUpdated:
		return true
	default:
		return false
	}
}
