package session

// State is the position in the session lifecycle.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	TokenRefreshing
	SessionExpired
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case TokenRefreshing:
		return "refreshing"
	case SessionExpired:
		return "expired"
	}
	return "unknown"
}
