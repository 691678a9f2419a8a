package session

// SignInPath is where unauthenticated visitors are sent.
const SignInPath = "/login"

// ReturnToParam carries the originally requested location through the
// sign-in redirect so the login screen can navigate back after success.
const ReturnToParam = "return_to"

// Route describes the requested location as far as the gate cares:
// its path and whether it requires an authenticated identity.
type Route struct {
	Path      string
	Protected bool
}

// DecisionKind enumerates the gate's possible verdicts.
type DecisionKind int

const (
	// Allow renders the requested content unchanged.
	Allow DecisionKind = iota
	// Loading shows a waiting state while the session resolves.
	Loading
	// Redirect sends the visitor to the sign-in screen.
	Redirect
)

func (k DecisionKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the gate's verdict for a single evaluation. For
// redirects, Target is the sign-in path and ReturnTo the location to
// come back to after a successful sign-in.
type Decision struct {
	Kind     DecisionKind
	Target   string
	ReturnTo string
}

// Decide maps a session snapshot and a requested route to exactly one
// verdict. It is a pure function with no side effects; the caller
// performs the navigation. It is re-evaluated on every session change
// for as long as the route is active.
func Decide(snap Snapshot, route Route) Decision {
	if !route.Protected {
		return Decision{Kind: Allow}
	}
	if snap.Resolving {
		return Decision{Kind: Loading}
	}
	if snap.Identity != nil {
		return Decision{Kind: Allow}
	}
	return Decision{
		Kind:     Redirect,
		Target:   SignInPath,
		ReturnTo: route.Path,
	}
}
