package guard

import (
	"context"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/session"
)

// Decision is the guard's verdict for a navigation or in-page action.
type Decision int

const (
	// Checking: session state has not resolved yet; make no decision.
	Checking Decision = iota
	DeniedAnonymous
	DeniedUnverifiedDriver
	Allowed
)

// Action is what the user is trying to do.
type Action int

const (
	// ActionViewPage is a full-page navigation to a protected route.
	ActionViewPage Action = iota
	ActionBookRide
	ActionPublishRide
)

// Prompt is the blocking UI response for an in-page denial.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptSignIn
	PromptDriverVerification
)

// Outcome bundles the decision with what the presentation layer should do:
// a redirect path for page navigations, a prompt for in-page actions. The
// attempted action is never queued or retried.
type Outcome struct {
	Decision   Decision
	RedirectTo string
	Prompt     Prompt
}

// SessionState is the slice of the session provider the guard reads.
type SessionState interface {
	Loading() bool
	Session() *session.Session
}

// Guard gates protected pages and actions. The driver-verified condition
// comes from the device-scoped flag cache, not from the profile role or
// uploaded documents; a user can look verified on one device and not on
// another.
type Guard struct {
	flags FlagStore
}

func New(flags FlagStore) *Guard {
	return &Guard{flags: flags}
}

func (g *Guard) Decide(ctx context.Context, state SessionState, deviceID string, action Action) Outcome {
	// While the async session fetch is pending, no redirect decision is
	// made; deciding early would bounce signed-in users to home.
	if state.Loading() {
		return Outcome{Decision: Checking}
	}

	if state.Session() == nil {
		if action == ActionViewPage {
			return Outcome{Decision: DeniedAnonymous, RedirectTo: "/"}
		}
		return Outcome{Decision: DeniedAnonymous, Prompt: PromptSignIn}
	}

	if action == ActionPublishRide && !g.flags.IsDriverVerified(ctx, deviceID) {
		return Outcome{
			Decision:   DeniedUnverifiedDriver,
			Prompt:     PromptDriverVerification,
			RedirectTo: "/profile",
		}
	}

	return Outcome{Decision: Allowed}
}
