package identity

import (
	"context"
	"fmt"
	"sync"
)

// Account is the normalized view of an identity-provider user. Facts only;
// access decisions live elsewhere.
type Account struct {
	ID            string
	Email         string
	EmailVerified bool
	Phone         string
	DisplayName   string
}

// PhoneCredential proves a completed OTP check: the challenge id issued by
// the provider plus the code the user entered.
type PhoneCredential struct {
	ChallengeID string
	Code        string
}

// Client is the contract every identity-provider backend must implement.
// Errors carry stable codes (see errors.go); raw provider text never leaks
// through for known codes.
type Client interface {
	// SignUp creates an email/password account and signs it in.
	SignUp(ctx context.Context, email, password string) (*Account, error)

	// SignIn authenticates an existing email/password account.
	SignIn(ctx context.Context, email, password string) (*Account, error)

	// UpdateDisplayName sets the display name on the signed-in account.
	UpdateDisplayName(ctx context.Context, displayName string) error

	// SendEmailVerification asks the provider to mail a verification link
	// to the signed-in account.
	SendEmailVerification(ctx context.Context) error

	// SendVerificationCode issues a phone OTP challenge. botToken is the
	// solved invisible bot-check. Returns the challenge id.
	SendVerificationCode(ctx context.Context, phone, botToken string) (string, error)

	// VerifyPhoneCode checks the code against the pending challenge and
	// returns a credential usable for linking.
	VerifyPhoneCode(ctx context.Context, challengeID, code string) (*PhoneCredential, error)

	// LinkPhone attaches a verified phone credential to the signed-in
	// account.
	LinkPhone(ctx context.Context, cred *PhoneCredential) error

	// DeleteAccount removes the signed-in account at the provider and
	// clears the local session.
	DeleteAccount(ctx context.Context) error

	// SignOut clears the local session.
	SignOut() error

	// CurrentAccount returns the signed-in account, or nil.
	CurrentAccount() *Account

	// Subscribe registers a push listener for auth-state changes. The
	// listener fires immediately with the current state, then on every
	// sign-in/sign-out. The returned func unsubscribes.
	Subscribe(fn func(*Account)) func()
}

// authState is the shared listener registry embedded by both client
// implementations. Its Subscribe satisfies the Client method of the same
// name.
type authState struct {
	mu        sync.Mutex
	current   *Account
	listeners map[int]func(*Account)
	nextID    int
}

func (s *authState) set(a *Account) {
	s.mu.Lock()
	s.current = a
	fns := make([]func(*Account), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// Invoked outside the lock so listeners may call back into the client.
	for _, fn := range fns {
		fn(a)
	}
}

func (s *authState) get() *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *authState) Subscribe(fn func(*Account)) func() {
	s.mu.Lock()
	if s.listeners == nil {
		s.listeners = make(map[int]func(*Account))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	cur := s.current
	s.mu.Unlock()

	// Initial delivery with whatever state exists right now.
	fn(cur)

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// ErrNotSignedIn reports an operation that needs a signed-in account.
var ErrNotSignedIn = fmt.Errorf("no account is signed in")
