package identity

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// FakeProvider is an in-memory identity provider for local development and
// tests. It keeps real semantics where they matter: passwords are bcrypt
// hashed, OTP challenges expire, challenge issuance is rate limited per
// phone number, and ID tokens are signed HS256 JWTs carrying the same
// claims the managed provider sends.
type FakeProvider struct {
	authState

	mu         sync.Mutex
	users      map[string]*fakeUser // keyed by email
	challenges map[string]*fakeChallenge
	limiters   map[string]*rate.Limiter // keyed by phone

	signingKey   []byte
	ChallengeTTL time.Duration
	// ChallengeRate bounds how often one phone may request a new OTP.
	ChallengeRate  rate.Limit
	ChallengeBurst int
}

type fakeUser struct {
	id            string
	email         string
	hashedPass    []byte
	displayName   string
	phone         string
	emailVerified bool
}

type fakeChallenge struct {
	phone     string
	code      string
	expiresAt time.Time
}

var _ Client = (*FakeProvider)(nil)

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		users:          make(map[string]*fakeUser),
		challenges:     make(map[string]*fakeChallenge),
		limiters:       make(map[string]*rate.Limiter),
		signingKey:     []byte(uuid.New().String()),
		ChallengeTTL:   5 * time.Minute,
		ChallengeRate:  rate.Every(30 * time.Second),
		ChallengeBurst: 3,
	}
}

// Mutating methods release f.mu before calling set: listeners run during
// set and may call back into any provider method.

func (f *FakeProvider) SignUp(ctx context.Context, email, password string) (*Account, error) {
	f.mu.Lock()

	if email == "" || !validEmail(email) {
		f.mu.Unlock()
		return nil, &Error{Code: CodeInvalidEmail}
	}
	if len(password) < 6 {
		f.mu.Unlock()
		return nil, &Error{Code: CodeWeakPassword}
	}
	if _, exists := f.users[email]; exists {
		f.mu.Unlock()
		return nil, &Error{Code: CodeEmailExists}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &fakeUser{
		id:         uuid.New().String(),
		email:      email,
		hashedPass: hashed,
	}
	f.users[email] = u
	acct := u.account()
	f.mu.Unlock()

	f.set(acct)
	return acct, nil
}

func (f *FakeProvider) SignIn(ctx context.Context, email, password string) (*Account, error) {
	f.mu.Lock()

	u, ok := f.users[email]
	if !ok {
		f.mu.Unlock()
		return nil, &Error{Code: CodeUserNotFound}
	}
	if err := bcrypt.CompareHashAndPassword(u.hashedPass, []byte(password)); err != nil {
		f.mu.Unlock()
		return nil, &Error{Code: CodeInvalidPassword}
	}

	acct := u.account()
	f.mu.Unlock()

	f.set(acct)
	return acct, nil
}

func (f *FakeProvider) UpdateDisplayName(ctx context.Context, displayName string) error {
	f.mu.Lock()

	u := f.currentUserLocked()
	if u == nil {
		f.mu.Unlock()
		return ErrNotSignedIn
	}
	u.displayName = displayName
	acct := u.account()
	f.mu.Unlock()

	f.set(acct)
	return nil
}

func (f *FakeProvider) SendEmailVerification(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.currentUserLocked() == nil {
		return ErrNotSignedIn
	}
	// No mailer here; the managed provider sends the actual email.
	return nil
}

func (f *FakeProvider) SendVerificationCode(ctx context.Context, phone, botToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if botToken == "" {
		return "", &Error{Code: CodeBotCheckFailed}
	}

	lim, ok := f.limiters[phone]
	if !ok {
		lim = rate.NewLimiter(f.ChallengeRate, f.ChallengeBurst)
		f.limiters[phone] = lim
	}
	if !lim.Allow() {
		return "", &Error{Code: CodeTooManyRequests}
	}

	id := uuid.New().String()
	f.challenges[id] = &fakeChallenge{
		phone:     phone,
		code:      fmt.Sprintf("%06d", rand.Intn(1000000)),
		expiresAt: time.Now().Add(f.ChallengeTTL),
	}
	return id, nil
}

func (f *FakeProvider) VerifyPhoneCode(ctx context.Context, challengeID, code string) (*PhoneCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch, ok := f.challenges[challengeID]
	if !ok || time.Now().After(ch.expiresAt) {
		return nil, &Error{Code: CodeExpiredCode}
	}
	if ch.code != code {
		return nil, &Error{Code: CodeInvalidCode}
	}
	return &PhoneCredential{ChallengeID: challengeID, Code: code}, nil
}

func (f *FakeProvider) LinkPhone(ctx context.Context, cred *PhoneCredential) error {
	f.mu.Lock()

	u := f.currentUserLocked()
	if u == nil {
		f.mu.Unlock()
		return ErrNotSignedIn
	}

	ch, ok := f.challenges[cred.ChallengeID]
	if !ok || time.Now().After(ch.expiresAt) {
		f.mu.Unlock()
		return &Error{Code: CodeExpiredCode}
	}
	if ch.code != cred.Code {
		f.mu.Unlock()
		return &Error{Code: CodeInvalidCode}
	}

	// Challenges are single-use once linked.
	delete(f.challenges, cred.ChallengeID)
	u.phone = ch.phone
	acct := u.account()
	f.mu.Unlock()

	f.set(acct)
	return nil
}

func (f *FakeProvider) DeleteAccount(ctx context.Context) error {
	f.mu.Lock()

	u := f.currentUserLocked()
	if u == nil {
		f.mu.Unlock()
		return ErrNotSignedIn
	}
	delete(f.users, u.email)
	f.mu.Unlock()

	f.set(nil)
	return nil
}

func (f *FakeProvider) SignOut() error {
	f.set(nil)
	return nil
}

func (f *FakeProvider) CurrentAccount() *Account { return f.get() }

// IDToken mints a signed token for the signed-in account, claim-compatible
// with the managed provider's tokens.
func (f *FakeProvider) IDToken() (string, error) {
	f.mu.Lock()
	u := f.currentUserLocked()
	f.mu.Unlock()
	if u == nil {
		return "", ErrNotSignedIn
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":        u.id,
		"email":          u.email,
		"email_verified": u.emailVerified,
		"exp":            time.Now().Add(time.Hour).Unix(),
	})
	return tok.SignedString(f.signingKey)
}

// AccountExists reports whether an account for email is still registered.
// Tests use it to check rollback after a failed signup.
func (f *FakeProvider) AccountExists(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[email]
	return ok
}

// ChallengeCode returns the OTP for a pending challenge, standing in for
// the SMS delivery path.
func (f *FakeProvider) ChallengeCode(challengeID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.challenges[challengeID]
	if !ok {
		return "", false
	}
	return ch.code, true
}

// SetEmailVerified flips the provider-side verification flag, standing in
// for the user clicking the emailed link.
func (f *FakeProvider) SetEmailVerified(email string, verified bool) {
	f.mu.Lock()
	var acct *Account
	if u, ok := f.users[email]; ok {
		u.emailVerified = verified
		if cur := f.currentUserLocked(); cur == u {
			acct = u.account()
		}
	}
	f.mu.Unlock()

	if acct != nil {
		f.set(acct)
	}
}

func (f *FakeProvider) currentUserLocked() *fakeUser {
	cur := f.get()
	if cur == nil {
		return nil
	}
	for _, u := range f.users {
		if u.id == cur.ID {
			return u
		}
	}
	return nil
}

func (u *fakeUser) account() *Account {
	return &Account{
		ID:            u.id,
		Email:         u.email,
		EmailVerified: u.emailVerified,
		Phone:         u.phone,
		DisplayName:   u.displayName,
	}
}

func validEmail(email string) bool {
	at := -1
	for i, r := range email {
		if r == '@' {
			if at >= 0 {
				return false
			}
			at = i
		}
	}
	if at <= 0 || at == len(email)-1 {
		return false
	}
	dot := false
	for _, r := range email[at+1:] {
		if r == '.' {
			dot = true
		}
	}
	return dot
}
