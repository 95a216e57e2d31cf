package signup

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/identity"
	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/profile"
)

// State is where the signup flow currently is.
type State int

const (
	StateForm State = iota
	StatePhoneVerification
	StateAccountCreation
	StateSuccess
)

const resendCooldownSeconds = 30

// BotCheck supplies the token for the invisible bot challenge solved before
// an OTP is requested.
type BotCheck interface {
	Solve(ctx context.Context) (string, error)
}

// InvisibleBotCheck stands in for the invisible widget: it always solves.
type InvisibleBotCheck struct{}

func (InvisibleBotCheck) Solve(ctx context.Context) (string, error) {
	return uuid.New().String(), nil
}

// ProfileAPI is the slice of the profile client the saga writes through.
type ProfileAPI interface {
	Create(ctx context.Context, p *profile.UserProfile) (*profile.UserProfile, error)
}

// Saga drives the multi-step signup: form → phone OTP → account creation →
// success, with compensating rollback when the profile write fails after
// the identity account already exists. It holds no server-side state
// between steps; abandoning it mid-flight can leave a verified identity
// with no profile, which the session provider later reports as
// profile-not-found.
type Saga struct {
	mu          sync.Mutex
	state       State
	form        Form
	challengeID string
	enteredCode string
	cooldown    int
	loading     bool
	errMsg      string
	infoMsg     string

	identity identity.Client
	profiles ProfileAPI
	botCheck BotCheck
	validate *validator.Validate

	// tickInterval is one second in production; tests shrink it.
	tickInterval time.Duration
	successDelay time.Duration
	tickerOn     bool
	done         chan struct{}
	closeOnce    sync.Once

	// OnClose runs when the flow hands control back to navigation, either
	// after the post-success delay or an explicit Close.
	OnClose func()
}

func NewSaga(idc identity.Client, profiles ProfileAPI, botCheck BotCheck) *Saga {
	if botCheck == nil {
		botCheck = InvisibleBotCheck{}
	}
	return &Saga{
		state:        StateForm,
		identity:     idc,
		profiles:     profiles,
		botCheck:     botCheck,
		validate:     newValidator(),
		tickInterval: time.Second,
		successDelay: 2 * time.Second,
		done:         make(chan struct{}),
	}
}

func (s *Saga) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Saga) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Saga) Info() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoMsg
}

func (s *Saga) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Cooldown returns the seconds until resend re-enables.
func (s *Saga) Cooldown() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldown
}

// SubmitForm validates the form and, when valid, requests the phone OTP
// challenge. Validation failures block submission with no network call.
func (s *Saga) SubmitForm(ctx context.Context, f Form) {
	s.mu.Lock()
	if s.state != StateForm || s.loading {
		s.mu.Unlock()
		return
	}
	s.errMsg = ""
	s.infoMsg = ""

	if err := validateForm(s.validate, f); err != nil {
		s.errMsg = err.Error()
		s.mu.Unlock()
		return
	}
	s.form = f
	s.loading = true
	s.mu.Unlock()

	challengeID, err := s.requestChallenge(ctx, f.Phone)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = identity.UserMessage(err)
		sagaOutcomes.WithLabelValues(outcomeChallengeFailed).Inc()
		return
	}
	s.challengeID = challengeID
	s.state = StatePhoneVerification
	s.infoMsg = "We sent a 6-digit code to " + f.Phone + "."
	s.startCooldownLocked()
}

func (s *Saga) requestChallenge(ctx context.Context, phone string) (string, error) {
	token, err := s.botCheck.Solve(ctx)
	if err != nil {
		return "", err
	}
	return s.identity.SendVerificationCode(ctx, phone, token)
}

// ResendCode issues a fresh challenge once the cooldown has elapsed. While
// cooldown > 0 it is a strict no-op: no network call, no state change.
func (s *Saga) ResendCode(ctx context.Context) {
	s.mu.Lock()
	if s.state != StatePhoneVerification || s.loading || s.cooldown > 0 {
		s.mu.Unlock()
		return
	}
	s.errMsg = ""
	s.infoMsg = ""
	s.loading = true
	phone := s.form.Phone
	s.mu.Unlock()

	challengeID, err := s.requestChallenge(ctx, phone)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = identity.UserMessage(err)
		return
	}
	s.challengeID = challengeID
	s.infoMsg = "We sent a new code to " + phone + "."
	s.startCooldownLocked()
}

// SubmitCode takes the 6-digit code, moves to account creation, and runs
// the creation sequence. An invalid or expired code rolls back to
// phone-verification (not the form) so the code context is preserved.
func (s *Saga) SubmitCode(ctx context.Context, code string) {
	s.mu.Lock()
	if s.state != StatePhoneVerification || s.loading {
		s.mu.Unlock()
		return
	}
	s.errMsg = ""
	s.infoMsg = ""

	if !codeRE.MatchString(code) {
		s.errMsg = "Please enter the 6-digit code."
		s.mu.Unlock()
		return
	}

	cred := &identity.PhoneCredential{ChallengeID: s.challengeID, Code: code}
	s.enteredCode = code
	s.state = StateAccountCreation
	s.loading = true
	form := s.form
	s.mu.Unlock()

	s.createAccount(ctx, form, cred)
}

// createAccount performs steps (a)–(e): verify the phone credential, create
// the identity account, set display name, link the phone (best-effort),
// then write the profile row, compensating with account deletion when the
// profile write fails.
func (s *Saga) createAccount(ctx context.Context, f Form, cred *identity.PhoneCredential) {
	fail := func(state State, msg, outcome string) {
		s.mu.Lock()
		s.state = state
		s.errMsg = msg
		s.loading = false
		s.mu.Unlock()
		sagaOutcomes.WithLabelValues(outcome).Inc()
	}

	if _, err := s.identity.VerifyPhoneCode(ctx, cred.ChallengeID, cred.Code); err != nil {
		// Back to phone entry, keeping the challenge context.
		fail(StatePhoneVerification, identity.UserMessage(err), outcomeInvalidCode)
		return
	}

	acct, err := s.identity.SignUp(ctx, f.Email, f.Password)
	if err != nil {
		// No identity account exists yet, so nothing to compensate.
		outcome := outcomeOther
		switch identity.CodeOf(err) {
		case identity.CodeEmailExists:
			outcome = outcomeDuplicateEmail
		case identity.CodeWeakPassword:
			outcome = outcomeWeakPassword
		case identity.CodeInvalidEmail:
			outcome = outcomeMalformedEmail
		}
		fail(StateForm, identity.UserMessage(err), outcome)
		return
	}

	displayName := f.FirstName + " " + f.LastName
	if err := s.identity.UpdateDisplayName(ctx, displayName); err != nil {
		// Cosmetic; the profile editor can set it again later.
		log.Println("Error setting display name:", err)
	}

	if err := s.identity.LinkPhone(ctx, cred); err != nil {
		// The phone is already provably verified, so linking is
		// best-effort: swallowed, never surfaced.
		log.Println("Error linking phone credential:", err)
	}

	row := &profile.UserProfile{
		ID:              acct.ID,
		Email:           f.Email,
		Phone:           f.Phone,
		FirstName:       f.FirstName,
		LastName:        f.LastName,
		DisplayName:     displayName,
		Role:            f.Role,
		IsEmailVerified: true,
		IsPhoneVerified: true,
	}
	if _, err := s.profiles.Create(ctx, row); err != nil {
		log.Println("Error creating user profile:", err)
		s.compensate(ctx)
		s.mu.Lock()
		// The challenge id is stale now; the OTP must be re-requested.
		s.challengeID = ""
		s.enteredCode = ""
		s.state = StateForm
		s.errMsg = "Failed to create your account. Please try again."
		s.loading = false
		s.mu.Unlock()
		sagaOutcomes.WithLabelValues(outcomeProfileWriteFailed).Inc()
		return
	}

	s.mu.Lock()
	s.state = StateSuccess
	s.infoMsg = "Account created! Welcome to Mamagadhi."
	s.loading = false
	delay := s.successDelay
	s.mu.Unlock()
	sagaOutcomes.WithLabelValues(outcomeSuccess).Inc()

	go func() {
		select {
		case <-time.After(delay):
			s.Close()
		case <-s.done:
		}
	}()
}

// compensate deletes the just-created identity account so no orphaned
// identity survives a failed profile write. Failure of the compensation
// itself is logged, not retried, and not surfaced distinctly.
func (s *Saga) compensate(ctx context.Context) {
	if err := s.identity.DeleteAccount(ctx); err != nil {
		log.Println("Error rolling back identity account:", err)
	}
	if err := s.identity.SignOut(); err != nil {
		log.Println("Error clearing session after rollback:", err)
	}
}

// startCooldownLocked arms the 30-second resend cooldown. Caller holds the
// lock. The ticking goroutine lives until Close.
func (s *Saga) startCooldownLocked() {
	s.cooldown = resendCooldownSeconds
	if s.tickerOn {
		return
	}
	s.tickerOn = true

	go func() {
		t := time.NewTicker(s.tickInterval)
		defer t.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-t.C:
				s.mu.Lock()
				if s.cooldown > 0 {
					s.cooldown--
				}
				s.mu.Unlock()
			}
		}
	}()
}

// Close tears the flow down, stopping the cooldown ticker and the
// post-success delay so nothing touches state after teardown.
func (s *Saga) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.OnClose != nil {
			s.OnClose()
		}
	})
}
