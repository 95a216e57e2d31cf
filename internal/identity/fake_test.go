package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

func TestFakeProvider_SignUpThenSignIn(t *testing.T) {
	f := NewFakeProvider()
	ctx := context.Background()

	acct, err := f.SignUp(ctx, "rider@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if acct.ID == "" || acct.Email != "rider@example.com" {
		t.Errorf("unexpected account: %+v", acct)
	}

	if err := f.SignOut(); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if f.CurrentAccount() != nil {
		t.Error("expected no account after sign-out")
	}

	back, err := f.SignIn(ctx, "rider@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if back.ID != acct.ID {
		t.Errorf("expected same account id, got %q vs %q", back.ID, acct.ID)
	}

	if _, err := f.SignIn(ctx, "rider@example.com", "wrong-pass"); CodeOf(err) != CodeInvalidPassword {
		t.Errorf("expected INVALID_PASSWORD, got %v", err)
	}
	if _, err := f.SignIn(ctx, "nobody@example.com", "secret123"); CodeOf(err) != CodeUserNotFound {
		t.Errorf("expected EMAIL_NOT_FOUND, got %v", err)
	}
}

func TestFakeProvider_SignUpRejections(t *testing.T) {
	f := NewFakeProvider()
	ctx := context.Background()

	if _, err := f.SignUp(ctx, "not-an-email", "secret123"); CodeOf(err) != CodeInvalidEmail {
		t.Errorf("expected INVALID_EMAIL, got %v", err)
	}
	if _, err := f.SignUp(ctx, "a@b.com", "short"); CodeOf(err) != CodeWeakPassword {
		t.Errorf("expected WEAK_PASSWORD, got %v", err)
	}

	if _, err := f.SignUp(ctx, "a@b.com", "secret123"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := f.SignUp(ctx, "a@b.com", "secret123"); CodeOf(err) != CodeEmailExists {
		t.Errorf("expected EMAIL_EXISTS, got %v", err)
	}
}

// TestFakeProvider_PhoneChallengeLifecycle walks a challenge from issuance
// through verification to linking, and checks single-use linking.
func TestFakeProvider_PhoneChallengeLifecycle(t *testing.T) {
	f := NewFakeProvider()
	ctx := context.Background()

	if _, err := f.SignUp(ctx, "rider@example.com", "secret123"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	id, err := f.SendVerificationCode(ctx, "+14155551234", "bot-token")
	if err != nil {
		t.Fatalf("SendVerificationCode: %v", err)
	}
	code, ok := f.ChallengeCode(id)
	if !ok {
		t.Fatal("challenge not found")
	}

	if wrong := "999999"; wrong != code {
		if _, err := f.VerifyPhoneCode(ctx, id, wrong); CodeOf(err) != CodeInvalidCode {
			t.Errorf("expected INVALID_CODE for wrong code, got %v", err)
		}
	}

	cred, err := f.VerifyPhoneCode(ctx, id, code)
	if err != nil {
		t.Fatalf("VerifyPhoneCode: %v", err)
	}
	if err := f.LinkPhone(ctx, cred); err != nil {
		t.Fatalf("LinkPhone: %v", err)
	}
	if acct := f.CurrentAccount(); acct == nil || acct.Phone != "+14155551234" {
		t.Errorf("expected linked phone on account, got %+v", acct)
	}

	// Linking consumes the challenge.
	if err := f.LinkPhone(ctx, cred); CodeOf(err) != CodeExpiredCode {
		t.Errorf("expected SESSION_EXPIRED on reuse, got %v", err)
	}
}

func TestFakeProvider_ChallengeExpiry(t *testing.T) {
	f := NewFakeProvider()
	f.ChallengeTTL = -time.Second // already expired at issuance

	id, err := f.SendVerificationCode(context.Background(), "+14155551234", "bot-token")
	if err != nil {
		t.Fatalf("SendVerificationCode: %v", err)
	}
	code, _ := f.ChallengeCode(id)
	if _, err := f.VerifyPhoneCode(context.Background(), id, code); CodeOf(err) != CodeExpiredCode {
		t.Errorf("expected SESSION_EXPIRED, got %v", err)
	}
}

func TestFakeProvider_ChallengeRateLimitPerPhone(t *testing.T) {
	f := NewFakeProvider()
	f.ChallengeBurst = 2
	f.ChallengeRate = rate.Every(time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.SendVerificationCode(ctx, "+14155551234", "bot-token"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if _, err := f.SendVerificationCode(ctx, "+14155551234", "bot-token"); CodeOf(err) != CodeTooManyRequests {
		t.Errorf("expected TOO_MANY_ATTEMPTS_TRY_LATER, got %v", err)
	}

	// A different phone has its own budget.
	if _, err := f.SendVerificationCode(ctx, "+14155559999", "bot-token"); err != nil {
		t.Errorf("other phone should not be throttled: %v", err)
	}
}

func TestFakeProvider_MissingBotTokenRejected(t *testing.T) {
	f := NewFakeProvider()
	if _, err := f.SendVerificationCode(context.Background(), "+14155551234", ""); CodeOf(err) != CodeBotCheckFailed {
		t.Errorf("expected CAPTCHA_CHECK_FAILED, got %v", err)
	}
}

// TestFakeProvider_IDTokenClaims parses a minted token and checks the claims
// the rest of the stack reads.
func TestFakeProvider_IDTokenClaims(t *testing.T) {
	f := NewFakeProvider()
	ctx := context.Background()

	acct, err := f.SignUp(ctx, "rider@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	f.SetEmailVerified("rider@example.com", true)

	token, err := f.IDToken()
	if err != nil {
		t.Fatalf("IDToken: %v", err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parsing token: %v", err)
	}
	if claims["user_id"] != acct.ID {
		t.Errorf("user_id = %v, want %q", claims["user_id"], acct.ID)
	}
	if claims["email"] != "rider@example.com" {
		t.Errorf("email = %v", claims["email"])
	}
	if claims["email_verified"] != true {
		t.Errorf("email_verified = %v, want true", claims["email_verified"])
	}
}

// TestFakeProvider_ListenerMayCallBackIntoProvider verifies the Subscribe
// contract: a listener may call provider methods from inside its callback,
// so notifications must be delivered with no provider lock held.
func TestFakeProvider_ListenerMayCallBackIntoProvider(t *testing.T) {
	f := NewFakeProvider()

	var token string
	unsub := f.Subscribe(func(a *Account) {
		if a == nil {
			return
		}
		tok, err := f.IDToken()
		if err != nil {
			t.Errorf("IDToken from listener: %v", err)
			return
		}
		token = tok
	})
	defer unsub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := f.SignUp(context.Background(), "rider@example.com", "secret123"); err != nil {
			t.Errorf("SignUp: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SignUp never returned while a listener called back into the provider")
	}
	if token == "" {
		t.Error("listener never observed a token")
	}
}

// TestAuthState_SubscriberGetsInitialAndUpdates checks that a new subscriber
// is called immediately with the current state and again on changes.
func TestAuthState_SubscriberGetsInitialAndUpdates(t *testing.T) {
	f := NewFakeProvider()
	ctx := context.Background()

	var seen []*Account
	unsub := f.Subscribe(func(a *Account) { seen = append(seen, a) })
	defer unsub()

	if len(seen) != 1 || seen[0] != nil {
		t.Fatalf("expected immediate nil delivery, got %v", seen)
	}

	if _, err := f.SignUp(ctx, "rider@example.com", "secret123"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if len(seen) < 2 || seen[len(seen)-1] == nil {
		t.Fatalf("expected sign-up delivery, got %v", seen)
	}

	unsub()
	before := len(seen)
	if err := f.SignOut(); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if len(seen) != before {
		t.Error("expected no deliveries after unsubscribe")
	}
}
