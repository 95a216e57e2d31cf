package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/identity"
	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/profile"
)

// Session mirrors the signed-in identity for the lifetime of the app
// instance. Cleared on sign-out or provider session expiry.
type Session struct {
	UserID        string
	Email         string
	EmailVerified bool
	Phone         string
	DisplayName   string
}

// ProfileAPI is the slice of the profile client the provider needs.
type ProfileAPI interface {
	Get(ctx context.Context, userID string) (*profile.UserProfile, error)
	UpdateFields(ctx context.Context, userID string, u profile.Update) (*profile.UserProfile, error)
}

// Provider is the single source of truth for "who is signed in and what is
// their profile". It holds exactly one identity subscription; each
// auth-state notification is fully processed, profile fetch included,
// before the new state becomes observable.
type Provider struct {
	mu      sync.Mutex
	session *Session
	profile *profile.UserProfile
	loading bool

	identity    identity.Client
	profiles    ProfileAPI
	unsubscribe func()

	protectedPrefixes []string
}

func NewProvider(idc identity.Client, api ProfileAPI, protectedPrefixes []string) *Provider {
	p := &Provider{
		identity:          idc,
		profiles:          api,
		loading:           true,
		protectedPrefixes: protectedPrefixes,
	}
	p.unsubscribe = idc.Subscribe(p.onAuthStateChanged)
	return p
}

func (p *Provider) onAuthStateChanged(acct *identity.Account) {
	if acct == nil {
		p.mu.Lock()
		p.session = nil
		p.profile = nil
		p.loading = false
		p.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	prof, err := p.profiles.Get(ctx, acct.ID)

	p.mu.Lock()
	p.session = &Session{
		UserID:        acct.ID,
		Email:         acct.Email,
		EmailVerified: acct.EmailVerified,
		Phone:         acct.Phone,
		DisplayName:   acct.DisplayName,
	}
	switch {
	case err == nil:
		p.profile = prof
	case errors.Is(err, profile.ErrProfileNotFound):
		// Identity exists but signup never finished; expected state.
		p.profile = nil
	default:
		// Transient fetch failure: keep whatever profile we had so the UI
		// doesn't flicker to logged-out. Never across accounts, though; a
		// retained profile must belong to the account being signed in.
		if p.profile != nil && p.profile.ID != acct.ID {
			p.profile = nil
		}
		log.Println("Keeping existing profile due to fetch error:", err)
	}
	p.loading = false
	p.mu.Unlock()

	if prof != nil && prof.IsEmailVerified != acct.EmailVerified {
		go p.correctEmailVerified(acct.ID, acct.EmailVerified)
	}
}

// correctEmailVerified reconciles the stored flag with the provider's live
// value. Best-effort: a failure is logged and never blocks the session.
func (p *Provider) correctEmailVerified(userID string, verified bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	updated, err := p.profiles.UpdateFields(ctx, userID, profile.Update{IsEmailVerified: &verified})
	if err != nil {
		log.Println("Error updating email verification status:", err)
		return
	}

	p.mu.Lock()
	if p.session != nil && p.session.UserID == userID {
		p.profile = updated
	}
	p.mu.Unlock()
}

// Session returns the current session, or nil when signed out.
func (p *Provider) Session() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	cp := *p.session
	return &cp
}

// Profile returns the mirrored user profile, or nil when absent.
func (p *Provider) Profile() *profile.UserProfile {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profile == nil {
		return nil
	}
	cp := *p.profile
	return &cp
}

// Loading reports whether the initial auth-state resolution is still
// pending. Guards must not make redirect decisions while this is true.
func (p *Provider) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// SignOut signs out at the identity provider, clears local state, and
// reports whether a full navigation home is required, true when the
// current path is under a protected prefix, so no protected view stays
// mounted with stale permissions.
func (p *Provider) SignOut(currentPath string) (forceHomeNavigation bool, err error) {
	err = p.identity.SignOut()

	p.mu.Lock()
	p.session = nil
	p.profile = nil
	p.mu.Unlock()

	for _, prefix := range p.protectedPrefixes {
		if strings.HasPrefix(currentPath, prefix) {
			return true, err
		}
	}
	return false, err
}

// Close releases the identity subscription.
func (p *Provider) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}
