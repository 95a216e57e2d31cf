package session

import (
	"context"
	"log"
	"sync"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/identity"
	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/profile"
)

// Editor backs the profile settings form: name/phone/role edits and the
// resend-verification-email action. One current error and one current
// informational message, mutually cleared on each attempt.
type Editor struct {
	mu        sync.Mutex
	saving    bool
	verifying bool
	message   string
	errMsg    string

	identity identity.Client
	profiles ProfileAPI
}

func NewEditor(idc identity.Client, api ProfileAPI) *Editor {
	return &Editor{identity: idc, profiles: api}
}

func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

func (e *Editor) Message() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

func (e *Editor) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errMsg
}

// Save updates the display name at the identity provider, then patches the
// profile row. Messages are cleared up front so stale feedback never
// lingers across attempts.
func (e *Editor) Save(ctx context.Context, userID, firstName, lastName, displayName, phone string, role profile.Role) {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return
	}
	e.saving = true
	e.message = ""
	e.errMsg = ""
	e.mu.Unlock()

	err := e.identity.UpdateDisplayName(ctx, displayName)
	if err == nil {
		_, err = e.profiles.UpdateFields(ctx, userID, profile.Update{
			FirstName:   &firstName,
			LastName:    &lastName,
			DisplayName: &displayName,
			Phone:       &phone,
			Role:        &role,
		})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		log.Println("Error updating profile:", err)
		e.errMsg = "Failed to update profile. Please try again."
		return
	}
	e.message = "Profile updated successfully!"
}

// SendEmailVerification asks the provider to mail a verification link.
func (e *Editor) SendEmailVerification(ctx context.Context) {
	e.mu.Lock()
	if e.verifying {
		e.mu.Unlock()
		return
	}
	e.verifying = true
	e.message = ""
	e.errMsg = ""
	e.mu.Unlock()

	err := e.identity.SendEmailVerification(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.verifying = false
	if err != nil {
		log.Println("Error sending verification email:", err)
		e.errMsg = "Failed to send verification email. Please try again."
		return
	}
	e.message = "Verification email sent! Please check your inbox and spam folder."
}
