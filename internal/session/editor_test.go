package session

import (
	"context"
	"testing"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/identity"
	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/profile"
)

// TestEditor_SaveUpdatesNameThenProfile verifies a save writes the display
// name to the provider and the fields to the profile row.
func TestEditor_SaveUpdatesNameThenProfile(t *testing.T) {
	fake := identity.NewFakeProvider()
	profiles := newStubProfiles()
	acct := signUpTestAccount(t, fake)
	profiles.rows[acct.ID] = &profile.UserProfile{ID: acct.ID, Role: profile.RolePassenger}

	e := NewEditor(fake, profiles)
	e.Save(context.Background(), acct.ID, "Asha", "Rao", "Asha Rao", "+14155551234", profile.RoleBoth)

	if e.Err() != "" {
		t.Fatalf("unexpected error: %q", e.Err())
	}
	if e.Message() != "Profile updated successfully!" {
		t.Errorf("message = %q", e.Message())
	}
	if got := fake.CurrentAccount().DisplayName; got != "Asha Rao" {
		t.Errorf("provider display name = %q", got)
	}
	row := profiles.rows[acct.ID]
	if row.DisplayName != "Asha Rao" || row.Role != profile.RoleBoth || row.Phone != "+14155551234" {
		t.Errorf("row = %+v", row)
	}
}

// TestEditor_SaveFailureSetsError verifies a profile-write failure surfaces
// the retry message and no success message.
func TestEditor_SaveFailureSetsError(t *testing.T) {
	fake := identity.NewFakeProvider()
	profiles := newStubProfiles()
	acct := signUpTestAccount(t, fake)
	// No profile row: UpdateFields returns not-found.

	e := NewEditor(fake, profiles)
	e.Save(context.Background(), acct.ID, "Asha", "Rao", "Asha Rao", "+14155551234", profile.RoleBoth)

	if e.Err() != "Failed to update profile. Please try again." {
		t.Errorf("error = %q", e.Err())
	}
	if e.Message() != "" {
		t.Errorf("unexpected success message %q", e.Message())
	}
}

// TestEditor_SendEmailVerification verifies the signed-in path reports the
// sent message and the signed-out path reports the failure message.
func TestEditor_SendEmailVerification(t *testing.T) {
	fake := identity.NewFakeProvider()
	e := NewEditor(fake, newStubProfiles())

	e.SendEmailVerification(context.Background())
	if e.Err() == "" {
		t.Error("expected an error while signed out")
	}

	signUpTestAccount(t, fake)
	e.SendEmailVerification(context.Background())
	if e.Message() != "Verification email sent! Please check your inbox and spam folder." {
		t.Errorf("message = %q", e.Message())
	}
	if e.Err() != "" {
		t.Errorf("unexpected error %q", e.Err())
	}
}
