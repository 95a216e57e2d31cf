package profile_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/db"
	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/profile"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

var store *profile.Store

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up from internal/profile/).
	_ = godotenv.Load("../../.env.local")

	if os.Getenv("DATABASE_URL") == "" {
		// No database available — skip all integration tests gracefully.
		os.Exit(m.Run())
	}

	db.Connect()
	dbAvailable = true

	// Set up profile tables (idempotent).
	profile.Init()
	store = profile.NewStore(db.DB)

	os.Exit(m.Run())
}

// createTestProfile inserts a unique profile row and registers a cleanup to
// remove it along with any driver row. Returns the user id.
func createTestProfile(t *testing.T, role profile.Role) string {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	userID := "test-" + uuid.New().String()
	_, err := store.CreateUserProfile(context.Background(), &profile.UserProfile{
		ID:        userID,
		Email:     userID + "@example.com",
		Phone:     "+14155551234",
		FirstName: "Test",
		LastName:  "Rider",
		Role:      role,
	})
	if err != nil {
		t.Fatalf("creating test profile: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Exec("DELETE FROM app_profiles.driver_profiles WHERE user_profile_id = ?", userID)
		db.DB.Exec("DELETE FROM app_profiles.user_profiles WHERE id = ?", userID)
	})
	return userID
}

// TestCreateAndGetProfileRoundTrip verifies a created row reads back with
// the same fields and timestamps populated.
func TestCreateAndGetProfileRoundTrip(t *testing.T) {
	userID := createTestProfile(t, profile.RolePassenger)

	got, err := store.GetUserProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetUserProfile: %v", err)
	}
	if got.ID != userID || got.FirstName != "Test" || got.Role != profile.RolePassenger {
		t.Errorf("unexpected row: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected timestamps populated")
	}
}

// TestGetProfileNotFound verifies the sentinel error for a missing row.
func TestGetProfileNotFound(t *testing.T) {
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	_, err := store.GetUserProfile(context.Background(), "test-"+uuid.New().String())
	if err != profile.ErrProfileNotFound {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

// TestUpdateProfilePartialFields verifies only the supplied fields change.
func TestUpdateProfilePartialFields(t *testing.T) {
	userID := createTestProfile(t, profile.RolePassenger)

	first := "Asha"
	role := profile.RoleBoth
	updated, err := store.UpdateUserProfile(context.Background(), userID, profile.Update{
		FirstName: &first,
		Role:      &role,
	})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	if updated.FirstName != "Asha" || updated.Role != profile.RoleBoth {
		t.Errorf("unexpected row after update: %+v", updated)
	}
	if updated.LastName != "Rider" {
		t.Errorf("untouched field changed: %q", updated.LastName)
	}
}

// TestUpdateProfileUnknownUser verifies zero affected rows maps to the
// not-found sentinel.
func TestUpdateProfileUnknownUser(t *testing.T) {
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	first := "Nobody"
	_, err := store.UpdateUserProfile(context.Background(), "test-"+uuid.New().String(), profile.Update{FirstName: &first})
	if err != profile.ErrProfileNotFound {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

// TestUpsertDriverDocumentFirstWrite verifies inserting one document leaves
// the other column as the empty string, never NULL.
func TestUpsertDriverDocumentFirstWrite(t *testing.T) {
	userID := createTestProfile(t, profile.RoleDriver)
	ctx := context.Background()

	if err := store.UpsertDriverDocument(ctx, userID, profile.DocumentID, "https://pub.test/id/1.png"); err != nil {
		t.Fatalf("UpsertDriverDocument: %v", err)
	}

	row, err := store.GetDriverProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetDriverProfile: %v", err)
	}
	if row.IDURL != "https://pub.test/id/1.png" {
		t.Errorf("id_url = %q", row.IDURL)
	}
	if row.DLURL != "" {
		t.Errorf("dl_url = %q, want empty string", row.DLURL)
	}
}

// TestUpsertDriverDocumentPreservesOtherColumn verifies writing one document
// then the other keeps both, and that re-writing overwrites in place.
func TestUpsertDriverDocumentPreservesOtherColumn(t *testing.T) {
	userID := createTestProfile(t, profile.RoleDriver)
	ctx := context.Background()

	if err := store.UpsertDriverDocument(ctx, userID, profile.DocumentDL, "https://pub.test/dl/1.png"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.UpsertDriverDocument(ctx, userID, profile.DocumentID, "https://pub.test/id/1.png"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	row, err := store.GetDriverProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetDriverProfile: %v", err)
	}
	if row.DLURL != "https://pub.test/dl/1.png" || row.IDURL != "https://pub.test/id/1.png" {
		t.Errorf("unexpected row: %+v", row)
	}

	// Overwrite the license; the id document must survive.
	if err := store.UpsertDriverDocument(ctx, userID, profile.DocumentDL, "https://pub.test/dl/2.png"); err != nil {
		t.Fatalf("overwrite upsert: %v", err)
	}
	row, err = store.GetDriverProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetDriverProfile: %v", err)
	}
	if row.DLURL != "https://pub.test/dl/2.png" || row.IDURL != "https://pub.test/id/1.png" {
		t.Errorf("unexpected row after overwrite: %+v", row)
	}
}

// TestUpsertDriverDocumentRejectsProfileType verifies the profile photo may
// not be routed into the driver table.
func TestUpsertDriverDocumentRejectsProfileType(t *testing.T) {
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	err := store.UpsertDriverDocument(context.Background(), "whoever", profile.DocumentProfile, "https://x")
	if err == nil {
		t.Fatal("expected an error for the profile document type")
	}
}
