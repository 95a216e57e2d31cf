package profile

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProfileNotFound reports a point lookup that matched no row. Callers use
// it to tell "identity exists but never finished signup" apart from a
// transient store failure.
var ErrProfileNotFound = errors.New("profile not found")

type DocumentType string

const (
	DocumentProfile DocumentType = "profile"
	DocumentDL      DocumentType = "dl"
	DocumentID      DocumentType = "id"
)

func ValidDocumentType(d DocumentType) bool {
	return d == DocumentProfile || d == DocumentDL || d == DocumentID
}

// Store wraps the relational profile tables with single-row point
// operations. The two tables are never written atomically together; the one
// multi-statement path (driver document upsert) runs its read-modify-write
// inside a transaction so concurrent uploads of different documents don't
// blank each other out.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Update carries the editable fields of a user profile. Nil pointers mean
// "leave unchanged".
type Update struct {
	FirstName       *string
	LastName        *string
	DisplayName     *string
	Phone           *string
	Role            *Role
	IsEmailVerified *bool
	ProfileURL      *string
}

func (s *Store) CreateUserProfile(ctx context.Context, p *UserProfile) (*UserProfile, error) {
	if !ValidRole(p.Role) {
		return nil, fmt.Errorf("invalid role %q", p.Role)
	}
	normalizeNames(p)

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("creating user profile: %w", err)
	}
	return p, nil
}

func (s *Store) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	var p UserProfile
	err := s.db.WithContext(ctx).First(&p, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user profile: %w", err)
	}
	return &p, nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, userID string, u Update) (*UserProfile, error) {
	updates := map[string]any{}
	if u.FirstName != nil {
		updates["first_name"] = norm.NFC.String(*u.FirstName)
	}
	if u.LastName != nil {
		updates["last_name"] = norm.NFC.String(*u.LastName)
	}
	if u.DisplayName != nil {
		updates["display_name"] = norm.NFC.String(*u.DisplayName)
	}
	if u.Phone != nil {
		updates["phone"] = *u.Phone
	}
	if u.Role != nil {
		if !ValidRole(*u.Role) {
			return nil, fmt.Errorf("invalid role %q", *u.Role)
		}
		updates["role"] = *u.Role
	}
	if u.IsEmailVerified != nil {
		updates["is_email_verified"] = *u.IsEmailVerified
	}
	if u.ProfileURL != nil {
		updates["profile_url"] = *u.ProfileURL
	}
	if len(updates) == 0 {
		return s.GetUserProfile(ctx, userID)
	}

	res := s.db.WithContext(ctx).Model(&UserProfile{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("updating user profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}
	return s.GetUserProfile(ctx, userID)
}

func (s *Store) GetDriverProfile(ctx context.Context, userID string) (*DriverProfile, error) {
	var d DriverProfile
	err := s.db.WithContext(ctx).First(&d, "user_profile_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching driver profile: %w", err)
	}
	return &d, nil
}

// UpsertDriverDocument writes one document URL, reading any existing row
// first so the other NOT NULL column keeps its value (or "" when genuinely
// absent). Conflict target is user_profile_id.
func (s *Store) UpsertDriverDocument(ctx context.Context, userID string, doc DocumentType, publicURL string) error {
	if doc != DocumentDL && doc != DocumentID {
		return fmt.Errorf("invalid driver document type %q", doc)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing DriverProfile
		err := tx.First(&existing, "user_profile_id = ?", userID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("reading driver profile: %w", err)
		}

		row := DriverProfile{
			UserProfileID: userID,
			DLURL:         existing.DLURL,
			IDURL:         existing.IDURL,
		}
		switch doc {
		case DocumentDL:
			row.DLURL = publicURL
		case DocumentID:
			row.IDURL = publicURL
		}

		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_profile_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"dl_url", "id_url", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upserting driver profile: %w", err)
		}
		return nil
	})
}

func normalizeNames(p *UserProfile) {
	p.FirstName = norm.NFC.String(p.FirstName)
	p.LastName = norm.NFC.String(p.LastName)
	p.DisplayName = norm.NFC.String(p.DisplayName)
}
