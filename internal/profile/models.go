package profile

import "time"

type Role string

const (
	RoleDriver    Role = "driver"
	RolePassenger Role = "passenger"
	RoleBoth      Role = "both"
)

func ValidRole(r Role) bool {
	return r == RoleDriver || r == RolePassenger || r == RoleBoth
}

// UserProfile is the one-row-per-account profile record. ID is the identity
// provider's account id; rows are created by the signup flow and never
// deleted by this codebase.
type UserProfile struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"not null" json:"email"`
	Phone           string    `gorm:"not null" json:"phone"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	DisplayName     string    `json:"display_name"`
	Role            Role      `gorm:"default:'passenger'" json:"role"`
	IsEmailVerified bool      `json:"is_email_verified"`
	IsPhoneVerified bool      `json:"is_phone_verified"`
	ProfileURL      string    `json:"profile_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DriverProfile holds the uploaded document URLs for accounts that drive.
// Both URL columns are NOT NULL and default to "" so a single upsert can set
// either document without clobbering the other.
type DriverProfile struct {
	UserProfileID string    `gorm:"primaryKey" json:"user_profile_id"`
	DLURL         string    `gorm:"column:dl_url;not null;default:''" json:"dl_url"`
	IDURL         string    `gorm:"column:id_url;not null;default:''" json:"id_url"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (UserProfile) TableName() string   { return "app_profiles.user_profiles" }
func (DriverProfile) TableName() string { return "app_profiles.driver_profiles" }
