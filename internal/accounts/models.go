package accounts

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRole is assigned when a resolution adds a jurisdiction the
// account has never belonged to. Elevated roles ("representative",
// "admin") are granted by other subsystems and must survive
// re-resolution untouched.
const DefaultRole = "citizen"

// Membership is one persisted jurisdiction membership on an account
// record. This engine owns the membership set and the DistrictID; Role is
// administrative metadata owned elsewhere.
type Membership struct {
	JurisdictionID string `json:"jurisdiction_id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	DistrictID     string `json:"district_id,omitempty"`
}

// AccountMembership is the membership table row.
type AccountMembership struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	AccountID      uuid.UUID `json:"account_id" gorm:"type:uuid;uniqueIndex:idx_account_jurisdiction"`
	JurisdictionID string    `json:"jurisdiction_id" gorm:"uniqueIndex:idx_account_jurisdiction"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	DistrictID     string    `json:"district_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}
