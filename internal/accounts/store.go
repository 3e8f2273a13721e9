// Package accounts persists per-account jurisdiction memberships. It is
// the engine's view of the account record store; everything else on an
// account belongs to other subsystems.
package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is what the batch processor needs from the record store.
// Last-write-wins is acceptable: merges are per-field and idempotent.
type Store interface {
	// MembershipsForAccounts returns the current memberships for each of
	// the given account ids. Accounts with no memberships are absent from
	// the map.
	MembershipsForAccounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Membership, error)

	// SaveMemberships upserts the given memberships for one account.
	// Memberships for jurisdictions not listed are left untouched.
	SaveMemberships(ctx context.Context, accountID uuid.UUID, memberships []Membership) error
}

// GormStore implements Store on Postgres via GORM.
type GormStore struct {
	DB *gorm.DB
}

// Setup migrates the membership table.
func Setup(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("enabling uuid-ossp extension: %w", err)
	}
	if err := db.AutoMigrate(&AccountMembership{}); err != nil {
		return fmt.Errorf("migrating account memberships: %w", err)
	}
	return nil
}

func (s *GormStore) MembershipsForAccounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Membership, error) {
	if len(ids) == 0 {
		return map[uuid.UUID][]Membership{}, nil
	}

	var rows []AccountMembership
	if err := s.DB.WithContext(ctx).
		Where("account_id = ANY(?)", pq.Array(ids)).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetching memberships: %w", err)
	}

	byAccount := make(map[uuid.UUID][]Membership)
	for _, row := range rows {
		byAccount[row.AccountID] = append(byAccount[row.AccountID], Membership{
			JurisdictionID: row.JurisdictionID,
			Name:           row.Name,
			Role:           row.Role,
			DistrictID:     row.DistrictID,
		})
	}
	return byAccount, nil
}

func (s *GormStore) SaveMemberships(ctx context.Context, accountID uuid.UUID, memberships []Membership) error {
	if len(memberships) == 0 {
		return nil
	}

	rows := make([]AccountMembership, 0, len(memberships))
	for _, m := range memberships {
		rows = append(rows, AccountMembership{
			AccountID:      accountID,
			JurisdictionID: m.JurisdictionID,
			Name:           m.Name,
			Role:           m.Role,
			DistrictID:     m.DistrictID,
		})
	}

	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "jurisdiction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "role", "district_id", "updated_at",
		}),
	}).Create(&rows).Error; err != nil {
		return fmt.Errorf("saving memberships for account %s: %w", accountID, err)
	}
	return nil
}
