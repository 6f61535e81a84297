// Package authz decides what a caller may see or mutate before any query
// runs. The dashboards and record listings apply these scopes first and the
// aggregation engine trusts its input to already be filtered.
package authz

import (
	"errors"

	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/invitation"
)

// Context is the authenticated identity, built once per request by the auth
// middleware and passed explicitly into every operation.
type Context struct {
	UserID         uint
	OrganizationID uint
	RoleID         int
}

func (c Context) IsAdministrator() bool {
	return c.RoleID == constants.RoleAdministrator
}

func (c Context) IsSustainabilityOfficer() bool {
	return c.RoleID == constants.RoleSustainabilityOfficer
}

func (c Context) IsFactoryOperator() bool {
	return c.RoleID == constants.RoleFactoryOperator
}

// CanViewOrgWide reports whether the caller sees everything in their
// organization. Factory operators do not; they are bound to one factory.
func (c Context) CanViewOrgWide() bool {
	return c.IsAdministrator() || c.IsSustainabilityOfficer()
}

// AssignedFactoryID resolves a factory operator's factory binding from their
// invitation row. Returns nil when no invitation with a factory exists.
func AssignedFactoryID(db *gorm.DB, ctx Context) (*uint, error) {
	var inv invitation.Invitation
	err := db.
		Where("user_id = ? AND organization_id = ? AND factory_id IS NOT NULL", ctx.UserID, ctx.OrganizationID).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv.FactoryID, nil
}

// RecordScope returns the gorm scope limiting emission records to what the
// caller may see. An operator with no factory binding gets an empty result
// set, never an error.
func RecordScope(db *gorm.DB, ctx Context) (func(*gorm.DB) *gorm.DB, error) {
	if ctx.CanViewOrgWide() {
		return func(tx *gorm.DB) *gorm.DB {
			return tx.Where("emission_records.organization_id = ?", ctx.OrganizationID)
		}, nil
	}

	factoryID, err := AssignedFactoryID(db, ctx)
	if err != nil {
		return nil, err
	}
	if factoryID == nil {
		return emptyScope, nil
	}
	fid := *factoryID
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("emission_records.organization_id = ? AND emission_records.factory_id = ?", ctx.OrganizationID, fid)
	}, nil
}

// FactoryScope limits factories to the caller's organization, and for
// operators to their bound factory only.
func FactoryScope(db *gorm.DB, ctx Context) (func(*gorm.DB) *gorm.DB, error) {
	if ctx.CanViewOrgWide() {
		return func(tx *gorm.DB) *gorm.DB {
			return tx.Where("factories.organization_id = ?", ctx.OrganizationID)
		}, nil
	}

	factoryID, err := AssignedFactoryID(db, ctx)
	if err != nil {
		return nil, err
	}
	if factoryID == nil {
		return emptyScope, nil
	}
	fid := *factoryID
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("factories.id = ?", fid)
	}, nil
}

// SourceScope makes global sources (organization IS NULL) and the caller's own
// sources visible, including the organization's pending custom-source requests.
func SourceScope(organizationID uint) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("emission_sources.organization_id IS NULL OR emission_sources.organization_id = ?", organizationID)
	}
}

// CanMutateSource reports whether the caller's organization owns the source.
// Global sources are never mutable by any organization.
func CanMutateSource(src emission.EmissionSource, ctx Context) bool {
	return src.OrganizationID != nil && *src.OrganizationID == ctx.OrganizationID
}

func emptyScope(tx *gorm.DB) *gorm.DB {
	return tx.Where("1 = 0")
}
