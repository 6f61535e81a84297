// Package entitlement gates user and factory creation against the
// organization's active subscription plan.
package entitlement

import (
	"errors"

	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/models/subscription"
	"github.com/AsaielHummadi/Sustain/models/user"
)

// Limits is the usage read-model for display. Enforcement always goes through
// CanCreateUser/CanCreateFactory at the point of mutation, not through this.
type Limits struct {
	Users        int `json:"users"`
	Factories    int `json:"factories"`
	MaxUsers     int `json:"max_users"`
	MaxFactories int `json:"max_factories"`
}

func (l Limits) UserLimitReached() bool {
	return l.Users >= l.MaxUsers
}

func (l Limits) FactoryLimitReached() bool {
	return l.Factories >= l.MaxFactories
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ActiveSubscription resolves the organization's active subscription, most
// recently started first. Renewal expires the previous row in the same
// transaction, so normally at most one active row exists; the ordering is the
// deterministic tie-break if data predates that invariant. Returns nil when
// the organization has no active subscription.
func (s *Service) ActiveSubscription(organizationID uint) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := s.db.Preload("SubscriptionPlan").
		Where("organization_id = ? AND status = ?", organizationID, constants.SubscriptionStatusActive).
		Order("start_date DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CanCreateUser reports whether one more user fits under the plan's user cap.
// No active subscription or an unset cap denies (fail-closed). The count is on
// organization membership, inactive users included.
//
// Two concurrent creates can both pass before either commits; the check is
// best-effort and a plan can be exceeded by one under that race.
func (s *Service) CanCreateUser(organizationID uint) (bool, error) {
	sub, err := s.ActiveSubscription(organizationID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}

	maxUsers := 0
	if sub.SubscriptionPlan.UserMax != nil {
		maxUsers = *sub.SubscriptionPlan.UserMax
	}

	var current int64
	if err := s.db.Model(&user.User{}).Where("organization_id = ?", organizationID).Count(&current).Error; err != nil {
		return false, err
	}
	return int(current) < maxUsers, nil
}

// CanCreateFactory reports whether one more factory fits under the plan's
// factory cap. Same fail-closed and best-effort semantics as CanCreateUser.
func (s *Service) CanCreateFactory(organizationID uint) (bool, error) {
	sub, err := s.ActiveSubscription(organizationID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}

	maxFactories := 0
	if sub.SubscriptionPlan.FactoryMax != nil {
		maxFactories = *sub.SubscriptionPlan.FactoryMax
	}

	var current int64
	if err := s.db.Model(&factory.Factory{}).Where("organization_id = ?", organizationID).Count(&current).Error; err != nil {
		return false, err
	}
	return int(current) < maxFactories, nil
}

// GetLimits returns current and maximum usage for display. With no active
// subscription everything is zero, which reads as both limits reached.
func (s *Service) GetLimits(organizationID uint) (Limits, error) {
	var limits Limits

	sub, err := s.ActiveSubscription(organizationID)
	if err != nil {
		return limits, err
	}
	if sub != nil {
		if sub.SubscriptionPlan.UserMax != nil {
			limits.MaxUsers = *sub.SubscriptionPlan.UserMax
		}
		if sub.SubscriptionPlan.FactoryMax != nil {
			limits.MaxFactories = *sub.SubscriptionPlan.FactoryMax
		}
	}

	var users int64
	if err := s.db.Model(&user.User{}).Where("organization_id = ?", organizationID).Count(&users).Error; err != nil {
		return limits, err
	}
	var factories int64
	if err := s.db.Model(&factory.Factory{}).Where("organization_id = ?", organizationID).Count(&factories).Error; err != nil {
		return limits, err
	}

	limits.Users = int(users)
	limits.Factories = int(factories)
	return limits, nil
}
