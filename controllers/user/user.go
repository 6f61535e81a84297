package user

import (
	"errors"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/mailer"
	"github.com/AsaielHummadi/Sustain/middleware"
	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/models/goal"
	"github.com/AsaielHummadi/Sustain/models/invitation"
	"github.com/AsaielHummadi/Sustain/models/organization"
	"github.com/AsaielHummadi/Sustain/models/user"
	"github.com/AsaielHummadi/Sustain/services/entitlement"
	"github.com/AsaielHummadi/Sustain/types"
	"github.com/AsaielHummadi/Sustain/utils"
)

const invitationValidity = 7 * 24 * time.Hour

type UserController struct {
	db             *gorm.DB
	entitlements   *entitlement.Service
	mail           mailer.Mailer
	loggerInstance *logger.AsyncLogger
}

func NewUserController(db *gorm.DB, entitlements *entitlement.Service, mail mailer.Mailer, loggerInstance *logger.AsyncLogger) *UserController {
	return &UserController{db: db, entitlements: entitlements, mail: mail, loggerInstance: loggerInstance}
}

// Index returns the organization's members alongside factories, pending
// invitations and the subscription usage the management screen renders.
func (u *UserController) Index(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var users []user.User
	if err := u.db.Preload("Role").
		Where("organization_id = ? AND role_id <> ?", ctx.OrganizationID, constants.RoleAdministrator).
		Order("first_name ASC").
		Find(&users).Error; err != nil {
		logger.Error("Error fetching users", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching users", nil)
	}

	var factories []factory.Factory
	if err := u.db.Where("organization_id = ?", ctx.OrganizationID).Order("name ASC").Find(&factories).Error; err != nil {
		logger.Error("Error fetching factories", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching users", nil)
	}

	var pending []invitation.Invitation
	if err := u.db.Preload("Role").Preload("Factory").
		Where("organization_id = ? AND status = ?", ctx.OrganizationID, constants.InvitationStatusPending).
		Order("sent_at DESC").
		Find(&pending).Error; err != nil {
		logger.Error("Error fetching pending invitations", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching users", nil)
	}

	canInvite, err := u.entitlements.CanCreateUser(ctx.OrganizationID)
	if err != nil {
		logger.Error("Error checking user entitlement", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching users", nil)
	}
	limits, err := u.entitlements.GetLimits(ctx.OrganizationID)
	if err != nil {
		logger.Error("Error fetching subscription limits", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching users", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Users", fiber.Map{
		"users":               users,
		"factories":           factories,
		"pending_invitations": pending,
		"can_invite":          canInvite,
		"limits":              limits,
	})
}

type invitationRequest struct {
	Email     string `json:"email"`
	RoleID    int    `json:"role_id"`
	FactoryID *uint  `json:"factory_id"`
}

// SendInvitation creates a pending invitation and emails the join link. The
// invite counts against the user cap up front, so an organization cannot
// queue more invitations than its plan allows.
func (u *UserController) SendInvitation(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var req invitationRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.Email == "" || !constants.IsValidRole(req.RoleID) {
		return types.Respond(c, fiber.StatusBadRequest, "Email and a valid role are required", nil)
	}
	if req.RoleID == constants.RoleFactoryOperator && req.FactoryID == nil {
		return types.Respond(c, fiber.StatusBadRequest, "Factory operators must be assigned a factory", nil)
	}
	if req.RoleID != constants.RoleFactoryOperator {
		req.FactoryID = nil
	}

	allowed, err := u.entitlements.CanCreateUser(ctx.OrganizationID)
	if err != nil {
		logger.Error("Error checking user entitlement", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error sending invitation", nil)
	}
	if !allowed {
		sub, err := u.entitlements.ActiveSubscription(ctx.OrganizationID)
		if err == nil && sub == nil {
			return types.RespondError(c, types.ErrNoActiveSubscription, "")
		}
		return types.RespondError(c, types.ErrLimitReached, "")
	}

	var member int64
	if err := u.db.Model(&user.User{}).
		Where("organization_id = ? AND email = ?", ctx.OrganizationID, req.Email).
		Count(&member).Error; err != nil {
		logger.Error("Error checking membership", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error sending invitation", nil)
	}
	if member > 0 {
		return types.Respond(c, fiber.StatusConflict, "This email already belongs to a member of your organization", nil)
	}

	var open int64
	if err := u.db.Model(&invitation.Invitation{}).
		Where("organization_id = ? AND invited_email = ? AND status = ?", ctx.OrganizationID, req.Email, constants.InvitationStatusPending).
		Count(&open).Error; err != nil {
		logger.Error("Error checking pending invitations", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error sending invitation", nil)
	}
	if open > 0 {
		return types.Respond(c, fiber.StatusConflict, "An invitation for this email is already pending", nil)
	}

	if req.FactoryID != nil {
		var owned int64
		if err := u.db.Model(&factory.Factory{}).
			Where("id = ? AND organization_id = ?", *req.FactoryID, ctx.OrganizationID).
			Count(&owned).Error; err != nil {
			logger.Error("Error checking factory ownership", err)
			return types.Respond(c, fiber.StatusInternalServerError, "Error sending invitation", nil)
		}
		if owned == 0 {
			return types.RespondError(c, types.ErrNotFound, "")
		}
	}

	inv := invitation.Invitation{
		OrganizationID: ctx.OrganizationID,
		RoleID:         uint(req.RoleID),
		FactoryID:      req.FactoryID,
		InvitedEmail:   req.Email,
		Token:          utils.NewInvitationToken(),
		Status:         constants.InvitationStatusPending,
		Expiration:     time.Now().Add(invitationValidity),
	}
	if err := u.db.Create(&inv).Error; err != nil {
		logger.Error("Error creating invitation", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error sending invitation", nil)
	}

	go u.deliver(inv)

	return types.Respond(c, fiber.StatusCreated, "Invitation sent successfully", inv)
}

// PendingInvitations lists the invitations still waiting for acceptance.
func (u *UserController) PendingInvitations(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var pending []invitation.Invitation
	if err := u.db.Preload("Role").Preload("Factory").
		Where("organization_id = ? AND status = ?", ctx.OrganizationID, constants.InvitationStatusPending).
		Order("sent_at DESC").
		Find(&pending).Error; err != nil {
		logger.Error("Error fetching pending invitations", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching invitations", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Pending invitations", pending)
}

// ResendInvitation extends an expired invitation and sends the email again.
func (u *UserController) ResendInvitation(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid invitation id", nil)
	}

	var inv invitation.Invitation
	if err := u.db.
		Where("organization_id = ? AND status = ?", ctx.OrganizationID, constants.InvitationStatusPending).
		First(&inv, id).Error; err != nil {
		return types.RespondError(c, types.ErrNotFound, "")
	}

	if time.Now().After(inv.Expiration) {
		inv.Expiration = time.Now().Add(invitationValidity)
		if err := u.db.Save(&inv).Error; err != nil {
			logger.Error("Error extending invitation", err)
			return types.Respond(c, fiber.StatusInternalServerError, "Error resending invitation", nil)
		}
	}

	go u.deliver(inv)

	return types.Respond(c, fiber.StatusOK, "Invitation resent successfully", inv)
}

// CancelInvitation withdraws a pending invitation.
func (u *UserController) CancelInvitation(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid invitation id", nil)
	}

	result := u.db.Model(&invitation.Invitation{}).
		Where("id = ? AND organization_id = ? AND status = ?", id, ctx.OrganizationID, constants.InvitationStatusPending).
		Update("status", constants.InvitationStatusCancelled)
	if result.Error != nil {
		logger.Error("Error cancelling invitation", result.Error)
		return types.Respond(c, fiber.StatusInternalServerError, "Error cancelling invitation", nil)
	}
	if result.RowsAffected == 0 {
		return types.RespondError(c, types.ErrNotFound, "")
	}

	return types.Respond(c, fiber.StatusOK, "Invitation cancelled successfully", nil)
}

type updateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RoleID    int    `json:"role_id"`
	Status    string `json:"status"`
	FactoryID *uint  `json:"factory_id"`
}

// Update lets the administrator edit a member: role, status and, for factory
// operators, the factory binding kept on the accepted invitation row.
func (u *UserController) Update(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid user id", nil)
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if !constants.IsValidRole(req.RoleID) {
		return types.Respond(c, fiber.StatusBadRequest, "A valid role is required", nil)
	}
	if req.Status != constants.UserStatusActive && req.Status != constants.UserStatusInactive {
		return types.Respond(c, fiber.StatusBadRequest, "Status must be Active or Inactive", nil)
	}
	if req.RoleID == constants.RoleFactoryOperator && req.FactoryID == nil {
		return types.Respond(c, fiber.StatusBadRequest, "Factory operators must be assigned a factory", nil)
	}

	var member user.User
	if err := u.db.Where("organization_id = ?", ctx.OrganizationID).First(&member, id).Error; err != nil {
		return types.RespondError(c, types.ErrNotFound, "")
	}
	if member.ID == ctx.UserID {
		return types.Respond(c, fiber.StatusBadRequest, "You cannot edit your own account here; use your profile instead", nil)
	}

	if req.RoleID == constants.RoleFactoryOperator {
		var owned int64
		if err := u.db.Model(&factory.Factory{}).
			Where("id = ? AND organization_id = ?", *req.FactoryID, ctx.OrganizationID).
			Count(&owned).Error; err != nil {
			logger.Error("Error checking factory ownership", err)
			return types.Respond(c, fiber.StatusInternalServerError, "Error updating user", nil)
		}
		if owned == 0 {
			return types.RespondError(c, types.ErrNotFound, "")
		}
	}

	err = u.db.Transaction(func(tx *gorm.DB) error {
		member.FirstName = req.FirstName
		member.LastName = req.LastName
		member.RoleID = uint(req.RoleID)
		member.Status = req.Status
		if err := tx.Save(&member).Error; err != nil {
			return err
		}

		var inv invitation.Invitation
		err := tx.Where("user_id = ? AND organization_id = ?", member.ID, ctx.OrganizationID).First(&inv).Error
		switch {
		case err == nil:
			if req.RoleID == constants.RoleFactoryOperator {
				inv.FactoryID = req.FactoryID
			} else {
				inv.FactoryID = nil
			}
			inv.RoleID = uint(req.RoleID)
			return tx.Save(&inv).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			if req.RoleID != constants.RoleFactoryOperator {
				return nil
			}
			// Members created before the binding convention get a synthetic
			// accepted invitation row to carry the factory assignment.
			acceptedAt := time.Now()
			binding := invitation.Invitation{
				OrganizationID: ctx.OrganizationID,
				RoleID:         uint(req.RoleID),
				FactoryID:      req.FactoryID,
				UserID:         &member.ID,
				InvitedEmail:   member.Email,
				Token:          utils.NewInvitationToken(),
				Status:         constants.InvitationStatusAccepted,
				Expiration:     acceptedAt,
				AcceptedAt:     &acceptedAt,
			}
			return tx.Create(&binding).Error
		default:
			return err
		}
	})
	if err != nil {
		logger.Error("Error updating user", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error updating user", nil)
	}

	return types.Respond(c, fiber.StatusOK, "User updated successfully", member)
}

// Destroy removes a member without data. Members who reported records or own
// goals stay, deactivate them instead.
func (u *UserController) Destroy(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid user id", nil)
	}

	var member user.User
	if err := u.db.Where("organization_id = ?", ctx.OrganizationID).First(&member, id).Error; err != nil {
		return types.RespondError(c, types.ErrNotFound, "")
	}
	if member.ID == ctx.UserID {
		return types.Respond(c, fiber.StatusBadRequest, "You cannot delete your own account", nil)
	}

	var records int64
	if err := u.db.Model(&emission.EmissionRecord{}).Where("user_id = ?", member.ID).Count(&records).Error; err != nil {
		logger.Error("Error checking user records", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error deleting user", nil)
	}
	var goals int64
	if err := u.db.Model(&goal.Goal{}).Where("user_id = ?", member.ID).Count(&goals).Error; err != nil {
		logger.Error("Error checking user goals", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error deleting user", nil)
	}
	if records > 0 || goals > 0 {
		return types.Respond(c, fiber.StatusConflict, "This user has emission records or goals and cannot be deleted. Deactivate the account instead.", nil)
	}

	err = u.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", member.ID).Delete(&invitation.Invitation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&member).Error
	})
	if err != nil {
		logger.Error("Error deleting user", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error deleting user", nil)
	}

	return types.Respond(c, fiber.StatusOK, "User deleted successfully", nil)
}

func (u *UserController) deliver(inv invitation.Invitation) {
	var org organization.Organization
	if err := u.db.First(&org, inv.OrganizationID).Error; err != nil {
		logger.Error("Error loading organization for invitation email", err)
		return
	}

	factoryName := ""
	if inv.FactoryID != nil {
		var fac factory.Factory
		if err := u.db.First(&fac, *inv.FactoryID).Error; err == nil {
			factoryName = fac.Name
		}
	}

	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}

	mailer.SendInvitation(u.mail, mailer.InvitationMessage{
		To:               inv.InvitedEmail,
		OrganizationName: org.Name,
		RoleName:         constants.RoleName(int(inv.RoleID)),
		FactoryName:      factoryName,
		AcceptURL:        base + "/invitations/accept/" + inv.Token,
	})
}
