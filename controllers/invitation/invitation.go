package invitation

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/models/invitation"
	"github.com/AsaielHummadi/Sustain/models/user"
	"github.com/AsaielHummadi/Sustain/types"
	"github.com/AsaielHummadi/Sustain/utils"
)

type InvitationController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewInvitationController(db *gorm.DB, loggerInstance *logger.AsyncLogger) *InvitationController {
	return &InvitationController{db: db, loggerInstance: loggerInstance}
}

// Accept resolves an invitation token so the join form can show who invited
// the user and as what. Expired and non-pending tokens read as not found.
func (i *InvitationController) Accept(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return types.Respond(c, fiber.StatusBadRequest, "Invitation token is required", nil)
	}

	inv, err := i.pendingByToken(token)
	if err != nil {
		return types.RespondError(c, err, "Error resolving invitation")
	}

	return types.Respond(c, fiber.StatusOK, "Invitation", fiber.Map{
		"organization": inv.Organization.Name,
		"role":         constants.RoleName(int(inv.RoleID)),
		"factory":      inv.Factory,
		"email":        inv.InvitedEmail,
		"expiration":   inv.Expiration,
	})
}

type completeRegistrationRequest struct {
	Token     string `json:"token"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// CompleteRegistration turns a pending invitation into a user account. The
// user create and the invitation acceptance commit together, so the factory
// binding the invitation carries can never be half-applied.
func (i *InvitationController) CompleteRegistration(c *fiber.Ctx) error {
	var req completeRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.Token == "" || req.FirstName == "" || req.Password == "" {
		return types.Respond(c, fiber.StatusBadRequest, "Token, first name and password are required", nil)
	}

	var newUser user.User
	err := i.db.Transaction(func(tx *gorm.DB) error {
		var inv invitation.Invitation
		err := tx.
			Where("token = ? AND status = ? AND expiration > ?", req.Token, constants.InvitationStatusPending, time.Now()).
			First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.ErrNotFound
		}
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&user.User{}).Where("email = ?", inv.InvitedEmail).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return types.ErrEmailTaken
		}

		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return err
		}

		newUser = user.User{
			OrganizationID: inv.OrganizationID,
			RoleID:         inv.RoleID,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Email:          inv.InvitedEmail,
			Phone:          req.Phone,
			Password:       hash,
			Status:         constants.UserStatusActive,
		}
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}

		acceptedAt := time.Now()
		inv.Status = constants.InvitationStatusAccepted
		inv.AcceptedAt = &acceptedAt
		inv.UserID = &newUser.ID
		return tx.Save(&inv).Error
	})
	if err != nil {
		if !types.IsDomainError(err) {
			logger.Error("Error completing registration", err)
		}
		return types.RespondError(c, err, "Error completing registration")
	}

	token, err := utils.GenerateToken(newUser)
	if err != nil {
		logger.Error("Error issuing token after registration", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Registration succeeded but login failed. Please log in.", nil)
	}

	return types.Respond(c, fiber.StatusCreated, "Registration completed successfully", fiber.Map{
		"token": token,
		"user":  newUser,
	})
}

func (i *InvitationController) pendingByToken(token string) (*invitation.Invitation, error) {
	var inv invitation.Invitation
	err := i.db.Preload("Organization").Preload("Factory").
		Where("token = ? AND status = ? AND expiration > ?", token, constants.InvitationStatusPending, time.Now()).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
