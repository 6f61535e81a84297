package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/middleware"
	"github.com/AsaielHummadi/Sustain/models/organization"
	"github.com/AsaielHummadi/Sustain/models/subscription"
	"github.com/AsaielHummadi/Sustain/models/user"
	"github.com/AsaielHummadi/Sustain/types"
	"github.com/AsaielHummadi/Sustain/utils"
)

type AuthController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewAuthController(db *gorm.DB, loggerInstance *logger.AsyncLogger) *AuthController {
	return &AuthController{db: db, loggerInstance: loggerInstance}
}

type registerRequest struct {
	OrganizationName     string `json:"organization_name"`
	OrganizationIndustry string `json:"organization_industry"`
	OrganizationCity     string `json:"organization_city"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Password             string `json:"password"`
	SubscriptionPlanID   uint   `json:"subscription_plan_id"`
}

// Register creates the organization, its administrator and the initial
// subscription in one transaction: partial sign-ups are never observable.
func (a *AuthController) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.OrganizationName == "" || req.FirstName == "" || req.Email == "" || req.Password == "" {
		return types.Respond(c, fiber.StatusBadRequest, "Organization name, first name, email and password are required", nil)
	}

	var newUser user.User
	err := a.db.Transaction(func(tx *gorm.DB) error {
		var existing user.User
		if err := tx.Where("email = ?", req.Email).First(&existing).Error; err == nil {
			return types.ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		org := organization.Organization{
			Name:     req.OrganizationName,
			Industry: req.OrganizationIndustry,
			City:     req.OrganizationCity,
		}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}

		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return err
		}

		newUser = user.User{
			OrganizationID: org.ID,
			RoleID:         constants.RoleAdministrator,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Email:          req.Email,
			Phone:          req.Phone,
			Password:       hash,
			Status:         constants.UserStatusActive,
		}
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}

		var plan subscription.SubscriptionPlan
		if req.SubscriptionPlanID != 0 {
			if err := tx.First(&plan, req.SubscriptionPlanID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return types.ErrNotFound
				}
				return err
			}
		} else {
			// Registration without a plan choice starts the free trial.
			if err := tx.Where("type = ?", constants.PlanTypeFree).First(&plan).Error; err != nil {
				return err
			}
		}

		start := time.Now()
		sub := subscription.Subscription{
			OrganizationID:     org.ID,
			SubscriptionPlanID: plan.ID,
			StartDate:          start,
			EndDate:            now.With(start.AddDate(0, plan.Duration, 0)).EndOfDay(),
			Status:             constants.SubscriptionStatusActive,
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		if !types.IsDomainError(err) {
			logger.Error("Error during registration", err)
		}
		return types.RespondError(c, err, "Registration failed. Please try again.")
	}

	token, err := utils.GenerateToken(newUser)
	if err != nil {
		logger.Error("Error issuing token after registration", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Registration succeeded but login failed. Please log in.", nil)
	}

	return types.Respond(c, fiber.StatusCreated, "Registration successful", fiber.Map{
		"token": token,
		"user":  newUser,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session token.
func (a *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	var u user.User
	err := a.db.Preload("Role").Preload("Organization").Where("email = ?", req.Email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !utils.CheckPassword(u.Password, req.Password)) {
		return types.Respond(c, fiber.StatusUnauthorized, "The provided credentials do not match our records", nil)
	}
	if err != nil {
		logger.Error("Error during login", err)
		return types.Respond(c, fiber.StatusInternalServerError, "An error occurred during login", nil)
	}
	if u.Status != constants.UserStatusActive {
		return types.Respond(c, fiber.StatusForbidden, "Your account is not active", nil)
	}

	token, err := utils.GenerateToken(u)
	if err != nil {
		logger.Error("Error issuing token", err)
		return types.Respond(c, fiber.StatusInternalServerError, "An error occurred during login", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Login successful", fiber.Map{
		"token": token,
		"user":  u,
	})
}

// GetProfile returns the authenticated user's profile.
func (a *AuthController) GetProfile(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var u user.User
	if err := a.db.Preload("Role").Preload("Organization").First(&u, ctx.UserID).Error; err != nil {
		return types.RespondError(c, types.ErrNotFound, "")
	}
	return types.Respond(c, fiber.StatusOK, "Profile", u)
}

type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"` // optional, only changed when set
}

// UpdateProfile edits the caller's own contact details, re-checking email
// uniqueness against every other user.
func (a *AuthController) UpdateProfile(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.FirstName == "" || req.Email == "" {
		return types.Respond(c, fiber.StatusBadRequest, "First name and email are required", nil)
	}

	var u user.User
	if err := a.db.First(&u, ctx.UserID).Error; err != nil {
		return types.RespondError(c, types.ErrNotFound, "")
	}

	var taken int64
	if err := a.db.Model(&user.User{}).Where("email = ? AND id <> ?", req.Email, u.ID).Count(&taken).Error; err != nil {
		logger.Error("Error checking email uniqueness", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error updating profile. Please try again.", nil)
	}
	if taken > 0 {
		return types.RespondError(c, types.ErrEmailTaken, "")
	}

	u.FirstName = req.FirstName
	u.LastName = req.LastName
	u.Email = req.Email
	u.Phone = req.Phone
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			logger.Error("Error hashing password", err)
			return types.Respond(c, fiber.StatusInternalServerError, "Error updating profile. Please try again.", nil)
		}
		u.Password = hash
	}

	if err := a.db.Save(&u).Error; err != nil {
		logger.Error("Error updating profile", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error updating profile. Please try again.", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Your profile has been updated successfully", u)
}
