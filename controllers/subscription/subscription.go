package subscription

import (
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
	"github.com/AsaielHummadi/Sustain/services/entitlement"
	"github.com/AsaielHummadi/Sustain/types"
	"github.com/AsaielHummadi/Sustain/utils"
)

type SubscriptionController struct {
	db             *gorm.DB
	entitlements   *entitlement.Service
	loggerInstance *logger.AsyncLogger
}

func NewSubscriptionController(db *gorm.DB, entitlements *entitlement.Service, loggerInstance *logger.AsyncLogger) *SubscriptionController {
	return &SubscriptionController{db: db, entitlements: entitlements, loggerInstance: loggerInstance}
}

// Plans lists the paid plans by price, plus the free trial for sign-up.
func (s *SubscriptionController) Plans(c *fiber.Ctx) error {
	var paid []subscription.SubscriptionPlan
	if err := s.db.Where("type = ?", constants.PlanTypePaid).Order("price ASC").Find(&paid).Error; err != nil {
		logger.Error("Error fetching subscription plans", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching subscription plans", nil)
	}

	var free subscription.SubscriptionPlan
	if err := s.db.Where("type = ?", constants.PlanTypeFree).First(&free).Error; err != nil {
		logger.Error("Error fetching free plan", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching subscription plans", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Subscription plans", fiber.Map{
		"plans":     paid,
		"free_plan": free,
	})
}

type cardDetails struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVC    string `json:"cvc"`
	Holder string `json:"holder"`
}

func (card cardDetails) validate() error {
	digits := 0
	for _, r := range card.Number {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 13 || digits > 19 || card.Expiry == "" || len(card.CVC) < 3 {
		return types.ErrValidation
	}
	return nil
}

type checkoutRequest struct {
	OrganizationName     string      `json:"organization_name"`
	OrganizationIndustry string      `json:"organization_industry"`
	OrganizationCity     string      `json:"organization_city"`
	FirstName            string      `json:"first_name"`
	LastName             string      `json:"last_name"`
	Email                string      `json:"email"`
	Phone                string      `json:"phone"`
	Password             string      `json:"password"`
	SubscriptionPlanID   uint        `json:"subscription_plan_id"`
	Card                 cardDetails `json:"card"`
}

// Checkout is the paid sign-up flow: organization, administrator,
// subscription, invoice and payment commit as one transaction.
func (s *SubscriptionController) Checkout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.OrganizationName == "" || req.FirstName == "" || req.Email == "" || req.Password == "" || req.SubscriptionPlanID == 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Organization name, first name, email, password and a plan are required", nil)
	}

	var plan subscription.SubscriptionPlan
	if err := s.db.First(&plan, req.SubscriptionPlanID).Error; err != nil {
		return types.RespondError(c, types.ErrNotFound, "")
	}
	if plan.Type == constants.PlanTypePaid {
		if err := req.Card.validate(); err != nil {
			return types.Respond(c, fiber.StatusBadRequest, "Valid card details are required for a paid plan", nil)
		}
	}

	var newUser user.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&user.User{}).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return types.ErrEmailTaken
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

		start := time.Now()
		sub := subscription.Subscription{
			OrganizationID:     org.ID,
			SubscriptionPlanID: plan.ID,
			StartDate:          start,
			EndDate:            now.With(start.AddDate(0, plan.Duration, 0)).EndOfDay(),
			Status:             constants.SubscriptionStatusActive,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}

		if plan.Type != constants.PlanTypePaid {
			return nil
		}
		return s.settle(tx, sub, plan, "card")
	})
	if err != nil {
		if !types.IsDomainError(err) {
			logger.Error("Error during checkout", err)
		}
		return types.RespondError(c, err, "Checkout failed. You have not been charged.")
	}

	token, err := utils.GenerateToken(newUser)
	if err != nil {
		logger.Error("Error issuing token after checkout", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Checkout succeeded but login failed. Please log in.", nil)
	}

	return types.Respond(c, fiber.StatusCreated, "Checkout completed successfully", fiber.Map{
		"token": token,
		"user":  newUser,
	})
}

// Billing shows the current subscription, usage against its caps and the
// invoice history with payments.
func (s *SubscriptionController) Billing(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	sub, err := s.entitlements.ActiveSubscription(ctx.OrganizationID)
	if err != nil {
		logger.Error("Error fetching active subscription", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching billing information", nil)
	}

	limits, err := s.entitlements.GetLimits(ctx.OrganizationID)
	if err != nil {
		logger.Error("Error fetching subscription limits", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching billing information", nil)
	}

	var invoices []subscription.Invoice
	if err := s.db.Model(&subscription.Invoice{}).
		Select("invoices.*").
		Joins("JOIN subscriptions ON subscriptions.id = invoices.subscription_id").
		Where("subscriptions.organization_id = ?", ctx.OrganizationID).
		Order("invoices.issued_at DESC").
		Find(&invoices).Error; err != nil {
		logger.Error("Error fetching invoices", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching billing information", nil)
	}

	invoiceIDs := make([]uint, 0, len(invoices))
	for _, inv := range invoices {
		invoiceIDs = append(invoiceIDs, inv.ID)
	}
	var payments []subscription.Payment
	if len(invoiceIDs) > 0 {
		if err := s.db.Where("invoice_id IN ?", invoiceIDs).Order("paid_at DESC").Find(&payments).Error; err != nil {
			logger.Error("Error fetching payments", err)
			return types.Respond(c, fiber.StatusInternalServerError, "Error fetching billing information", nil)
		}
	}

	var plans []subscription.SubscriptionPlan
	if err := s.db.Where("type = ?", constants.PlanTypePaid).Order("price ASC").Find(&plans).Error; err != nil {
		logger.Error("Error fetching subscription plans", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching billing information", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Billing", fiber.Map{
		"subscription": sub,
		"usage":        limits,
		"invoices":     invoices,
		"payments":     payments,
		"plans":        plans,
	})
}

type renewRequest struct {
	SubscriptionPlanID uint        `json:"subscription_plan_id"`
	Card               cardDetails `json:"card"`
}

// Renew starts a new subscription period, expiring the current one in the
// same transaction so at most one active subscription exists afterwards.
func (s *SubscriptionController) Renew(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var req renewRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.SubscriptionPlanID == 0 {
		return types.Respond(c, fiber.StatusBadRequest, "A subscription plan is required", nil)
	}

	var plan subscription.SubscriptionPlan
	if err := s.db.First(&plan, req.SubscriptionPlanID).Error; err != nil {
		return types.RespondError(c, types.ErrNotFound, "")
	}
	if plan.Type != constants.PlanTypePaid {
		return types.Respond(c, fiber.StatusBadRequest, "The free trial cannot be renewed; choose a paid plan", nil)
	}
	if err := req.Card.validate(); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Valid card details are required", nil)
	}

	var renewed subscription.Subscription
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&subscription.Subscription{}).
			Where("organization_id = ? AND status = ?", ctx.OrganizationID, constants.SubscriptionStatusActive).
			Update("status", constants.SubscriptionStatusExpired).Error; err != nil {
			return err
		}

		start := time.Now()
		renewed = subscription.Subscription{
			OrganizationID:     ctx.OrganizationID,
			SubscriptionPlanID: plan.ID,
			StartDate:          start,
			EndDate:            now.With(start.AddDate(0, plan.Duration, 0)).EndOfDay(),
			Status:             constants.SubscriptionStatusActive,
		}
		if err := tx.Create(&renewed).Error; err != nil {
			return err
		}

		return s.settle(tx, renewed, plan, "card")
	})
	if err != nil {
		logger.Error("Error renewing subscription", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Renewal failed. You have not been charged.", nil)
	}

	renewed.SubscriptionPlan = plan
	return types.Respond(c, fiber.StatusCreated, "Subscription renewed successfully", renewed)
}

// settle writes the paid invoice and its payment for a new subscription row.
func (s *SubscriptionController) settle(tx *gorm.DB, sub subscription.Subscription, plan subscription.SubscriptionPlan, method string) error {
	invoice := subscription.Invoice{
		SubscriptionID: sub.ID,
		TotalAmount:    plan.Price,
		IssuedAt:       time.Now(),
		Status:         constants.InvoiceStatusPaid,
	}
	if err := tx.Create(&invoice).Error; err != nil {
		return err
	}

	payment := subscription.Payment{
		InvoiceID: invoice.ID,
		Amount:    plan.Price,
		PaidAt:    time.Now(),
		Method:    method,
		Status:    constants.PaymentStatusCompleted,
	}
	return tx.Create(&payment).Error
}
