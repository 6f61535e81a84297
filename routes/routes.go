package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/controllers/auth"
	"github.com/AsaielHummadi/Sustain/controllers/dashboard"
	emissionController "github.com/AsaielHummadi/Sustain/controllers/emission"
	factoryController "github.com/AsaielHummadi/Sustain/controllers/factory"
	goalController "github.com/AsaielHummadi/Sustain/controllers/goal"
	invitationController "github.com/AsaielHummadi/Sustain/controllers/invitation"
	subscriptionController "github.com/AsaielHummadi/Sustain/controllers/subscription"
	userController "github.com/AsaielHummadi/Sustain/controllers/user"
	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/mailer"
	"github.com/AsaielHummadi/Sustain/middleware"
	"github.com/AsaielHummadi/Sustain/services/entitlement"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	asyncLogger := logger.NewAsyncLogger(db)
	entitlements := entitlement.NewService(db)
	mail := mailer.New()

	authCtrl := auth.NewAuthController(db, asyncLogger)
	dashboardCtrl := dashboard.NewDashboardController(db, entitlements, asyncLogger)
	recordCtrl := emissionController.NewRecordController(db, asyncLogger)
	sourceCtrl := emissionController.NewSourceController(db, asyncLogger)
	factoryCtrl := factoryController.NewFactoryController(db, entitlements, asyncLogger)
	goalCtrl := goalController.NewGoalController(db, asyncLogger)
	invitationCtrl := invitationController.NewInvitationController(db, asyncLogger)
	subscriptionCtrl := subscriptionController.NewSubscriptionController(db, entitlements, asyncLogger)
	userCtrl := userController.NewUserController(db, entitlements, mail, asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()
	app.Use(asyncLogger.Middleware())

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Get("/plans", subscriptionCtrl.Plans)
	api.Post("/auth/register", authCtrl.Register)
	api.Post("/auth/login", authCtrl.Login)
	api.Get("/invitations/accept/:token", invitationCtrl.Accept)
	api.Post("/invitations/complete", invitationCtrl.CompleteRegistration)
	api.Post("/subscriptions/checkout", subscriptionCtrl.Checkout)

	/*=============================================================================
	| Protected Routes
	===============================================================================*/
	protected := api.Group("", middleware.RequireAuth())

	protected.Get("/auth/profile", authCtrl.GetProfile)
	protected.Put("/auth/profile", authCtrl.UpdateProfile)

	/*=============================================================================
	| Dashboards, one per role
	===============================================================================*/
	protected.Get("/dashboard/admin",
		middleware.RequireRoles(constants.RoleAdministrator), dashboardCtrl.AdminDashboard)
	protected.Get("/dashboard/officer",
		middleware.RequireRoles(constants.RoleSustainabilityOfficer, constants.RoleAdministrator), dashboardCtrl.OfficerDashboard)
	protected.Get("/dashboard/operator",
		middleware.RequireRoles(constants.RoleFactoryOperator), dashboardCtrl.OperatorDashboard)

	/*=============================================================================
	| Emission records and sources
	===============================================================================*/
	records := protected.Group("/records")
	records.Get("/", recordCtrl.Index)
	records.Post("/", recordCtrl.Store)
	records.Get("/:id", recordCtrl.Show)
	records.Put("/:id", recordCtrl.Update)
	records.Delete("/:id", recordCtrl.Destroy)

	sources := protected.Group("/sources")
	sources.Get("/", sourceCtrl.Index)
	sources.Post("/", middleware.RequireRoles(constants.RoleAdministrator, constants.RoleSustainabilityOfficer), sourceCtrl.Store)
	sources.Post("/request", middleware.RequireRoles(constants.RoleAdministrator, constants.RoleSustainabilityOfficer), sourceCtrl.RequestCustomSource)
	sources.Put("/:id", middleware.RequireRoles(constants.RoleAdministrator, constants.RoleSustainabilityOfficer), sourceCtrl.Update)
	sources.Delete("/:id", middleware.RequireRoles(constants.RoleAdministrator, constants.RoleSustainabilityOfficer), sourceCtrl.Destroy)

	/*=============================================================================
	| Factories
	===============================================================================*/
	factories := protected.Group("/factories")
	factories.Get("/", factoryCtrl.Index)
	factories.Post("/", middleware.RequireRoles(constants.RoleAdministrator), factoryCtrl.Create)
	factories.Put("/:id", middleware.RequireRoles(constants.RoleAdministrator), factoryCtrl.Edit)
	factories.Delete("/:id", middleware.RequireRoles(constants.RoleAdministrator), factoryCtrl.Delete)

	/*=============================================================================
	| Goals
	===============================================================================*/
	goals := protected.Group("/goals")
	goals.Get("/", goalCtrl.Index)
	goals.Post("/", goalCtrl.Store)
	goals.Get("/:id", goalCtrl.Show)
	goals.Put("/:id", goalCtrl.Update)
	goals.Patch("/:id/status", goalCtrl.UpdateStatus)
	goals.Delete("/:id", goalCtrl.Destroy)

	/*=============================================================================
	| User management, administrators only
	===============================================================================*/
	users := protected.Group("/users", middleware.RequireRoles(constants.RoleAdministrator))
	users.Get("/", userCtrl.Index)
	users.Put("/:id", userCtrl.Update)
	users.Delete("/:id", userCtrl.Destroy)
	users.Post("/invitations", userCtrl.SendInvitation)
	users.Get("/invitations", userCtrl.PendingInvitations)
	users.Post("/invitations/:id/resend", userCtrl.ResendInvitation)
	users.Delete("/invitations/:id", userCtrl.CancelInvitation)

	/*=============================================================================
	| Billing
	===============================================================================*/
	billing := protected.Group("/subscriptions", middleware.RequireRoles(constants.RoleAdministrator))
	billing.Get("/billing", subscriptionCtrl.Billing)
	billing.Post("/renew", subscriptionCtrl.Renew)
}
