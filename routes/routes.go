package routes

import (
	"github.com/gofiber/fiber/v2"

	"hospital-backend/controllers"
	"hospital-backend/middlewares"
	"hospital-backend/models"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request transaction (commits/rolls back around the handler)
	protected.Use(middlewares.Tx())

	staff := middlewares.RequireRoles(models.RoleAdmin, models.RoleDoctor)
	admin := middlewares.RequireRoles(models.RoleAdmin)

	// Console accounts
	protected.Post("/users", admin, controllers.CreateStaffUser)

	// Patients
	protected.Post("/patient", staff, controllers.CreatePatient)
	protected.Get("/patients", staff, controllers.GetPatients)
	protected.Get("/patient/:id", staff, controllers.GetPatient)
	protected.Put("/patient/:id", staff, controllers.UpdatePatient)

	// Bills
	protected.Post("/bill", staff, controllers.CreateBill)
	protected.Get("/bills", controllers.GetBills)
	protected.Get("/bill/:id", controllers.GetBill)
	protected.Put("/bill/:id", staff, controllers.UpdateBill)
	protected.Delete("/bill/:id", admin, controllers.DeleteBill)
	protected.Put("/bill/:id/cancel", admin, controllers.CancelBill)

	// Payments (direct methods; online goes through the gateway flow)
	protected.Post("/bill/:id/payments", staff, controllers.CreatePayment)
	protected.Get("/bill/:id/payments", controllers.ListPayments)

	// Payment gateway
	protected.Post("/gateway/orders", controllers.CreateGatewayOrder)
	protected.Post("/gateway/verify", controllers.VerifyGatewayPayment)
	protected.Get("/gateway/key", controllers.GetGatewayKey)

	// Reporting
	protected.Get("/reports/revenue", admin, controllers.GetRevenue)
}
