package routes

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"salonpos-backend/config"
	"salonpos-backend/controllers"
	"salonpos-backend/models"
	"salonpos-backend/services"
	"salonpos-backend/utils"
)

// Dependencies is everything the HTTP layer needs, built once in main.
type Dependencies struct {
	DB           *gorm.DB
	Cache        *services.CollectionCache
	Accounts     *services.AccountService
	Appointments *services.AppointmentService
	Settlement   *services.SettlementService
	Reports      *services.ReportService
	Reminders    *services.ReminderService

	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return slices.Contains(deps.CORSOrigins, origin)
		},
	}))

	r.Use(config.PerformanceLogger())

	authController := &controllers.AuthController{
		DB:       deps.DB,
		Accounts: deps.Accounts,
		Secret:   deps.JWTSecret,
		TokenTTL: deps.TokenTTL,
	}
	requireAuth := utils.AuthMiddleware(deps.DB, deps.JWTSecret)
	adminOnly := utils.RequireRole(models.RoleAdmin)

	auth := r.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)

		auth.Use(requireAuth)
		auth.GET("/me", authController.Me)
	}

	// Subscription status stays reachable after the plan lapses.
	r.GET("/api/subscription", requireAuth, authController.GetSubscription)

	api := r.Group("/api")
	api.Use(requireAuth, utils.RequireActiveSubscription(deps.DB))
	{
		// Customer routes
		customerController := &controllers.CustomerController{DB: deps.DB, Cache: deps.Cache}
		customers := api.Group("/customers")
		{
			customers.POST("", customerController.CreateCustomer)
			customers.GET("", customerController.GetCustomers)
			customers.GET("/:id", customerController.GetCustomer)
			customers.GET("/:id/history", customerController.GetCustomerHistory)
			customers.PUT("/:id", customerController.UpdateCustomer)
			customers.DELETE("/:id", adminOnly, customerController.DeleteCustomer)
		}

		// Service and category routes
		serviceController := &controllers.ServiceController{DB: deps.DB, Cache: deps.Cache}
		catalog := api.Group("/services")
		{
			catalog.GET("", serviceController.GetServices)
			catalog.GET("/:id", serviceController.GetService)
			catalog.POST("", adminOnly, serviceController.CreateService)
			catalog.PUT("/:id", adminOnly, serviceController.UpdateService)
			catalog.DELETE("/:id", adminOnly, serviceController.DeleteService)
		}
		categories := api.Group("/service-categories")
		{
			categories.GET("", serviceController.GetCategories)
			categories.POST("", adminOnly, serviceController.CreateCategory)
			categories.PUT("/:id", adminOnly, serviceController.UpdateCategory)
			categories.DELETE("/:id", adminOnly, serviceController.DeleteCategory)
		}

		staffController := &controllers.StaffController{DB: deps.DB, Cache: deps.Cache}
		staff := api.Group("/staff")
		{
			staff.GET("", staffController.GetStaff)
			staff.GET("/:id", staffController.GetStaffMember)
			staff.POST("", adminOnly, staffController.CreateStaff)
			staff.PUT("/:id", adminOnly, staffController.UpdateStaff)
			staff.DELETE("/:id", adminOnly, staffController.DeleteStaff)
		}

		productController := &controllers.ProductController{DB: deps.DB, Cache: deps.Cache}
		products := api.Group("/products")
		{
			products.GET("", productController.GetProducts)
			products.GET("/:id", productController.GetProduct)
			products.POST("", adminOnly, productController.CreateProduct)
			products.PUT("/:id", adminOnly, productController.UpdateProduct)
			products.POST("/:id/stock", adminOnly, productController.AdjustStock)
			products.DELETE("/:id", adminOnly, productController.DeleteProduct)
		}

		// Appointment lifecycle
		appointmentController := &controllers.AppointmentController{Appointments: deps.Appointments}
		appointments := api.Group("/appointments")
		{
			appointments.GET("", appointmentController.GetAppointments)
			appointments.POST("", appointmentController.CreateAppointment)
			appointments.GET("/availability", appointmentController.GetAvailability)
			appointments.GET("/pending-billing", appointmentController.GetPendingBilling)
			appointments.GET("/:id", appointmentController.GetAppointment)
			appointments.POST("/:id/check-in", appointmentController.CheckIn)
			appointments.PATCH("/:id/status", appointmentController.UpdateStatus)
			appointments.PUT("/:id/reschedule", appointmentController.Reschedule)
		}

		// Point of sale
		saleController := &controllers.SaleController{Settlement: deps.Settlement}
		sales := api.Group("/sales")
		{
			sales.GET("", saleController.GetSales)
			sales.GET("/:id", saleController.GetSale)
			sales.POST("/checkout", saleController.Checkout)
			sales.POST("/hold", saleController.Hold)
			sales.POST("/:id/resume", saleController.Resume)
			sales.POST("/:id/complete", saleController.CompleteHeld)
		}

		//Reports routes
		reportController := &controllers.ReportController{Reports: deps.Reports}
		api.GET("/reports", adminOnly, reportController.GetReportAnalytics)
		api.GET("/dashboard", reportController.GetDashboard)

		// Settings routes
		profileController := &controllers.ProfileController{DB: deps.DB}
		profile := api.Group("/profile")
		{
			profile.GET("", profileController.GetProfile)
			profile.PUT("/update-salon", adminOnly, profileController.UpdateProfile)
			profile.PUT("/update-hours", adminOnly, profileController.UpdateWorkingHours)
			profile.PUT("/update-notifications", adminOnly, profileController.UpdateNotificationSettings)
		}

		reminderController := &controllers.ReminderController{DB: deps.DB, Reminders: deps.Reminders}
		reminders := api.Group("/reminders")
		{
			reminders.GET("/templates", reminderController.GetReminderTemplates)
			reminders.GET("/templates/:id", reminderController.GetReminderTemplate)
			reminders.POST("/templates", adminOnly, reminderController.CreateReminderTemplate)
			reminders.PUT("/templates/:id", adminOnly, reminderController.UpdateReminderTemplate)
			reminders.DELETE("/templates/:id", adminOnly, reminderController.DeleteReminderTemplate)
			reminders.GET("/logs", reminderController.GetReminderLogs)
			reminders.POST("/run", adminOnly, reminderController.RunReminders)
			reminders.POST("/test", adminOnly, reminderController.SendTest)
		}

		members := api.Group("/members", adminOnly)
		{
			members.GET("", authController.GetMembers)
			members.POST("", authController.AddMember)
			members.DELETE("/:id", authController.RemoveMember)
		}
	}

	return r
}
