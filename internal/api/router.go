package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medrec/medrec/internal/app"
	iauth "github.com/medrec/medrec/internal/auth"
	"github.com/medrec/medrec/internal/handlers"
	"github.com/medrec/medrec/internal/middleware"
	"github.com/medrec/medrec/internal/models"
	"github.com/medrec/medrec/internal/services"
)

// Services bundles the workflow services the router exposes over HTTP.
type Services struct {
	Auth         *iauth.AuthService
	Registration *services.RegistrationService
	Appointments *services.AppointmentService
	Settlements  *services.SettlementService
	Directory    *services.DirectoryService
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(jwt *iauth.JWTService, cfg *app.Config, svcs Services) (*gin.Engine, error) {
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if svcs.Auth == nil || svcs.Registration == nil || svcs.Appointments == nil ||
		svcs.Settlements == nil || svcs.Directory == nil {
		return nil, fmt.Errorf("all services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORS,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.NoRoute(middleware.NotFoundHandler)

	// Operational endpoints (public)
	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(svcs.Auth)
	registrationHandler := handlers.NewRegistrationHandler(svcs.Registration)
	appointmentHandler := handlers.NewAppointmentHandler(svcs.Appointments)
	doctorHandler := handlers.NewDoctorHandler(svcs.Appointments)
	paymentHandler := handlers.NewPaymentHandler(svcs.Settlements)
	adminHandler := handlers.NewAdminHandler(svcs.Directory, svcs.Appointments, svcs.Settlements)
	directoryHandler := handlers.NewDirectoryHandler(svcs.Directory)

	// Public routes. The two /register GET endpoints are reached from
	// emailed links, so their paths are load-bearing.
	r.POST("/api/auth/login", authHandler.Login)
	r.POST("/api/register", registrationHandler.Register)
	r.GET("/register/verifyEmail", registrationHandler.VerifyEmail)
	r.GET("/register/resend-verification-token", registrationHandler.ResendVerification)
	r.GET("/api/doctors", directoryHandler.ListDoctors)
	r.GET("/api/specialties", directoryHandler.ListSpecialties)

	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	// Patient surface
	patient := api.Group("")
	patient.Use(middleware.RequireRole(models.RolePatient))
	{
		patient.POST("/appointments", appointmentHandler.Book)
		patient.GET("/appointments", appointmentHandler.List)
		patient.GET("/appointments/:id", appointmentHandler.Get)
		patient.PUT("/appointments/:id", appointmentHandler.Reschedule)
		patient.DELETE("/appointments/:id", appointmentHandler.Cancel)

		patient.POST("/payments/orders", paymentHandler.CreateOrder)
		patient.POST("/payments/reconcile", paymentHandler.Reconcile)
		patient.GET("/payments", paymentHandler.List)
	}

	// Doctor surface
	doctor := api.Group("/doctor")
	doctor.Use(middleware.RequireRole(models.RoleDoctor))
	{
		doctor.GET("/dashboard", doctorHandler.Dashboard)
		doctor.GET("/appointments", doctorHandler.List)
		doctor.GET("/appointments/today", doctorHandler.Today)
		doctor.POST("/appointments/:id/resolve", doctorHandler.Resolve)
	}

	// Admin surface
	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.POST("/doctors", adminHandler.CreateDoctor)
		admin.GET("/doctors/:id", adminHandler.GetDoctor)
		admin.PUT("/doctors/:id", adminHandler.UpdateDoctor)
		admin.DELETE("/doctors/:id", adminHandler.DeleteDoctor)
		admin.GET("/patients", adminHandler.ListPatients)
		admin.GET("/appointments", adminHandler.ListAppointments)
		admin.GET("/transactions", adminHandler.ListTransactions)
		admin.POST("/specialties", adminHandler.CreateSpecialty)
		admin.GET("/specialties", directoryHandler.ListSpecialties)
	}

	return r, nil
}
