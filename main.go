package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"

	"github.com/ingatatech/loan-management-system-backend/config"
	"github.com/ingatatech/loan-management-system-backend/controllers"
	"github.com/ingatatech/loan-management-system-backend/database"
	"github.com/ingatatech/loan-management-system-backend/middleware"
	"github.com/ingatatech/loan-management-system-backend/repository"
	"github.com/ingatatech/loan-management-system-backend/services"
	"github.com/ingatatech/loan-management-system-backend/utils"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Repositories
	loans := repository.NewGormLoanRepository(db.DB)
	workflows := repository.NewGormWorkflowRepository(db.DB)
	reviews := repository.NewGormReviewRepository(db.DB)
	schedules := repository.NewGormScheduleRepository(db.DB)
	collaterals := repository.NewGormCollateralRepository(db.DB)
	users := repository.NewGormUserRepository(db.DB)
	unitOfWork := repository.NewGormUnitOfWork(db.DB)

	// Services
	emailService := services.NewEmailService(cfg)
	userService := services.NewUserService(users)
	workflowService := services.NewWorkflowService(workflows, reviews, loans, users, unitOfWork, emailService)
	scheduleService := services.NewScheduleService(loans, schedules)
	classificationService := services.NewClassificationService(loans, schedules, collaterals)
	loanService := services.NewLoanService(loans, workflowService)
	governanceService := services.NewGovernanceService(
		loans,
		workflowService,
		scheduleService,
		classificationService,
		cfg.Governance.RecomputeWorkers,
	)

	// Daily classification recompute
	scheduler := services.NewRecomputeSchedulerService(
		governanceService,
		time.Duration(cfg.Governance.RecomputeIntervalHours)*time.Hour,
	)
	scheduler.Start()
	utils.LogInfo("Recompute scheduler started (every %dh)", cfg.Governance.RecomputeIntervalHours)

	// Controllers
	authController := controllers.NewAuthController(userService, cfg)
	loanController := controllers.NewLoanController(loanService, scheduleService, classificationService)
	workflowController := controllers.NewWorkflowController(governanceService, workflowService)
	opsController := controllers.NewOpsController(governanceService)

	router := mux.NewRouter()

	// Public auth routes
	router.HandleFunc("/api/auth/signUp", authController.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", authController.SignIn).Methods("POST")

	// Protected routes
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(authController.GetJWTKey())))
	protected.Use(middleware.LoggingMiddleware)

	// Loan routes
	protected.HandleFunc("/loans", loanController.CreateLoan).Methods("POST")
	protected.HandleFunc("/loans", loanController.GetLoans).Methods("GET")
	protected.HandleFunc("/loans/{id}", loanController.GetLoan).Methods("GET")
	protected.HandleFunc("/loans/{id}/schedule", loanController.GetSchedule).Methods("GET")
	protected.HandleFunc("/loans/{id}/disburse", loanController.DisburseLoan).Methods("POST")
	protected.HandleFunc("/loans/{id}/classification", loanController.GetClassification).Methods("GET")

	// Workflow routes
	protected.HandleFunc("/loans/{id}/decision", workflowController.SubmitDecision).Methods("POST")
	protected.HandleFunc("/loans/{id}/reassign", workflowController.Reassign).Methods("POST")
	protected.HandleFunc("/loans/{id}/workflow", workflowController.GetWorkflow).Methods("GET")
	protected.HandleFunc("/loans/{id}/history", workflowController.GetHistory).Methods("GET")

	// Ops server on its own port
	go runOpsServer(cfg, opsController)

	port := fmt.Sprintf(":%d", cfg.Server.Port)
	utils.LogInfo("Server listening on %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func runOpsServer(cfg *config.Config, ops *controllers.OpsController) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recovery(), middleware.Logger(), middleware.RateLimit())

	engine.GET("/healthz", ops.Healthz)
	engine.GET("/metrics", ops.Metrics)
	engine.POST("/ops/recompute", ops.TriggerRecompute)

	addr := fmt.Sprintf(":%d", cfg.Server.OpsPort)
	utils.LogInfo("Ops server listening on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start ops server: %v", err)
	}
}
