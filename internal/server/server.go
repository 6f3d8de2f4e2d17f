package server

import (
	"context"
	"net/http"

	"mindwell/internal/auth"
	"mindwell/internal/calendar"
	"mindwell/internal/config"
	"mindwell/internal/demominutes"
	"mindwell/internal/dispute"
	"mindwell/internal/notification"
	"mindwell/internal/pricing"
	"mindwell/internal/session"
	"mindwell/internal/settings"
	"mindwell/internal/settlement"
	"mindwell/internal/topup"
	"mindwell/internal/user"
	"mindwell/internal/wallet"
	"mindwell/internal/withdrawal"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router   *gin.Engine
	http     *http.Server
	db       *sqlx.DB
	config   *config.Config
	notifier *notification.Service
}

func New(db *sqlx.DB, cfg *config.Config, notifier *notification.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	userRepo := user.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	demoRepo := demominutes.NewRepository(db)
	settingsRepo := settings.NewRepository(db)
	pricingRepo := pricing.NewRepository(db)
	sessionRepo := session.NewRepository(db)
	topupRepo := topup.NewRepository(db)
	withdrawalRepo := withdrawal.NewRepository(db)
	disputeRepo := dispute.NewRepository(db)
	calendarRepo := calendar.NewRepository(db)

	settlementSvc := settlement.NewService(walletRepo, demoRepo, settingsRepo, userRepo)
	sessionSvc := session.NewService(sessionRepo, pricingRepo, userRepo, walletRepo, settlementSvc, notifier, calendarRepo)
	topupSvc := topup.NewService(topupRepo, userRepo, notifier, cfg.EsewaSecretKey, cfg.EsewaProductCode, cfg.EsewaGatewayURL)
	withdrawalSvc := withdrawal.NewService(withdrawalRepo, walletRepo, userRepo, notifier, cfg.AdminEmail)
	disputeSvc := dispute.NewService(disputeRepo, sessionRepo, userRepo, notifier)

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	walletHandler := wallet.NewHandler(db)
	settingsHandler := settings.NewHandler(db)
	pricingHandler := pricing.NewHandler(pricingRepo)
	sessionHandler := session.NewHandler(sessionSvc)
	topupHandler := topup.NewHandler(topupSvc)
	withdrawalHandler := withdrawal.NewHandler(withdrawalSvc)
	disputeHandler := dispute.NewHandler(disputeSvc)
	demoHandler := demominutes.NewHandler(demoRepo, userRepo)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		protected.GET("/wallet", walletHandler.GetBalance)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.POST("/wallet/topups", topupHandler.InitiateTopup)
		protected.POST("/wallet/topups/verify", topupHandler.VerifyTopup)
		protected.GET("/wallet/topups", topupHandler.ListTopups)

		protected.POST("/sessions", sessionHandler.RequestSession)
		protected.GET("/sessions", sessionHandler.ListSessions)
		protected.GET("/sessions/:sessionID", sessionHandler.GetSession)
		protected.POST("/sessions/:sessionID/cancel", sessionHandler.CancelSession)
		protected.POST("/sessions/:sessionID/join", sessionHandler.JoinGroupSession)

		protected.GET("/psychologists/:psychologistID/options", pricingHandler.ListOptions)
		protected.GET("/psychologists/:psychologistID/demo-minutes", demoHandler.GetRemaining)

		protected.POST("/disputes", disputeHandler.CreateDispute)
		protected.GET("/disputes", disputeHandler.ListMyDisputes)
	}

	psychologist := router.Group("/")
	psychologist.Use(authMiddleware, auth.RequireRole(auth.RolePsychologist))
	{
		psychologist.POST("/sessions/:sessionID/accept", sessionHandler.AcceptSession)
		psychologist.POST("/sessions/:sessionID/reject", sessionHandler.RejectSession)
		psychologist.POST("/sessions/:sessionID/start", sessionHandler.StartSession)
		psychologist.POST("/sessions/:sessionID/complete", sessionHandler.CompleteSession)
		psychologist.POST("/group-sessions", sessionHandler.CreateGroupSession)

		psychologist.POST("/options", pricingHandler.CreateOption)
		psychologist.DELETE("/options/:optionID", pricingHandler.DeactivateOption)

		psychologist.POST("/withdrawals", withdrawalHandler.CreateWithdrawal)
		psychologist.GET("/withdrawals", withdrawalHandler.ListMyWithdrawals)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/settings", settingsHandler.GetSettings)
		admin.PUT("/settings/commission", settingsHandler.UpdateCommission)

		admin.GET("/withdrawals", withdrawalHandler.ListWithdrawals)
		admin.POST("/withdrawals/:withdrawalID/approve", withdrawalHandler.ApproveWithdrawal)
		admin.POST("/withdrawals/:withdrawalID/reject", withdrawalHandler.RejectWithdrawal)
		admin.POST("/withdrawals/:withdrawalID/complete", withdrawalHandler.CompleteWithdrawalPayment)

		admin.POST("/sessions/:sessionID/settle", sessionHandler.ResettleSession)
		admin.POST("/demo-minutes/reset", demoHandler.ResetUsage)

		admin.GET("/disputes", disputeHandler.ListDisputes)
		admin.POST("/disputes/:disputeID/resolve", disputeHandler.ResolveDispute)

		admin.DELETE("/users/:userID", userHandler.Deactivate)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/queue", NotificationQueue(notifier))

	return &Server{
		router:   router,
		db:       db,
		config:   cfg,
		notifier: notifier,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
