package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classattend/internal/config"
	"classattend/internal/handler"
	"classattend/internal/httpmiddleware"
	"classattend/internal/netinfo"
	"classattend/internal/notify"
	"classattend/internal/session"
	"classattend/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(cfg config.App) error {
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := session.New(db, cfg.OTPWindow, cfg.ActiveWindow, cfg.OTPLength)
	hub := notify.NewHub()

	baseURL := "http://" + netinfo.LANAddr() + ":" + cfg.HTTPPort
	log.Printf("hotspot address: %s", baseURL)

	h := handler.New(db, svc, hub, baseURL)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", func(c *gin.Context) { hub.Serve(c.Writer, c.Request) })

	api := r.Group("/api")
	{
		api.GET("/healthz", h.Healthz)
		api.GET("/info", h.Info)
		api.GET("/qr/:role", h.RoleQR)

		api.POST("/students", h.RegisterStudent)
		api.GET("/students", h.ListStudents)
		api.GET("/students/:id", h.GetStudent)
		api.GET("/students/:id/history", h.StudentHistory)
		api.DELETE("/students/:id", h.DeleteStudent)

		api.POST("/units", h.CreateUnit)
		api.GET("/units", h.ListUnits)
		api.DELETE("/units/:id", h.DeleteUnit)
		api.GET("/lessons", h.ListLessons)
		api.GET("/lessons/:id/attendance", h.LessonAttendance)

		api.POST("/session/start", h.StartSession)
		api.POST("/session/restart", h.RestartSession)
		api.POST("/session/enable-otp", h.EnableOTP)
		api.GET("/session/active", h.ActiveSession)

		api.POST("/attendance/submit", h.SubmitCode)
		api.POST("/attendance/lecturer", h.LecturerVerify)

		api.GET("/settings", h.ListSettings)
		api.PUT("/settings", h.PutSetting)
	}

	// Role views are served by the static frontend; unknown paths fall back
	// to it so the QR-encoded URLs work after a refresh.
	r.Static("/static", cfg.FrontendDir+"/static")
	r.StaticFile("/", cfg.FrontendDir+"/index.html")
	r.NoRoute(func(c *gin.Context) {
		c.File(cfg.FrontendDir + "/index.html")
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
