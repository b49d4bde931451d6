package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobboard/internal/apperr"
	"jobboard/internal/application"
	"jobboard/internal/auth"
	"jobboard/internal/cloudinary"
	"jobboard/internal/config"
	"jobboard/internal/docstore"
	"jobboard/internal/httpmiddleware"
	"jobboard/internal/identity"
	"jobboard/internal/posting"
	"jobboard/internal/session"
	"jobboard/internal/store"
)

var (
	postingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobboard_postings_created_total",
		Help: "Postings created since start.",
	})
	applicationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobboard_applications_submitted_total",
		Help: "Applications submitted since start.",
	})
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	var (
		identStore identity.Store
		postStore  posting.Store
		appStore   application.Store
		db         *store.DB
	)
	if cfg.StoreBackend == "memory" {
		identStore = identity.NewMemoryStore()
		postStore = posting.NewMemoryStore()
		appStore = application.NewMemoryStore()
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connect failed: %w", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("schema setup failed: %w", err)
		}
		identStore = identity.NewRepository(db.Client)
		postStore = posting.NewRepository(db.Client)
		appStore = application.NewRepository(db.Client)
	}

	var redisClient *store.Redis
	var sessStore session.Store
	if cfg.SessionBackend == "memory" {
		sessStore = session.NewMemoryStore()
	} else {
		redisClient = store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		sessStore = session.NewRedisStore(redisClient.Client)
	}
	sessions := session.NewManager(sessStore, cfg.RefreshTTL)

	var docs docstore.Store
	if cfg.DocstoreBackend == "cloudinary" &&
		cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		docs = docstore.NewCloudinary(cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder))
		log.Println("document store: cloudinary", cfg.CloudinaryCloudName)
	} else {
		disk, err := docstore.NewDisk(cfg.UploadDir)
		if err != nil {
			return fmt.Errorf("upload dir setup failed: %w", err)
		}
		docs = disk
		log.Println("document store: disk", cfg.UploadDir)
	}

	idents := identity.NewService(identStore)
	intake := application.NewService(appStore, postStore, docs)
	registry := posting.NewService(postStore, intake)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db == nil || db.Client.PingContext(c.Request.Context()) == nil
		redisHealthy := redisClient == nil || redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy || !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
	})

	r.POST("/v1/auth/register", func(c *gin.Context) {
		var req struct {
			Name       string `json:"name" binding:"required"`
			Credential string `json:"credential" binding:"required"`
			Role       string `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		acct, err := idents.Register(c.Request.Context(), req.Name, req.Credential, identity.Role(req.Role))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, acct)
	})

	r.POST("/v1/auth/login", func(c *gin.Context) {
		var req struct {
			Name       string `json:"name" binding:"required"`
			Credential string `json:"credential" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		acct, err := idents.Authenticate(c.Request.Context(), req.Name, req.Credential)
		if err != nil {
			fail(c, err)
			return
		}
		access, exp, err := auth.Issue(acct.ID, string(acct.Role), cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		refresh, err := sessions.Issue(c.Request.Context(), acct.ID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"account":       acct,
			"access_token":  access,
			"refresh_token": refresh,
			"expires_at":    exp.Unix(),
		})
	})

	r.POST("/v1/auth/refresh", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		accountID, next, err := sessions.Rotate(c.Request.Context(), req.RefreshToken)
		if err != nil {
			fail(c, err)
			return
		}
		acct, err := idents.Resolve(c.Request.Context(), accountID)
		if err != nil {
			fail(c, err)
			return
		}
		access, exp, err := auth.Issue(acct.ID, string(acct.Role), cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token":  access,
			"refresh_token": next,
			"expires_at":    exp.Unix(),
		})
	})

	r.POST("/v1/auth/logout", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := sessions.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	// Browsing bypasses the guard: postings are readable by anyone.
	r.GET("/v1/postings", func(c *gin.Context) {
		filters := posting.Filters{
			Number:     c.Query("number"),
			Title:      c.Query("title"),
			Skill:      c.Query("skill"),
			Instructor: c.Query("instructor"),
			Standing:   c.Query("standing"),
			Keyword:    c.Query("q"),
			Status:     posting.Status(strings.ToUpper(c.Query("status"))),
			Sort:       c.Query("sort"),
		}
		results, err := registry.Search(c.Request.Context(), filters)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"postings": results})
	})

	r.GET("/v1/postings/:id", func(c *gin.Context) {
		p, err := registry.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	authGroup := r.Group("/v1", auth.RequireAccount(cfg.JWTSigningKey, cfg.JWTIssuer, idents))

	authGroup.POST("/postings", func(c *gin.Context) {
		caller, _ := auth.Caller(c)
		var attrs posting.Attributes
		if err := c.ShouldBindJSON(&attrs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p, err := registry.Create(c.Request.Context(), caller, attrs)
		if err != nil {
			fail(c, err)
			return
		}
		postingsCreated.Inc()
		c.JSON(http.StatusCreated, p)
	})

	authGroup.POST("/postings/:id/status", func(c *gin.Context) {
		caller, _ := auth.Caller(c)
		p, err := registry.ToggleStatus(c.Request.Context(), caller, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	authGroup.DELETE("/postings/:id", func(c *gin.Context) {
		caller, _ := auth.Caller(c)
		if err := registry.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	authGroup.POST("/postings/:id/applications", func(c *gin.Context) {
		caller, _ := auth.Caller(c)

		applicantName := c.PostForm("name")
		file, header, err := c.Request.FormFile("resume")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "resume file required"})
			return
		}
		defer file.Close()

		maxBytes := int64(cfg.MaxDocumentMB) << 20
		if header.Size > maxBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("resume exceeds %dMB", cfg.MaxDocumentMB)})
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read resume failed"})
			return
		}
		if int64(len(data)) > maxBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("resume exceeds %dMB", cfg.MaxDocumentMB)})
			return
		}

		app, err := intake.Submit(c.Request.Context(), caller, c.Param("id"),
			applicantName, header.Filename, data, header.Header.Get("Content-Type"))
		if err != nil {
			fail(c, err)
			return
		}
		applicationsSubmitted.Inc()
		c.JSON(http.StatusCreated, app)
	})

	authGroup.GET("/postings/:id/applications", func(c *gin.Context) {
		caller, _ := auth.Caller(c)
		apps, err := intake.ListApplicants(c.Request.Context(), caller, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"applications": apps})
	})

	authGroup.GET("/documents/:ref", func(c *gin.Context) {
		caller, _ := auth.Caller(c)
		rc, app, contentType, err := intake.FetchDocument(c.Request.Context(), caller, c.Param("ref"))
		if err != nil {
			fail(c, err)
			return
		}
		defer rc.Close()
		name := strings.ReplaceAll(app.DocumentName, `"`, "")
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
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

// fail maps an engine error kind to its HTTP status.
func fail(c *gin.Context, err error) {
	c.JSON(httpStatus(err), gin.H{"error": err.Error()})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthenticated), errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateIdentity):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
