package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/mnhrk15/hpb-repeat-analyzer/database"
	"github.com/mnhrk15/hpb-repeat-analyzer/handlers"
	"github.com/mnhrk15/hpb-repeat-analyzer/middleware"
	"github.com/mnhrk15/hpb-repeat-analyzer/store"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Optional PostgreSQL (run history) ---
	// The analysis engine is fully in-memory; both databases are opt-in.
	var runStore *store.RunStore
	if os.Getenv("DATABASE_URL") != "" {
		dbClient, err := database.NewPostgresDB()
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
		}
		defer dbClient.Close()

		runStore = store.NewRunStore(dbClient.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := runStore.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to initialize run history schema: %v", err)
		}
		cancel()
	} else {
		log.Println("DATABASE_URL not set; run history disabled.")
	}

	// --- Optional ClickHouse (visit archive) ---
	var visitArchive *store.VisitArchive
	if os.Getenv("CLICKHOUSE_HOST") != "" {
		chClient, err := database.NewClickHouseDB()
		if err != nil {
			log.Fatalf("Failed to initialize ClickHouse database: %v", err)
		}
		defer chClient.Close()
		visitArchive = store.NewVisitArchive(chClient)
	} else {
		log.Println("CLICKHOUSE_HOST not set; visit archive disabled.")
	}

	// --- Admin credentials ---
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	// --- Stores and Handlers ---
	snapshots := store.NewSnapshotStore()
	authHandlers := handlers.NewAuthHandlers(adminEmail, passwordHash)
	uploadHandlers := handlers.NewUploadHandlers(snapshots, visitArchive)
	analyzeHandlers := handlers.NewAnalyzeHandlers(snapshots, runStore, visitArchive)

	r := gin.Default()
	r.MaxMultipartMemory = 100 << 20 // salon exports arrive as multi-file uploads

	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired())
		{
			protected.POST("/upload", uploadHandlers.Upload)
			protected.POST("/analyze", analyzeHandlers.Analyze)
			protected.GET("/dashboard", analyzeHandlers.Dashboard)
			protected.GET("/chart/:kind", analyzeHandlers.Chart)
			protected.GET("/report", analyzeHandlers.Report)
			protected.GET("/runs", analyzeHandlers.RunHistory)

			statsGroup := protected.Group("/stats")
			{
				statsGroup.GET("/visit-counts", analyzeHandlers.VisitCounts)
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Repeat analyzer API starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
