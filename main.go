package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"levelUpAPI/handlers"
	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/gateway/firestoregw"
	"levelUpAPI/internal/gateway/memory"
	"levelUpAPI/internal/lifecycle"
	"levelUpAPI/internal/notification"
	"levelUpAPI/middleware"
	"levelUpAPI/services"
)

var (
	dbPool       *pgxpool.Pool
	store        gateway.Store
	registry     *lifecycle.Registry
	notifService *services.NotificationService
	classService *services.ClassService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	initBackend()

	interval := 5 * time.Second
	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatal("Invalid SYNC_INTERVAL:", err)
		}
		interval = d
	}
	registry = lifecycle.NewRegistry(store, interval)

	middleware.InitPrometheus()
}

// initBackend picks the storage backend: Postgres when DATABASE_URL is
// set, Firestore when Firebase credentials are present, otherwise an
// in-memory store that loses everything on restart.
func initBackend() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		poolConfig, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			log.Fatal("Failed to parse database URL:", err)
		}

		poolConfig.MaxConns = 25
		poolConfig.MinConns = 5
		poolConfig.MaxConnLifetime = time.Hour
		poolConfig.MaxConnIdleTime = 30 * time.Minute
		poolConfig.HealthCheckPeriod = time.Minute

		dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			log.Fatal("Failed to create connection pool:", err)
		}

		if err := dbPool.Ping(ctx); err != nil {
			log.Fatal("Failed to ping database:", err)
		}

		log.Println("Successfully connected to Postgres")

		notifService = services.NewNotificationService(dbPool)
		store = services.NewPgStore(dbPool, notifService)
		classService = services.NewClassService(dbPool)

		fcmService, err := notification.NewFCMService("./serviceAccountKey.json")
		if err != nil {
			log.Printf("Warning: Could not initialize FCM: %v", err)
		} else {
			notifService.SetPushProvider(fcmService)
			log.Println("FCM Push Provider initialized successfully")
		}
		return
	}

	if os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON") != "" || fileExists("./serviceAccountKey.json") {
		fs, err := firestoregw.New(ctx, "./serviceAccountKey.json")
		if err != nil {
			log.Fatal("Failed to initialize Firestore backend:", err)
		}
		store = fs
		log.Println("Using Firestore backend")
		return
	}

	store = memory.New()
	log.Println("Warning: no DATABASE_URL or Firebase credentials set, using in-memory backend. All data is lost on restart.")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func main() {
	defer func() {
		registry.CloseAll()
		if dbPool != nil {
			log.Println("Closing database connection pool...")
			dbPool.Close()
		}
	}()

	var devices handlers.DeviceRegistrar
	if notifService != nil {
		devices = notifService
	}
	var teachers handlers.TeacherResolver
	if classService != nil {
		teachers = classService
	}

	playerHandler := handlers.NewPlayerHandler(registry, store, devices)
	submissionHandler := handlers.NewSubmissionHandler(registry, store, playerHandler)
	reviewHandler := handlers.NewReviewHandler(store)
	classHandler := handlers.NewClassHandler(store, teachers)
	catalogHandler := handlers.NewCatalogHandler()

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if dbPool != nil {
			if err := dbPool.Ping(ctx); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "levelUp-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public game content and the student join flow. Students authenticate
	// with a class code, not an account.
	api.HandleFunc("/catalog/levels", catalogHandler.GetLevels).Methods("GET")
	api.HandleFunc("/catalog/achievements", catalogHandler.GetAchievements).Methods("GET")
	api.HandleFunc("/catalog/daily-quest", catalogHandler.GetDailyQuest).Methods("GET")
	api.HandleFunc("/catalog/shop", catalogHandler.GetShop).Methods("GET")
	api.HandleFunc("/catalog/paths", catalogHandler.GetDefaultBoard).Methods("GET")
	api.HandleFunc("/catalog/bosses", catalogHandler.GetBosses).Methods("GET")
	api.HandleFunc("/catalog/guilds", catalogHandler.GetGuilds).Methods("GET")

	api.HandleFunc("/classes/lookup", classHandler.GetClassByCode).Methods("GET")
	api.HandleFunc("/classes/activities", classHandler.GetActivities).Methods("GET")

	api.HandleFunc("/player/join", playerHandler.JoinClass).Methods("POST")
	api.HandleFunc("/player/state", playerHandler.GetState).Methods("GET")
	api.HandleFunc("/player/events", playerHandler.GetEvents).Methods("POST")
	api.HandleFunc("/player/mystery-box", playerHandler.OpenMysteryBox).Methods("POST")
	api.HandleFunc("/player/guild", playerHandler.JoinGuild).Methods("POST")
	api.HandleFunc("/player/shop/buy", playerHandler.BuyAvatarItem).Methods("POST")
	api.HandleFunc("/player/shop/equip", playerHandler.EquipAvatarItem).Methods("POST")
	api.HandleFunc("/player/name", playerHandler.SetName).Methods("PUT")
	api.HandleFunc("/player/register-device", playerHandler.RegisterDevice).Methods("POST")
	api.HandleFunc("/player/logout", playerHandler.Logout).Methods("POST")

	api.HandleFunc("/submissions/activity", submissionHandler.SubmitActivity).Methods("POST")
	api.HandleFunc("/submissions/boss", submissionHandler.SubmitBoss).Methods("POST")
	api.HandleFunc("/submissions", submissionHandler.ListMine).Methods("GET")
	api.HandleFunc("/submissions/pending-count", submissionHandler.PendingCount).Methods("GET")
	api.HandleFunc("/submissions/sync", submissionHandler.Sync).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (TEACHER, REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/classes", classHandler.CreateClass).Methods("POST")
	protected.HandleFunc("/classes", classHandler.ListClasses).Methods("GET")
	protected.HandleFunc("/classes", classHandler.DeleteClass).Methods("DELETE")
	protected.HandleFunc("/classes/students", classHandler.ListStudents).Methods("GET")
	protected.HandleFunc("/classes/activities", classHandler.SaveActivities).Methods("PUT")

	protected.HandleFunc("/review/submissions", reviewHandler.ListClassSubmissions).Methods("GET")
	protected.HandleFunc("/review", reviewHandler.Review).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
