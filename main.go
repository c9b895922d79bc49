package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"kanban-board/handlers"
	"kanban-board/logging"
	"kanban-board/middleware"
	"kanban-board/repositories"
	"kanban-board/services"
	"kanban-board/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger() // Inicijalizacija logovanja

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Board Service...")
	err := godotenv.Load(".env")
	if err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	mongoCollectionName := os.Getenv("MONGO_COLLECTION")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	boardClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer boardClient.Disconnect(ctx)

	if err := boardClient.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	tasksCollection := boardClient.Database(mongoDBName).Collection(mongoCollectionName)
	logging.Logger.Infof("Event ID: DB_COLLECTION_SET, Description: Using MongoDB collection: %s/%s", mongoDBName, mongoCollectionName)

	httpClient := utils.NewHTTPClient()
	identityBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "IdentityProviderCB",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	taskRepo := repositories.NewMongoTaskRepository(tasksCollection)
	taskService := services.NewTaskService(taskRepo)
	boardService := services.NewBoardService(taskRepo)
	defer boardService.Close()
	authService := services.NewAuthService(os.Getenv("AUTH_VERIFY_URL"), httpClient, identityBreaker)

	// Jednokratno punjenje prazne kolekcije podrazumevanim zadacima
	if _, err := taskService.SeedDefaultTasks(context.Background()); err != nil {
		logging.Logger.Errorf("Event ID: SEED_FAILED, Description: Failed to seed default tasks: %v", err)
	}

	taskHandler := handlers.NewTaskHandler(taskService, boardService)
	authHandler := handlers.NewAuthHandler(authService)

	// Kreiranje mux routera
	r := mux.NewRouter()

	r.HandleFunc("/api/auth/session", authHandler.CreateSession).Methods(http.MethodPost)

	board := r.PathPrefix("/api").Subrouter()
	board.Use(middleware.JWTAuthMiddleware)
	board.HandleFunc("/tasks", taskHandler.GetBoard).Methods(http.MethodGet)
	board.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	board.HandleFunc("/tasks/stream", taskHandler.StreamBoard).Methods(http.MethodGet)
	board.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	board.HandleFunc("/tasks/{id}/status", taskHandler.ChangeTaskStatus).Methods(http.MethodPatch)
	board.HandleFunc("/session/detail", taskHandler.OpenDetail).Methods(http.MethodPut)
	board.HandleFunc("/session/detail", taskHandler.CloseDetail).Methods(http.MethodDelete)
	board.HandleFunc("/session/filter", taskHandler.SetFilter).Methods(http.MethodPut)

	corsRouter := enableCORS(r)

	// Pokretanje servera
	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
