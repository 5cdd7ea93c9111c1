package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medtips/medtips-api/internal/config"
	"github.com/medtips/medtips-api/internal/handlers"
	"github.com/medtips/medtips-api/internal/middleware"
	"github.com/medtips/medtips-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)
	db := client.Database(cfg.MongoDatabase)
	log.Println("Successfully connected to MongoDB!")

	// Duplicate registrations must fail at the store, not by racy lookups.
	_, err = db.Collection(handlers.DoctorsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Fatalf("Failed to ensure unique email index: %v", err)
	}

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}

	h := handlers.NewHandler(db, tokens)

	// --- Gin Router ---
	r := gin.Default()

	// --- Middleware ---
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	// --- Routes ---
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterDoctor)
		authRoutes.POST("/login", h.Login)
	}

	// Public reads: tips and profiles need no token.
	r.GET("/tips", h.GetAllTips)
	r.GET("/tips/:id", h.GetTipsDetail)
	r.GET("/doctors/:id", h.Profile)

	apiRoutes := r.Group("/api")
	apiRoutes.Use(middleware.AuthMiddleware(tokens))
	{
		apiRoutes.POST("/tips", h.CreateTips)
		apiRoutes.GET("/users", h.ListUsers)
		apiRoutes.DELETE("/users", h.DeleteUser)
	}

	log.Printf("Starting server on port %s", cfg.Port)
	r.Run(":" + cfg.Port)
}
