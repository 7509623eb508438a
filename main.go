package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"isabet-pos/config"
	"isabet-pos/handlers"
	"isabet-pos/hub"
	"isabet-pos/models"
	"isabet-pos/router"
	"isabet-pos/state"
	"isabet-pos/utils"
)

const pingInterval = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	utils.InitLogger()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	autoMigrate(db)
	if err := config.Seed(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed database: %v", err)
	}

	st := state.New()
	var products []models.Product
	if err := db.Order("id").Find(&products).Error; err != nil {
		utils.ErrorLogger.Fatalf("Failed to load catalog: %v", err)
	}
	st.SetProducts(products)
	utils.InfoLogger.Printf("Catalog loaded: %d products, %d tables", len(products), len(st.Tables))

	wsHub := hub.New()
	stopPinger := wsHub.StartPinger(pingInterval)
	defer stopPinger()

	h := handlers.New(db, st, wsHub)
	r := router.SetupRouter(db, h)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	utils.InfoLogger.Printf("HTTP and WebSocket server listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Sale{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
