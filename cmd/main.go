package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/evepupil/anki-genix-backend/config"
	"github.com/evepupil/anki-genix-backend/controllers"
	"github.com/evepupil/anki-genix-backend/exporter"
	"github.com/evepupil/anki-genix-backend/routes"
	"github.com/evepupil/anki-genix-backend/services"
	"github.com/evepupil/anki-genix-backend/store"
	"github.com/evepupil/anki-genix-backend/ws"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy file .env")
	}

	logger, err := config.NewLogger()
	if err != nil {
		log.Fatal("không tạo được logger:", err)
	}
	defer logger.Sync()

	db, err := config.InitDB(logger)
	if err != nil {
		logger.Fatal("khởi tạo database thất bại", zap.Error(err))
	}

	ctx := context.Background()
	gemini, err := services.NewGeminiService(ctx, logger)
	if err != nil {
		logger.Fatal("khởi tạo Gemini client thất bại", zap.Error(err))
	}
	defer gemini.Close()

	prompts, err := services.NewPromptStore()
	if err != nil {
		logger.Fatal("nạp prompt template thất bại", zap.Error(err))
	}

	exp, err := exporter.NewExporter(os.Getenv("EXPORT_DIR"), logger)
	if err != nil {
		logger.Fatal("khởi tạo exporter thất bại", zap.Error(err))
	}

	taskStore := store.NewTaskStore(db, logger)
	catalogStore := store.NewCatalogStore(db, logger)
	cardStore := store.NewFlashcardStore(db, logger)

	hub := ws.NewHub(logger)
	crawler := services.NewWebCrawler()
	workflow := services.NewTaskWorkflow(taskStore, catalogStore, cardStore, gemini, prompts, crawler, hub, logger)

	taskCtrl := controllers.NewTaskController(taskStore, logger)
	catalogCtrl := controllers.NewCatalogController(workflow, catalogStore, logger)
	flashcardCtrl := controllers.NewFlashcardController(workflow, cardStore, logger)
	exportCtrl := controllers.NewExportController(cardStore, exp, logger)

	r := gin.Default()

	// Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	routes.SetupRouter(r, taskCtrl, catalogCtrl, flashcardCtrl, exportCtrl, hub)

	// Route test server
	r.GET("/", func(c *gin.Context) {
		c.String(200, "AnkiGenix server is running")
	})

	// Lấy PORT từ env
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("server đang chạy", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("server dừng do lỗi", zap.Error(err))
	}
}
