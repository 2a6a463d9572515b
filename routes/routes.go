package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/evepupil/anki-genix-backend/controllers"
	"github.com/evepupil/anki-genix-backend/middleware"
	"github.com/evepupil/anki-genix-backend/ws"
)

// SetupRouter đăng ký toàn bộ route của backend
func SetupRouter(
	r *gin.Engine,
	taskCtrl *controllers.TaskController,
	catalogCtrl *controllers.CatalogController,
	flashcardCtrl *controllers.FlashcardController,
	exportCtrl *controllers.ExportController,
	hub *ws.Hub,
) {
	r.Use(middleware.ExtractUserID())

	api := r.Group("/api")
	{
		api.GET("/health", controllers.HealthCheck)

		api.POST("/tasks", taskCtrl.Create)
		api.POST("/tasks/file", taskCtrl.CreateFromFile)
		api.GET("/tasks/:id", taskCtrl.Get)
		api.GET("/tasks/:id/cards", flashcardCtrl.ListByTask)

		catalog := api.Group("/catalog")
		{
			catalog.POST("/topic", catalogCtrl.AnalyzeTopic)
			catalog.POST("/text", catalogCtrl.ExtractFromText)
			catalog.POST("/file", catalogCtrl.ExtractFromFile)
			catalog.POST("/select", catalogCtrl.SelectSections)
			catalog.GET("/:taskId", catalogCtrl.Get)
		}

		flashcards := api.Group("/flashcards")
		{
			flashcards.POST("/generate/topic", flashcardCtrl.GenerateFromTopic)
			flashcards.POST("/generate/text", flashcardCtrl.GenerateFromText)
			flashcards.POST("/generate/file", flashcardCtrl.GenerateFromFile)
			flashcards.POST("/generate/url", flashcardCtrl.GenerateFromURL)
			flashcards.POST("/generate/text/section", flashcardCtrl.GenerateTextSections)
			flashcards.POST("/generate/file/section", flashcardCtrl.GenerateFileSections)
			flashcards.GET("/:resultId", flashcardCtrl.ListByResult)
		}

		api.POST("/export", exportCtrl.Export)
		api.GET("/results", exportCtrl.ListResults)
	}

	r.GET("/ws/tasks/:id", hub.HandleTaskStatus)
}
