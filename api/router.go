package api

import (
	"github.com/gin-gonic/gin"

	"github.com/docpipe/doc-chunk-service/api/handler"
	"github.com/docpipe/doc-chunk-service/api/middleware"
)

// SetupRouter wires all endpoints and middleware. taskHandler may be nil when
// the service runs without a task queue.
func SetupRouter(
	docHandler *handler.DocumentHandler,
	chunkHandler *handler.ChunkHandler,
	taskHandler *handler.TaskHandler,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	api := router.Group("/api")
	{
		docGroup := api.Group("/documents")
		{
			docGroup.POST("", docHandler.UploadDocument)
			docGroup.GET("", docHandler.ListDocuments)
			docGroup.GET("/:id/status", docHandler.GetDocumentStatus)
			docGroup.GET("/:id/segments", docHandler.GetDocumentSegments)
			docGroup.PUT("/:id/tags", docHandler.UpdateDocumentTags)
			docGroup.DELETE("/:id", docHandler.DeleteDocument)

			if taskHandler != nil {
				docGroup.GET("/:id/tasks", taskHandler.GetDocumentTasks)
			}
		}

		api.POST("/chunks", chunkHandler.ChunkText)

		if taskHandler != nil {
			api.GET("/tasks/:id", taskHandler.GetTaskStatus)
		}

		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
	}

	return router
}

// Cors allows cross-origin requests; enable it when a browser frontend sits
// on another origin.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
