package http

import (
	"github.com/gin-gonic/gin"

	"pdfqa/internal/ai"
	appsvc "pdfqa/internal/app"
	"pdfqa/internal/bootstrap"
	"pdfqa/internal/platform/rabbitmq"
	"pdfqa/internal/repository"
	"pdfqa/internal/transport/http/handler"
	"pdfqa/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	llmClient := ai.NewOpenAICompatibleClient(ai.ClientConfig{
		BaseURL:          cfg.LLM.BaseURL,
		APIKey:           cfg.LLM.APIKey,
		Model:            cfg.LLM.Model,
		EmbeddingBaseURL: cfg.LLM.EmbeddingBaseURL,
		EmbeddingModel:   cfg.LLM.EmbeddingModel,
		Temperature:      cfg.LLM.Temperature,
	})
	generator := ai.NewBoundedGenerator(llmClient)
	recordRepo := repository.NewAnswerRecordRepository(app.MySQL)
	publisher := rabbitmq.NewAnswerLogPublisher(app.MQConn, cfg.RabbitMQ.AnswerLogQueue)

	qaService := appsvc.NewQAService(app.Sessions, llmClient, generator, publisher, appsvc.Options{
		ChunkSize:         cfg.RAG.ChunkSize,
		ChunkOverlap:      cfg.RAG.ChunkOverlap,
		AskTopK:           cfg.RAG.AskTopK,
		SummaryTopK:       cfg.RAG.SummaryTopK,
		CompareTopK:       cfg.RAG.CompareTopK,
		MaxHistoryTurns:   cfg.RAG.MaxHistoryTurns,
		MaxAnswerTokens:   cfg.LLM.MaxAnswerTokens,
		GenerationTimeout: cfg.GenerationTimeout(),
	})
	qaHandler := handler.NewQAHandler(qaService, recordRepo)

	limit := func(route string, quota int) gin.HandlerFunc {
		if !cfg.RateLimit.Enabled {
			quota = 0
		}
		return middleware.RateLimit(app.Redis, route, quota, cfg.RateLimitWindow())
	}
	rl := cfg.RateLimit

	router.POST("/process-pdf", limit("process-pdf", rl.IngestLimit), qaHandler.ProcessPDF)
	router.POST("/upload-pdf", limit("upload-pdf", rl.IngestLimit), qaHandler.UploadPDF)
	router.POST("/ask", limit("ask", rl.AskLimit), qaHandler.Ask)
	router.POST("/summarize", limit("summarize", rl.SummarizeLimit), qaHandler.Summarize)
	router.POST("/compare", limit("compare", rl.CompareLimit), qaHandler.Compare)
	router.POST("/reset", limit("reset", rl.ResetLimit), qaHandler.Reset)
	router.GET("/status", qaHandler.Status)
	router.GET("/history", qaHandler.History)

	return router
}
