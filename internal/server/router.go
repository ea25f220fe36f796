package server

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) SetUpRouter() *gin.Engine {
	router := gin.New()
	router.Use(RequestId())
	router.Use(Logger())
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "ok",
		})
	})

	// Annotated result images land here, served back to the UI.
	router.Static("/results", s.conf.Storage.ResultsDir)

	router.POST("/analyze", s.handleAnalyze)
	router.GET("/download/:filename", s.handleDownload)

	api := router.Group("/api")
	api.GET("/session-stats", s.handleSessionStats)
	api.POST("/reset-session", s.handleResetSession)
	api.POST("/export-data", s.handleExportData)
	api.GET("/system-health", s.handleSystemHealth)

	return router
}
