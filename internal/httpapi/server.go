// Package httpapi exposes the search engine over HTTP.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cosmoscout/cosmoscout/internal/engine"
)

// exampleQueries is served to clients as suggested starting points.
var exampleQueries = []string{
	"Mars rover discoveries",
	"Black holes explained",
	"SpaceX Starship launch",
	"James Webb telescope images",
	"Moon landing missions",
	"International Space Station",
	"Solar system planets",
	"Asteroid near Earth",
}

type searchRequest struct {
	Query string `json:"query"`
}

// NewRouter builds the HTTP routes around eng.
func NewRouter(eng *engine.Engine) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(), cors())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/api/examples", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"examples": exampleQueries})
	})
	r.POST("/api/search", func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a query"})
			return
		}
		resp, err := eng.Handle(c.Request.Context(), req.Query)
		if err != nil {
			if errors.Is(err, engine.ErrEmptyQuery) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a query"})
				return
			}
			log.Error().Err(err).Msg("search failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed. Please try again."})
			return
		}
		c.JSON(http.StatusOK, resp)
	})

	return r
}

// requestID tags every request so log lines from one search pass can be
// correlated.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}

// cors allows browser front-ends on any origin to call the API.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
