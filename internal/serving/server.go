// Package serving exposes a small Gin HTTP surface for ad-hoc, outside-
// of-Kafka debugging of a single FDS record: POST a schema, column
// declaration, and one Avro-encoded record, get back the decoded tensor
// summary or the error that would have aborted a Kafka batch.
package serving

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	router *gin.Engine
	once   sync.Once
)

// Init builds the process-wide gin.Engine. Idempotent.
func Init() {
	once.Do(func() {
		env := viper.GetString("APP_ENV")
		if env == "prod" || env == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		router = gin.New()

		router.Use(gin.Recovery())
		router.Use(gin.Logger())

		router.GET("/health/self", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "true"})
		})

		registerRoutes(router)
	})
}

// Instance returns the initialized router; callers must call Init first.
func Instance() *gin.Engine {
	if router == nil {
		log.Fatal().Msg("serving: router not initialized")
	}
	return router
}
