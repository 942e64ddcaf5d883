package ledgerapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// requestLogger logs every request after it completes.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	}
}

// SetupRouter mounts the ledger API under /api with a root health check.
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(handler.log))

	api := router.Group("/api")
	{
		api.GET("/health", handler.HealthCheck)

		api.GET("/customers", handler.ListCustomers)
		api.POST("/customers", handler.CreateCustomer)
		api.GET("/customers/:id", handler.GetCustomer)
		api.PATCH("/customers/:id", handler.UpdateCustomer)
		api.DELETE("/customers/:id", handler.DeleteCustomer)
		api.GET("/customers/:id/balance", handler.CustomerBalance)
		api.GET("/customers/:id/transactions", handler.CustomerTransactions)

		api.GET("/items", handler.ListItems)
		api.POST("/items", handler.CreateItem)
		api.GET("/items/:id", handler.GetItem)
		api.PATCH("/items/:id", handler.UpdateItem)
		api.DELETE("/items/:id", handler.DeleteItem)
		api.GET("/items/:id/prices", handler.ItemPriceHistory)

		api.GET("/transactions", handler.ListTransactions)
		api.GET("/transactions/:id", handler.GetTransaction)
		api.POST("/transactions/debt", handler.CreateDebt)
		api.POST("/transactions/payment", handler.CreatePayment)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}
