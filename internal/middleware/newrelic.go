package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes tags the nrgin transaction with the caller and records
// handler errors on it. It must run after nrgin.Middleware and Identity; it
// is a no-op when no transaction is present.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if p, ok := Principal(c); ok {
			txn.AddAttribute("user_id", p.UserID)
			txn.AddAttribute("user_role", string(p.Role))
		}
		if id := c.Writer.Header().Get("X-Request-ID"); id != "" {
			txn.AddAttribute("request_id", id)
		}

		c.Next()

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
