package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetCurrency lists market quotes in a fiat currency, optionally limited to
// the comma separated ids query.
func (h *Handler) GetCurrency(c *gin.Context) {
	currency := strings.ToLower(c.DefaultQuery("currency", defaultCurrency))

	var ids []string
	if raw := c.Query("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	quotes, err := h.prices.FetchPrices(c.Request.Context(), currency, ids...)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotes)
}

func (h *Handler) SupportedCurrencies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"currencies": h.prices.SupportedCurrencies()})
}
