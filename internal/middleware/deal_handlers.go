package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// CreateDeal records a purchase for the authenticated user.
func (h *Handler) CreateDeal(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	var req models.DealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	deal, err := h.ledger.CreateDeal(c.Request.Context(), sess, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"deal": deal})
}

// ListDeals returns the user's deals, most recent first.
func (h *Handler) ListDeals(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	deals, err := h.ledger.ListDeals(c.Request.Context(), sess)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deals": deals})
}

func (h *Handler) GetDeal(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	id, ok := dealID(c)
	if !ok {
		return
	}
	deal, err := h.ledger.GetDeal(c.Request.Context(), sess, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deal": deal})
}

// DeleteDeal removes one deal. Deals are immutable, so a correction is a
// delete followed by a new deal.
func (h *Handler) DeleteDeal(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	id, ok := dealID(c)
	if !ok {
		return
	}
	if err := h.ledger.DeleteDeal(c.Request.Context(), sess, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deal deleted", "id": id})
}

func dealID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deal id"})
		return 0, false
	}
	return id, true
}
