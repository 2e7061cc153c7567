package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/portfolio"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/repository"
)

const (
	defaultCurrency    = "usd"
	defaultHistoryDays = 30
	maxHistoryDays     = 365
)

func (h *Handler) Holdings(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	holdings, err := h.ledger.Holdings(c.Request.Context(), sess)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}

// Portfolio values the user's holdings in the requested currency. USD
// reports also feed the day's history snapshot.
func (h *Handler) Portfolio(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	currency := strings.ToLower(c.DefaultQuery("currency", defaultCurrency))

	report, err := h.ledger.Report(c.Request.Context(), sess, currency)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if currency == defaultCurrency {
		if _, err := h.snapshots.SaveSnapshot(c.Request.Context(), sess.UserID, h.now(), report); err != nil {
			h.logFor(c).Warn().Err(err).Int64("user_id", sess.UserID).Msg("failed to save portfolio snapshot")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"report": report,
		"display": gin.H{
			"total_current_value": portfolio.FormatAmount(report.TotalCurrentValue, currency),
			"total_invested":      portfolio.FormatAmount(report.TotalInvested, currency),
			"total_profit_loss":   portfolio.FormatAmount(report.TotalProfitLoss, currency),
		},
	})
}

// PortfolioHistory returns the daily USD snapshots of the last days.
func (h *Handler) PortfolioHistory(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(defaultHistoryDays)))
	if err != nil || days < 1 || days > maxHistoryDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
		return
	}

	since := repository.Day(h.now()).AddDate(0, 0, -(days - 1))
	snapshots, err := h.snapshots.ListSnapshots(c.Request.Context(), sess.UserID, since)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshots": snapshots,
		"chart":     repository.ChartData(snapshots),
		"since":     since,
	})
}
