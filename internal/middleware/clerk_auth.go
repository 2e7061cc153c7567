package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkjwt "github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/auth"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

// initClerk sets the global Clerk key and returns a verifier that yields the
// Clerk user id of a session token.
func initClerk(secretKey string) func(ctx context.Context, token string) (string, error) {
	clerk.SetKey(secretKey)
	return func(ctx context.Context, token string) (string, error) {
		claims, err := clerkjwt.Verify(ctx, &clerkjwt.VerifyParams{Token: token})
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}
}

// ClerkAuthMiddleware accepts Clerk session tokens. The Clerk user must have
// been synced through the webhook; its local account becomes the session user.
func (h *Handler) ClerkAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.clerkVerify == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Clerk authentication not available"})
			return
		}

		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token not provided"})
			return
		}

		subject, err := h.clerkVerify(c.Request.Context(), token)
		if err != nil || subject == "" {
			h.logFor(c).Debug().Err(err).Msg("clerk token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := h.users.GetUserByExternalID(c.Request.Context(), subject)
		if errors.Is(err, models.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user is not registered"})
			return
		}
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}

		c.Set(sessionKey, models.Session{ID: "clerk:" + subject, UserID: user.ID})
		c.Next()
	}
}

type clerkEvent struct {
	Type string        `json:"type"`
	Data clerkUserData `json:"data"`
}

type clerkUserData struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// primaryEmail prefers the address marked primary, else the first one.
func (d clerkUserData) primaryEmail() string {
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID && e.EmailAddress != "" {
			return e.EmailAddress
		}
	}
	for _, e := range d.EmailAddresses {
		if e.EmailAddress != "" {
			return e.EmailAddress
		}
	}
	return ""
}

func (d clerkUserData) fullName(email string) string {
	name := strings.TrimSpace(d.FirstName + " " + d.LastName)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	return name
}

// ClerkWebhook keeps local users in sync with Clerk. Payloads must carry a
// valid svix signature.
func (h *Handler) ClerkWebhook(c *gin.Context) {
	if h.webhookSecret == "" {
		h.logFor(c).Error().Msg("CLERK_WEBHOOK_SECRET is not set")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "webhook secret not configured"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}

	wh, err := svix.NewWebhook(h.webhookSecret)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := wh.Verify(body, c.Request.Header); err != nil {
		h.logFor(c).Warn().Err(err).Msg("webhook signature rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
		return
	}

	var event clerkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if event.Data.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
		return
	}

	log := h.logFor(c).With().Str("event", event.Type).Str("clerk_id", event.Data.ID).Logger()
	switch event.Type {
	case "user.created", "user.updated":
		email := event.Data.primaryEmail()
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no valid email found"})
			return
		}
		user, err := h.users.UpsertExternalUser(c.Request.Context(), event.Data.ID, email, event.Data.fullName(email))
		if err != nil {
			h.writeError(c, err)
			return
		}
		log.Info().Int64("user_id", user.ID).Msg("user synced")
		c.JSON(http.StatusOK, gin.H{"message": "user synced", "user": user})

	case "user.deleted":
		h.deleteClerkUser(c, event.Data.ID)

	default:
		log.Debug().Msg("webhook event ignored")
		c.JSON(http.StatusOK, gin.H{"message": "event received but not handled"})
	}
}

func (h *Handler) deleteClerkUser(c *gin.Context, clerkID string) {
	ctx := c.Request.Context()
	user, err := h.users.GetUserByExternalID(ctx, clerkID)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"message": "user not found, nothing to delete"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	removed, err := h.deals.DeleteUserDeals(ctx, user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.users.DeleteUser(ctx, user.ID); err != nil {
		h.writeError(c, err)
		return
	}
	h.ledger.Forget(user.ID)
	revoked := h.sessions.RevokeUser(user.ID)

	h.logFor(c).Info().
		Int64("user_id", user.ID).
		Int64("deals", removed).
		Int("sessions", revoked).
		Msg("user deleted")
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
