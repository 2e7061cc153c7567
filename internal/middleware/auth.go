package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/auth"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

const sessionKey = "session"

// AuthMiddleware accepts a bearer session token and stores the session in the
// request context.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token not provided"})
			return
		}

		sess, err := h.sessions.Verify(token)
		if err != nil {
			h.logFor(c).Debug().Err(err).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// SessionFrom returns the session stored by an auth middleware.
func SessionFrom(c *gin.Context) (models.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.Session{}, false
	}
	sess, ok := v.(models.Session)
	return sess, ok
}

// session fetches the caller's session or answers 401.
func session(c *gin.Context) (models.Session, bool) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
	}
	return sess, ok
}

func (h *Handler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		h.writeError(c, err)
		return
	}

	user := &models.User{
		Email:     req.Email,
		Password:  string(hashed),
		Name:      req.Name,
		CreatedAt: h.now().UTC(),
	}
	if err := h.users.CreateUser(c.Request.Context(), user); err != nil {
		h.writeError(c, err)
		return
	}

	h.respondWithSession(c, http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	// Clerk users have no local password.
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	h.respondWithSession(c, http.StatusOK, user)
}

// Logout revokes the session and drops the user's cached ledger.
func (h *Handler) Logout(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	h.sessions.Revoke(sess.ID)
	h.ledger.Forget(sess.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) respondWithSession(c *gin.Context, status int, user *models.User) {
	token, sess, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.logFor(c).Info().Int64("user_id", user.ID).Str("session_id", sess.ID).Msg("session issued")
	c.JSON(status, gin.H{
		"token":      token,
		"expires_at": sess.ExpiresAt,
		"user":       user,
	})
}
