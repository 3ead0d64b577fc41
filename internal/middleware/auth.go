package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"contractbuilder/internal/model"
	"contractbuilder/internal/repository"
	"contractbuilder/internal/service"
	"contractbuilder/internal/token"
	"contractbuilder/pkg/logger"
	"contractbuilder/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// AccessTokenCookie is the HttpOnly cookie holding the access token for browser clients.
	AccessTokenCookie = "access_token"

	actorKey  = "actor"
	claimsKey = "claims"
)

// Authenticator verifies access tokens and re-reads the caller from the database on every request.
type Authenticator struct {
	tokens      *token.Manager
	revocations token.RevocationStore
	users       repository.UserRepository
}

func NewAuthenticator(tokens *token.Manager, revocations token.RevocationStore, users repository.UserRepository) *Authenticator {
	return &Authenticator{tokens: tokens, revocations: revocations, users: users}
}

// SetTokenCookie stores the access token as an HttpOnly cookie
func SetTokenCookie(c *gin.Context, accessToken string, maxAge int) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite, secure := cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, accessToken, maxAge, "/", "", secure, true)
}

// ClearTokenCookie removes the access_token cookie
func ClearTokenCookie(c *gin.Context) {
	sameSite, secure := cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
}

func cookieMode() (http.SameSite, bool) {
	if gin.Mode() == gin.ReleaseMode {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// bearerToken reads the cookie first and falls back to the Authorization header.
func bearerToken(c *gin.Context) (string, string) {
	if tokenString, err := c.Cookie(AccessTokenCookie); err == nil && tokenString != "" {
		return tokenString, ""
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// RequireRole validates the token, loads the caller and checks the caller's role is allowed
func (a *Authenticator) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			abort(c, http.StatusUnauthorized, problem)
			return
		}
		a.authorize(c, tokenString, allowedRoles)
	}
}

// RequireRoleQuery is RequireRole for clients that can only pass the token as ?token=, such as browser websockets.
func (a *Authenticator) RequireRoleQuery(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "Token query parameter is missing")
			return
		}
		a.authorize(c, tokenString, allowedRoles)
	}
}

func (a *Authenticator) authorize(c *gin.Context, tokenString string, allowedRoles []string) {
	claims, err := a.tokens.Parse(tokenString)
	if err != nil {
		abort(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	ctx := c.Request.Context()
	revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		logger.Error(ctx, "failed to check token revocation", "error", err)
		abort(c, http.StatusInternalServerError, "internal server error")
		return
	}
	if revoked {
		abort(c, http.StatusUnauthorized, "Token has been revoked")
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		abort(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	user, err := a.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			abort(c, http.StatusUnauthorized, "User not found")
			return
		}
		logger.Error(ctx, "failed to load authenticated user", "error", err)
		abort(c, http.StatusInternalServerError, "internal server error")
		return
	}
	if user.Status != model.UserStatusActive {
		abort(c, http.StatusUnauthorized, "User account is not active")
		return
	}

	// The stored role wins over the one baked into the token.
	if !slices.Contains(allowedRoles, user.Role) {
		abort(c, http.StatusForbidden, "Access denied: insufficient permissions")
		return
	}

	c.Set(actorKey, service.ActorContext{UserID: user.ID, Role: user.Role})
	c.Set(claimsKey, claims)
	c.Request = c.Request.WithContext(context.WithValue(ctx, logger.UserIDKey, user.ID.String()))

	c.Next()
}

// Actor returns the caller stored by RequireRole.
func Actor(c *gin.Context) service.ActorContext {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(service.ActorContext); ok {
			return actor
		}
	}
	return service.ActorContext{}
}

// Claims returns the verified token claims, or nil outside an authenticated route.
func Claims(c *gin.Context) *token.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*token.Claims); ok {
			return claims
		}
	}
	return nil
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, response.Error(status, msg))
}
