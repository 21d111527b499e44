package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	GatewaySecretHeader = "X-Gateway-Secret"

	actorKey = "actor"
)

var errMissingActor = errors.New("no authenticated actor on the request")

// Claims is the access token payload. Tokens are issued by the account service and only verified here.
type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token. Used by tooling and tests.
func IssueToken(secret string, userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// RequireUser validates the bearer token and stores the caller as a domain.Actor on the context.
func RequireUser(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token", Code: "unauthorized"})
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		var claims Claims
		tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !tok.Valid || claims.UserID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid token", Code: "unauthorized"})
			return
		}

		c.Set(actorKey, domain.Actor{UserID: claims.UserID, Admin: claims.Role == RoleAdmin})
		c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := actorFrom(c)
		if err != nil || !actor.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "admin role required", Code: "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireGatewaySecret guards the payment callbacks with the secret shared with the gateway relay.
func RequireGatewaySecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(GatewaySecretHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid gateway secret", Code: "unauthorized"})
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) (domain.Actor, error) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, errMissingActor
	}
	actor, ok := v.(domain.Actor)
	if !ok {
		return domain.Actor{}, errMissingActor
	}
	return actor, nil
}

// mustActor renders 401 and returns false when the route was mounted without RequireUser.
func mustActor(c *gin.Context) (domain.Actor, bool) {
	actor, err := actorFrom(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "unauthorized"})
		return domain.Actor{}, false
	}
	return actor, true
}
