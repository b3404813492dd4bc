package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	ctxOrgID    = "orgID"
	ctxActorID  = "actorID"
	ctxOperator = "operator"
)

// Claims: org_id scopes every query; sub is the acting user id, if any.
// operator marks back-office staff allowed to run cross-organization jobs.
type Claims struct {
	OrgID    uint64 `json:"org_id"`
	Operator bool   `json:"operator,omitempty"`
	jwt.RegisteredClaims
}

// RequireAuth verifies an HS256 bearer token and puts the organization and
// actor on the echo context.
func RequireAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			}
			raw := strings.TrimPrefix(authHeader, "Bearer ")
			if raw == authHeader || raw == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
			}

			claims, err := parseToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}

			c.Set(ctxOrgID, claims.OrgID)
			c.Set(ctxOperator, claims.Operator)
			if claims.Subject != "" {
				if actor, err := strconv.ParseUint(claims.Subject, 10, 64); err == nil {
					c.Set(ctxActorID, actor)
				}
			}
			return next(c)
		}
	}
}

// RequireOperator rejects tokens without the operator claim. Mount it after
// RequireAuth.
func RequireOperator() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsOperator(c) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "operator access required"})
			}
			return next(c)
		}
	}
}

func parseToken(secret []byte, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.OrgID == 0 {
		return nil, errors.New("token has no org_id")
	}
	return claims, nil
}

// IssueToken signs a token for orgID. actorID 0 leaves sub empty.
func IssueToken(secret []byte, orgID, actorID uint64, ttl time.Duration) (string, error) {
	return issue(secret, orgID, actorID, false, ttl)
}

// IssueOperatorToken is IssueToken with the operator claim set.
func IssueOperatorToken(secret []byte, orgID, actorID uint64, ttl time.Duration) (string, error) {
	return issue(secret, orgID, actorID, true, ttl)
}

func issue(secret []byte, orgID, actorID uint64, operator bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		OrgID:    orgID,
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if actorID != 0 {
		claims.Subject = strconv.FormatUint(actorID, 10)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// OrgID returns the authenticated organization, or 0 outside RequireAuth.
func OrgID(c echo.Context) uint64 {
	v, _ := c.Get(ctxOrgID).(uint64)
	return v
}

func ActorID(c echo.Context) *uint64 {
	v, ok := c.Get(ctxActorID).(uint64)
	if !ok {
		return nil
	}
	return &v
}

func IsOperator(c echo.Context) bool {
	v, _ := c.Get(ctxOperator).(bool)
	return v
}

// WithOrg sets the context values RequireAuth would, for handler tests.
func WithOrg(c echo.Context, orgID uint64, actorID *uint64) {
	c.Set(ctxOrgID, orgID)
	if actorID != nil {
		c.Set(ctxActorID, *actorID)
	}
}
