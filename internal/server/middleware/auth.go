package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
)

const (
	userContextKey = "user"
	// browsers cannot set headers on a websocket handshake
	tokenQueryParam = "access_token"
)

// JWTAuth verifies HS256 bearer tokens issued by the identity provider. The
// token subject is the caller's user id.
func JWTAuth(conf config.AuthConfig) echo.MiddlewareFunc {
	secret := []byte(conf.Secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := extractBearer(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims := &jwt.RegisteredClaims{}
			token, err := parser.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if conf.Issuer != "" && !claims.VerifyIssuer(conf.Issuer, true) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token issuer")
			}
			if !models.ObjectID(claims.Subject).IsValid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			c.Set(userContextKey, token)
			ctx := log.WithFields(c.Request().Context(), "user_id", claims.Subject)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func extractBearer(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		if token := c.QueryParam(tokenQueryParam); token != "" {
			return token, nil
		}
		return "", fmt.Errorf("missing authorization header")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return token, nil
}

// SignToken issues a token for userID, used by tests and local tooling.
func SignToken(secret, issuer string, userID models.ObjectID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject: userID.String(),
		Issuer:  issuer,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// CurrentUser returns the authenticated user id, empty when the route is public.
func CurrentUser(c echo.Context) models.ObjectID {
	return models.ObjectID(GetUserID(c))
}
