package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuth(t *testing.T) {
	const userID = models.ObjectID("507f1f77bcf86cd799439011")
	conf := config.AuthConfig{Secret: "secret", Issuer: "idp"}

	valid, err := SignToken(conf.Secret, conf.Issuer, userID)
	require.NoError(t, err)
	wrongSecret, err := SignToken("other", conf.Issuer, userID)
	require.NoError(t, err)
	wrongIssuer, err := SignToken(conf.Secret, "someone-else", userID)
	require.NoError(t, err)
	badSubject, err := SignToken(conf.Secret, conf.Issuer, "alice")
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: userID.String(),
		Issuer:  conf.Issuer,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		ok     bool
	}{
		{name: "bearer header", header: "Bearer " + valid, ok: true},
		{name: "query token", query: "?access_token=" + valid, ok: true},
		{name: "missing"},
		{name: "not bearer", header: "Basic " + valid},
		{name: "wrong secret", header: "Bearer " + wrongSecret},
		{name: "wrong issuer", header: "Bearer " + wrongIssuer},
		{name: "subject not an id", header: "Bearer " + badSubject},
		{name: "unsigned", header: "Bearer " + noneAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			var seen models.ObjectID
			var fields []any
			err := JWTAuth(conf)(func(c echo.Context) error {
				seen = CurrentUser(c)
				fields = log.Fields(c.Request().Context())
				return nil
			})(c)

			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, userID, seen)
				assert.Equal(t, []any{"user_id", userID.String()}, fields)
				return
			}
			var he *echo.HTTPError
			require.True(t, errors.As(err, &he), "got %v", err)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
			assert.Empty(t, seen)
		})
	}
}
