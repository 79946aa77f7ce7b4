package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/cstockton/go-conv"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// lookup resolves the value a struct tag names.
type lookup func(name string) (any, error)

// BindAndValidate fills req from the body, path, query, headers and the
// verified token claims, then validates it. Malformed or invalid input is a
// 400.
func BindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := bindTagged(req, "header", headerLookup(c.Request().Header)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	claims, err := extractJwtClaims(c)
	if err != nil {
		return err
	}
	if claims != nil {
		if err := bindTagged(req, "jwt", claimLookup(claims)); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// extractJwtClaims returns the claims JWTAuth stored on c, or nil on a
// public route.
func extractJwtClaims(c echo.Context) (*jwt.RegisteredClaims, error) {
	raw := c.Get(userContextKey)
	if raw == nil {
		return nil, nil
	}
	token, ok := raw.(*jwt.Token)
	if !ok {
		return nil, fmt.Errorf("unexpected %T under %q", raw, userContextKey)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	return claims, nil
}

// GetUserID is the token subject, empty on public routes.
func GetUserID(c echo.Context) string {
	if claims, _ := extractJwtClaims(c); claims != nil {
		return claims.Subject
	}
	return ""
}

func headerLookup(h http.Header) lookup {
	return func(name string) (any, error) {
		return h.Get(name), nil
	}
}

// claimLookup exposes the registered claims by their short names. Dates are
// unix seconds, zero when absent; audiences are joined with ";".
func claimLookup(claims *jwt.RegisteredClaims) lookup {
	seconds := func(d *jwt.NumericDate) int64 {
		if d == nil {
			return 0
		}
		return d.Unix()
	}
	return func(name string) (any, error) {
		switch name {
		case "sub":
			return claims.Subject, nil
		case "iss":
			return claims.Issuer, nil
		case "jti":
			return claims.ID, nil
		case "aud":
			return strings.Join(claims.Audience, ";"), nil
		case "exp":
			return seconds(claims.ExpiresAt), nil
		case "iat":
			return seconds(claims.IssuedAt), nil
		case "nbf":
			return seconds(claims.NotBefore), nil
		}
		return nil, fmt.Errorf("unknown claim %q", name)
	}
}

// bindTagged sets every field of *dst tagged `tag:"name"` from src,
// descending into embedded structs.
func bindTagged(dst any, tag string, src lookup) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind %s: want a pointer to struct, got %T", tag, dst)
	}
	return bindFields(v.Elem(), tag, src)
}

func bindFields(v reflect.Value, tag string, src lookup) error {
	t := v.Type()
	for i := range t.NumField() {
		sf, field := t.Field(i), v.Field(i)
		if sf.Anonymous && field.Kind() == reflect.Struct {
			if err := bindFields(field, tag, src); err != nil {
				return err
			}
			continue
		}
		name := sf.Tag.Get(tag)
		if name == "" || name == "-" || !field.CanSet() {
			continue
		}
		value, err := src(name)
		if err != nil {
			return err
		}
		// named string kinds such as models.ObjectID
		if s, ok := value.(string); ok && field.Kind() == reflect.String {
			field.SetString(s)
			continue
		}
		if err := conv.Infer(field, value); err != nil {
			return fmt.Errorf("%s %q: cannot use %v as %s", tag, name, value, field.Type())
		}
	}
	return nil
}
