package middleware

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTAuthMiddleware checks for a valid HS256 JWT and sets the caller identity
// from its claims.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, problem := bearerToken(c)
			if problem != "" {
				return echo.NewHTTPError(http.StatusUnauthorized, problem)
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
				}
				return []byte(secret), nil
			})

			if err != nil {
				if errors.Is(err, jwt.ErrSignatureInvalid) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			if !token.Valid || claims.Email == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			role := claims.Role
			if role == "" {
				role = models.RoleMember
			}
			SetIdentity(c, models.Identity{Email: claims.Email, Name: claims.Name, Role: role})

			return next(c)
		}
	}
}
