package middleware

import (
	"context"
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
	"github.com/labstack/echo/v4"
)

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and resolves the caller
// profile by Firebase UID. Users without a profile row fall back to the
// email and name claims of the token.
func FirebaseAuthMiddleware(verifier TokenVerifier, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, problem := bearerToken(c)
			if problem != "" {
				return echo.NewHTTPError(http.StatusUnauthorized, problem)
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			var id models.Identity
			user, err := users.GetUserByFirebaseUID(ctx, token.UID)
			switch {
			case err == nil:
				id = models.IdentityFromUser(user)
			case errors.Is(err, repositories.ErrNotFound):
				email, _ := token.Claims["email"].(string)
				name, _ := token.Claims["name"].(string)
				id = models.Identity{Email: email, Name: name, Role: models.RoleMember}
			default:
				return echo.NewHTTPError(http.StatusInternalServerError, "Could not resolve user profile")
			}
			if id.Email == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token carries no email")
			}

			// Store the Firebase UID in the context for later use
			c.Set("firebaseUID", token.UID)
			SetIdentity(c, id)

			return next(c)
		}
	}
}
