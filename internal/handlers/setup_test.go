package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/live"
	"github.com/anonto42/nano-midea/chat/internal/middleware"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories/memstore"
	"github.com/anonto42/nano-midea/chat/validators"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

var (
	alice = models.Identity{Email: "alice@example.com", Name: "Alice", Role: models.RoleMember}
	bob   = models.Identity{Email: "bob@example.com", Name: "Bob", Role: models.RoleMember}
	carol = models.Identity{Email: "carol@example.com", Name: "Carol", Role: models.RoleMember}
	mod   = models.Identity{Email: "mod@example.com", Name: "Mod", Role: models.RoleModerator}
)

type testServer struct {
	e     *echo.Echo
	store *memstore.Store
	svc   *chat.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	for _, id := range []models.Identity{alice, bob, carol, mod} {
		store.AddUser(models.User{Name: id.Name, Email: id.Email, Role: id.Role})
	}
	svc := chat.NewService(chat.Stores{
		Rooms:          store.Rooms(),
		Messages:       store.Messages(),
		Reactions:      store.Reactions(),
		ReadMarkers:    store.ReadMarkers(),
		Notifications:  store.Notifications(),
		Users:          store.Users(),
		Conversations:  store.Conversations(),
		DirectMessages: store.DirectMessages(),
		Moderation:     memstore.NewModerationLog(),
	})

	e := echo.New()
	e.Validator = validators.NewValidator()
	e.GET("/health", HealthCheck(nil))
	api := e.Group("/api/v1", middleware.JWTAuthMiddleware(testSecret))
	NewRoomHandler(svc, live.NewPoller(svc, 10*time.Millisecond), true).RegisterRoomRoutes(api)
	NewDMHandler(svc).RegisterDMRoutes(api)
	NewNotificationHandler(store.Notifications(), store.Users()).RegisterNotificationRoutes(api)

	return &testServer{e: e, store: store, svc: svc}
}

func token(t *testing.T, id models.Identity) string {
	t.Helper()
	claims := models.JwtCustomClaims{
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends a request as who (nil for anonymous) with an optional JSON body.
func (s *testServer) do(t *testing.T, method, path string, who *models.Identity, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if who != nil {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, *who))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// data decodes the "data" member of a success envelope into v.
func data(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.True(t, envelope.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}

type errorBody struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind chat.Kind) errorBody {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, string(kind), body.Kind)
	return body
}

func (s *testServer) createRoom(t *testing.T, name string) uint {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/rooms", &mod, models.CreateRoomRequest{Name: name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var room models.Room
	data(t, rec, &room)
	return room.ID
}
