package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectMessageFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/dm/conversations", &alice, models.OpenConversationRequest{Email: bob.Email})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var opened chat.ConversationView
	data(t, rec, &opened)
	require.NotEmpty(t, opened.ConversationID)
	assert.Equal(t, bob.Email, opened.Other.Email)
	assert.Empty(t, opened.Messages)

	rec = s.do(t, http.MethodPost, "/api/v1/dm/conversations", &bob, models.OpenConversationRequest{Email: alice.Email})
	var reopened chat.ConversationView
	data(t, rec, &reopened)
	assert.Equal(t, opened.ConversationID, reopened.ConversationID)

	msgPath := fmt.Sprintf("/api/v1/dm/conversations/%s/messages", opened.ConversationID)
	rec = s.do(t, http.MethodPost, msgPath, &alice, models.SendDirectMessageRequest{Body: "hi bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, msgPath, &bob, nil)
	var page struct {
		Messages []models.DirectMessage `json:"messages"`
	}
	data(t, rec, &page)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "hi bob", page.Messages[0].Body)

	rec = s.do(t, http.MethodGet, msgPath, &carol, nil)
	requireError(t, rec, http.StatusForbidden, chat.KindForbidden)

	rec = s.do(t, http.MethodPost, msgPath, &carol, models.SendDirectMessageRequest{Body: "let me in"})
	requireError(t, rec, http.StatusForbidden, chat.KindForbidden)

	rec = s.do(t, http.MethodGet, "/api/v1/dm/conversations", &bob, nil)
	var listed struct {
		Conversations []chat.ConversationSummary `json:"conversations"`
	}
	data(t, rec, &listed)
	require.Len(t, listed.Conversations, 1)
	require.NotNil(t, listed.Conversations[0].LastMessage)
	assert.Equal(t, "hi bob", listed.Conversations[0].LastMessage.Body)
	assert.Equal(t, alice.Email, listed.Conversations[0].Other.Email)
}

func TestOpenConversationRejects(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/dm/conversations", &alice, models.OpenConversationRequest{Email: "not-an-email"})
	body := requireError(t, rec, http.StatusBadRequest, chat.KindValidation)
	assert.Contains(t, body.Message, "email")

	rec = s.do(t, http.MethodPost, "/api/v1/dm/conversations", &alice, models.OpenConversationRequest{Email: alice.Email})
	requireError(t, rec, http.StatusBadRequest, chat.KindValidation)

	rec = s.do(t, http.MethodPost, "/api/v1/dm/conversations", &alice, models.OpenConversationRequest{Email: "ghost@example.com"})
	requireError(t, rec, http.StatusNotFound, chat.KindNotFound)

	rec = s.do(t, http.MethodGet, "/api/v1/dm/conversations/no-such-id/messages", &alice, nil)
	requireError(t, rec, http.StatusNotFound, chat.KindNotFound)
}

func TestNotificationsForDirectMessage(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/dm/conversations", &alice, models.OpenConversationRequest{Email: bob.Email})
	var opened chat.ConversationView
	data(t, rec, &opened)
	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/dm/conversations/%s/messages", opened.ConversationID), &alice,
		models.SendDirectMessageRequest{Body: "see you at noon"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/notifications", &bob, nil)
	var listed struct {
		Notifications []EnrichedNotification `json:"notifications"`
	}
	data(t, rec, &listed)
	require.Len(t, listed.Notifications, 1)
	n := listed.Notifications[0]
	assert.Equal(t, models.NotificationDM, n.Type)
	assert.Equal(t, chat.ConversationLink(opened.ConversationID), n.Link)
	require.NotNil(t, n.Actor)
	assert.Equal(t, "Alice", n.Actor.Name)

	var count struct {
		Count int64 `json:"count"`
	}
	rec = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", &bob, nil)
	data(t, rec, &count)
	assert.Equal(t, int64(1), count.Count)

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/read", n.ID), &carol, nil)
	requireError(t, rec, http.StatusNotFound, chat.KindNotFound)

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/read", n.ID), &bob, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", &bob, nil)
	data(t, rec, &count)
	assert.Equal(t, int64(0), count.Count)

	rec = s.do(t, http.MethodGet, "/api/v1/notifications", &alice, nil)
	data(t, rec, &listed)
	assert.Empty(t, listed.Notifications)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	s := newTestServer(t)
	room := s.createRoom(t, "general")
	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/rooms/%d/messages", room), &alice,
			models.PostMessageRequest{Body: fmt.Sprintf("@bob ping %d", i)})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var count struct {
		Count int64 `json:"count"`
	}
	rec := s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", &bob, nil)
	data(t, rec, &count)
	assert.Equal(t, int64(3), count.Count)

	rec = s.do(t, http.MethodPut, "/api/v1/notifications/read-all", &bob, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", &bob, nil)
	data(t, rec, &count)
	assert.Equal(t, int64(0), count.Count)
}
