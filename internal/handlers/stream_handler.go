package handlers

import (
	"github.com/anonto42/nano-midea/chat/internal/live"
	"github.com/anonto42/nano-midea/chat/pkg/logger"
	"github.com/anonto42/nano-midea/chat/pkg/metrics"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Stream serves new room messages as Server-Sent Events.
// Query: after_id resumes after a known message; omitted starts at the latest.
func (h *RoomHandler) Stream(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roomID, err := uintParam(c, "room_id")
	if err != nil {
		return err
	}
	afterID, err := optionalUintQuery(c, "after_id")
	if err != nil {
		return err
	}

	connID := uuid.NewString()
	log := logger.Log.With(zap.String("conn", connID), zap.Uint("room_id", roomID), zap.String("transport", "sse"))
	metrics.OpenStreams.WithLabelValues("sse").Inc()
	defer metrics.OpenStreams.WithLabelValues("sse").Dec()

	sink := live.NewSSESink(c)
	log.Debug("stream opened")
	err = h.poller.Run(c.Request().Context(), id, roomID, afterID, sink)
	if err != nil && !sink.Started() {
		return toHTTPError(c, err)
	}
	if err != nil {
		log.Debug("stream ended", zap.Error(err))
		return nil
	}
	log.Debug("stream closed")
	return nil
}

// WebSocket serves the same feed as Stream over a WebSocket connection.
// The connection is push-only; client frames other than control frames are
// ignored.
func (h *RoomHandler) WebSocket(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roomID, err := uintParam(c, "room_id")
	if err != nil {
		return err
	}
	afterID, err := optionalUintQuery(c, "after_id")
	if err != nil {
		return err
	}
	// Reject missing rooms with a plain HTTP error before upgrading.
	if _, err := h.service.LatestMessageID(c.Request().Context(), id, roomID); err != nil {
		return toHTTPError(c, err)
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: h.wsInsecureSkipVerify,
	})
	if err != nil {
		return nil // Accept already wrote the error response
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	connID := uuid.NewString()
	log := logger.Log.With(zap.String("conn", connID), zap.Uint("room_id", roomID), zap.String("transport", "ws"))
	metrics.OpenStreams.WithLabelValues("ws").Inc()
	defer metrics.OpenStreams.WithLabelValues("ws").Dec()

	// CloseRead processes control frames and cancels ctx when the client goes away.
	ctx := conn.CloseRead(c.Request().Context())
	if err := h.poller.Run(ctx, id, roomID, afterID, live.NewWSSink(ctx, conn)); err != nil {
		log.Debug("stream ended", zap.Error(err))
		_ = conn.Close(websocket.StatusInternalError, "stream failed")
		return nil
	}
	log.Debug("stream closed")
	return nil
}
