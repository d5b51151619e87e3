package live

const (
	EventOpen    = "open"
	EventMessage = "message"
	EventError   = "error"
	EventClosed  = "closed"
)

// OpenPayload acknowledges a stream and names the id it resumes after.
type OpenPayload struct {
	RoomID  uint `json:"room_id"`
	AfterID uint `json:"after_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Frame is the WebSocket envelope; SSE carries the type in the event line.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
