package websocket

import "github.com/oaib/exam-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer    Action = "answer"
	ActionTabSwitch Action = "tab_switch"
	ActionFinish    Action = "finish"
	ActionPing      Action = "ping"
)

// RequestPayload is every client message. Only answer uses the question fields.
type RequestPayload struct {
	Action     Action `json:"action"`
	QuestionID int64  `json:"question_id,omitempty"`
	OptionID   *int64 `json:"option_id,omitempty"`
	IsFlagged  bool   `json:"is_flagged,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventAnswered Event = "answered"
	EventRecorded Event = "recorded"
	EventFinished Event = "finished"
	EventPong     Event = "pong"
)

type AnsweredResponse struct {
	Event  Event                 `json:"event"`
	Answer model.CandidateAnswer `json:"answer"`
}

type FinishedResponse struct {
	Event   Event             `json:"event"`
	Session model.ExamSession `json:"session"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// EventResponse carries events without a body (recorded, pong).
type EventResponse struct {
	Event Event `json:"event"`
}
