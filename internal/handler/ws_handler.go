package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/oaib/exam-backend/internal/metrics"
	"github.com/oaib/exam-backend/internal/middleware"
	"github.com/oaib/exam-backend/internal/model"
	"github.com/oaib/exam-backend/internal/response"
	"github.com/oaib/exam-backend/internal/service"
	ws "github.com/oaib/exam-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// actionTimeout bounds the service call behind one WebSocket message.
const actionTimeout = 10 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler serves the candidate session stream.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/candidate/sessions/:id/stream?token=
// Carries answer, tab_switch, finish and ping actions for one in-progress session.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := paramID(c, "id")
	if !ok {
		return
	}

	// Reject before upgrading so the client gets a plain HTTP error.
	if _, err := h.sessionService.GetPaper(c.Request.Context(), claims.UserID, sessionID); err != nil {
		failFromError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	wsLog := h.log.With().
		Int64("candidate_id", claims.UserID).
		Int64("session_id", sessionID).
		Logger()
	wsLog.Info().Msg("Candidate connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if done := h.dispatch(conn, wsLog, claims.UserID, sessionID, msg); done {
			return
		}
	}
}

// dispatch handles one message. It reports true once the session is finished.
func (h *WSHandler) dispatch(conn *websocket.Conn, log zerolog.Logger, candidateID, sessionID int64, msg ws.RequestPayload) bool {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch msg.Action {
	case ws.ActionAnswer:
		answer, err := h.sessionService.SubmitAnswer(ctx, candidateID, sessionID, model.SubmitAnswerRequest{
			QuestionID: msg.QuestionID,
			OptionID:   msg.OptionID,
			IsFlagged:  msg.IsFlagged,
		})
		if err != nil {
			h.writeServiceError(conn, log, err)
			return false
		}
		_ = ws.WriteTyped(conn, ws.AnsweredResponse{Event: ws.EventAnswered, Answer: *answer})

	case ws.ActionTabSwitch:
		if err := h.sessionService.RecordTabSwitch(ctx, candidateID, sessionID); err != nil {
			h.writeServiceError(conn, log, err)
			return false
		}
		_ = ws.WriteTyped(conn, ws.EventResponse{Event: ws.EventRecorded})

	case ws.ActionFinish:
		sess, err := h.sessionService.Finish(ctx, candidateID, sessionID)
		if err != nil {
			h.writeServiceError(conn, log, err)
			return false
		}
		log.Info().Int("score", sess.Score).Float64("percentage", sess.Percentage).Msg("Session finished over WebSocket")
		_ = ws.WriteTyped(conn, ws.FinishedResponse{Event: ws.EventFinished, Session: *sess})
		return true

	case ws.ActionPing:
		_ = ws.WriteTyped(conn, ws.EventResponse{Event: ws.EventPong})

	default:
		log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		_ = ws.WriteError(conn, string(response.ErrInvalidPayload), "action inconnue : "+string(msg.Action))
	}
	return false
}

// writeServiceError reports a service error as an error event, keeping the
// same codes the HTTP surface uses.
func (h *WSHandler) writeServiceError(conn *websocket.Conn, log zerolog.Logger, err error) {
	code := wsErrorCode(err)
	if code == response.ErrInternal {
		log.Error().Err(err).Msg("WebSocket action failed")
	}
	_ = ws.WriteError(conn, string(code), response.GetMessage(code))
}

func wsErrorCode(err error) response.ErrCode {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, service.ErrValidation):
		return response.ErrValidation
	case errors.Is(err, service.ErrNotFound):
		return response.ErrNotFound
	case errors.Is(err, service.ErrConflict):
		return response.ErrConflict
	default:
		return response.ErrInternal
	}
}
