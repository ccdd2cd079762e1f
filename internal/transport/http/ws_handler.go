package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"g1-quiz-service/internal/app"
	"g1-quiz-service/internal/domain"
	"g1-quiz-service/internal/quiz"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	defaults domain.QuizSettings
	upgrader websocket.Upgrader
}

// NewWSHandler builds the websocket handler. The defaults are the settings
// applied when a start message carries no overrides; they come from config.
func NewWSHandler(service *app.QuizService, defaults domain.QuizSettings) *WSHandler {
	return &WSHandler{
		service:  service,
		defaults: defaults,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Mode           domain.Mode `json:"mode"`
	TotalQuestions *int        `json:"totalQuestions,omitempty"`
	PassingScore   *int        `json:"passingScore,omitempty"`
}

type answerPayload struct {
	QuestionID int64  `json:"questionId"`
	Option     string `json:"option"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type questionView struct {
	ID       int64           `json:"id"`
	Text     string          `json:"text"`
	Category domain.Category `json:"category"`
	OptionA  string          `json:"optionA"`
	OptionB  string          `json:"optionB"`
	OptionC  string          `json:"optionC"`
	OptionD  string          `json:"optionD"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

type sessionView struct {
	Status          domain.Status       `json:"status"`
	Mode            domain.Mode         `json:"mode"`
	Progress        domain.QuizProgress `json:"progress"`
	CurrentQuestion *questionView       `json:"currentQuestion,omitempty"`
	CanSubmit       bool                `json:"canSubmit"`
	ErrorMessage    string              `json:"errorMessage,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz
// session operations. Each connection drives exactly one user's session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sender := newSender(16)

	go func() {
		defer close(sender.done)
		for msg := range sender.ch {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), userID, inbound, sender)
	}

	close(sender.ch)
	<-sender.done
}

// sender hands messages to the writer goroutine. Send never blocks past the
// writer's lifetime: once the writer exits on a write error, queued and
// future sends are dropped instead of wedging the read loop.
type sender struct {
	ch   chan outboundMessage[any]
	done chan struct{}
}

func newSender(buffer int) *sender {
	return &sender{
		ch:   make(chan outboundMessage[any], buffer),
		done: make(chan struct{}),
	}
}

func (s *sender) send(msg outboundMessage[any]) bool {
	select {
	case s.ch <- msg:
		return true
	case <-s.done:
		return false
	}
}

func (h *WSHandler) dispatch(ctx context.Context, userID string, inbound inboundMessage, out *sender) {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			out.send(errorMessage("invalid start payload"))
			return
		}
		if err := h.start(ctx, userID, payload); err != nil {
			out.send(errorMessage(err.Error()))
		}
		h.sendState(userID, out)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			out.send(errorMessage("invalid answer payload"))
			return
		}
		if err := h.service.Answer(ctx, userID, payload.QuestionID, payload.Option); err != nil {
			out.send(errorMessage(err.Error()))
			return
		}
		h.sendState(userID, out)
	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			out.send(errorMessage("invalid goto payload"))
			return
		}
		if session, ok := h.service.Session(userID); ok {
			session.GoToQuestion(payload.Index)
		}
		h.sendState(userID, out)
	case "next":
		if session, ok := h.service.Session(userID); ok {
			session.NextQuestion()
		}
		h.sendState(userID, out)
	case "prev":
		if session, ok := h.service.Session(userID); ok {
			session.PreviousQuestion()
		}
		h.sendState(userID, out)
	case "submit":
		attempt, err := h.service.Submit(ctx, userID)
		if err != nil {
			out.send(errorMessage(err.Error()))
			h.sendState(userID, out)
			return
		}
		out.send(outboundMessage[any]{Type: "result", Payload: attempt})
		h.sendState(userID, out)
	case "reset":
		if err := h.service.Reset(ctx, userID); err != nil {
			out.send(errorMessage(err.Error()))
			return
		}
		h.sendState(userID, out)
	case "state":
		h.sendState(userID, out)
	default:
		out.send(errorMessage("unsupported message type"))
	}
}

func (h *WSHandler) start(ctx context.Context, userID string, payload startPayload) error {
	settings := h.defaults
	if payload.TotalQuestions != nil {
		settings.TotalQuestions = *payload.TotalQuestions
	}
	if payload.PassingScore != nil {
		settings.PassingScore = *payload.PassingScore
	}

	switch payload.Mode {
	case domain.ModeSignsPractice:
		return h.service.StartPractice(ctx, userID, domain.CategorySigns, settings)
	case domain.ModeRulesPractice:
		return h.service.StartPractice(ctx, userID, domain.CategoryRules, settings)
	case domain.ModeSimulation:
		return h.service.StartSimulation(ctx, userID, settings)
	case domain.ModeReview:
		return h.service.StartReview(ctx, userID, settings)
	default:
		return fmt.Errorf("unknown mode %q", payload.Mode)
	}
}

func (h *WSHandler) sendState(userID string, out *sender) {
	session, ok := h.service.Session(userID)
	if !ok {
		out.send(errorMessage(domain.ErrSessionNotFound.Error()))
		return
	}
	out.send(outboundMessage[any]{Type: "session", Payload: viewOf(session)})
}

// viewOf projects the session for clients. The answer key and explanation
// stay server-side while a quiz is in flight.
func viewOf(session *quiz.Session) sessionView {
	view := sessionView{
		Status:       session.Status(),
		Mode:         session.Mode(),
		Progress:     session.Progress(),
		CanSubmit:    session.CanSubmit(),
		ErrorMessage: session.ErrorMessage(),
	}
	if q, ok := session.CurrentQuestion(); ok {
		view.CurrentQuestion = &questionView{
			ID:       q.ID,
			Text:     q.Text,
			Category: q.Category,
			OptionA:  q.OptionA,
			OptionB:  q.OptionB,
			OptionC:  q.OptionC,
			OptionD:  q.OptionD,
			ImageURL: q.ImageURL,
		}
	}
	return view
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
