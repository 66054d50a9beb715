package http

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"prep-quiz-service/internal/app"
	"prep-quiz-service/internal/domain"
	"prep-quiz-service/internal/session"
)

// QuizHandler drives one quiz attempt over a websocket: the server ticks the
// countdown, the client navigates and answers, and the finished result (plus
// feedback, when the collaborator delivers) comes back on the same socket.
type QuizHandler struct {
	service  *app.AttemptService
	log      *zap.Logger
	upgrader websocket.Upgrader

	feedbackTimeout time.Duration
}

func NewQuizHandler(service *app.AttemptService, log *zap.Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		feedbackTimeout: 15 * time.Second,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Option     string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionView is the client-facing question shape; the correct answer
// never crosses the wire while the session is live.
type questionView struct {
	ID        string   `json:"id"`
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	Category  string   `json:"category"`
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	Remaining int      `json:"remaining"`
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type finishedPayload struct {
	TimedOut bool          `json:"timedOut"`
	Result   domain.Result `json:"result"`
}

// ServeWS upgrades the request and runs the attempt until it finishes or the
// client goes away.
func (h *QuizHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	name := r.URL.Query().Get("name")
	if quizID == "" || userID == "" || name == "" {
		http.Error(w, "missing quizId, userId, or name", http.StatusBadRequest)
		return
	}
	profile := domain.Profile{
		DisplayName: name,
		State:       r.URL.Query().Get("state"),
		AvatarURL:   r.URL.Query().Get("avatar"),
	}
	if age, err := strconv.Atoi(r.URL.Query().Get("age")); err == nil {
		profile.Age = age
	}
	subCategory := r.URL.Query().Get("subCategory")

	var sessionOpts []session.Option
	if r.URL.Query().Get("mode") == "practice" {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		sessionOpts = append(sessionOpts, session.WithSelector(session.RandomDraw(rnd)))
	}
	if r.URL.Query().Get("lockAnswers") == "true" {
		sessionOpts = append(sessionOpts, session.WithLockAfterAnswer())
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sess, quiz, err := h.service.Start(r.Context(), quizID, sessionOpts...)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	trySend := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	var finishOnce sync.Once
	var feedbackWG sync.WaitGroup
	finish := func(timedOut bool) {
		finishOnce.Do(func() {
			result := h.service.CompleteFiltered(context.Background(), userID, profile, quiz.Title, sess.Summary(), subCategory)
			trySend(outboundMessage[any]{Type: "finished", Payload: finishedPayload{TimedOut: timedOut, Result: result}})

			feedbackWG.Add(1)
			go func() {
				defer feedbackWG.Done()
				ctx, cancel := context.WithTimeout(context.Background(), h.feedbackTimeout)
				defer cancel()
				fb, err := h.service.Feedback(ctx, profile, result)
				if err != nil {
					trySend(outboundMessage[any]{Type: "feedbackUnavailable", Payload: errorPayload{Message: "feedback unavailable"}})
					return
				}
				trySend(outboundMessage[any]{Type: "feedback", Payload: fb})
			}()
		})
	}

	countdown := session.StartCountdown(sess, time.Second, func(timedOut bool) {
		trySend(outboundMessage[any]{Type: "tick", Payload: tickPayload{Remaining: 0}})
		finish(timedOut)
	})
	defer countdown.Stop()

	trySend(outboundMessage[any]{Type: "question", Payload: h.currentQuestion(sess)})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if err := sess.SelectAnswer(payload.QuestionID, payload.Option); err != nil {
				trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		case "next":
			if err := sess.Advance(); err != nil {
				trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			if sess.Finished() {
				// Linear sessions finish by walking off the end.
				finish(false)
				continue
			}
			trySend(outboundMessage[any]{Type: "question", Payload: h.currentQuestion(sess)})
		case "prev":
			if err := sess.Retreat(); err != nil {
				trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			trySend(outboundMessage[any]{Type: "question", Payload: h.currentQuestion(sess)})
		case "skip":
			if err := sess.Skip(); err != nil {
				trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			if sess.Finished() {
				finish(false)
				continue
			}
			trySend(outboundMessage[any]{Type: "question", Payload: h.currentQuestion(sess)})
		case "finish":
			sess.Finish()
			finish(false)
		default:
			trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	// Abandoning mid-attempt cancels the countdown without scoring.
	// Stop waits for the timer goroutine, so nothing can write to send
	// once it returns; finished attempts also flush feedback first.
	countdown.Stop()
	if sess.Finished() {
		feedbackWG.Wait()
	}
	close(send)
	<-writerDone
}

func (h *QuizHandler) currentQuestion(sess *session.Session) questionView {
	q := sess.Current()
	idx, total := sess.Position()
	return questionView{
		ID:        q.ID,
		Index:     idx,
		Total:     total,
		Category:  q.Category,
		Text:      q.Text,
		Options:   q.Options,
		Remaining: sess.Remaining(),
	}
}
