package http

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

const wsWriteWait = 10 * time.Second

// ServeStats streams live attempt statistics for a quiz over a websocket.
// The first message is the current snapshot; every recorded attempt pushes
// a fresh one.
func (h *WSHandler) ServeStats(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "id")

	updates, cancel, err := h.service.SubscribeStats(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case stats, ok := <-updates:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(outboundMessage[domain.QuizStats]{Type: "stats", Payload: stats}); err != nil {
					log.Printf("ws write error: %v", err)
					// unblock the read loop below
					_ = conn.Close()
					return
				}
			case <-closed:
				return
			}
		}
	}()

	// Watchers never send anything meaningful; reading only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closed)
	<-writerDone
}
