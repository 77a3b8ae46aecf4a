package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mbti-quest/internal/flow"
	"mbti-quest/internal/questions"
	"mbti-quest/internal/scene"
	"mbti-quest/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Отправлять пинги клиенту с этим периодом. Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения, разрешенный от клиента.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS для /api открыт для всех, WebSocket ведёт себя так же
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsClient is one live connection bound to a quiz session.
type wsClient struct {
	conn    *websocket.Conn
	session *flow.Session
	send    chan []byte
	done    chan struct{}
	logger  *zap.Logger

	inputMu sync.Mutex
	input   scene.Input
}

func (cl *wsClient) setInput(in scene.Input) {
	cl.inputMu.Lock()
	cl.input = in
	cl.inputMu.Unlock()
}

func (cl *wsClient) currentInput() scene.Input {
	cl.inputMu.Lock()
	defer cl.inputMu.Unlock()
	return cl.input
}

// enqueue drops the frame when the client cannot keep up; the next state
// frame supersedes it anyway.
func (cl *wsClient) enqueue(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		cl.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}
	select {
	case cl.send <- data:
	case <-cl.done:
	default:
		cl.logger.Warn("WebSocket send queue is full, dropping frame", zap.String("type", msg.Type))
	}
}

func (cl *wsClient) pushState() {
	cl.enqueue(wsMessage{Type: "state", State: cl.session.State()})
}

// serveWS upgrades /ws/quiz/:id. The session must exist beforehand.
func (h *QuizHandler) serveWS(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader уже ответил клиенту
		h.logger.Error("Failed to upgrade connection", zap.String("handle", sess.Handle()), zap.Error(err))
		return
	}

	client := &wsClient{
		conn:    conn,
		session: sess,
		send:    make(chan []byte, 64),
		done:    make(chan struct{}),
		logger:  h.logger.With(zap.String("handle", sess.Handle())),
	}
	wsConnectionsActive.Inc()
	client.logger.Info("WebSocket connection established")

	client.pushState()
	go h.writePump(client)
	go h.readPump(client)
}

// readPump applies client commands to the session.
func (h *QuizHandler) readPump(cl *wsClient) {
	defer func() {
		close(cl.done)
		_ = cl.conn.Close()
		wsConnectionsActive.Dec()
		cl.logger.Info("readPump finished")
	}()
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				cl.logger.Warn("WebSocket read error", zap.Error(err))
			} else {
				cl.logger.Info("WebSocket connection closed (expected)")
			}
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			wsCommandsTotal.WithLabelValues("unknown", "invalid").Inc()
			cl.enqueue(wsMessage{Type: "error", Error: "invalid frame: " + err.Error()})
			continue
		}
		if err := h.validate.Struct(cmd); err != nil {
			wsCommandsTotal.WithLabelValues("unknown", "invalid").Inc()
			cl.enqueue(wsMessage{Type: "error", Error: "invalid command: " + err.Error()})
			continue
		}
		if err := h.applyCommand(cl, cmd); err != nil {
			wsCommandsTotal.WithLabelValues(cmd.Type, "rejected").Inc()
			_, msg := errorStatus(err)
			cl.enqueue(wsMessage{Type: "error", Error: msg})
			continue
		}
		wsCommandsTotal.WithLabelValues(cmd.Type, "ok").Inc()
	}
}

// applyCommand changes the session; the resulting state reaches the client
// through the session subscription.
func (h *QuizHandler) applyCommand(cl *wsClient, cmd wsCommand) error {
	s := cl.session
	switch cmd.Type {
	case "input":
		cl.setInput(cmd.Input)
		return nil
	case "start":
		return s.Start()
	case "interact":
		return s.Interact()
	case "close":
		s.Close()
		return nil
	case "choose":
		key, err := questions.ParseOptionKey(cmd.Option)
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
		return s.Choose(key)
	case "restart":
		cl.setInput(scene.Input{})
		s.Restart()
		return nil
	case "insight":
		return s.RequestInsight(cmd.Age)
	}
	return fmt.Errorf("%w: unknown command %q", models.ErrInvalidInput, cmd.Type)
}

// writePump runs the movement loop and writes frames, pings included.
func (h *QuizHandler) writePump(cl *wsClient) {
	updates, unsubscribe := cl.session.Subscribe()
	pinger := time.NewTicker(pingPeriod)
	ticker := time.NewTicker(h.tickInterval)
	defer func() {
		unsubscribe()
		pinger.Stop()
		ticker.Stop()
		_ = cl.conn.Close()
		cl.logger.Info("writePump finished")
	}()

	last := time.Now()
	moving := false
	for {
		select {
		case <-cl.done:
			return

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			in := cl.currentInput()
			// один шаг после отпускания клавиш, чтобы анимация вернулась в idle
			if !in.Idle() || moving {
				cl.session.Tick(in, dt)
				cl.pushState()
			}
			moving = !in.Idle()

		case <-updates:
			cl.pushState()

		case message := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				cl.logger.Warn("Failed to write message", zap.Error(err))
				return
			}

		case <-pinger.C:
			if _, err := h.sessions.Get(cl.session.Handle()); err != nil {
				cl.logger.Info("Session expired, closing WebSocket")
				_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = cl.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session expired"))
				return
			}
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.logger.Warn("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
