package server

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/team-chat/internal/server/middleware"
	"github.com/nguyentranbao-ct/team-chat/internal/usecase"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// LiveHandler streams the authoritative live window of a channel over a
// websocket, one JSON LiveBatch per change.
type LiveHandler struct {
	chat     usecase.ChatUsecase
	upgrader websocket.Upgrader
}

func NewLiveHandler(conf *config.Config, chat usecase.ChatUsecase) *LiveHandler {
	origins := regexp.MustCompile(conf.Server.CORSPattern)
	return &LiveHandler{
		chat: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins.MatchString(origin)
			},
		},
	}
}

func (h *LiveHandler) Serve(c echo.Context) error {
	channelID := models.ObjectID(c.Param("id"))
	if !channelID.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid channel id")
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// access is checked before the upgrade so errors are plain HTTP responses
	batches, err := h.chat.Subscribe(ctx, pkgmdw.CurrentUser(c), channelID)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warnw(ctx, "websocket upgrade failed", "error", err)
		return nil
	}
	defer conn.Close()

	go h.readLoop(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case batch, ok := <-batches:
			if !ok {
				h.closeConn(conn, websocket.CloseNormalClosure, "")
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(batch); err != nil {
				log.Debugw(ctx, "live write failed", "channel_id", channelID, "error", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// readLoop only serves control frames; the stream is one-way.
func (h *LiveHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *LiveHandler) closeConn(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
