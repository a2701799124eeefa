package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/phanxgames/comet"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// envelope is the wire format for stream messages.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type streamDone struct {
	Frames int `json:"frames"`
}

// errClientGone stops a replay whose client disconnected.
var errClientGone = errors.New("client disconnected")

// handleStream upgrades to a websocket and sends one "frame" message per
// replayed frame, paced at dt, followed by a "done" message.
func (s *Server) handleStream(c *gin.Context) {
	script, dt, ok := s.loadReplay(c)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	remote := c.ClientIP()

	// Reads only detect the disconnect; clients send nothing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var tick <-chan time.Time
	if !s.unpaced {
		t := time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer t.Stop()
		tick = t.C
	}

	sent := 0
	err = comet.ReplayFunc(script, s.cfg, dt, func(f comet.Frame) error {
		if tick != nil {
			select {
			case <-tick:
			case <-gone:
				return errClientGone
			}
		}
		if err := s.write(conn, envelope{Type: "frame", Data: f}); err != nil {
			return err
		}
		sent++
		return nil
	})
	if err != nil {
		s.logger.Info("ws stream ended early", "remote_addr", remote, "frames", sent, "error", err)
		return
	}
	if err := s.write(conn, envelope{Type: "done", Data: streamDone{Frames: sent}}); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	s.logger.Info("ws stream complete", "remote_addr", remote, "frames", sent)
}

func (s *Server) write(conn *websocket.Conn, msg envelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
