package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phanxgames/comet"
)

// maxScriptBytes bounds uploaded script documents.
const maxScriptBytes = 1 << 20

// Server serves the replay API: stored pointer scripts, their replayed
// frames, and a paced websocket stream of the same frames.
type Server struct {
	store  *Store
	cfg    comet.Config
	logger *slog.Logger

	// unpaced streams frames as fast as the client reads them.
	unpaced bool
}

// NewServer creates a server replaying scripts with cfg.
func NewServer(store *Store, cfg comet.Config, logger *slog.Logger) *Server {
	return &Server{store: store, cfg: cfg, logger: logger}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/scripts", s.handleCreate)
	r.GET("/scripts", s.handleList)
	r.DELETE("/scripts/:id", s.handleDelete)
	r.GET("/scripts/:id/frames", s.handleFrames)
	r.GET("/scripts/:id/stream", s.handleStream)
	return r
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"remote_addr", c.ClientIP())
	}
}

func (s *Server) handleCreate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxScriptBytes)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "script too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, script, err := s.store.Create(c.Query("name"), body)
	if err != nil {
		status := http.StatusInternalServerError
		if script == nil {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("script stored", "id", id, "steps", len(script.Steps))
	c.JSON(http.StatusCreated, gin.H{"id": id, "steps": len(script.Steps)})
}

func (s *Server) handleList(c *gin.Context) {
	infos, err := s.store.List()
	if err != nil {
		s.logger.Error("list scripts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.store.Delete(id); err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "script deleted"})
}

func (s *Server) handleFrames(c *gin.Context) {
	script, dt, ok := s.loadReplay(c)
	if !ok {
		return
	}
	frames, err := comet.Replay(script, s.cfg, dt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if frames == nil {
		frames = []comet.Frame{}
	}
	c.JSON(http.StatusOK, gin.H{"dt": dt, "frames": frames})
}

// loadReplay resolves the :id script and the dt query parameter, writing
// an error response and returning false on failure.
func (s *Server) loadReplay(c *gin.Context) (*comet.Script, float64, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, 0, false
	}
	dt := 1 / s.cfg.ReferenceHz
	if q := c.Query("dt"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || !(v > 0) || v > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dt must be in (0, 1]"})
			return nil, 0, false
		}
		dt = v
	}
	script, err := s.store.Get(id)
	if err != nil {
		s.storeError(c, err)
		return nil, 0, false
	}
	return script, dt, true
}

func (s *Server) storeError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("store failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid script id"})
		return 0, false
	}
	return id, true
}
