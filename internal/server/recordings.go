package server

import (
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"devbridge/internal/bridge"
)

var errRecordingNotFound = errors.New("recording not found")

type recordingInfo struct {
	ID         string    `json:"id"`
	Device     string    `json:"device"`
	OutputPath string    `json:"outputPath"`
	Family     string    `json:"family"`
	StartedAt  time.Time `json:"startedAt"`
}

type activeRecording struct {
	info recordingInfo
	rec  *bridge.Recording
}

// registry tracks recordings started over HTTP until they are stopped.
type registry struct {
	mu   sync.Mutex
	recs map[string]*activeRecording
}

func newRegistry() *registry {
	return &registry{recs: map[string]*activeRecording{}}
}

func (r *registry) add(a *activeRecording) {
	r.mu.Lock()
	r.recs[a.info.ID] = a
	r.mu.Unlock()
}

func (r *registry) remove(id string) (*activeRecording, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.recs[id]
	if ok {
		delete(r.recs, id)
	}
	return a, ok
}

func (r *registry) list() []recordingInfo {
	r.mu.Lock()
	out := make([]recordingInfo, 0, len(r.recs))
	for _, a := range r.recs {
		out = append(out, a.info)
	}
	r.mu.Unlock()
	slices.SortFunc(out, func(a, b recordingInfo) int { return a.StartedAt.Compare(b.StartedAt) })
	return out
}

func (r *registry) stopAll(logger *log.Logger) {
	r.mu.Lock()
	recs := r.recs
	r.recs = map[string]*activeRecording{}
	r.mu.Unlock()
	for id, a := range recs {
		if err := a.rec.Stop(); err != nil {
			logger.Warn("recording did not stop cleanly", "id", id, "err", err)
		}
	}
}

func (s *Server) startRecordingHandler(c *gin.Context) {
	var in struct {
		OutputPath string `json:"outputPath" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errJSON(err))
		return
	}
	b, err := s.current()
	if err != nil {
		writeError(c, err)
		return
	}
	// The recording outlives this request.
	rec, err := b.RecordVideo(s.base, c.Param("udid"), in.OutputPath)
	if err != nil {
		writeError(c, err)
		return
	}
	a := &activeRecording{
		info: recordingInfo{
			ID:         uuid.NewString(),
			Device:     rec.Device.ID,
			OutputPath: rec.OutputPath,
			Family:     b.Family().String(),
			StartedAt:  time.Now(),
		},
		rec: rec,
	}
	s.recs.add(a)
	s.logger.Info("recording started", "id", a.info.ID, "udid", a.info.Device, "out", a.info.OutputPath)
	c.JSON(http.StatusCreated, a.info)
}

func (s *Server) listRecordingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.recs.list())
}

func (s *Server) stopRecordingHandler(c *gin.Context) {
	a, ok := s.recs.remove(c.Param("id"))
	if !ok {
		writeError(c, errRecordingNotFound)
		return
	}
	if err := a.rec.Stop(); err != nil {
		writeError(c, err)
		return
	}
	s.logger.Info("recording stopped", "id", a.info.ID, "out", a.info.OutputPath)
	c.JSON(http.StatusOK, a.info)
}
