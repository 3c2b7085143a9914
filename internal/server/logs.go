package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devbridge/internal/bridge"
	"devbridge/internal/logstream"
)

// logsHandler streams device log entries as Server-Sent Events until the
// client goes away or the listener exits.
func (s *Server) logsHandler(c *gin.Context) {
	kind, err := bridge.ParseDeviceKind(c.Query("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	b, err := s.current()
	if err != nil {
		writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	l, err := b.StartLogListener(ctx, c.Param("udid"), kind)
	if err != nil {
		writeError(c, err)
		return
	}
	defer func() { _ = l.Stop() }()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("status", gin.H{"state": "connected", "structured": l.Structured})
	c.Writer.Flush()

	err = logstream.Decode(ctx, l.Stdout(), l.Structured, func(e logstream.Entry) error {
		c.SSEvent("log", e)
		c.Writer.Flush()
		return nil
	})
	if err == nil {
		err = l.Wait()
	}
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.Warn("log stream ended", "udid", l.Device.ID, "err", err)
		c.SSEvent("error", writeErrorBody(err))
	} else {
		c.SSEvent("status", gin.H{"state": "ended"})
	}
	c.Writer.Flush()
}

func writeErrorBody(err error) gin.H {
	body := errJSON(err)
	body["status"] = statusFor(err)
	return body
}
