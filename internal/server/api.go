package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"devbridge/internal/app"
	"devbridge/internal/bridge"
	appver "devbridge/internal/version"
)

func (s *Server) mountAPI(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": appver.AppVersion})
	})
	api.GET("/bridge", s.bridgeHandler)
	api.GET("/doctor", s.doctorHandler)

	dev := api.Group("/devices/:udid")
	dev.POST("/screenshot", s.screenshotHandler)
	dev.POST("/navigate", s.navigateHandler)
	dev.GET("/logs", s.logsHandler)
	dev.POST("/recordings", s.startRecordingHandler)

	api.GET("/recordings", s.listRecordingsHandler)
	api.DELETE("/recordings/:id", s.stopRecordingHandler)
}

func (s *Server) bridgeHandler(c *gin.Context) {
	b, err := s.current()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"family": b.Family(), "toolPath": b.ToolPath()})
}

func (s *Server) doctorHandler(c *gin.Context) {
	c.JSON(http.StatusOK, app.Diagnose(c.Request.Context(), *s.cfg.Load(), s.configPath))
}

func (s *Server) screenshotHandler(c *gin.Context) {
	b, err := s.current()
	if err != nil {
		writeError(c, err)
		return
	}
	png, err := app.CaptureScreenshot(c.Request.Context(), b, c.Param("udid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) navigateHandler(c *gin.Context) {
	var in struct {
		URL string `json:"url" binding:"required"`
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
	if err := b.Navigate(c.Request.Context(), c.Param("udid"), in.URL); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// statusFor maps bridge errors onto HTTP status codes.
func statusFor(err error) int {
	var exitErr *bridge.ExitError
	var spawnErr *bridge.SpawnError
	switch {
	case errors.Is(err, bridge.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrNoToolchainAvailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &exitErr):
		return http.StatusBadGateway
	case errors.As(err, &spawnErr):
		return http.StatusInternalServerError
	case errors.Is(err, errRecordingNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	body := errJSON(err)
	var exitErr *bridge.ExitError
	if errors.As(err, &exitErr) {
		body["exitCode"] = exitErr.Code
		body["stderr"] = exitErr.Stderr
	}
	c.JSON(statusFor(err), body)
}

func errJSON(err error) gin.H { return gin.H{"error": err.Error()} }
