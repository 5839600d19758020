package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"plate-go/internal/plate"
)

var statusByError = []struct {
	err    error
	status int
}{
	{plate.ErrAnalysisInFlight, http.StatusConflict},
	{plate.ErrDraftPending, http.StatusConflict},
	{plate.ErrNoDraft, http.StatusConflict},
	{plate.ErrNotEditing, http.StatusConflict},
	{plate.ErrInvalidTransition, http.StatusConflict},
	{plate.ErrKeysExist, http.StatusConflict},
	{plate.ErrEntryNotFound, http.StatusNotFound},
	{plate.ErrReportNotFound, http.StatusNotFound},
	{plate.ErrEstimationFailed, http.StatusUnprocessableEntity},
	{plate.ErrCameraUnavailable, http.StatusServiceUnavailable},
	{plate.ErrInvalidInput, http.StatusBadRequest},
	{plate.ErrInvalidServings, http.StatusBadRequest},
	{plate.ErrInvalidDraft, http.StatusBadRequest},
	{plate.ErrUnknownPreset, http.StatusBadRequest},
	{plate.ErrPassphraseRequired, http.StatusUnauthorized},
	{plate.ErrWrongPassphrase, http.StatusUnauthorized},
}

// statusFor maps a domain error to an HTTP status. Unknown errors are 500s.
func statusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
