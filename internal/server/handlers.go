package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"plate-go/internal/plate"
)

// snapshot is the body of every successful tracker response.
type snapshot struct {
	State   plate.State   `json:"state"`
	Summary plate.Summary `json:"summary"`
}

// entryResponse adds the confirmed or deleted entry to a snapshot.
type entryResponse struct {
	snapshot
	Entry plate.FoodEntry `json:"entry"`
}

func (s *Server) snapshot() snapshot {
	st := s.tracker.State()
	return snapshot{State: st, Summary: plate.Summarize(st)}
}

func (s *Server) ok(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) getState(c *gin.Context) {
	s.ok(c)
}

type startCaptureRequest struct {
	Mode plate.CaptureMode `json:"mode"`
}

func (s *Server) startCapture(c *gin.Context) {
	req := startCaptureRequest{Mode: plate.ModeCamera}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	if err := s.tracker.StartCapture(c.Request.Context(), req.Mode); err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c)
}

func (s *Server) stopCapture(c *gin.Context) {
	s.tracker.StopCapture()
	s.ok(c)
}

func (s *Server) captureFrame(c *gin.Context) {
	if _, err := s.tracker.CaptureFrame(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c)
}

// submitImage treats the raw request body as a captured frame.
func (s *Server) submitImage(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes+1))
	if err != nil {
		badRequest(c, "reading image")
		return
	}
	if len(data) > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}
	frame := plate.Frame{Data: data, MIMEType: c.ContentType()}
	if _, err := s.tracker.SubmitImage(c.Request.Context(), frame); err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c)
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if _, err := s.tracker.SubmitText(c.Request.Context(), req.Query); err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c)
}

func (s *Server) editEntry(c *gin.Context) {
	if _, err := s.tracker.EditEntry(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c)
}

type servingsRequest struct {
	Servings *float64 `json:"servings"`
}

func (s *Server) setServings(c *gin.Context) {
	var req servingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Servings == nil {
		badRequest(c, "servings is required")
		return
	}
	if _, err := s.tracker.SetServings(*req.Servings); err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c)
}

func (s *Server) reviseDraft(c *gin.Context) {
	var rev plate.DraftRevision
	if err := c.ShouldBindJSON(&rev); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if _, err := s.tracker.Revise(rev); err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c)
}

type confirmRequest struct {
	MealType string `json:"mealType"`
}

func (s *Server) confirmDraft(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	mt, err := plate.ParseMealType(req.MealType)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	entry, err := s.tracker.Confirm(mt)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entryResponse{snapshot: s.snapshot(), Entry: entry})
}

func (s *Server) discardDraft(c *gin.Context) {
	if err := s.tracker.Discard(); err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c)
}

func (s *Server) deleteEntry(c *gin.Context) {
	removed, err := s.tracker.Delete()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entryResponse{snapshot: s.snapshot(), Entry: removed})
}

type waterRequest struct {
	Amount int `json:"amount"`
}

func (s *Server) logWater(c *gin.Context) {
	var req waterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if _, err := s.tracker.LogWater(req.Amount); err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c)
}

func (s *Server) resetWater(c *gin.Context) {
	s.tracker.ResetWater()
	s.ok(c)
}

type stepsRequest struct {
	Steps *int `json:"steps"`
}

func (s *Server) setSteps(c *gin.Context) {
	var req stepsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Steps == nil {
		badRequest(c, "steps is required")
		return
	}
	if err := s.tracker.SetSteps(*req.Steps); err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c)
}

func (s *Server) export(c *gin.Context) {
	rec, err := s.reports.Export(c.Request.Context(), s.tracker.Report())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) listExports(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, fmt.Sprintf("invalid limit: %q", v))
			return
		}
		limit = n
	}
	recs, err := s.reports.History(limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if recs == nil {
		recs = []*plate.ExportRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"exports": recs})
}
