package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/chime/internal/models"
)

type enabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type playRequest struct {
	Path   string `json:"path" binding:"required"`
	Volume *int   `json:"volume" binding:"required"`
}

func (s *Server) listSchedules(c *gin.Context) {
	records, err := s.svc.ListSchedules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []models.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) createSchedule(c *gin.Context) {
	var in models.WireScheduleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	rec, err := s.svc.CreateSchedule(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) updateSchedule(c *gin.Context) {
	var patch models.WireSchedulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	rec, err := s.svc.UpdateSchedule(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteSchedule(c *gin.Context) {
	if err := s.svc.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleSchedule(c *gin.Context) {
	var req enabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rec, err := s.svc.ToggleScheduleEnabled(c.Request.Context(), c.Param("id"), *req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) playAudio(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.svc.PlayAudio(c.Request.Context(), req.Path, *req.Volume); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) stopAudio(c *gin.Context) {
	if err := s.svc.StopAudio(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.svc.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) updateSettings(c *gin.Context) {
	var patch models.WireSettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	settings, err := s.svc.UpdateSettings(c.Request.Context(), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) setLaunchAtLogin(c *gin.Context) {
	var req enabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.svc.SetLaunchAtLogin(c.Request.Context(), *req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
