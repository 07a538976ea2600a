package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/model"
	"classattend/internal/notify"
)

type createUnitRequest struct {
	Name     string `json:"name" binding:"required"`
	Lecturer string `json:"lecturer"`
}

// CreateUnit registers a course unit.
func (h *Handler) CreateUnit(c *gin.Context) {
	var req createUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit := &model.Unit{Name: req.Name, Lecturer: req.Lecturer}
	if err := h.store.CreateUnit(c.Request.Context(), unit); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.hub.Broadcast(notify.EventRosterChanged)
	c.JSON(http.StatusCreated, unit)
}

// ListUnits returns every unit.
func (h *Handler) ListUnits(c *gin.Context) {
	units, err := h.store.ListUnits(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if units == nil {
		units = []model.Unit{}
	}
	c.JSON(http.StatusOK, units)
}

// DeleteUnit removes a unit; its lessons and their attendance cascade away.
func (h *Handler) DeleteUnit(c *gin.Context) {
	ok, err := h.store.DeleteUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unit not found"})
		return
	}
	h.hub.Broadcast(notify.EventRosterChanged)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListLessons returns lesson history, optionally filtered by unit.
func (h *Handler) ListLessons(c *gin.Context) {
	lessons, err := h.store.ListLessons(c.Request.Context(), c.Query("unit_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if lessons == nil {
		lessons = []model.Lesson{}
	}
	for i := range lessons {
		lessons[i].LecturerOTP = ""
	}
	c.JSON(http.StatusOK, lessons)
}
