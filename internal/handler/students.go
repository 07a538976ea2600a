package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/model"
	"classattend/internal/notify"
)

type registerStudentRequest struct {
	Name            string `json:"name" binding:"required"`
	AdmissionNumber string `json:"admission_number" binding:"required"`
}

// RegisterStudent creates a student. When a session is running the student
// also gets a pending attendance row with a fresh code.
func (h *Handler) RegisterStudent(c *gin.Context) {
	var req registerStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	student, err := h.svc.RegisterStudent(c.Request.Context(), req.Name, req.AdmissionNumber)
	if err != nil {
		fail(c, err)
		return
	}

	h.hub.Broadcast(notify.EventRosterChanged)
	c.JSON(http.StatusCreated, student)
}

// ListStudents returns every registered student.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.store.ListStudents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if students == nil {
		students = []model.Student{}
	}
	c.JSON(http.StatusOK, students)
}

// GetStudent returns one student by id.
func (h *Handler) GetStudent(c *gin.Context) {
	student, err := h.store.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	c.JSON(http.StatusOK, student)
}

// DeleteStudent removes a student and, via cascade, their attendance rows.
func (h *Handler) DeleteStudent(c *gin.Context) {
	ok, err := h.store.DeleteStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	h.hub.Broadcast(notify.EventRosterChanged)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// StudentHistory returns a student's attendance rows across past lessons.
func (h *Handler) StudentHistory(c *gin.Context) {
	student, err := h.store.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	recs, err := h.store.StudentHistory(c.Request.Context(), student.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []model.AttendanceRecord{}
	}
	for i := range recs {
		recs[i].Code = ""
	}
	c.JSON(http.StatusOK, gin.H{"student": student, "history": recs})
}
