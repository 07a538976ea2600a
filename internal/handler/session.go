package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/model"
	"classattend/internal/notify"
)

type startSessionRequest struct {
	UnitID         string `json:"unit_id" binding:"required"`
	Venue          string `json:"venue"`
	DurationMin    int    `json:"duration_min"`
	ScheduledStart string `json:"scheduled_start"`
	ScheduledEnd   string `json:"scheduled_end"`
}

// StartSession creates a lesson, mints the lecturer OTP and one code per
// registered student.
func (h *Handler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lesson, err := h.svc.Start(c.Request.Context(), req.UnitID, req.Venue,
		req.DurationMin, req.ScheduledStart, req.ScheduledEnd)
	if err != nil {
		fail(c, err)
		return
	}

	h.hub.Broadcast(notify.EventSessionStarted)
	c.JSON(http.StatusCreated, lesson)
}

// RestartSession wipes the active lesson's attendance and reissues codes.
func (h *Handler) RestartSession(c *gin.Context) {
	lesson, err := h.svc.Restart(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	h.hub.Broadcast(notify.EventSessionRestarted)
	c.JSON(http.StatusOK, lesson)
}

// EnableOTP opens code entry for the active lesson.
func (h *Handler) EnableOTP(c *gin.Context) {
	if err := h.svc.EnableOTP(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	h.hub.Broadcast(notify.EventOTPEnabled)
	c.JSON(http.StatusOK, gin.H{"otp_enabled": true})
}

// ActiveSession returns the active lesson and its roster. Polling this
// endpoint is what triggers the expiry sweep. Codes are stripped unless
// ?codes=1 is set (the representative dashboard view).
func (h *Handler) ActiveSession(c *gin.Context) {
	lesson, err := h.svc.Active(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if lesson == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	roster, err := h.svc.Roster(c.Request.Context(), lesson.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if roster == nil {
		roster = []model.AttendanceRecord{}
	}

	present, absent, pending := 0, 0, 0
	for _, rec := range roster {
		switch rec.Status {
		case model.StatusPresent:
			present++
		case model.StatusAbsent:
			absent++
		default:
			pending++
		}
	}

	if c.Query("codes") != "1" {
		lesson.LecturerOTP = ""
		for i := range roster {
			roster[i].Code = ""
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"lesson":     lesson,
		"roster":     roster,
		"window_sec": int(h.svc.Window().Seconds()),
		"summary":    gin.H{"present": present, "absent": absent, "pending": pending},
	})
}

type submitCodeRequest struct {
	AdmissionNumber string `json:"admission_number" binding:"required"`
	Code            string `json:"code" binding:"required"`
}

// SubmitCode marks a student present on an exact code match inside the window.
func (h *Handler) SubmitCode(c *gin.Context) {
	var req submitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.SubmitStudentCode(c.Request.Context(), req.AdmissionNumber, req.Code)
	if err != nil {
		fail(c, err)
		return
	}

	h.hub.Broadcast(notify.EventAttendanceMarked)
	rec.Code = ""
	c.JSON(http.StatusOK, rec)
}

type lecturerCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// LecturerVerify checks the shared lecturer OTP, single-shot per lesson.
func (h *Handler) LecturerVerify(c *gin.Context) {
	var req lecturerCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.SubmitLecturerCode(c.Request.Context(), req.Code); err != nil {
		fail(c, err)
		return
	}

	h.hub.Broadcast(notify.EventLecturerVerified)
	c.JSON(http.StatusOK, gin.H{"lecturer_present": true})
}

// LessonAttendance returns the stored roster of any past lesson.
func (h *Handler) LessonAttendance(c *gin.Context) {
	recs, err := h.store.ListByLesson(c.Request.Context(), c.Param("id"))
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
	c.JSON(http.StatusOK, recs)
}
