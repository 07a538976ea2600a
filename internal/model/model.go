package model

import "time"

// Attendance row statuses. A row is created pending and transitions at most
// once, to present or absent. Present is terminal.
const (
	StatusPending = "pending"
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Student is an enrolled class member.
type Student struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	AdmissionNumber string    `json:"admission_number"`
	CreatedAt       time.Time `json:"created_at"`
}

// Unit is a course unit taught by a single lecturer.
type Unit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Lecturer  string    `json:"lecturer"`
	CreatedAt time.Time `json:"created_at"`
}

// Lesson is one class meeting. The most recently created lesson within the
// recency window is the active one; there is no explicit closed state.
type Lesson struct {
	ID              string     `json:"id"`
	UnitID          string     `json:"unit_id"`
	UnitName        string     `json:"unit_name,omitempty"` // joined from units
	Venue           string     `json:"venue"`
	DurationMin     int        `json:"duration_min"`
	ScheduledStart  string     `json:"scheduled_start"` // display only
	ScheduledEnd    string     `json:"scheduled_end"`   // display only
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	LecturerOTP     string     `json:"lecturer_otp,omitempty"`
	LecturerPresent bool       `json:"lecturer_present"`
	OTPEnabled      bool       `json:"otp_enabled"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AttendanceRecord links a student to a lesson with their issued code.
type AttendanceRecord struct {
	ID              string     `json:"id"`
	LessonID        string     `json:"lesson_id"`
	StudentID       string     `json:"student_id"`
	StudentName     string     `json:"student_name,omitempty"`     // joined from students
	AdmissionNumber string     `json:"admission_number,omitempty"` // joined from students
	Code            string     `json:"code,omitempty"`
	Status          string     `json:"status"`
	MarkedAt        *time.Time `json:"marked_at,omitempty"`
}

// Setting is a persisted key-value configuration entry.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
