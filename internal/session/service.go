// Package session implements the lesson lifecycle: OTP issuance on start,
// the submission window, the lazy pending->absent sweep, and restarts.
package session

import (
	"context"
	"errors"
	"time"

	"classattend/internal/model"
	"classattend/internal/otp"
	"classattend/internal/store"
)

var (
	ErrNoActiveLesson  = errors.New("no active session")
	ErrOTPDisabled     = errors.New("code entry is not enabled yet")
	ErrExpired         = errors.New("the submission window has closed")
	ErrInvalidCode     = errors.New("invalid code")
	ErrAlreadyMarked   = errors.New("attendance already marked")
	ErrAlreadyVerified = errors.New("lecturer already verified")
	ErrUnknownStudent  = errors.New("student not registered")
	ErrUnitNotFound    = errors.New("unit not found")
)

// Service coordinates lesson state over the store.
type Service struct {
	store        *store.Store
	window       time.Duration // how long after start_time submissions are accepted
	activeWindow time.Duration // how recent a lesson must be to count as active
	otpLength    int
	now          func() time.Time
}

// New creates a service. window is the submission window (20 minutes in
// production), activeWindow the lesson recency cutoff (24 hours).
func New(st *store.Store, window, activeWindow time.Duration, otpLength int) *Service {
	if window <= 0 {
		window = 20 * time.Minute
	}
	if activeWindow <= 0 {
		activeWindow = 24 * time.Hour
	}
	if otpLength <= 0 {
		otpLength = otp.DefaultLength
	}
	return &Service{
		store:        st,
		window:       window,
		activeWindow: activeWindow,
		otpLength:    otpLength,
		now:          time.Now,
	}
}

// Start creates a new lesson with a fresh lecturer OTP and one pending
// attendance row per registered student. Code entry starts disabled.
func (s *Service) Start(ctx context.Context, unitID, venue string, durationMin int, schedStart, schedEnd string) (*model.Lesson, error) {
	unit, err := s.store.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, ErrUnitNotFound
	}

	lesson := &model.Lesson{
		UnitID:         unitID,
		UnitName:       unit.Name,
		Venue:          venue,
		DurationMin:    durationMin,
		ScheduledStart: schedStart,
		ScheduledEnd:   schedEnd,
		StartTime:      s.now().UTC(),
		LecturerOTP:    otp.Generate(s.otpLength),
	}
	if err := s.store.CreateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	if err := s.issueStudentCodes(ctx, lesson.ID); err != nil {
		return nil, err
	}
	return lesson, nil
}

// Restart clears the active lesson's attendance rows and regenerates every
// OTP. The submission window restarts from now. No new lesson row is created
// and otp_enabled keeps its value.
func (s *Service) Restart(ctx context.Context) (*model.Lesson, error) {
	lesson, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrNoActiveLesson
	}

	if err := s.store.ClearLesson(ctx, lesson.ID); err != nil {
		return nil, err
	}
	start := s.now().UTC()
	code := otp.Generate(s.otpLength)
	if err := s.store.ResetLesson(ctx, lesson.ID, code, start); err != nil {
		return nil, err
	}
	if err := s.issueStudentCodes(ctx, lesson.ID); err != nil {
		return nil, err
	}

	lesson.LecturerOTP = code
	lesson.StartTime = start
	lesson.EndTime = nil
	lesson.LecturerPresent = false
	return lesson, nil
}

// EnableOTP opens code entry on the active lesson. The flip is one-way.
func (s *Service) EnableOTP(ctx context.Context) error {
	lesson, err := s.active(ctx)
	if err != nil {
		return err
	}
	if lesson == nil {
		return ErrNoActiveLesson
	}
	return s.store.EnableOTP(ctx, lesson.ID)
}

// Active returns the current lesson after running the expiry sweep, or nil
// when no lesson is active. The sweep is the only place pending rows become
// absent; it runs opportunistically on read, never on a timer.
func (s *Service) Active(ctx context.Context) (*model.Lesson, error) {
	lesson, err := s.active(ctx)
	if err != nil || lesson == nil {
		return nil, err
	}
	if err := s.sweepIfExpired(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// Roster returns the active lesson's attendance rows with student details.
func (s *Service) Roster(ctx context.Context, lessonID string) ([]model.AttendanceRecord, error) {
	return s.store.ListByLesson(ctx, lessonID)
}

// SubmitStudentCode marks a student present when the submitted code exactly
// matches their issued one inside the window. Present is terminal.
func (s *Service) SubmitStudentCode(ctx context.Context, admission, code string) (*model.AttendanceRecord, error) {
	lesson, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrNoActiveLesson
	}
	if !lesson.OTPEnabled {
		return nil, ErrOTPDisabled
	}

	student, err := s.store.GetStudentByAdmission(ctx, admission)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrUnknownStudent
	}

	// A late submission is what trips the sweep for everyone still pending.
	if s.expired(lesson) {
		if err := s.sweepIfExpired(ctx, lesson); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}

	rec, err := s.store.GetRecord(ctx, lesson.ID, student.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrUnknownStudent
	}
	switch rec.Status {
	case model.StatusPresent:
		return nil, ErrAlreadyMarked
	case model.StatusAbsent:
		return nil, ErrExpired
	}
	if code != rec.Code {
		return nil, ErrInvalidCode
	}

	at := s.now().UTC()
	ok, err := s.store.MarkPresent(ctx, rec.ID, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyMarked
	}
	rec.Status = model.StatusPresent
	rec.MarkedAt = &at
	rec.StudentName = student.Name
	rec.AdmissionNumber = student.AdmissionNumber
	return rec, nil
}

// SubmitLecturerCode verifies the shared lecturer OTP. Single-shot: the
// first correct submission sets the flag, repeats are rejected.
func (s *Service) SubmitLecturerCode(ctx context.Context, code string) error {
	lesson, err := s.active(ctx)
	if err != nil {
		return err
	}
	if lesson == nil {
		return ErrNoActiveLesson
	}
	if !lesson.OTPEnabled {
		return ErrOTPDisabled
	}
	if s.expired(lesson) {
		if err := s.sweepIfExpired(ctx, lesson); err != nil {
			return err
		}
		return ErrExpired
	}
	if lesson.LecturerPresent {
		return ErrAlreadyVerified
	}
	if code != lesson.LecturerOTP {
		return ErrInvalidCode
	}
	return s.store.SetLecturerPresent(ctx, lesson.ID)
}

// RegisterStudent creates a student and, when a lesson is currently active,
// issues them a pending row so a late enrolment can still be marked.
func (s *Service) RegisterStudent(ctx context.Context, name, admission string) (*model.Student, error) {
	student := &model.Student{Name: name, AdmissionNumber: admission}
	if err := s.store.CreateStudent(ctx, student); err != nil {
		return nil, err
	}

	lesson, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	if lesson != nil {
		rec := &model.AttendanceRecord{
			LessonID:  lesson.ID,
			StudentID: student.ID,
			Code:      otp.Generate(s.otpLength),
		}
		if err := s.store.InsertPending(ctx, rec); err != nil {
			return nil, err
		}
	}
	return student, nil
}

// Window reports the submission window length.
func (s *Service) Window() time.Duration { return s.window }

func (s *Service) active(ctx context.Context) (*model.Lesson, error) {
	return s.store.ActiveLesson(ctx, s.now().UTC().Add(-s.activeWindow))
}

func (s *Service) expired(lesson *model.Lesson) bool {
	return s.now().UTC().Sub(lesson.StartTime) > s.window
}

func (s *Service) sweepIfExpired(ctx context.Context, lesson *model.Lesson) error {
	if !s.expired(lesson) {
		return nil
	}
	closedAt := lesson.StartTime.Add(s.window)
	if _, err := s.store.SweepAbsent(ctx, lesson.ID, closedAt); err != nil {
		return err
	}
	if err := s.store.SetEndTime(ctx, lesson.ID, closedAt); err != nil {
		return err
	}
	if lesson.EndTime == nil {
		lesson.EndTime = &closedAt
	}
	return nil
}

func (s *Service) issueStudentCodes(ctx context.Context, lessonID string) error {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		return nil
	}
	recs := make([]model.AttendanceRecord, 0, len(students))
	for _, st := range students {
		recs = append(recs, model.AttendanceRecord{
			LessonID:  lessonID,
			StudentID: st.ID,
			Code:      otp.Generate(s.otpLength),
		})
	}
	return s.store.InsertPendingBatch(ctx, recs)
}
