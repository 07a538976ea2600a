package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"classattend/internal/model"
	"classattend/internal/store"
)

type fixture struct {
	svc   *Service
	store *store.Store
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		svc:   New(st, 20*time.Minute, 24*time.Hour, 6),
		store: st,
		now:   time.Now().UTC(),
	}
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) addStudent(t *testing.T, name, admission string) *model.Student {
	t.Helper()
	st := &model.Student{Name: name, AdmissionNumber: admission}
	if err := f.store.CreateStudent(context.Background(), st); err != nil {
		t.Fatalf("create student: %v", err)
	}
	return st
}

func (f *fixture) startLesson(t *testing.T) *model.Lesson {
	t.Helper()
	u := &model.Unit{Name: "Operating Systems", Lecturer: "Prof. Kimani"}
	if err := f.store.CreateUnit(context.Background(), u); err != nil {
		t.Fatalf("create unit: %v", err)
	}
	lesson, err := f.svc.Start(context.Background(), u.ID, "LT1", 120, "08:00", "10:00")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return lesson
}

func (f *fixture) codeFor(t *testing.T, lessonID, studentID string) string {
	t.Helper()
	rec, err := f.store.GetRecord(context.Background(), lessonID, studentID)
	if err != nil || rec == nil {
		t.Fatalf("record for %s: %v", studentID, err)
	}
	return rec.Code
}

func TestStartIssuesCodesPerStudent(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, "Alice", "SC100")
	f.addStudent(t, "Bob", "SC101")

	lesson := f.startLesson(t)

	if lesson.LecturerOTP == "" {
		t.Fatal("no lecturer OTP minted")
	}
	if lesson.OTPEnabled {
		t.Fatal("code entry should start disabled")
	}

	roster, err := f.svc.Roster(context.Background(), lesson.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("roster has %d rows, want 2", len(roster))
	}
	for _, rec := range roster {
		if rec.Status != model.StatusPending {
			t.Fatalf("fresh row status %s, want pending", rec.Status)
		}
		if rec.Code == "" {
			t.Fatal("student row missing code")
		}
	}
}

func TestSubmitRequiresEnable(t *testing.T) {
	f := newFixture(t)
	st := f.addStudent(t, "Alice", "SC100")
	lesson := f.startLesson(t)
	code := f.codeFor(t, lesson.ID, st.ID)

	if _, err := f.svc.SubmitStudentCode(context.Background(), "SC100", code); !errors.Is(err, ErrOTPDisabled) {
		t.Fatalf("got %v, want ErrOTPDisabled", err)
	}
}

func TestSubmitMarksPresentOnce(t *testing.T) {
	f := newFixture(t)
	st := f.addStudent(t, "Alice", "SC100")
	lesson := f.startLesson(t)
	code := f.codeFor(t, lesson.ID, st.ID)

	if err := f.svc.EnableOTP(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}

	rec, err := f.svc.SubmitStudentCode(context.Background(), "SC100", code)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Status != model.StatusPresent {
		t.Fatalf("status %s, want present", rec.Status)
	}
	if rec.MarkedAt == nil {
		t.Fatal("marked_at not stamped")
	}

	if _, err := f.svc.SubmitStudentCode(context.Background(), "SC100", code); !errors.Is(err, ErrAlreadyMarked) {
		t.Fatalf("resubmission: got %v, want ErrAlreadyMarked", err)
	}
}

func TestSubmitCodeIsCaseAndValueExact(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, "Alice", "SC100")
	f.startLesson(t)
	if err := f.svc.EnableOTP(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}

	if _, err := f.svc.SubmitStudentCode(context.Background(), "SC100", "not-the-code"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("got %v, want ErrInvalidCode", err)
	}
}

func TestSubmitUnknownStudent(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, "Alice", "SC100")
	f.startLesson(t)
	if err := f.svc.EnableOTP(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}

	if _, err := f.svc.SubmitStudentCode(context.Background(), "SC999", "000000"); !errors.Is(err, ErrUnknownStudent) {
		t.Fatalf("got %v, want ErrUnknownStudent", err)
	}
}

func TestNoActiveLesson(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, "Alice", "SC100")

	if _, err := f.svc.SubmitStudentCode(context.Background(), "SC100", "000000"); !errors.Is(err, ErrNoActiveLesson) {
		t.Fatalf("submit: got %v, want ErrNoActiveLesson", err)
	}
	if _, err := f.svc.Restart(context.Background()); !errors.Is(err, ErrNoActiveLesson) {
		t.Fatalf("restart: got %v, want ErrNoActiveLesson", err)
	}
	if err := f.svc.EnableOTP(context.Background()); !errors.Is(err, ErrNoActiveLesson) {
		t.Fatalf("enable: got %v, want ErrNoActiveLesson", err)
	}
}

func TestLateSubmissionSweepsPending(t *testing.T) {
	f := newFixture(t)
	a := f.addStudent(t, "Alice", "SC100")
	f.addStudent(t, "Bob", "SC101")
	lesson := f.startLesson(t)
	code := f.codeFor(t, lesson.ID, a.ID)

	if err := f.svc.EnableOTP(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}

	f.advance(21 * time.Minute)

	if _, err := f.svc.SubmitStudentCode(context.Background(), "SC100", code); !errors.Is(err, ErrExpired) {
		t.Fatalf("late submit: got %v, want ErrExpired", err)
	}

	roster, err := f.svc.Roster(context.Background(), lesson.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	for _, rec := range roster {
		if rec.Status != model.StatusAbsent {
			t.Fatalf("row %s status %s after expiry, want absent", rec.AdmissionNumber, rec.Status)
		}
	}
}

func TestActivePollSweepsAndStampsEndTime(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, "Alice", "SC100")
	lesson := f.startLesson(t)

	f.advance(25 * time.Minute)

	got, err := f.svc.Active(context.Background())
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if got == nil {
		t.Fatal("lesson should still be active inside the recency window")
	}
	if got.EndTime == nil {
		t.Fatal("end_time not stamped by sweep")
	}
	want := lesson.StartTime.Add(20 * time.Minute)
	if !got.EndTime.Equal(want) {
		t.Fatalf("end_time = %v, want %v", got.EndTime, want)
	}

	roster, _ := f.svc.Roster(context.Background(), lesson.ID)
	if roster[0].Status != model.StatusAbsent {
		t.Fatalf("pending row not swept on poll: %s", roster[0].Status)
	}
}

func TestPresentSurvivesSweep(t *testing.T) {
	f := newFixture(t)
	a := f.addStudent(t, "Alice", "SC100")
	f.addStudent(t, "Bob", "SC101")
	lesson := f.startLesson(t)
	code := f.codeFor(t, lesson.ID, a.ID)

	if err := f.svc.EnableOTP(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if _, err := f.svc.SubmitStudentCode(context.Background(), "SC100", code); err != nil {
		t.Fatalf("submit: %v", err)
	}

	f.advance(30 * time.Minute)
	if _, err := f.svc.Active(context.Background()); err != nil {
		t.Fatalf("active: %v", err)
	}

	roster, _ := f.svc.Roster(context.Background(), lesson.ID)
	for _, rec := range roster {
		switch rec.AdmissionNumber {
		case "SC100":
			if rec.Status != model.StatusPresent {
				t.Fatalf("present overwritten by sweep: %s", rec.Status)
			}
		case "SC101":
			if rec.Status != model.StatusAbsent {
				t.Fatalf("pending not swept: %s", rec.Status)
			}
		}
	}
}

func TestRestartReissuesCodesWithoutNewLesson(t *testing.T) {
	f := newFixture(t)
	a := f.addStudent(t, "Alice", "SC100")
	lesson := f.startLesson(t)
	oldCode := f.codeFor(t, lesson.ID, a.ID)
	oldLecturerOTP := lesson.LecturerOTP

	if err := f.svc.EnableOTP(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if _, err := f.svc.SubmitStudentCode(context.Background(), "SC100", oldCode); err != nil {
		t.Fatalf("submit: %v", err)
	}

	f.advance(10 * time.Minute)
	restarted, err := f.svc.Restart(context.Background())
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if restarted.ID != lesson.ID {
		t.Fatal("restart created a new lesson row")
	}
	if restarted.LecturerOTP == oldLecturerOTP {
		t.Fatal("lecturer OTP not regenerated")
	}
	if !restarted.StartTime.Equal(f.now) {
		t.Fatalf("window did not restart: start=%v now=%v", restarted.StartTime, f.now)
	}

	roster, _ := f.svc.Roster(context.Background(), lesson.ID)
	if len(roster) != 1 {
		t.Fatalf("roster has %d rows after restart, want 1", len(roster))
	}
	if roster[0].Status != model.StatusPending {
		t.Fatalf("restart kept old status %s", roster[0].Status)
	}

	// Enable survives the restart, so the reissued code works immediately.
	newCode := f.codeFor(t, lesson.ID, a.ID)
	if _, err := f.svc.SubmitStudentCode(context.Background(), "SC100", newCode); err != nil {
		t.Fatalf("submit after restart: %v", err)
	}
}

func TestLecturerVerifySingleShot(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, "Alice", "SC100")
	lesson := f.startLesson(t)

	if err := f.svc.EnableOTP(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}

	if err := f.svc.SubmitLecturerCode(context.Background(), "wrong"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("wrong code: got %v, want ErrInvalidCode", err)
	}
	if err := f.svc.SubmitLecturerCode(context.Background(), lesson.LecturerOTP); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := f.svc.SubmitLecturerCode(context.Background(), lesson.LecturerOTP); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("second verify: got %v, want ErrAlreadyVerified", err)
	}

	active, err := f.svc.Active(context.Background())
	if err != nil || active == nil {
		t.Fatalf("active: %v", err)
	}
	if !active.LecturerPresent {
		t.Fatal("lecturer_present not set")
	}
}

func TestRegisterDuringActiveLessonGetsCode(t *testing.T) {
	f := newFixture(t)
	f.addStudent(t, "Alice", "SC100")
	lesson := f.startLesson(t)

	late, err := f.svc.RegisterStudent(context.Background(), "Carol", "SC102")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rec, err := f.store.GetRecord(context.Background(), lesson.ID, late.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec == nil {
		t.Fatal("late-registered student has no pending row")
	}
	if rec.Status != model.StatusPending || rec.Code == "" {
		t.Fatalf("late row = %+v", rec)
	}
}

func TestRegisterWithoutLessonIssuesNothing(t *testing.T) {
	f := newFixture(t)
	st, err := f.svc.RegisterStudent(context.Background(), "Alice", "SC100")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	history, err := f.store.StudentHistory(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history has %d rows, want 0", len(history))
	}
}

func TestStartUnknownUnit(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Start(context.Background(), "missing", "LT1", 60, "", ""); !errors.Is(err, ErrUnitNotFound) {
		t.Fatalf("got %v, want ErrUnitNotFound", err)
	}
}
