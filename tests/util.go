package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assessment"
	dummydb "github.com/trezcool/gradebook/storage/database/dummy"
)

// Reference holds the seeded reference data, keyed by name (exams) or code (subjects).
type Reference struct {
	Year     assessment.AcademicYear
	Exams    map[string]assessment.Exam
	Subjects map[string]assessment.Subject
}

// NewConfig returns a test config with the default fallback grade.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:  "Gradebook",
		Env:      "TEST",
		TestMode: true,
		Grading:  core.GradingConfig{FallbackGrade: "D2", FallbackGradePoint: 3},
	}
}

// NewService returns a service over a fresh in-memory store.
func NewService(t *testing.T) (*assessment.Service, assessment.Repository, *Logger) {
	t.Helper()
	db := dummydb.Open()
	repo := dummydb.NewAssessmentRepository(db)
	validate, translator := core.NewValidator()
	assessment.InitValidators(validate, translator)
	logger := new(Logger)
	return assessment.NewService(db, repo, validate, logger, NewConfig()), repo, logger
}

// SeedReference stores the default academic year, exams, subjects and grade scales.
func SeedReference(t *testing.T, repo assessment.Repository) Reference {
	t.Helper()
	ctx := context.Background()
	data := assessment.DefaultSeedData()

	year, err := repo.CreateAcademicYear(ctx, data.AcademicYear)
	if err != nil {
		t.Fatalf("CreateAcademicYear() failed: %v", err)
	}
	ref := Reference{
		Year:     year,
		Exams:    make(map[string]assessment.Exam, len(data.Exams)),
		Subjects: make(map[string]assessment.Subject, len(data.Subjects)),
	}
	for _, exam := range data.Exams {
		ref.Exams[exam.Name] = CreateExam(t, repo, exam)
	}
	for _, subj := range data.Subjects {
		ref.Subjects[subj.Code] = CreateSubject(t, repo, subj)
	}
	for _, gs := range data.GradeScales {
		if _, err = repo.CreateGradeScale(ctx, gs); err != nil {
			t.Fatalf("CreateGradeScale() failed: %v", err)
		}
	}
	return ref
}

func CreateAcademicYear(t *testing.T, repo assessment.Repository, year assessment.AcademicYear) assessment.AcademicYear {
	t.Helper()
	year, err := repo.CreateAcademicYear(context.Background(), year)
	if err != nil {
		t.Fatalf("CreateAcademicYear() failed: %v", err)
	}
	return year
}

func CreateExam(t *testing.T, repo assessment.Repository, exam assessment.Exam) assessment.Exam {
	t.Helper()
	exam, err := repo.CreateExam(context.Background(), exam)
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	return exam
}

func CreateSubject(t *testing.T, repo assessment.Repository, subject assessment.Subject) assessment.Subject {
	t.Helper()
	subject, err := repo.CreateSubject(context.Background(), subject)
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return subject
}

func CreateClass(t *testing.T, repo assessment.Repository, name string, group assessment.ClassGroup) assessment.Class {
	t.Helper()
	class, err := repo.CreateClass(context.Background(), assessment.Class{Name: name, Group: group})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return class
}

func CreateStudent(t *testing.T, repo assessment.Repository, class assessment.Class, name string, roll int) assessment.Student {
	t.Helper()
	student, err := repo.CreateStudent(context.Background(), assessment.Student{Name: name, ClassID: class.ID, RollNumber: roll})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return student
}

// MapSubjects maps the subjects to the class for the year.
func MapSubjects(t *testing.T, repo assessment.Repository, class assessment.Class, year assessment.AcademicYear, isMain bool, subjects ...assessment.Subject) {
	t.Helper()
	for _, subj := range subjects {
		cs := assessment.ClassSubject{ClassID: class.ID, SubjectID: subj.ID, AcademicYearID: year.ID, IsMain: isMain}
		if err := repo.SaveClassSubject(context.Background(), cs); err != nil {
			t.Fatalf("SaveClassSubject() failed: %v", err)
		}
	}
}

// EnterMark enters a mark and fails the test on error.
func EnterMark(t *testing.T, svc *assessment.Service, student assessment.Student, subject assessment.Subject, exam assessment.Exam, year assessment.AcademicYear, marks float64) assessment.StudentMark {
	t.Helper()
	mark, err := svc.EnterMark(context.Background(), assessment.MarkEntry{
		MarkKey: assessment.MarkKey{
			StudentID:      student.ID,
			SubjectID:      subject.ID,
			ExamID:         exam.ID,
			AcademicYearID: year.ID,
		},
		MarksObtained: marks,
	})
	if err != nil {
		t.Fatalf("EnterMark() failed: %v", err)
	}
	return mark
}

// Logger records log entries as "LEVEL msg".
type Logger struct {
	mu      sync.Mutex
	Entries []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, fmt.Sprintf("%s %s", level, msg))
}

// Contains reports whether an entry starts with level and contains substr.
func (l *Logger) Contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.Entries {
		if strings.HasPrefix(e, level+" ") && strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg) }
