package assessment

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrAcademicYearNotFound = errors.New("academic year not found")
	ErrSubjectNotFound      = errors.New("subject not found")
	ErrClassNotFound        = errors.New("class not found")
	ErrStudentNotFound      = errors.New("student not found")
	ErrExamNotFound         = errors.New("exam not found")
	ErrSummaryNotFound      = errors.New("exam summary not found")
	ErrMarksExceedMax       = errors.New("marks obtained exceed the maximum marks")
)

type (
	// Repository is the Mark Record Store and the reference data it depends on.
	// Every method accepts an optional executor: the transaction handed out by core.TxRunner.
	Repository interface {
		CreateAcademicYear(ctx context.Context, year AcademicYear, exec ...core.DBExecutor) (AcademicYear, error)
		GetAcademicYear(ctx context.Context, id string, exec ...core.DBExecutor) (AcademicYear, error)
		GetCurrentAcademicYear(ctx context.Context, exec ...core.DBExecutor) (AcademicYear, error)
		// SetCurrentAcademicYear flags the year as current and demotes all others.
		SetCurrentAcademicYear(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateSubject(ctx context.Context, subject Subject, exec ...core.DBExecutor) (Subject, error)
		GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (Subject, error)
		QuerySubjects(ctx context.Context, filter SubjectFilter, exec ...core.DBExecutor) ([]Subject, error)

		CreateClass(ctx context.Context, class Class, exec ...core.DBExecutor) (Class, error)
		GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (Class, error)
		QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]Class, error)

		CreateStudent(ctx context.Context, student Student, exec ...core.DBExecutor) (Student, error)
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		// QueryStudents returns the class roster ordered by roll number, then ID.
		QueryStudents(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Student, error)

		SaveClassSubject(ctx context.Context, cs ClassSubject, exec ...core.DBExecutor) error
		QueryClassSubjects(ctx context.Context, classID, yearID string, exec ...core.DBExecutor) ([]ClassSubject, error)

		CreateExam(ctx context.Context, exam Exam, exec ...core.DBExecutor) (Exam, error)
		GetExam(ctx context.Context, id string, exec ...core.DBExecutor) (Exam, error)
		// QueryExams returns exams ordered by type, then order.
		QueryExams(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]Exam, error)

		CreateGradeScale(ctx context.Context, scale GradeScale, exec ...core.DBExecutor) (GradeScale, error)
		// QueryGradeScales returns the rows of a class group and exam type, highest range first.
		QueryGradeScales(ctx context.Context, group ClassGroup, examType ExamType, exec ...core.DBExecutor) (GradeScales, error)

		// LockGrading serializes mark writes and summaries sharing the lock key until the transaction ends.
		LockGrading(ctx context.Context, key string, exec ...core.DBExecutor) error
		// SaveMark inserts the mark or updates the one sharing its MarkKey.
		SaveMark(ctx context.Context, mark StudentMark, exec ...core.DBExecutor) (StudentMark, error)
		QueryMarks(ctx context.Context, filter MarkFilter, exec ...core.DBExecutor) ([]StudentMark, error)

		// SaveSummary inserts the summary or updates the one sharing its SummaryKey.
		SaveSummary(ctx context.Context, summary StudentExamSummary, exec ...core.DBExecutor) (StudentExamSummary, error)
		GetSummary(ctx context.Context, key SummaryKey, exec ...core.DBExecutor) (StudentExamSummary, error)
		DeleteSummary(ctx context.Context, key SummaryKey, exec ...core.DBExecutor) error
		QuerySummaries(ctx context.Context, filter SummaryFilter, exec ...core.DBExecutor) ([]StudentExamSummary, error)
		// UpdateSummaryRanks sets class_rank of the existing summaries of the exam and year, keyed by student ID.
		UpdateSummaryRanks(ctx context.Context, examID, yearID string, ranks map[string]int, exec ...core.DBExecutor) error
	}

	Service struct {
		tx       core.TxRunner
		repo     Repository
		grader   *Grader
		validate *validator.Validate
		logger   core.Logger
		locks    *keyLocker
	}
)

func NewService(tx core.TxRunner, repo Repository, validate *validator.Validate, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		grader:   NewGrader(repo, logger, conf),
		validate: validate,
		logger:   logger,
		locks:    newKeyLocker(),
	}
}

// Grader exposes the service's grading engine.
func (svc *Service) Grader() *Grader {
	return svc.grader
}

// withGradingLock runs fn in a transaction holding the grading lock of the class, exam and year.
func (svc *Service) withGradingLock(ctx context.Context, classID, examID, yearID string, fn func(exec core.DBExecutor) error) error {
	key := classID + "/" + examID + "/" + yearID
	unlock := svc.locks.lock(key)
	defer unlock()

	return svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.LockGrading(ctx, key, exec); err != nil {
			return err
		}
		return fn(exec)
	})
}
