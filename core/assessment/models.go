package assessment

import (
	"fmt"
	"time"
)

type ExamType string

// Exam types
const (
	ExamTypeFA ExamType = "FA" // Formative Assessment
	ExamTypeSA ExamType = "SA" // Summative Assessment
)

var ExamTypes = []ExamType{ExamTypeFA, ExamTypeSA}

// AbsentGrade is given to every mark flagged absent, unless configured otherwise.
const AbsentGrade = "AB"

type AcademicYear struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=20"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	IsCurrent bool      `json:"is_current"`
	IsActive  bool      `json:"is_active"`
}

type Subject struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required,max=100"`
	Code     string `json:"code" validate:"required,max=10,alphanum_"`
	IsActive bool   `json:"is_active"`
	// CombinedGroup tags subjects graded together on their summed marks (e.g. "science").
	CombinedGroup string `json:"combined_group,omitempty"`
}

func (s Subject) IsCombined() bool {
	return s.CombinedGroup != ""
}

type Class struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Group ClassGroup `json:"class_group"`
}

type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ClassID    string `json:"class_id"`
	RollNumber int    `json:"roll_number"`
}

// ClassSubject tells whether a subject counts toward percentage and rank (main) for a class in a given year.
type ClassSubject struct {
	ClassID        string `json:"class_id"`
	SubjectID      string `json:"subject_id"`
	AcademicYearID string `json:"academic_year_id"`
	IsMain         bool   `json:"is_main"`
}

type Exam struct {
	ID       string   `json:"id"`
	Name     string   `json:"name" validate:"required,max=20"`
	Type     ExamType `json:"exam_type" validate:"required,examtype"`
	Order    int      `json:"order" validate:"gte=1"`
	IsActive bool     `json:"is_active"`
}

// MaxMarks is the ceiling of a mark entered for this exam by a student of the given class group.
func (e Exam) MaxMarks(group ClassGroup, subject *Subject) int {
	return MaxMarks(group, e.Type, subject)
}

type Grade struct {
	Grade string  `json:"grade"`
	Point float64 `json:"grade_point"`
}

// MarkKey identifies a StudentMark.
type MarkKey struct {
	StudentID      string `json:"student_id" validate:"required,uuid"`
	SubjectID      string `json:"subject_id" validate:"required,uuid"`
	ExamID         string `json:"exam_id" validate:"required,uuid"`
	AcademicYearID string `json:"academic_year_id" validate:"required,uuid"`
}

func (k MarkKey) SummaryKey() SummaryKey {
	return SummaryKey{StudentID: k.StudentID, ExamID: k.ExamID, AcademicYearID: k.AcademicYearID}
}

type StudentMark struct {
	ID string `json:"id"`
	MarkKey
	MarksObtained float64   `json:"marks_obtained"`
	MaxMarks      int       `json:"max_marks"`
	Grade         string    `json:"grade"`
	GradePoint    float64   `json:"grade_point"`
	IsAbsent      bool      `json:"is_absent"`
	EnteredBy     string    `json:"entered_by,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

func (m *StudentMark) setGrade(g Grade) {
	m.Grade = g.Grade
	m.GradePoint = g.Point
}

// SummaryKey identifies a StudentExamSummary.
type SummaryKey struct {
	StudentID      string `json:"student_id"`
	ExamID         string `json:"exam_id"`
	AcademicYearID string `json:"academic_year_id"`
}

func (k SummaryKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.StudentID, k.ExamID, k.AcademicYearID)
}

// StudentExamSummary is derived from a student's main-subject marks for one exam; never edited by hand.
type StudentExamSummary struct {
	ID string `json:"id"`
	SummaryKey
	TotalObtained     float64 `json:"total_obtained"`
	TotalMax          int     `json:"total_max"`
	Percentage        float64 `json:"percentage"`
	OverallGrade      string  `json:"overall_grade"`
	OverallGradePoint float64 `json:"overall_grade_point"`
	ClassRank         int     `json:"class_rank,omitempty"` // 0: not ranked
	SubjectsCount     int     `json:"subjects_count"`
}

type (
	SubjectFilter struct {
		CombinedGroup string
		Codes         []string
	}

	// MarkFilter applies AND on the set fields.
	MarkFilter struct {
		StudentIDs     []string
		SubjectIDs     []string
		ClassID        string
		ExamID         string
		AcademicYearID string
	}

	SummaryFilter struct {
		ClassID        string
		ExamID         string
		AcademicYearID string
	}
)
