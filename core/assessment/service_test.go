package assessment_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assessment"
	testutil "github.com/trezcool/gradebook/tests"
)

type school struct {
	svc    *assessment.Service
	repo   assessment.Repository
	logger *testutil.Logger
	ref    testutil.Reference
	class  assessment.Class
}

// setup returns a 6-10 class mapped to TEL ENG MATH PHY NAT (main) and GK (optional).
func setup(t *testing.T) *school {
	svc, repo, logger := testutil.NewService(t)
	ref := testutil.SeedReference(t, repo)
	class := testutil.CreateClass(t, repo, "Class 8", assessment.ClassGroupHigh)
	s := ref.Subjects
	testutil.MapSubjects(t, repo, class, ref.Year, true, s["TEL"], s["ENG"], s["MATH"], s["PHY"], s["NAT"])
	testutil.MapSubjects(t, repo, class, ref.Year, false, s["GK"])
	return &school{svc: svc, repo: repo, logger: logger, ref: ref, class: class}
}

func (s *school) entry(student assessment.Student, subject, exam string, marks float64) assessment.MarkEntry {
	return assessment.MarkEntry{
		MarkKey: assessment.MarkKey{
			StudentID:      student.ID,
			SubjectID:      s.ref.Subjects[subject].ID,
			ExamID:         s.ref.Exams[exam].ID,
			AcademicYearID: s.ref.Year.ID,
		},
		MarksObtained: marks,
	}
}

func (s *school) enter(t *testing.T, student assessment.Student, subject, exam string, marks float64) assessment.StudentMark {
	return testutil.EnterMark(t, s.svc, student, s.ref.Subjects[subject], s.ref.Exams[exam], s.ref.Year, marks)
}

func (s *school) mark(t *testing.T, student assessment.Student, subject, exam string) assessment.StudentMark {
	marks, err := s.repo.QueryMarks(context.Background(), assessment.MarkFilter{
		StudentIDs:     []string{student.ID},
		SubjectIDs:     []string{s.ref.Subjects[subject].ID},
		ExamID:         s.ref.Exams[exam].ID,
		AcademicYearID: s.ref.Year.ID,
	})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	return marks[0]
}

func (s *school) summary(t *testing.T, student assessment.Student, exam string) assessment.StudentExamSummary {
	summary, err := s.repo.GetSummary(context.Background(), assessment.SummaryKey{
		StudentID:      student.ID,
		ExamID:         s.ref.Exams[exam].ID,
		AcademicYearID: s.ref.Year.ID,
	})
	require.NoError(t, err)
	return summary
}

func TestService_EnterMark(t *testing.T) {
	s := setup(t)
	student := testutil.CreateStudent(t, s.repo, s.class, "Ravi", 1)

	absent := s.entry(student, "MATH", "FA1", 40)
	absent.IsAbsent = true
	unknownStudent := s.entry(student, "MATH", "FA1", 10)
	unknownStudent.StudentID = uuid.New().String()
	unknownExam := s.entry(student, "MATH", "FA1", 10)
	unknownExam.ExamID = uuid.New().String()
	badKey := s.entry(student, "MATH", "FA1", 10)
	badKey.SubjectID = "lol"

	tests := []struct {
		name       string
		entry      assessment.MarkEntry
		wantGrade  assessment.Grade
		wantMarks  float64
		wantMax    int
		wantErr    error
		wantFields map[string]string
	}{
		{name: "graded", entry: s.entry(student, "MATH", "FA1", 45), wantGrade: assessment.Grade{Grade: "A2", Point: 9}, wantMarks: 45, wantMax: 50},
		{name: "rounded marks", entry: s.entry(student, "ENG", "FA1", 33.456), wantGrade: assessment.Grade{Grade: "B2", Point: 7}, wantMarks: 33.46, wantMax: 50},
		{name: "SA", entry: s.entry(student, "MATH", "SA1", 92), wantGrade: assessment.Grade{Grade: "A1", Point: 10}, wantMarks: 92, wantMax: 100},
		{name: "absent", entry: absent, wantGrade: assessment.Grade{Grade: assessment.AbsentGrade}, wantMarks: 0, wantMax: 50},
		{name: "exceeds max", entry: s.entry(student, "TEL", "FA1", 51), wantErr: assessment.ErrMarksExceedMax, wantFields: map[string]string{"marks_obtained": "must not exceed 50"}},
		{name: "combined exceeds max", entry: s.entry(student, "PHY", "FA1", 26), wantErr: assessment.ErrMarksExceedMax, wantFields: map[string]string{"marks_obtained": "must not exceed 25"}},
		{name: "student not found", entry: unknownStudent, wantErr: assessment.ErrStudentNotFound},
		{name: "exam not found", entry: unknownExam, wantErr: assessment.ErrExamNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mark, err := s.svc.EnterMark(context.Background(), tt.entry)
			if tt.wantErr != nil {
				if vErr, ok := err.(*core.ValidationError); ok {
					err = vErr.Err
					fields := make(map[string]string)
					for _, f := range vErr.Fields {
						fields[f.Field] = f.Error
					}
					assert.Equal(t, tt.wantFields, fields)
				}
				if err != tt.wantErr {
					t.Errorf("EnterMark() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantGrade, assessment.Grade{Grade: mark.Grade, Point: mark.GradePoint})
			assert.Equal(t, tt.wantMarks, mark.MarksObtained)
			assert.Equal(t, tt.wantMax, mark.MaxMarks)
			assert.NotEmpty(t, mark.ID)
		})
	}

	t.Run("invalid key", func(t *testing.T) {
		_, err := s.svc.EnterMark(context.Background(), badKey)
		if _, ok := err.(validator.ValidationErrors); !ok {
			t.Errorf("EnterMark() error = %v, want validator.ValidationErrors", err)
		}
	})

	t.Run("update keeps one mark", func(t *testing.T) {
		first := s.enter(t, student, "TEL", "FA2", 10)
		second := s.enter(t, student, "TEL", "FA2", 46)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "A1", s.mark(t, student, "TEL", "FA2").Grade)
	})
}

func TestService_EnterMark_combinedScience(t *testing.T) {
	s := setup(t)
	student := testutil.CreateStudent(t, s.repo, s.class, "Ravi", 1)

	// sibling missing: graded alone, 20 out of the 6-10 FA scale is D1
	phy := s.enter(t, student, "PHY", "FA1", 20)
	assert.Equal(t, "D1", phy.Grade)
	assert.Equal(t, 25, phy.MaxMarks)

	// 20 + 20: both graded on 40, B1
	nat := s.enter(t, student, "NAT", "FA1", 20)
	assert.Equal(t, "B1", nat.Grade)
	assert.Equal(t, 8.0, nat.GradePoint)
	phy = s.mark(t, student, "PHY", "FA1")
	assert.Equal(t, "B1", phy.Grade)
	assert.Equal(t, 8.0, phy.GradePoint)

	// sibling absent: graded alone again
	absent := s.entry(student, "NAT", "FA1", 0)
	absent.IsAbsent = true
	nat, err := s.svc.EnterMark(context.Background(), absent)
	require.NoError(t, err)
	assert.Equal(t, assessment.AbsentGrade, nat.Grade)
	assert.Equal(t, "D1", s.mark(t, student, "PHY", "FA1").Grade)
}

func TestService_EnterMark_fallbackGrade(t *testing.T) {
	svc, repo, logger := testutil.NewService(t)
	ctx := context.Background()

	year := testutil.CreateAcademicYear(t, repo, assessment.AcademicYear{Name: "2024-2025", IsCurrent: true})
	exam := testutil.CreateExam(t, repo, assessment.Exam{Name: "FA1", Type: assessment.ExamTypeFA, Order: 1, IsActive: true})
	maths := testutil.CreateSubject(t, repo, assessment.Subject{Name: "Mathematics", Code: "MATH", IsActive: true})
	class := testutil.CreateClass(t, repo, "Class 8", assessment.ClassGroupHigh)
	testutil.MapSubjects(t, repo, class, year, true, maths)
	student := testutil.CreateStudent(t, repo, class, "Ravi", 1)

	// 18-45 is not covered
	for _, gs := range []assessment.GradeScale{
		{ClassGroup: assessment.ClassGroupHigh, ExamType: assessment.ExamTypeFA, MinMarks: 46, MaxMarks: 50, Grade: "A1", GradePoint: 10},
		{ClassGroup: assessment.ClassGroupHigh, ExamType: assessment.ExamTypeFA, MinMarks: 0, MaxMarks: 17, Grade: "D2", GradePoint: 3},
	} {
		_, err := repo.CreateGradeScale(ctx, gs)
		require.NoError(t, err)
	}

	mark := testutil.EnterMark(t, svc, student, maths, exam, year, 30)
	assert.Equal(t, "D2", mark.Grade)
	assert.Equal(t, 3.0, mark.GradePoint)
	assert.True(t, logger.Contains("WARN", "fallback"))

	// once the scale covers the marks, regrading picks the new row up
	_, err := repo.CreateGradeScale(ctx, assessment.GradeScale{
		ClassGroup: assessment.ClassGroupHigh, ExamType: assessment.ExamTypeFA, MinMarks: 26, MaxMarks: 30, Grade: "C1", GradePoint: 6,
	})
	require.NoError(t, err)
	changed, err := svc.Regrade(ctx, class.ID, exam.ID, year.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	changed, err = svc.Regrade(ctx, class.ID, exam.ID, year.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}

func TestService_EnterMark_legacyScale(t *testing.T) {
	svc, repo, logger := testutil.NewService(t)
	ctx := context.Background()

	year := testutil.CreateAcademicYear(t, repo, assessment.AcademicYear{Name: "2024-2025", IsCurrent: true})
	exam := testutil.CreateExam(t, repo, assessment.Exam{Name: "SA1", Type: assessment.ExamTypeSA, Order: 1, IsActive: true})
	maths := testutil.CreateSubject(t, repo, assessment.Subject{Name: "Mathematics", Code: "MATH", IsActive: true})
	class := testutil.CreateClass(t, repo, "Class 8", assessment.ClassGroupHigh)
	testutil.MapSubjects(t, repo, class, year, true, maths)
	student := testutil.CreateStudent(t, repo, class, "Ravi", 1)

	// no 6-10 rows: 8-10 is preferred over 6-7
	for _, gs := range []assessment.GradeScale{
		{ClassGroup: assessment.ClassGroup6To7, ExamType: assessment.ExamTypeSA, MinMarks: 0, MaxMarks: 100, Grade: "C2", GradePoint: 5},
		{ClassGroup: assessment.ClassGroup8To10, ExamType: assessment.ExamTypeSA, MinMarks: 91, MaxMarks: 100, Grade: "A1", GradePoint: 10},
		{ClassGroup: assessment.ClassGroup8To10, ExamType: assessment.ExamTypeSA, MinMarks: 0, MaxMarks: 90, Grade: "B1", GradePoint: 8},
	} {
		_, err := repo.CreateGradeScale(ctx, gs)
		require.NoError(t, err)
	}

	mark := testutil.EnterMark(t, svc, student, maths, exam, year, 95)
	assert.Equal(t, "A1", mark.Grade)
	assert.Equal(t, 10.0, mark.GradePoint)
	assert.False(t, logger.Contains("WARN", "fallback"))

	summary, err := repo.GetSummary(ctx, mark.SummaryKey())
	require.NoError(t, err)
	assert.Equal(t, "A1", summary.OverallGrade)
}

func TestService_Summarize(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	student := testutil.CreateStudent(t, s.repo, s.class, "Ravi", 1)

	s.enter(t, student, "MATH", "SA1", 95)
	s.enter(t, student, "ENG", "SA1", 85)
	s.enter(t, student, "GK", "SA1", 10) // optional: left out

	summary := s.summary(t, student, "SA1")
	assert.Equal(t, 180.0, summary.TotalObtained)
	assert.Equal(t, 200, summary.TotalMax)
	assert.Equal(t, 90.0, summary.Percentage)
	assert.Equal(t, "A2", summary.OverallGrade)
	assert.Equal(t, 9.0, summary.OverallGradePoint)
	assert.Equal(t, 2, summary.SubjectsCount)
	assert.Equal(t, 1, summary.ClassRank)

	t.Run("idempotent", func(t *testing.T) {
		first, err := s.svc.Summarize(ctx, student.ID, s.ref.Exams["SA1"].ID, s.ref.Year.ID)
		require.NoError(t, err)
		second, err := s.svc.Summarize(ctx, student.ID, s.ref.Exams["SA1"].ID, s.ref.Year.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, summary, *second)
	})

	t.Run("FA overall grade uses FA marks", func(t *testing.T) {
		s.enter(t, student, "MATH", "FA1", 40)
		s.enter(t, student, "TEL", "FA1", 40)
		// 80/100 = 80% of 50 = 40: B1
		fa := s.summary(t, student, "FA1")
		assert.Equal(t, 80.0, fa.Percentage)
		assert.Equal(t, "B1", fa.OverallGrade)
	})

	t.Run("all absent", func(t *testing.T) {
		other := testutil.CreateStudent(t, s.repo, s.class, "Sita", 2)
		for _, code := range []string{"MATH", "ENG"} {
			entry := s.entry(other, code, "SA2", 0)
			entry.IsAbsent = true
			_, err := s.svc.EnterMark(ctx, entry)
			require.NoError(t, err)
		}
		absent := s.summary(t, other, "SA2")
		assert.Equal(t, 0.0, absent.TotalObtained)
		assert.Equal(t, 200, absent.TotalMax)
		assert.Equal(t, 0.0, absent.Percentage)
		assert.Equal(t, "D2", absent.OverallGrade)
	})

	t.Run("optional marks only", func(t *testing.T) {
		other := testutil.CreateStudent(t, s.repo, s.class, "Anil", 3)
		s.enter(t, other, "GK", "SA2", 50)
		got, err := s.svc.Summarize(ctx, other.ID, s.ref.Exams["SA2"].ID, s.ref.Year.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		_, err = s.repo.GetSummary(ctx, assessment.SummaryKey{StudentID: other.ID, ExamID: s.ref.Exams["SA2"].ID, AcademicYearID: s.ref.Year.ID})
		assert.Equal(t, assessment.ErrSummaryNotFound, err)
	})

	t.Run("optional mark leaves summary and rank unchanged", func(t *testing.T) {
		other := testutil.CreateStudent(t, s.repo, s.class, "Meena", 4)
		s.enter(t, other, "MATH", "SA1", 95)
		s.enter(t, other, "ENG", "SA1", 50)
		before := s.summary(t, other, "SA1")
		require.Equal(t, 2, before.ClassRank)

		s.enter(t, other, "GK", "SA1", 100)
		assert.Equal(t, before, s.summary(t, other, "SA1"))
		assert.Equal(t, summary, s.summary(t, student, "SA1"))
		rank, err := s.svc.Rank(ctx, other.ID, s.ref.Exams["SA1"].ID, s.ref.Year.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, rank)
	})

	t.Run("missing args", func(t *testing.T) {
		_, err := s.svc.Summarize(ctx, "", s.ref.Exams["SA1"].ID, s.ref.Year.ID)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Summarize() error = %v, want *core.ValidationError", err)
		}
	})
}

func TestService_Rank(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	examID, yearID := s.ref.Exams["SA1"].ID, s.ref.Year.ID

	first := testutil.CreateStudent(t, s.repo, s.class, "Ravi", 1)
	second := testutil.CreateStudent(t, s.repo, s.class, "Sita", 2)
	third := testutil.CreateStudent(t, s.repo, s.class, "Anil", 3)
	s.enter(t, first, "MATH", "SA1", 90)
	s.enter(t, second, "MATH", "SA1", 75)
	s.enter(t, third, "MATH", "SA1", 90)

	tests := []struct {
		name    string
		student assessment.Student
		want    int
	}{
		{name: "first of a tie", student: first, want: 1},
		{name: "lowest", student: second, want: 3},
		{name: "second of a tie", student: third, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.svc.Rank(ctx, tt.student.ID, examID, yearID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, s.summary(t, tt.student, "SA1").ClassRank, "cached rank")
		})
	}

	t.Run("cached ranks follow new marks", func(t *testing.T) {
		s.enter(t, second, "ENG", "SA1", 50) // 125
		assert.Equal(t, 1, s.summary(t, second, "SA1").ClassRank)
		assert.Equal(t, 2, s.summary(t, first, "SA1").ClassRank)
		assert.Equal(t, 3, s.summary(t, third, "SA1").ClassRank)
	})

	t.Run("class summaries", func(t *testing.T) {
		summaries, err := s.svc.SummarizeClass(ctx, s.class.ID, examID, yearID)
		require.NoError(t, err)
		require.Len(t, summaries, 3)
		ranks := make(map[string]int)
		for _, summary := range summaries {
			ranks[summary.StudentID] = summary.ClassRank
		}
		assert.Equal(t, map[string]int{second.ID: 1, first.ID: 2, third.ID: 3}, ranks)
	})

	t.Run("student not found", func(t *testing.T) {
		_, err := s.svc.Rank(ctx, uuid.New().String(), examID, yearID)
		assert.Equal(t, assessment.ErrStudentNotFound, err)
	})
}

func TestService_EnterMarks(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	first := testutil.CreateStudent(t, s.repo, s.class, "Ravi", 1)
	second := testutil.CreateStudent(t, s.repo, s.class, "Sita", 2)

	bulk := assessment.BulkMarkEntry{
		SubjectID:      s.ref.Subjects["MATH"].ID,
		ExamID:         s.ref.Exams["FA1"].ID,
		AcademicYearID: s.ref.Year.ID,
		EnteredBy:      "Mrs. Rao",
		Marks: []assessment.StudentMarkEntry{
			{StudentID: first.ID, MarksObtained: 48},
			{StudentID: second.ID, IsAbsent: true},
		},
	}
	saved, err := s.svc.EnterMarks(ctx, bulk)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Equal(t, "A1", s.mark(t, first, "MATH", "FA1").Grade)
	assert.Equal(t, "Mrs. Rao", s.mark(t, first, "MATH", "FA1").EnteredBy)
	assert.Equal(t, assessment.AbsentGrade, s.mark(t, second, "MATH", "FA1").Grade)
	assert.Equal(t, 1, s.summary(t, first, "FA1").ClassRank)

	bulk.Marks = []assessment.StudentMarkEntry{
		{StudentID: first.ID, MarksObtained: 30},
		{StudentID: second.ID, MarksObtained: 99},
	}
	saved, err = s.svc.EnterMarks(ctx, bulk)
	assert.Error(t, err)
	assert.Equal(t, 1, saved)

	bulk.Marks = nil
	_, err = s.svc.EnterMarks(ctx, bulk)
	if _, ok := err.(validator.ValidationErrors); !ok {
		t.Errorf("EnterMarks() error = %v, want validator.ValidationErrors", err)
	}
}

func TestService_ActivateAcademicYear(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	next := testutil.CreateAcademicYear(t, s.repo, assessment.AcademicYear{
		Name:      "2025-2026",
		StartDate: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	})

	current, err := s.svc.CurrentAcademicYear(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ref.Year.ID, current.ID)

	year, err := s.svc.ActivateAcademicYear(ctx, next.ID)
	require.NoError(t, err)
	assert.True(t, year.IsCurrent)

	current, err = s.svc.CurrentAcademicYear(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.ID, current.ID)
	previous, err := s.repo.GetAcademicYear(ctx, s.ref.Year.ID)
	require.NoError(t, err)
	assert.False(t, previous.IsCurrent)

	_, err = s.svc.ActivateAcademicYear(ctx, uuid.New().String())
	assert.Equal(t, assessment.ErrAcademicYearNotFound, err)
}

func TestService_MapDefaultSubjects(t *testing.T) {
	svc, repo, _ := testutil.NewService(t)
	ctx := context.Background()
	ref := testutil.SeedReference(t, repo)
	pre := testutil.CreateClass(t, repo, "UKG", assessment.ClassGroupPre)
	primary := testutil.CreateClass(t, repo, "Class 3", assessment.ClassGroupPrimary)
	high := testutil.CreateClass(t, repo, "Class 9", assessment.ClassGroup8To10)

	saved, err := svc.MapDefaultSubjects(ctx, ref.Year.ID)
	require.NoError(t, err)
	assert.Equal(t, 5+8+9, saved)

	tests := []struct {
		name         string
		class        assessment.Class
		wantMain     int
		wantOptional int
	}{
		{name: "pre", class: pre, wantMain: 5},
		{name: "1-5", class: primary, wantMain: 6, wantOptional: 2},
		{name: "legacy 8-10", class: high, wantMain: 7, wantOptional: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mappings, err := repo.QueryClassSubjects(ctx, tt.class.ID, ref.Year.ID)
			require.NoError(t, err)
			var main, optional int
			for _, cs := range mappings {
				if cs.IsMain {
					main++
				} else {
					optional++
				}
			}
			assert.Equal(t, tt.wantMain, main)
			assert.Equal(t, tt.wantOptional, optional)
		})
	}

	// idempotent
	saved, err = svc.MapDefaultSubjects(ctx, ref.Year.ID)
	require.NoError(t, err)
	assert.Equal(t, 22, saved)
	mappings, err := repo.QueryClassSubjects(ctx, pre.ID, ref.Year.ID)
	require.NoError(t, err)
	assert.Len(t, mappings, 5)
}

func TestService_reports(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	examID, yearID := s.ref.Exams["SA1"].ID, s.ref.Year.ID

	t.Run("no summaries", func(t *testing.T) {
		perf, err := s.svc.ClassPerformance(ctx, s.class.ID, examID, yearID)
		require.NoError(t, err)
		assert.Nil(t, perf)
	})

	first := testutil.CreateStudent(t, s.repo, s.class, "Ravi", 1)
	second := testutil.CreateStudent(t, s.repo, s.class, "Sita", 2)
	s.enter(t, first, "MATH", "SA1", 95)
	s.enter(t, first, "ENG", "SA1", 85)
	s.enter(t, first, "GK", "SA1", 40)
	s.enter(t, first, "MATH", "FA1", 45)
	s.enter(t, second, "MATH", "SA1", 60)
	s.enter(t, second, "ENG", "SA1", 40)

	t.Run("report card", func(t *testing.T) {
		card, err := s.svc.ReportCard(ctx, first.ID, yearID)
		require.NoError(t, err)
		assert.Equal(t, "Ravi", card.Student.Name)
		assert.Equal(t, "Class 8", card.Student.Class)
		assert.Equal(t, "2024-2025", card.AcademicYear)

		require.Len(t, card.Exams, 2)
		assert.Equal(t, "FA1", card.Exams[0].Exam)
		assert.Equal(t, "SA1", card.Exams[1].Exam)
		assert.Equal(t, 90.0, card.Exams[1].Percentage)
		assert.Equal(t, 1, card.Exams[1].ClassRank)

		require.Len(t, card.Main, 5)
		require.Len(t, card.Optional, 1)
		assert.Equal(t, "English", card.Main[0].Name)
		assert.Equal(t, 85.0, card.Main[0].Marks["SA1"].Marks)
		assert.Equal(t, "GK", card.Optional[0].Code)
		assert.Equal(t, "D1", card.Optional[0].Marks["SA1"].Grade)
	})

	t.Run("class performance", func(t *testing.T) {
		perf, err := s.svc.ClassPerformance(ctx, s.class.ID, examID, yearID)
		require.NoError(t, err)
		require.NotNil(t, perf)
		assert.Equal(t, 2, perf.TotalStudents)
		assert.Equal(t, 70.0, perf.AveragePercentage) // (90 + 50) / 2
		assert.Equal(t, 180.0, perf.HighestMarks)
		assert.Equal(t, 100.0, perf.LowestMarks)
		assert.Equal(t, map[string]int{"A2": 1, "C2": 1}, perf.GradeDistribution)
		require.Len(t, perf.Students, 2)
		assert.Equal(t, "Ravi", perf.Students[0].StudentName)
		assert.Equal(t, 2, perf.Students[1].Rank)
	})

	t.Run("marks entry sheet", func(t *testing.T) {
		sheet, err := s.svc.MarksEntrySheet(ctx, s.class.ID, examID, yearID, "")
		require.NoError(t, err)
		assert.Equal(t, 100, sheet.MaxMarks)
		assert.Len(t, sheet.Subjects, 6)
		assert.Len(t, sheet.Students, 2)
		assert.Equal(t, 95.0, sheet.Marks[first.ID][s.ref.Subjects["MATH"].ID].Marks)

		sheet, err = s.svc.MarksEntrySheet(ctx, s.class.ID, examID, yearID, s.ref.Subjects["PHY"].ID)
		require.NoError(t, err)
		require.Len(t, sheet.Subjects, 1)
		assert.Equal(t, 50, sheet.Subjects[0].MaxMarks)
		assert.Empty(t, sheet.Marks)
	})

	t.Run("classes and exams", func(t *testing.T) {
		list, err := s.svc.ListClassesAndExams(ctx)
		require.NoError(t, err)
		assert.Len(t, list.Classes, 1)
		require.Len(t, list.Exams, 6)
		assert.Equal(t, "FA1", list.Exams[0].Name)
		assert.Equal(t, "SA2", list.Exams[5].Name)
	})
}
