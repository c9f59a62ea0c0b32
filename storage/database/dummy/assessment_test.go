package dummydb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core/assessment"
)

func TestAssessmentRepository_ordering(t *testing.T) {
	ctx := context.Background()
	repo := NewAssessmentRepository(Open())

	class, err := repo.CreateClass(ctx, assessment.Class{Name: "Class 8", Group: assessment.ClassGroupHigh})
	require.NoError(t, err)
	for _, st := range []assessment.Student{{Name: "C", RollNumber: 3}, {Name: "A", RollNumber: 1}, {Name: "B", RollNumber: 2}} {
		st.ClassID = class.ID
		_, err = repo.CreateStudent(ctx, st)
		require.NoError(t, err)
	}
	_, err = repo.CreateStudent(ctx, assessment.Student{Name: "Z", ClassID: "other", RollNumber: 1})
	require.NoError(t, err)

	students, err := repo.QueryStudents(ctx, class.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(students))
	for _, st := range students {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)

	for _, exam := range []assessment.Exam{
		{Name: "SA1", Type: assessment.ExamTypeSA, Order: 1, IsActive: true},
		{Name: "FA2", Type: assessment.ExamTypeFA, Order: 2, IsActive: true},
		{Name: "FA1", Type: assessment.ExamTypeFA, Order: 1, IsActive: true},
		{Name: "FA3", Type: assessment.ExamTypeFA, Order: 3},
	} {
		_, err = repo.CreateExam(ctx, exam)
		require.NoError(t, err)
	}

	tests := []struct {
		name       string
		activeOnly bool
		want       []string
	}{
		{name: "all", want: []string{"FA1", "FA2", "FA3", "SA1"}},
		{name: "active only", activeOnly: true, want: []string{"FA1", "FA2", "SA1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exams, err := repo.QueryExams(ctx, tt.activeOnly)
			require.NoError(t, err)
			got := make([]string, 0, len(exams))
			for _, exam := range exams {
				got = append(got, exam.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssessmentRepository_upserts(t *testing.T) {
	ctx := context.Background()
	repo := NewAssessmentRepository(Open())
	key := assessment.MarkKey{StudentID: "s", SubjectID: "m", ExamID: "e", AcademicYearID: "y"}

	first, err := repo.SaveMark(ctx, assessment.StudentMark{MarkKey: key, MarksObtained: 10})
	require.NoError(t, err)
	second, err := repo.SaveMark(ctx, assessment.StudentMark{MarkKey: key, MarksObtained: 20})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	marks, err := repo.QueryMarks(ctx, assessment.MarkFilter{ExamID: "e"})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, 20.0, marks[0].MarksObtained)

	sk := key.SummaryKey()
	_, err = repo.SaveSummary(ctx, assessment.StudentExamSummary{SummaryKey: sk, ClassRank: 2})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateSummaryRanks(ctx, "e", "y", map[string]int{"s": 1, "ghost": 2}))
	summary, err := repo.GetSummary(ctx, sk)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ClassRank)

	summaries, err := repo.QuerySummaries(ctx, assessment.SummaryFilter{ExamID: "e", AcademicYearID: "y"})
	require.NoError(t, err)
	assert.Len(t, summaries, 1, "ranks of missing summaries are not inserted")

	require.NoError(t, repo.DeleteSummary(ctx, sk))
	_, err = repo.GetSummary(ctx, sk)
	assert.Equal(t, assessment.ErrSummaryNotFound, err)
}
