package assessment

import (
	"context"
	"sort"

	"github.com/kat-co/vala"

	"github.com/trezcool/gradebook/core"
)

type StudentTotal struct {
	StudentID string  `json:"student_id"`
	Total     float64 `json:"total"`
}

// Ranking is a class ordered by descending exam total.
type Ranking []StudentTotal

// RankTotals sorts totals by descending total. The sort is stable: tied students keep their
// relative order in totals, which callers build from the roster (roll number order).
func RankTotals(totals []StudentTotal) Ranking {
	ranking := make(Ranking, len(totals))
	copy(ranking, totals)
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].Total > ranking[j].Total })
	return ranking
}

// RankOf returns the 1-based position of the student, or the last position if not ranked.
func (r Ranking) RankOf(studentID string) int {
	for i, st := range r {
		if st.StudentID == studentID {
			return i + 1
		}
	}
	return len(r)
}

// Ranks maps every ranked student ID to its rank.
func (r Ranking) Ranks() map[string]int {
	ranks := make(map[string]int, len(r))
	for i, st := range r {
		ranks[st.StudentID] = i + 1
	}
	return ranks
}

// Rank returns the class rank of a student for an exam and academic year, computed afresh
// from the main-subject totals of every student of the class.
func (svc *Service) Rank(ctx context.Context, studentID, examID, yearID string) (int, error) {
	if err := checkArgs(
		vala.StringNotEmpty(studentID, "studentID"),
		vala.StringNotEmpty(examID, "examID"),
		vala.StringNotEmpty(yearID, "yearID"),
	); err != nil {
		return 0, err
	}

	student, err := svc.repo.GetStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}
	if _, err = svc.repo.GetExam(ctx, examID); err != nil {
		return 0, err
	}
	if _, err = svc.repo.GetAcademicYear(ctx, yearID); err != nil {
		return 0, err
	}

	mains, err := svc.mainSubjectIDs(ctx, student.ClassID, yearID)
	if err != nil {
		return 0, err
	}
	ranking, err := svc.classRanking(ctx, student.ClassID, examID, yearID, mains)
	if err != nil {
		return 0, err
	}
	return ranking.RankOf(student.ID), nil
}

// classRanking ranks the class roster on main-subject totals; students without marks total 0.
func (svc *Service) classRanking(ctx context.Context, classID, examID, yearID string, mains map[string]bool, exec ...core.DBExecutor) (Ranking, error) {
	roster, err := svc.repo.QueryStudents(ctx, classID, exec...)
	if err != nil {
		return nil, err
	}
	marks, err := svc.repo.QueryMarks(ctx, MarkFilter{
		ClassID:        classID,
		ExamID:         examID,
		AcademicYearID: yearID,
	}, exec...)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]float64, len(roster))
	for _, mark := range marks {
		if mains[mark.SubjectID] {
			sums[mark.StudentID] += mark.MarksObtained
		}
	}
	totals := make([]StudentTotal, 0, len(roster))
	for _, student := range roster {
		totals = append(totals, StudentTotal{StudentID: student.ID, Total: core.Round(sums[student.ID], 2)})
	}
	return RankTotals(totals), nil
}
