package assessment

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

// Percentage returns obtained out of max as a percentage rounded to 2 decimal places; 0 when max is 0.
func Percentage(obtained float64, max int) float64 {
	if max == 0 {
		return 0
	}
	return core.Round(obtained/float64(max)*100, 2)
}

// Summarize recomputes and stores the exam summary of a student.
// It returns nil when the student has no marks for the main subjects of the class.
func (svc *Service) Summarize(ctx context.Context, studentID, examID, yearID string) (*StudentExamSummary, error) {
	if err := checkArgs(
		vala.StringNotEmpty(studentID, "studentID"),
		vala.StringNotEmpty(examID, "examID"),
		vala.StringNotEmpty(yearID, "yearID"),
	); err != nil {
		return nil, err
	}

	student, err := svc.repo.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	class, err := svc.repo.GetClass(ctx, student.ClassID)
	if err != nil {
		return nil, err
	}
	exam, err := svc.repo.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if _, err = svc.repo.GetAcademicYear(ctx, yearID); err != nil {
		return nil, err
	}

	var summary *StudentExamSummary
	err = svc.withGradingLock(ctx, class.ID, exam.ID, yearID, func(exec core.DBExecutor) error {
		var txErr error
		summary, txErr = svc.summarize(ctx, student, class, exam, yearID, exec)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// SummarizeClass recomputes the exam summaries of every student of a class.
func (svc *Service) SummarizeClass(ctx context.Context, classID, examID, yearID string) ([]StudentExamSummary, error) {
	if err := checkArgs(
		vala.StringNotEmpty(classID, "classID"),
		vala.StringNotEmpty(examID, "examID"),
		vala.StringNotEmpty(yearID, "yearID"),
	); err != nil {
		return nil, err
	}

	class, err := svc.repo.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	exam, err := svc.repo.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if _, err = svc.repo.GetAcademicYear(ctx, yearID); err != nil {
		return nil, err
	}

	var summaries []StudentExamSummary
	err = svc.withGradingLock(ctx, class.ID, exam.ID, yearID, func(exec core.DBExecutor) error {
		students, txErr := svc.repo.QueryStudents(ctx, class.ID, exec)
		if txErr != nil {
			return txErr
		}
		for _, student := range students {
			summary, txErr := svc.summarize(ctx, student, class, exam, yearID, exec)
			if txErr != nil {
				return txErr
			}
			if summary != nil {
				summaries = append(summaries, *summary)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// ranks of the first students may have moved while the rest were summarized
	ranked, err := svc.repo.QuerySummaries(ctx, SummaryFilter{ClassID: class.ID, ExamID: exam.ID, AcademicYearID: yearID})
	if err != nil {
		return nil, err
	}
	ranks := make(map[string]int, len(ranked))
	for _, s := range ranked {
		ranks[s.StudentID] = s.ClassRank
	}
	for i := range summaries {
		summaries[i].ClassRank = ranks[summaries[i].StudentID]
	}
	return summaries, nil
}

func (svc *Service) summarize(ctx context.Context, student Student, class Class, exam Exam, yearID string, exec core.DBExecutor) (*StudentExamSummary, error) {
	key := SummaryKey{StudentID: student.ID, ExamID: exam.ID, AcademicYearID: yearID}

	mains, err := svc.mainSubjectIDs(ctx, class.ID, yearID, exec)
	if err != nil {
		return nil, err
	}
	marks, err := svc.repo.QueryMarks(ctx, MarkFilter{
		StudentIDs:     []string{student.ID},
		ExamID:         exam.ID,
		AcademicYearID: yearID,
	}, exec)
	if err != nil {
		return nil, err
	}

	var (
		obtained float64
		max      int
		count    int
	)
	for _, mark := range marks {
		if !mains[mark.SubjectID] {
			continue
		}
		obtained += mark.MarksObtained
		max += mark.MaxMarks
		count++
	}

	ranking, err := svc.classRanking(ctx, class.ID, exam.ID, yearID, mains, exec)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		if err = svc.repo.DeleteSummary(ctx, key, exec); err != nil {
			return nil, errors.Wrap(err, "deleting stale summary")
		}
		return nil, svc.repo.UpdateSummaryRanks(ctx, exam.ID, yearID, ranking.Ranks(), exec)
	}

	obtained = core.Round(obtained, 2)
	percentage := Percentage(obtained, max)
	grade, err := svc.grader.OverallGrade(ctx, class.Group, exam.Type, percentage, exec)
	if err != nil {
		return nil, err
	}

	summary, err := svc.repo.SaveSummary(ctx, StudentExamSummary{
		SummaryKey:        key,
		TotalObtained:     obtained,
		TotalMax:          max,
		Percentage:        percentage,
		OverallGrade:      grade.Grade,
		OverallGradePoint: grade.Point,
		ClassRank:         ranking.RankOf(student.ID),
		SubjectsCount:     count,
	}, exec)
	if err != nil {
		return nil, errors.Wrap(err, "saving summary")
	}

	// other students' cached ranks follow this student's new total
	if err = svc.repo.UpdateSummaryRanks(ctx, exam.ID, yearID, ranking.Ranks(), exec); err != nil {
		return nil, errors.Wrap(err, "updating class ranks")
	}
	return &summary, nil
}

func (svc *Service) mainSubjectIDs(ctx context.Context, classID, yearID string, exec ...core.DBExecutor) (map[string]bool, error) {
	mappings, err := svc.repo.QueryClassSubjects(ctx, classID, yearID, exec...)
	if err != nil {
		return nil, err
	}
	mains := make(map[string]bool, len(mappings))
	for _, cs := range mappings {
		if cs.IsMain {
			mains[cs.SubjectID] = true
		}
	}
	return mains, nil
}
