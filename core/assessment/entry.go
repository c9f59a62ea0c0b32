package assessment

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

// MarkEntry is a mark as entered by school staff. Grades are always computed, never entered.
type MarkEntry struct {
	MarkKey
	MarksObtained float64 `json:"marks_obtained" validate:"gte=0"`
	IsAbsent      bool    `json:"is_absent"`
	EnteredBy     string  `json:"entered_by" validate:"max=150"`
}

// BulkMarkEntry holds the marks of many students for one subject, exam and academic year.
type BulkMarkEntry struct {
	SubjectID      string             `json:"subject_id" validate:"required,uuid"`
	ExamID         string             `json:"exam_id" validate:"required,uuid"`
	AcademicYearID string             `json:"academic_year_id" validate:"required,uuid"`
	EnteredBy      string             `json:"entered_by" validate:"max=150"`
	Marks          []StudentMarkEntry `json:"marks" validate:"required,min=1,dive"`
}

type StudentMarkEntry struct {
	StudentID     string  `json:"student_id" validate:"required,uuid"`
	MarksObtained float64 `json:"marks_obtained" validate:"gte=0"`
	IsAbsent      bool    `json:"is_absent"`
}

func checkArgs(checkers ...vala.Checker) error {
	if err := vala.BeginValidation().Validate(checkers...).Check(); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

// EnterMark saves a mark with its computed grade, re-grades its combined siblings and
// recomputes the student's exam summary, all in one transaction.
func (svc *Service) EnterMark(ctx context.Context, entry MarkEntry) (StudentMark, error) {
	if err := svc.validate.Struct(entry); err != nil {
		return StudentMark{}, err
	}

	mc, err := svc.loadMarkContext(ctx, entry.MarkKey)
	if err != nil {
		return StudentMark{}, err
	}
	mark, err := newMark(mc, entry)
	if err != nil {
		return StudentMark{}, err
	}

	var saved StudentMark
	err = svc.withGradingLock(ctx, mc.Class.ID, entry.ExamID, entry.AcademicYearID, func(exec core.DBExecutor) error {
		var txErr error
		if saved, txErr = svc.saveMark(ctx, mc, mark, exec); txErr != nil {
			return txErr
		}
		_, txErr = svc.summarize(ctx, mc.Student, mc.Class, mc.Exam, entry.AcademicYearID, exec)
		return txErr
	})
	if err != nil {
		return StudentMark{}, err
	}

	svc.logger.Debug("mark entered", map[string]interface{}{
		"student": mc.Student.ID,
		"subject": mc.Subject.Code,
		"exam":    mc.Exam.Name,
		"grade":   saved.Grade,
	}, core.Operator{Name: entry.EnteredBy})
	return saved, nil
}

// EnterMarks enters the marks of a subject for many students. It stops at the first failure and
// returns how many marks were saved before it.
func (svc *Service) EnterMarks(ctx context.Context, bulk BulkMarkEntry) (int, error) {
	if err := svc.validate.Struct(bulk); err != nil {
		return 0, err
	}

	subject, err := svc.repo.GetSubject(ctx, bulk.SubjectID)
	if err != nil {
		return 0, err
	}
	exam, err := svc.repo.GetExam(ctx, bulk.ExamID)
	if err != nil {
		return 0, err
	}
	if _, err = svc.repo.GetAcademicYear(ctx, bulk.AcademicYearID); err != nil {
		return 0, err
	}

	var saved int
	for _, sme := range bulk.Marks {
		entry := MarkEntry{
			MarkKey: MarkKey{
				StudentID:      sme.StudentID,
				SubjectID:      bulk.SubjectID,
				ExamID:         bulk.ExamID,
				AcademicYearID: bulk.AcademicYearID,
			},
			MarksObtained: sme.MarksObtained,
			IsAbsent:      sme.IsAbsent,
			EnteredBy:     bulk.EnteredBy,
		}
		student, err := svc.repo.GetStudent(ctx, sme.StudentID)
		if err != nil {
			return saved, err
		}
		class, err := svc.repo.GetClass(ctx, student.ClassID)
		if err != nil {
			return saved, err
		}
		mc := MarkContext{Student: student, Class: class, Exam: exam, Subject: subject}
		mark, err := newMark(mc, entry)
		if err != nil {
			return saved, err
		}

		err = svc.withGradingLock(ctx, class.ID, exam.ID, bulk.AcademicYearID, func(exec core.DBExecutor) error {
			if _, txErr := svc.saveMark(ctx, mc, mark, exec); txErr != nil {
				return txErr
			}
			_, txErr := svc.summarize(ctx, student, class, exam, bulk.AcademicYearID, exec)
			return txErr
		})
		if err != nil {
			return saved, err
		}
		saved++
	}

	svc.logger.Info(fmt.Sprintf("marks saved for %d students", saved), map[string]interface{}{
		"subject": subject.Code,
		"exam":    exam.Name,
	}, core.Operator{Name: bulk.EnteredBy})
	return saved, nil
}

// Regrade recomputes the grade of every mark of a class for an exam and year, then the class summaries.
// It is meant to be run after grade scales change.
func (svc *Service) Regrade(ctx context.Context, classID, examID, yearID string) (int, error) {
	if err := checkArgs(
		vala.StringNotEmpty(classID, "classID"),
		vala.StringNotEmpty(examID, "examID"),
		vala.StringNotEmpty(yearID, "yearID"),
	); err != nil {
		return 0, err
	}

	class, err := svc.repo.GetClass(ctx, classID)
	if err != nil {
		return 0, err
	}
	exam, err := svc.repo.GetExam(ctx, examID)
	if err != nil {
		return 0, err
	}
	if _, err = svc.repo.GetAcademicYear(ctx, yearID); err != nil {
		return 0, err
	}

	var changed int
	err = svc.withGradingLock(ctx, class.ID, exam.ID, yearID, func(exec core.DBExecutor) error {
		students, err := svc.repo.QueryStudents(ctx, class.ID, exec)
		if err != nil {
			return err
		}
		subjects, err := svc.repo.QuerySubjects(ctx, SubjectFilter{}, exec)
		if err != nil {
			return err
		}
		subjectsByID := make(map[string]Subject, len(subjects))
		for _, subj := range subjects {
			subjectsByID[subj.ID] = subj
		}

		for _, student := range students {
			marks, err := svc.repo.QueryMarks(ctx, MarkFilter{
				StudentIDs:     []string{student.ID},
				ExamID:         exam.ID,
				AcademicYearID: yearID,
			}, exec)
			if err != nil {
				return err
			}
			for _, mark := range marks {
				mc := MarkContext{Student: student, Class: class, Exam: exam, Subject: subjectsByID[mark.SubjectID]}
				grade, err := svc.grader.Grade(ctx, mc, mark, exec)
				if err != nil {
					return err
				}
				if grade.Grade == mark.Grade && grade.Point == mark.GradePoint {
					continue
				}
				mark.setGrade(grade)
				mark.UpdatedAt = nowFunc().UTC()
				if _, err = svc.repo.SaveMark(ctx, mark, exec); err != nil {
					return err
				}
				changed++
			}
			if _, err = svc.summarize(ctx, student, class, exam, yearID, exec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (svc *Service) loadMarkContext(ctx context.Context, key MarkKey) (MarkContext, error) {
	var mc MarkContext
	var err error

	if mc.Student, err = svc.repo.GetStudent(ctx, key.StudentID); err != nil {
		return MarkContext{}, err
	}
	if mc.Class, err = svc.repo.GetClass(ctx, mc.Student.ClassID); err != nil {
		return MarkContext{}, err
	}
	if mc.Subject, err = svc.repo.GetSubject(ctx, key.SubjectID); err != nil {
		return MarkContext{}, err
	}
	if mc.Exam, err = svc.repo.GetExam(ctx, key.ExamID); err != nil {
		return MarkContext{}, err
	}
	if _, err = svc.repo.GetAcademicYear(ctx, key.AcademicYearID); err != nil {
		return MarkContext{}, err
	}
	return mc, nil
}

// newMark builds the mark to save from an entry: absent marks are stored as 0 and
// marks may not exceed the maximum of the class group, exam and subject.
func newMark(mc MarkContext, entry MarkEntry) (StudentMark, error) {
	maxMarks := mc.Exam.MaxMarks(mc.Class.Group, &mc.Subject)
	marks := core.Round(entry.MarksObtained, 2)
	if entry.IsAbsent {
		marks = 0
	}
	if marks > float64(maxMarks) {
		return StudentMark{}, core.NewValidationError(
			ErrMarksExceedMax,
			core.FieldError{Field: "marks_obtained", Error: fmt.Sprintf("must not exceed %d", maxMarks)},
		)
	}
	return StudentMark{
		MarkKey:       entry.MarkKey,
		MarksObtained: marks,
		MaxMarks:      maxMarks,
		IsAbsent:      entry.IsAbsent,
		EnteredBy:     core.CleanString(entry.EnteredBy),
		UpdatedAt:     nowFunc().UTC(),
	}, nil
}

// saveMark grades and saves mark, then re-grades the marks of its combined siblings.
func (svc *Service) saveMark(ctx context.Context, mc MarkContext, mark StudentMark, exec core.DBExecutor) (StudentMark, error) {
	grade, err := svc.grader.Grade(ctx, mc, mark, exec)
	if err != nil {
		return StudentMark{}, err
	}
	mark.setGrade(grade)

	saved, err := svc.repo.SaveMark(ctx, mark, exec)
	if err != nil {
		return StudentMark{}, errors.Wrap(err, "saving mark")
	}

	if mc.Subject.IsCombined() {
		if err = svc.regradeSiblings(ctx, mc, saved, exec); err != nil {
			return StudentMark{}, err
		}
	}
	return saved, nil
}

func (svc *Service) regradeSiblings(ctx context.Context, mc MarkContext, mark StudentMark, exec core.DBExecutor) error {
	subjects, err := svc.repo.QuerySubjects(ctx, SubjectFilter{CombinedGroup: mc.Subject.CombinedGroup}, exec)
	if err != nil {
		return err
	}
	siblings := make(map[string]Subject, len(subjects))
	siblingIDs := make([]string, 0, len(subjects))
	for _, subj := range subjects {
		if subj.ID != mc.Subject.ID {
			siblings[subj.ID] = subj
			siblingIDs = append(siblingIDs, subj.ID)
		}
	}
	if len(siblingIDs) == 0 {
		return nil
	}

	marks, err := svc.repo.QueryMarks(ctx, MarkFilter{
		StudentIDs:     []string{mark.StudentID},
		SubjectIDs:     siblingIDs,
		ExamID:         mark.ExamID,
		AcademicYearID: mark.AcademicYearID,
	}, exec)
	if err != nil {
		return err
	}
	for _, sibling := range marks {
		smc := mc
		smc.Subject = siblings[sibling.SubjectID]
		grade, err := svc.grader.Grade(ctx, smc, sibling, exec)
		if err != nil {
			return err
		}
		if grade.Grade == sibling.Grade && grade.Point == sibling.GradePoint {
			continue
		}
		sibling.setGrade(grade)
		sibling.UpdatedAt = nowFunc().UTC()
		if _, err = svc.repo.SaveMark(ctx, sibling, exec); err != nil {
			return errors.Wrap(err, "saving combined sibling mark")
		}
	}
	return nil
}
