package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/assessment"
)

type (
	seedYear struct {
		ID        string `db:"id"`
		Name      string `db:"name"`
		StartDate string `db:"start_date"`
		EndDate   string `db:"end_date"`
		IsCurrent bool   `db:"is_current"`
		IsActive  bool   `db:"is_active"`
	}

	seedExam struct {
		ID       string `db:"id"`
		Name     string `db:"name"`
		Type     string `db:"exam_type"`
		Order    int    `db:"exam_order"`
		IsActive bool   `db:"is_active"`
	}

	seedSubject struct {
		ID            string         `db:"id"`
		Name          string         `db:"name"`
		Code          string         `db:"code"`
		IsActive      bool           `db:"is_active"`
		CombinedGroup sql.NullString `db:"combined_group"`
	}

	seedScale struct {
		ID         string  `db:"id"`
		ClassGroup string  `db:"class_group"`
		ExamType   string  `db:"exam_type"`
		MinMarks   int     `db:"min_marks"`
		MaxMarks   int     `db:"max_marks"`
		Grade      string  `db:"grade"`
		GradePoint float64 `db:"grade_point"`
	}
)

const (
	seedYearQuery = `
		INSERT INTO academic_year (id, name, start_date, end_date, is_current, is_active)
		VALUES (:id, :name, :start_date, :end_date, :is_current, :is_active)
		ON CONFLICT (name) DO NOTHING`

	seedExamQuery = `
		INSERT INTO exam (id, name, exam_type, exam_order, is_active)
		VALUES (:id, :name, :exam_type, :exam_order, :is_active)
		ON CONFLICT (name) DO NOTHING`

	seedSubjectQuery = `
		INSERT INTO subject (id, name, code, is_active, combined_group)
		VALUES (:id, :name, :code, :is_active, :combined_group)
		ON CONFLICT (code) DO NOTHING`

	seedScaleQuery = `
		INSERT INTO grade_scale (id, class_group, exam_type, min_marks, max_marks, grade, grade_point)
		VALUES (:id, :class_group, :exam_type, :min_marks, :max_marks, :grade, :grade_point)
		ON CONFLICT (class_group, exam_type, min_marks) DO NOTHING`
)

// Seed inserts the reference data in a single transaction. Rows already present are left untouched.
func Seed(ctx context.Context, db *sql.DB, data assessment.SeedData) (err error) {
	xdb := sqlx.NewDb(db, "postgres")
	tx, err := xdb.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning seed transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = errors.Wrap(tx.Commit(), "committing seed transaction")
	}()

	year := data.AcademicYear
	if year.IsCurrent {
		var hasCurrent bool
		if err = tx.GetContext(ctx, &hasCurrent, `SELECT EXISTS (SELECT 1 FROM academic_year WHERE is_current)`); err != nil {
			return errors.Wrap(err, "checking current academic year")
		}
		year.IsCurrent = !hasCurrent
	}
	if _, err = tx.NamedExecContext(ctx, seedYearQuery, seedYear{
		ID:        uuid.New().String(),
		Name:      year.Name,
		StartDate: year.StartDate.Format("2006-01-02"),
		EndDate:   year.EndDate.Format("2006-01-02"),
		IsCurrent: year.IsCurrent,
		IsActive:  year.IsActive,
	}); err != nil {
		return errors.Wrap(err, "seeding academic year")
	}

	for _, exam := range data.Exams {
		row := seedExam{ID: uuid.New().String(), Name: exam.Name, Type: string(exam.Type), Order: exam.Order, IsActive: exam.IsActive}
		if _, err = tx.NamedExecContext(ctx, seedExamQuery, row); err != nil {
			return errors.Wrapf(err, "seeding exam %s", exam.Name)
		}
	}

	for _, subj := range data.Subjects {
		row := seedSubject{
			ID:            uuid.New().String(),
			Name:          subj.Name,
			Code:          subj.Code,
			IsActive:      subj.IsActive,
			CombinedGroup: sql.NullString{String: subj.CombinedGroup, Valid: subj.CombinedGroup != ""},
		}
		if _, err = tx.NamedExecContext(ctx, seedSubjectQuery, row); err != nil {
			return errors.Wrapf(err, "seeding subject %s", subj.Code)
		}
	}

	for _, gs := range data.GradeScales {
		row := seedScale{
			ID:         uuid.New().String(),
			ClassGroup: string(gs.ClassGroup),
			ExamType:   string(gs.ExamType),
			MinMarks:   gs.MinMarks,
			MaxMarks:   gs.MaxMarks,
			Grade:      gs.Grade,
			GradePoint: gs.GradePoint,
		}
		if _, err = tx.NamedExecContext(ctx, seedScaleQuery, row); err != nil {
			return errors.Wrapf(err, "seeding %s %s grade scale", gs.ClassGroup, gs.ExamType)
		}
	}
	return nil
}
