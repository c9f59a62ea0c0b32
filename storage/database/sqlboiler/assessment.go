package boiledrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assessment"
)

type (
	academicYearRow struct {
		ID        string    `boil:"id"`
		Name      string    `boil:"name"`
		StartDate time.Time `boil:"start_date"`
		EndDate   time.Time `boil:"end_date"`
		IsCurrent bool      `boil:"is_current"`
		IsActive  bool      `boil:"is_active"`
	}

	subjectRow struct {
		ID            string      `boil:"id"`
		Name          string      `boil:"name"`
		Code          string      `boil:"code"`
		IsActive      bool        `boil:"is_active"`
		CombinedGroup null.String `boil:"combined_group"`
	}

	classRow struct {
		ID         string `boil:"id"`
		Name       string `boil:"name"`
		ClassGroup string `boil:"class_group"`
	}

	studentRow struct {
		ID         string `boil:"id"`
		Name       string `boil:"name"`
		ClassID    string `boil:"class_id"`
		RollNumber int    `boil:"roll_number"`
	}

	classSubjectRow struct {
		ClassID        string `boil:"class_id"`
		SubjectID      string `boil:"subject_id"`
		AcademicYearID string `boil:"academic_year_id"`
		IsMain         bool   `boil:"is_main"`
	}

	examRow struct {
		ID       string `boil:"id"`
		Name     string `boil:"name"`
		ExamType string `boil:"exam_type"`
		Order    int    `boil:"exam_order"`
		IsActive bool   `boil:"is_active"`
	}

	gradeScaleRow struct {
		ID         string  `boil:"id"`
		ClassGroup string  `boil:"class_group"`
		ExamType   string  `boil:"exam_type"`
		MinMarks   int     `boil:"min_marks"`
		MaxMarks   int     `boil:"max_marks"`
		Grade      string  `boil:"grade"`
		GradePoint float64 `boil:"grade_point"`
	}

	markRow struct {
		ID             string      `boil:"id"`
		StudentID      string      `boil:"student_id"`
		SubjectID      string      `boil:"subject_id"`
		ExamID         string      `boil:"exam_id"`
		AcademicYearID string      `boil:"academic_year_id"`
		MarksObtained  float64     `boil:"marks_obtained"`
		MaxMarks       int         `boil:"max_marks"`
		Grade          string      `boil:"grade"`
		GradePoint     float64     `boil:"grade_point"`
		IsAbsent       bool        `boil:"is_absent"`
		EnteredBy      null.String `boil:"entered_by"`
		UpdatedAt      time.Time   `boil:"updated_at"`
	}

	summaryRow struct {
		ID                string   `boil:"id"`
		StudentID         string   `boil:"student_id"`
		ExamID            string   `boil:"exam_id"`
		AcademicYearID    string   `boil:"academic_year_id"`
		TotalObtained     float64  `boil:"total_obtained"`
		TotalMax          int      `boil:"total_max"`
		Percentage        float64  `boil:"percentage"`
		OverallGrade      string   `boil:"overall_grade"`
		OverallGradePoint float64  `boil:"overall_grade_point"`
		ClassRank         null.Int `boil:"class_rank"`
		SubjectsCount     int      `boil:"subjects_count"`
	}
)

const (
	academicYearColumns = `id, name, start_date, end_date, is_current, is_active`
	subjectColumns      = `id, name, code, is_active, combined_group`
	classColumns        = `id, name, class_group`
	studentColumns      = `id, name, class_id, roll_number`
	examColumns         = `id, name, exam_type, exam_order, is_active`
	gradeScaleColumns   = `id, class_group, exam_type, min_marks, max_marks, grade, grade_point`
	markColumns         = `id, student_id, subject_id, exam_id, academic_year_id, marks_obtained, max_marks, grade, grade_point, is_absent, entered_by, updated_at`
	summaryColumns      = `id, student_id, exam_id, academic_year_id, total_obtained, total_max, percentage, overall_grade, overall_grade_point, class_rank, subjects_count`
)

type assessmentRepository struct {
	exec core.DBExecutor
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(exec core.DBExecutor) *assessmentRepository {
	return &assessmentRepository{exec: exec}
}

func (repo assessmentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// validID reports whether id can be compared against a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// whereClause accumulates AND-ed conditions with numbered placeholders.
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Academic years

func (repo assessmentRepository) unboilYear(row academicYearRow) assessment.AcademicYear {
	return assessment.AcademicYear{
		ID:        row.ID,
		Name:      row.Name,
		StartDate: row.StartDate.UTC(),
		EndDate:   row.EndDate.UTC(),
		IsCurrent: row.IsCurrent,
		IsActive:  row.IsActive,
	}
}

func (repo assessmentRepository) CreateAcademicYear(ctx context.Context, year assessment.AcademicYear, exec ...core.DBExecutor) (assessment.AcademicYear, error) {
	year.ID = uuid.New().String()
	_, err := queries.Raw(
		`INSERT INTO academic_year (`+academicYearColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		year.ID, year.Name, year.StartDate.UTC(), year.EndDate.UTC(), year.IsCurrent, year.IsActive,
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return assessment.AcademicYear{}, errors.Wrap(err, "inserting academic year")
	}
	return year, nil
}

func (repo assessmentRepository) GetAcademicYear(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.AcademicYear, error) {
	if !validID(id) {
		return assessment.AcademicYear{}, assessment.ErrAcademicYearNotFound
	}
	var row academicYearRow
	err := queries.Raw(`SELECT `+academicYearColumns+` FROM academic_year WHERE id = $1`, id).
		Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return assessment.AcademicYear{}, trapNoRowsErr(err, assessment.ErrAcademicYearNotFound, "finding academic year")
	}
	return repo.unboilYear(row), nil
}

func (repo assessmentRepository) GetCurrentAcademicYear(ctx context.Context, exec ...core.DBExecutor) (assessment.AcademicYear, error) {
	var row academicYearRow
	err := queries.Raw(`SELECT ` + academicYearColumns + ` FROM academic_year WHERE is_current LIMIT 1`).
		Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return assessment.AcademicYear{}, trapNoRowsErr(err, assessment.ErrAcademicYearNotFound, "finding current academic year")
	}
	return repo.unboilYear(row), nil
}

func (repo assessmentRepository) SetCurrentAcademicYear(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !validID(id) {
		return assessment.ErrAcademicYearNotFound
	}
	exe := repo.getExec(exec)

	// demote first: at most one current year is allowed by a partial unique index
	if _, err := queries.Raw(`UPDATE academic_year SET is_current = false WHERE is_current AND id <> $1`, id).
		ExecContext(ctx, exe); err != nil {
		return errors.Wrap(err, "demoting academic years")
	}
	res, err := queries.Raw(`UPDATE academic_year SET is_current = true WHERE id = $1`, id).ExecContext(ctx, exe)
	if err != nil {
		return errors.Wrap(err, "promoting academic year")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assessment.ErrAcademicYearNotFound
	}
	return nil
}

// Subjects

func (repo assessmentRepository) unboilSubject(row subjectRow) assessment.Subject {
	return assessment.Subject{
		ID:            row.ID,
		Name:          row.Name,
		Code:          row.Code,
		IsActive:      row.IsActive,
		CombinedGroup: row.CombinedGroup.String,
	}
}

func (repo assessmentRepository) CreateSubject(ctx context.Context, subject assessment.Subject, exec ...core.DBExecutor) (assessment.Subject, error) {
	subject.ID = uuid.New().String()
	_, err := queries.Raw(
		`INSERT INTO subject (`+subjectColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		subject.ID, subject.Name, subject.Code, subject.IsActive,
		null.NewString(subject.CombinedGroup, subject.CombinedGroup != ""),
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return assessment.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return subject, nil
}

func (repo assessmentRepository) GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Subject, error) {
	if !validID(id) {
		return assessment.Subject{}, assessment.ErrSubjectNotFound
	}
	var row subjectRow
	err := queries.Raw(`SELECT `+subjectColumns+` FROM subject WHERE id = $1`, id).
		Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return assessment.Subject{}, trapNoRowsErr(err, assessment.ErrSubjectNotFound, "finding subject")
	}
	return repo.unboilSubject(row), nil
}

func (repo assessmentRepository) QuerySubjects(ctx context.Context, filter assessment.SubjectFilter, exec ...core.DBExecutor) ([]assessment.Subject, error) {
	where := new(whereClause)
	if filter.CombinedGroup != "" {
		where.add("combined_group = %s", filter.CombinedGroup)
	}
	if len(filter.Codes) > 0 {
		where.add("code = ANY(%s)", pq.Array(filter.Codes))
	}

	var rows []subjectRow
	err := queries.Raw(`SELECT `+subjectColumns+` FROM subject`+where.String()+` ORDER BY name`, where.args...).
		Bind(ctx, repo.getExec(exec), &rows)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]assessment.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, repo.unboilSubject(row))
	}
	return subjects, nil
}

// Classes & students

func (repo assessmentRepository) CreateClass(ctx context.Context, class assessment.Class, exec ...core.DBExecutor) (assessment.Class, error) {
	class.ID = uuid.New().String()
	_, err := queries.Raw(`INSERT INTO class (`+classColumns+`) VALUES ($1, $2, $3)`, class.ID, class.Name, string(class.Group)).
		ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return assessment.Class{}, errors.Wrap(err, "inserting class")
	}
	return class, nil
}

func (repo assessmentRepository) GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Class, error) {
	if !validID(id) {
		return assessment.Class{}, assessment.ErrClassNotFound
	}
	var row classRow
	err := queries.Raw(`SELECT `+classColumns+` FROM class WHERE id = $1`, id).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return assessment.Class{}, trapNoRowsErr(err, assessment.ErrClassNotFound, "finding class")
	}
	return assessment.Class{ID: row.ID, Name: row.Name, Group: assessment.ClassGroup(row.ClassGroup)}, nil
}

func (repo assessmentRepository) QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]assessment.Class, error) {
	var rows []classRow
	if err := queries.Raw(`SELECT `+classColumns+` FROM class ORDER BY name`).Bind(ctx, repo.getExec(exec), &rows); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]assessment.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, assessment.Class{ID: row.ID, Name: row.Name, Group: assessment.ClassGroup(row.ClassGroup)})
	}
	return classes, nil
}

func (repo assessmentRepository) CreateStudent(ctx context.Context, student assessment.Student, exec ...core.DBExecutor) (assessment.Student, error) {
	student.ID = uuid.New().String()
	_, err := queries.Raw(
		`INSERT INTO student (`+studentColumns+`) VALUES ($1, $2, $3, $4)`,
		student.ID, student.Name, student.ClassID, student.RollNumber,
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return assessment.Student{}, errors.Wrap(err, "inserting student")
	}
	return student, nil
}

func (repo assessmentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Student, error) {
	if !validID(id) {
		return assessment.Student{}, assessment.ErrStudentNotFound
	}
	var row studentRow
	err := queries.Raw(`SELECT `+studentColumns+` FROM student WHERE id = $1`, id).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return assessment.Student{}, trapNoRowsErr(err, assessment.ErrStudentNotFound, "finding student")
	}
	return assessment.Student(row), nil
}

func (repo assessmentRepository) QueryStudents(ctx context.Context, classID string, exec ...core.DBExecutor) ([]assessment.Student, error) {
	if !validID(classID) {
		return []assessment.Student{}, nil
	}
	var rows []studentRow
	err := queries.Raw(`SELECT `+studentColumns+` FROM student WHERE class_id = $1 ORDER BY roll_number, id`, classID).
		Bind(ctx, repo.getExec(exec), &rows)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]assessment.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, assessment.Student(row))
	}
	return students, nil
}

// Class subjects

func (repo assessmentRepository) SaveClassSubject(ctx context.Context, cs assessment.ClassSubject, exec ...core.DBExecutor) error {
	_, err := queries.Raw(`
		INSERT INTO class_subject (class_id, subject_id, academic_year_id, is_main) VALUES ($1, $2, $3, $4)
		ON CONFLICT (class_id, subject_id, academic_year_id) DO UPDATE SET is_main = EXCLUDED.is_main`,
		cs.ClassID, cs.SubjectID, cs.AcademicYearID, cs.IsMain,
	).ExecContext(ctx, repo.getExec(exec))
	return errors.Wrap(err, "saving class subject")
}

func (repo assessmentRepository) QueryClassSubjects(ctx context.Context, classID, yearID string, exec ...core.DBExecutor) ([]assessment.ClassSubject, error) {
	if !validID(classID) || !validID(yearID) {
		return []assessment.ClassSubject{}, nil
	}
	var rows []classSubjectRow
	err := queries.Raw(`
		SELECT class_id, subject_id, academic_year_id, is_main FROM class_subject
		WHERE class_id = $1 AND academic_year_id = $2 ORDER BY subject_id`,
		classID, yearID,
	).Bind(ctx, repo.getExec(exec), &rows)
	if err != nil {
		return nil, errors.Wrap(err, "querying class subjects")
	}
	mappings := make([]assessment.ClassSubject, 0, len(rows))
	for _, row := range rows {
		mappings = append(mappings, assessment.ClassSubject(row))
	}
	return mappings, nil
}

// Exams & grade scales

func (repo assessmentRepository) unboilExam(row examRow) assessment.Exam {
	return assessment.Exam{
		ID:       row.ID,
		Name:     row.Name,
		Type:     assessment.ExamType(row.ExamType),
		Order:    row.Order,
		IsActive: row.IsActive,
	}
}

func (repo assessmentRepository) CreateExam(ctx context.Context, exam assessment.Exam, exec ...core.DBExecutor) (assessment.Exam, error) {
	exam.ID = uuid.New().String()
	_, err := queries.Raw(
		`INSERT INTO exam (`+examColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		exam.ID, exam.Name, string(exam.Type), exam.Order, exam.IsActive,
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return assessment.Exam{}, errors.Wrap(err, "inserting exam")
	}
	return exam, nil
}

func (repo assessmentRepository) GetExam(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Exam, error) {
	if !validID(id) {
		return assessment.Exam{}, assessment.ErrExamNotFound
	}
	var row examRow
	err := queries.Raw(`SELECT `+examColumns+` FROM exam WHERE id = $1`, id).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return assessment.Exam{}, trapNoRowsErr(err, assessment.ErrExamNotFound, "finding exam")
	}
	return repo.unboilExam(row), nil
}

func (repo assessmentRepository) QueryExams(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]assessment.Exam, error) {
	q := `SELECT ` + examColumns + ` FROM exam`
	if activeOnly {
		q += ` WHERE is_active`
	}
	var rows []examRow
	if err := queries.Raw(q+` ORDER BY exam_type, exam_order`).Bind(ctx, repo.getExec(exec), &rows); err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	exams := make([]assessment.Exam, 0, len(rows))
	for _, row := range rows {
		exams = append(exams, repo.unboilExam(row))
	}
	return exams, nil
}

func (repo assessmentRepository) CreateGradeScale(ctx context.Context, scale assessment.GradeScale, exec ...core.DBExecutor) (assessment.GradeScale, error) {
	scale.ID = uuid.New().String()
	_, err := queries.Raw(
		`INSERT INTO grade_scale (`+gradeScaleColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		scale.ID, string(scale.ClassGroup), string(scale.ExamType), scale.MinMarks, scale.MaxMarks, scale.Grade, scale.GradePoint,
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return assessment.GradeScale{}, errors.Wrap(err, "inserting grade scale")
	}
	return scale, nil
}

func (repo assessmentRepository) QueryGradeScales(ctx context.Context, group assessment.ClassGroup, examType assessment.ExamType, exec ...core.DBExecutor) (assessment.GradeScales, error) {
	var rows []gradeScaleRow
	err := queries.Raw(`
		SELECT `+gradeScaleColumns+` FROM grade_scale
		WHERE class_group = $1 AND exam_type = $2 ORDER BY min_marks DESC`,
		string(group), string(examType),
	).Bind(ctx, repo.getExec(exec), &rows)
	if err != nil {
		return nil, errors.Wrap(err, "querying grade scales")
	}
	scales := make(assessment.GradeScales, 0, len(rows))
	for _, row := range rows {
		scales = append(scales, assessment.GradeScale{
			ID:         row.ID,
			ClassGroup: assessment.ClassGroup(row.ClassGroup),
			ExamType:   assessment.ExamType(row.ExamType),
			MinMarks:   row.MinMarks,
			MaxMarks:   row.MaxMarks,
			Grade:      row.Grade,
			GradePoint: row.GradePoint,
		})
	}
	return scales, nil
}

// Marks

func (repo assessmentRepository) unboilMark(row markRow) assessment.StudentMark {
	return assessment.StudentMark{
		ID: row.ID,
		MarkKey: assessment.MarkKey{
			StudentID:      row.StudentID,
			SubjectID:      row.SubjectID,
			ExamID:         row.ExamID,
			AcademicYearID: row.AcademicYearID,
		},
		MarksObtained: row.MarksObtained,
		MaxMarks:      row.MaxMarks,
		Grade:         row.Grade,
		GradePoint:    row.GradePoint,
		IsAbsent:      row.IsAbsent,
		EnteredBy:     row.EnteredBy.String,
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

// LockGrading takes a transaction-scoped advisory lock; it is released on commit or rollback.
func (repo assessmentRepository) LockGrading(ctx context.Context, key string, exec ...core.DBExecutor) error {
	_, err := queries.Raw(`SELECT pg_advisory_xact_lock(hashtext($1))`, key).ExecContext(ctx, repo.getExec(exec))
	return errors.Wrap(err, "acquiring grading lock")
}

func (repo assessmentRepository) SaveMark(ctx context.Context, mark assessment.StudentMark, exec ...core.DBExecutor) (assessment.StudentMark, error) {
	if mark.UpdatedAt.IsZero() {
		mark.UpdatedAt = time.Now().UTC()
	}
	var row markRow
	err := queries.Raw(`
		INSERT INTO student_mark (`+markColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (student_id, subject_id, exam_id, academic_year_id) DO UPDATE SET
			marks_obtained = EXCLUDED.marks_obtained,
			max_marks = EXCLUDED.max_marks,
			grade = EXCLUDED.grade,
			grade_point = EXCLUDED.grade_point,
			is_absent = EXCLUDED.is_absent,
			entered_by = EXCLUDED.entered_by,
			updated_at = EXCLUDED.updated_at
		RETURNING `+markColumns,
		uuid.New().String(), mark.StudentID, mark.SubjectID, mark.ExamID, mark.AcademicYearID,
		mark.MarksObtained, mark.MaxMarks, mark.Grade, mark.GradePoint, mark.IsAbsent,
		null.NewString(mark.EnteredBy, mark.EnteredBy != ""), mark.UpdatedAt.UTC(),
	).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return assessment.StudentMark{}, errors.Wrap(err, "saving student mark")
	}
	return repo.unboilMark(row), nil
}

func (repo assessmentRepository) QueryMarks(ctx context.Context, filter assessment.MarkFilter, exec ...core.DBExecutor) ([]assessment.StudentMark, error) {
	where := new(whereClause)
	if len(filter.StudentIDs) > 0 {
		where.add("student_id = ANY(%s::uuid[])", pq.Array(filter.StudentIDs))
	}
	if len(filter.SubjectIDs) > 0 {
		where.add("subject_id = ANY(%s::uuid[])", pq.Array(filter.SubjectIDs))
	}
	if filter.ClassID != "" {
		where.add("student_id IN (SELECT id FROM student WHERE class_id = %s)", filter.ClassID)
	}
	if filter.ExamID != "" {
		where.add("exam_id = %s", filter.ExamID)
	}
	if filter.AcademicYearID != "" {
		where.add("academic_year_id = %s", filter.AcademicYearID)
	}

	var rows []markRow
	err := queries.Raw(
		`SELECT `+markColumns+` FROM student_mark`+where.String()+` ORDER BY student_id, exam_id, subject_id`,
		where.args...,
	).Bind(ctx, repo.getExec(exec), &rows)
	if err != nil {
		return nil, errors.Wrap(err, "querying student marks")
	}
	marks := make([]assessment.StudentMark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, repo.unboilMark(row))
	}
	return marks, nil
}

// Summaries

func (repo assessmentRepository) unboilSummary(row summaryRow) assessment.StudentExamSummary {
	return assessment.StudentExamSummary{
		ID: row.ID,
		SummaryKey: assessment.SummaryKey{
			StudentID:      row.StudentID,
			ExamID:         row.ExamID,
			AcademicYearID: row.AcademicYearID,
		},
		TotalObtained:     row.TotalObtained,
		TotalMax:          row.TotalMax,
		Percentage:        row.Percentage,
		OverallGrade:      row.OverallGrade,
		OverallGradePoint: row.OverallGradePoint,
		ClassRank:         row.ClassRank.Int,
		SubjectsCount:     row.SubjectsCount,
	}
}

func (repo assessmentRepository) SaveSummary(ctx context.Context, summary assessment.StudentExamSummary, exec ...core.DBExecutor) (assessment.StudentExamSummary, error) {
	var row summaryRow
	err := queries.Raw(`
		INSERT INTO student_exam_summary (`+summaryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (student_id, exam_id, academic_year_id) DO UPDATE SET
			total_obtained = EXCLUDED.total_obtained,
			total_max = EXCLUDED.total_max,
			percentage = EXCLUDED.percentage,
			overall_grade = EXCLUDED.overall_grade,
			overall_grade_point = EXCLUDED.overall_grade_point,
			class_rank = EXCLUDED.class_rank,
			subjects_count = EXCLUDED.subjects_count,
			updated_at = now()
		RETURNING `+summaryColumns,
		uuid.New().String(), summary.StudentID, summary.ExamID, summary.AcademicYearID,
		summary.TotalObtained, summary.TotalMax, summary.Percentage, summary.OverallGrade, summary.OverallGradePoint,
		null.NewInt(summary.ClassRank, summary.ClassRank > 0), summary.SubjectsCount,
	).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return assessment.StudentExamSummary{}, errors.Wrap(err, "saving exam summary")
	}
	return repo.unboilSummary(row), nil
}

func (repo assessmentRepository) GetSummary(ctx context.Context, key assessment.SummaryKey, exec ...core.DBExecutor) (assessment.StudentExamSummary, error) {
	if !validID(key.StudentID) || !validID(key.ExamID) || !validID(key.AcademicYearID) {
		return assessment.StudentExamSummary{}, assessment.ErrSummaryNotFound
	}
	var row summaryRow
	err := queries.Raw(`
		SELECT `+summaryColumns+` FROM student_exam_summary
		WHERE student_id = $1 AND exam_id = $2 AND academic_year_id = $3`,
		key.StudentID, key.ExamID, key.AcademicYearID,
	).Bind(ctx, repo.getExec(exec), &row)
	if err != nil {
		return assessment.StudentExamSummary{}, trapNoRowsErr(err, assessment.ErrSummaryNotFound, "finding exam summary")
	}
	return repo.unboilSummary(row), nil
}

func (repo assessmentRepository) DeleteSummary(ctx context.Context, key assessment.SummaryKey, exec ...core.DBExecutor) error {
	_, err := queries.Raw(`
		DELETE FROM student_exam_summary WHERE student_id = $1 AND exam_id = $2 AND academic_year_id = $3`,
		key.StudentID, key.ExamID, key.AcademicYearID,
	).ExecContext(ctx, repo.getExec(exec))
	return errors.Wrap(err, "deleting exam summary")
}

func (repo assessmentRepository) QuerySummaries(ctx context.Context, filter assessment.SummaryFilter, exec ...core.DBExecutor) ([]assessment.StudentExamSummary, error) {
	where := new(whereClause)
	if filter.ClassID != "" {
		where.add("student_id IN (SELECT id FROM student WHERE class_id = %s)", filter.ClassID)
	}
	if filter.ExamID != "" {
		where.add("exam_id = %s", filter.ExamID)
	}
	if filter.AcademicYearID != "" {
		where.add("academic_year_id = %s", filter.AcademicYearID)
	}

	var rows []summaryRow
	err := queries.Raw(
		`SELECT `+summaryColumns+` FROM student_exam_summary`+where.String()+` ORDER BY student_id`,
		where.args...,
	).Bind(ctx, repo.getExec(exec), &rows)
	if err != nil {
		return nil, errors.Wrap(err, "querying exam summaries")
	}
	summaries := make([]assessment.StudentExamSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, repo.unboilSummary(row))
	}
	return summaries, nil
}

func (repo assessmentRepository) UpdateSummaryRanks(ctx context.Context, examID, yearID string, ranks map[string]int, exec ...core.DBExecutor) error {
	if len(ranks) == 0 {
		return nil
	}
	studentIDs := make([]string, 0, len(ranks))
	rankValues := make([]int64, 0, len(ranks))
	for studentID, rank := range ranks {
		studentIDs = append(studentIDs, studentID)
		rankValues = append(rankValues, int64(rank))
	}

	_, err := queries.Raw(`
		UPDATE student_exam_summary s SET class_rank = r.rank, updated_at = now()
		FROM unnest($1::uuid[], $2::int[]) AS r(student_id, rank)
		WHERE s.student_id = r.student_id AND s.exam_id = $3 AND s.academic_year_id = $4`,
		pq.Array(studentIDs), pq.Array(rankValues), examID, yearID,
	).ExecContext(ctx, repo.getExec(exec))
	return errors.Wrap(err, "updating class ranks")
}
