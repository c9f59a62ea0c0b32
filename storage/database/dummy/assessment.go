package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assessment"
)

type assessmentRepository struct {
	db *DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{db: db}
}

// Academic years

func (repo *assessmentRepository) CreateAcademicYear(ctx context.Context, year assessment.AcademicYear, exec ...core.DBExecutor) (assessment.AcademicYear, error) {
	t := repo.db.year
	t.Lock()
	defer t.Unlock()

	year.ID = uuid.New().String()
	t.table[year.ID] = &year
	return year, nil
}

func (repo *assessmentRepository) GetAcademicYear(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.AcademicYear, error) {
	t := repo.db.year
	t.RLock()
	defer t.RUnlock()

	if year, ok := t.table[id]; ok {
		return *year, nil
	}
	return assessment.AcademicYear{}, assessment.ErrAcademicYearNotFound
}

func (repo *assessmentRepository) GetCurrentAcademicYear(ctx context.Context, exec ...core.DBExecutor) (assessment.AcademicYear, error) {
	t := repo.db.year
	t.RLock()
	defer t.RUnlock()

	for _, year := range t.table {
		if year.IsCurrent {
			return *year, nil
		}
	}
	return assessment.AcademicYear{}, assessment.ErrAcademicYearNotFound
}

func (repo *assessmentRepository) SetCurrentAcademicYear(ctx context.Context, id string, exec ...core.DBExecutor) error {
	t := repo.db.year
	t.Lock()
	defer t.Unlock()

	if _, ok := t.table[id]; !ok {
		return assessment.ErrAcademicYearNotFound
	}
	for yearID, year := range t.table {
		year.IsCurrent = yearID == id
	}
	return nil
}

// Subjects

func (repo *assessmentRepository) CreateSubject(ctx context.Context, subject assessment.Subject, exec ...core.DBExecutor) (assessment.Subject, error) {
	t := repo.db.subject
	t.Lock()
	defer t.Unlock()

	subject.ID = uuid.New().String()
	t.table[subject.ID] = &subject
	return subject, nil
}

func (repo *assessmentRepository) GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Subject, error) {
	t := repo.db.subject
	t.RLock()
	defer t.RUnlock()

	if subject, ok := t.table[id]; ok {
		return *subject, nil
	}
	return assessment.Subject{}, assessment.ErrSubjectNotFound
}

func (repo *assessmentRepository) QuerySubjects(ctx context.Context, filter assessment.SubjectFilter, exec ...core.DBExecutor) ([]assessment.Subject, error) {
	t := repo.db.subject
	t.RLock()
	defer t.RUnlock()

	codes := make(map[string]bool, len(filter.Codes))
	for _, code := range filter.Codes {
		codes[code] = true
	}
	subjects := make([]assessment.Subject, 0, len(t.table))
	for _, subj := range t.table {
		if filter.CombinedGroup != "" && subj.CombinedGroup != filter.CombinedGroup {
			continue
		}
		if len(codes) > 0 && !codes[subj.Code] {
			continue
		}
		subjects = append(subjects, *subj)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

// Classes & students

func (repo *assessmentRepository) CreateClass(ctx context.Context, class assessment.Class, exec ...core.DBExecutor) (assessment.Class, error) {
	t := repo.db.class
	t.Lock()
	defer t.Unlock()

	class.ID = uuid.New().String()
	t.table[class.ID] = &class
	return class, nil
}

func (repo *assessmentRepository) GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Class, error) {
	t := repo.db.class
	t.RLock()
	defer t.RUnlock()

	if class, ok := t.table[id]; ok {
		return *class, nil
	}
	return assessment.Class{}, assessment.ErrClassNotFound
}

func (repo *assessmentRepository) QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]assessment.Class, error) {
	t := repo.db.class
	t.RLock()
	defer t.RUnlock()

	classes := make([]assessment.Class, 0, len(t.table))
	for _, class := range t.table {
		classes = append(classes, *class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *assessmentRepository) CreateStudent(ctx context.Context, student assessment.Student, exec ...core.DBExecutor) (assessment.Student, error) {
	t := repo.db.student
	t.Lock()
	defer t.Unlock()

	student.ID = uuid.New().String()
	t.table[student.ID] = &student
	return student, nil
}

func (repo *assessmentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Student, error) {
	t := repo.db.student
	t.RLock()
	defer t.RUnlock()

	if student, ok := t.table[id]; ok {
		return *student, nil
	}
	return assessment.Student{}, assessment.ErrStudentNotFound
}

func (repo *assessmentRepository) QueryStudents(ctx context.Context, classID string, exec ...core.DBExecutor) ([]assessment.Student, error) {
	t := repo.db.student
	t.RLock()
	defer t.RUnlock()

	students := make([]assessment.Student, 0)
	for _, student := range t.table {
		if student.ClassID == classID {
			students = append(students, *student)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].RollNumber != students[j].RollNumber {
			return students[i].RollNumber < students[j].RollNumber
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

// classStudentIDs returns the set of students of a class.
func (repo *assessmentRepository) classStudentIDs(classID string) map[string]bool {
	t := repo.db.student
	t.RLock()
	defer t.RUnlock()

	ids := make(map[string]bool)
	for _, student := range t.table {
		if student.ClassID == classID {
			ids[student.ID] = true
		}
	}
	return ids
}

// Class subjects

func (repo *assessmentRepository) SaveClassSubject(ctx context.Context, cs assessment.ClassSubject, exec ...core.DBExecutor) error {
	t := repo.db.mapping
	t.Lock()
	defer t.Unlock()

	t.table[mappingKey{cs.ClassID, cs.SubjectID, cs.AcademicYearID}] = &cs
	return nil
}

func (repo *assessmentRepository) QueryClassSubjects(ctx context.Context, classID, yearID string, exec ...core.DBExecutor) ([]assessment.ClassSubject, error) {
	t := repo.db.mapping
	t.RLock()
	defer t.RUnlock()

	mappings := make([]assessment.ClassSubject, 0)
	for key, cs := range t.table {
		if key.classID == classID && key.yearID == yearID {
			mappings = append(mappings, *cs)
		}
	}
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].SubjectID < mappings[j].SubjectID })
	return mappings, nil
}

// Exams & grade scales

func (repo *assessmentRepository) CreateExam(ctx context.Context, exam assessment.Exam, exec ...core.DBExecutor) (assessment.Exam, error) {
	t := repo.db.exam
	t.Lock()
	defer t.Unlock()

	exam.ID = uuid.New().String()
	t.table[exam.ID] = &exam
	return exam, nil
}

func (repo *assessmentRepository) GetExam(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Exam, error) {
	t := repo.db.exam
	t.RLock()
	defer t.RUnlock()

	if exam, ok := t.table[id]; ok {
		return *exam, nil
	}
	return assessment.Exam{}, assessment.ErrExamNotFound
}

func (repo *assessmentRepository) QueryExams(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]assessment.Exam, error) {
	t := repo.db.exam
	t.RLock()
	defer t.RUnlock()

	exams := make([]assessment.Exam, 0, len(t.table))
	for _, exam := range t.table {
		if activeOnly && !exam.IsActive {
			continue
		}
		exams = append(exams, *exam)
	}
	sort.Slice(exams, func(i, j int) bool {
		if exams[i].Type != exams[j].Type {
			return exams[i].Type < exams[j].Type
		}
		return exams[i].Order < exams[j].Order
	})
	return exams, nil
}

func (repo *assessmentRepository) CreateGradeScale(ctx context.Context, scale assessment.GradeScale, exec ...core.DBExecutor) (assessment.GradeScale, error) {
	t := repo.db.scale
	t.Lock()
	defer t.Unlock()

	scale.ID = uuid.New().String()
	t.table[scale.ID] = &scale
	return scale, nil
}

func (repo *assessmentRepository) QueryGradeScales(ctx context.Context, group assessment.ClassGroup, examType assessment.ExamType, exec ...core.DBExecutor) (assessment.GradeScales, error) {
	t := repo.db.scale
	t.RLock()
	defer t.RUnlock()

	scales := make(assessment.GradeScales, 0)
	for _, gs := range t.table {
		if gs.ClassGroup == group && gs.ExamType == examType {
			scales = append(scales, *gs)
		}
	}
	sort.Slice(scales, func(i, j int) bool { return scales[i].MinMarks > scales[j].MinMarks })
	return scales, nil
}

// Marks

func (repo *assessmentRepository) LockGrading(ctx context.Context, key string, exec ...core.DBExecutor) error {
	return nil // transactions are already serialized by DB.RunInTx
}

func (repo *assessmentRepository) SaveMark(ctx context.Context, mark assessment.StudentMark, exec ...core.DBExecutor) (assessment.StudentMark, error) {
	t := repo.db.mark
	t.Lock()
	defer t.Unlock()

	if orig, ok := t.table[mark.MarkKey]; ok {
		mark.ID = orig.ID
	} else {
		mark.ID = uuid.New().String()
	}
	t.table[mark.MarkKey] = &mark
	return mark, nil
}

func (repo *assessmentRepository) QueryMarks(ctx context.Context, filter assessment.MarkFilter, exec ...core.DBExecutor) ([]assessment.StudentMark, error) {
	var classStudents map[string]bool
	if filter.ClassID != "" {
		classStudents = repo.classStudentIDs(filter.ClassID)
	}
	students := toSet(filter.StudentIDs)
	subjects := toSet(filter.SubjectIDs)

	t := repo.db.mark
	t.RLock()
	defer t.RUnlock()

	marks := make([]assessment.StudentMark, 0)
	for key, mark := range t.table {
		if (students != nil && !students[key.StudentID]) ||
			(subjects != nil && !subjects[key.SubjectID]) ||
			(classStudents != nil && !classStudents[key.StudentID]) ||
			(filter.ExamID != "" && key.ExamID != filter.ExamID) ||
			(filter.AcademicYearID != "" && key.AcademicYearID != filter.AcademicYearID) {
			continue
		}
		marks = append(marks, *mark)
	}
	sort.Slice(marks, func(i, j int) bool {
		a, b := marks[i].MarkKey, marks[j].MarkKey
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		if a.ExamID != b.ExamID {
			return a.ExamID < b.ExamID
		}
		return a.SubjectID < b.SubjectID
	})
	return marks, nil
}

// Summaries

func (repo *assessmentRepository) SaveSummary(ctx context.Context, summary assessment.StudentExamSummary, exec ...core.DBExecutor) (assessment.StudentExamSummary, error) {
	t := repo.db.summary
	t.Lock()
	defer t.Unlock()

	if orig, ok := t.table[summary.SummaryKey]; ok {
		summary.ID = orig.ID
	} else {
		summary.ID = uuid.New().String()
	}
	t.table[summary.SummaryKey] = &summary
	return summary, nil
}

func (repo *assessmentRepository) GetSummary(ctx context.Context, key assessment.SummaryKey, exec ...core.DBExecutor) (assessment.StudentExamSummary, error) {
	t := repo.db.summary
	t.RLock()
	defer t.RUnlock()

	if summary, ok := t.table[key]; ok {
		return *summary, nil
	}
	return assessment.StudentExamSummary{}, assessment.ErrSummaryNotFound
}

func (repo *assessmentRepository) DeleteSummary(ctx context.Context, key assessment.SummaryKey, exec ...core.DBExecutor) error {
	t := repo.db.summary
	t.Lock()
	defer t.Unlock()

	delete(t.table, key)
	return nil
}

func (repo *assessmentRepository) QuerySummaries(ctx context.Context, filter assessment.SummaryFilter, exec ...core.DBExecutor) ([]assessment.StudentExamSummary, error) {
	var classStudents map[string]bool
	if filter.ClassID != "" {
		classStudents = repo.classStudentIDs(filter.ClassID)
	}

	t := repo.db.summary
	t.RLock()
	defer t.RUnlock()

	summaries := make([]assessment.StudentExamSummary, 0)
	for key, summary := range t.table {
		if (classStudents != nil && !classStudents[key.StudentID]) ||
			(filter.ExamID != "" && key.ExamID != filter.ExamID) ||
			(filter.AcademicYearID != "" && key.AcademicYearID != filter.AcademicYearID) {
			continue
		}
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].StudentID < summaries[j].StudentID })
	return summaries, nil
}

func (repo *assessmentRepository) UpdateSummaryRanks(ctx context.Context, examID, yearID string, ranks map[string]int, exec ...core.DBExecutor) error {
	t := repo.db.summary
	t.Lock()
	defer t.Unlock()

	for studentID, rank := range ranks {
		key := assessment.SummaryKey{StudentID: studentID, ExamID: examID, AcademicYearID: yearID}
		if summary, ok := t.table[key]; ok {
			summary.ClassRank = rank
		}
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
