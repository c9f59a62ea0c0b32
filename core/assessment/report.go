package assessment

import (
	"context"
	"sort"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

type (
	ReportCard struct {
		Student      ReportStudent `json:"student"`
		AcademicYear string        `json:"academic_year"`
		Exams        []ExamResult  `json:"exams"`
		Main         []SubjectRow  `json:"main_subjects"`
		Optional     []SubjectRow  `json:"optional_subjects"`
	}

	ReportStudent struct {
		ID         string     `json:"id"`
		Name       string     `json:"name"`
		RollNumber int        `json:"roll_number"`
		Class      string     `json:"class"`
		ClassGroup ClassGroup `json:"class_group"`
	}

	// ExamResult is the summary of one exam; exams without a summary are left out of the report.
	ExamResult struct {
		Exam          string   `json:"exam"`
		ExamType      ExamType `json:"exam_type"`
		TotalObtained float64  `json:"total_obtained"`
		TotalMax      int      `json:"total_max"`
		Percentage    float64  `json:"percentage"`
		OverallGrade  string   `json:"overall_grade"`
		ClassRank     int      `json:"class_rank"`
		SubjectsCount int      `json:"subjects_count"`
	}

	SubjectRow struct {
		Name  string                `json:"name"`
		Code  string                `json:"code"`
		Marks map[string]MarkResult `json:"marks"` // by exam name
	}

	MarkResult struct {
		Marks      float64 `json:"marks"`
		MaxMarks   int     `json:"max_marks"`
		Grade      string  `json:"grade"`
		GradePoint float64 `json:"grade_point"`
		IsAbsent   bool    `json:"is_absent"`
	}

	ClassPerformance struct {
		Class             string         `json:"class"`
		Exam              string         `json:"exam"`
		TotalStudents     int            `json:"total_students"`
		AveragePercentage float64        `json:"average_percentage"`
		HighestMarks      float64        `json:"highest_marks"`
		LowestMarks       float64        `json:"lowest_marks"`
		GradeDistribution map[string]int `json:"grade_distribution"`
		Students          []StudentRow   `json:"student_summaries"`
	}

	StudentRow struct {
		StudentName string  `json:"student_name"`
		RollNumber  int     `json:"roll_number"`
		TotalMarks  float64 `json:"total_marks"`
		Percentage  float64 `json:"percentage"`
		Grade       string  `json:"grade"`
		Rank        int     `json:"rank"`
	}

	MarksEntrySheet struct {
		Class          Class                           `json:"class"`
		Exam           Exam                            `json:"exam"`
		AcademicYearID string                          `json:"academic_year_id"`
		MaxMarks       int                             `json:"max_marks"`
		Subjects       []SheetSubject                  `json:"subjects"`
		Students       []Student                       `json:"students"`
		Marks          map[string]map[string]SheetMark `json:"existing_marks"` // by student ID, then subject ID
	}

	SheetSubject struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		IsMain   bool   `json:"is_main"`
		MaxMarks int    `json:"max_marks"`
	}

	SheetMark struct {
		Marks    float64 `json:"marks"`
		Grade    string  `json:"grade"`
		IsAbsent bool    `json:"is_absent"`
	}
)

// ReportCard gathers a student's stored exam summaries and marks for an academic year.
func (svc *Service) ReportCard(ctx context.Context, studentID, yearID string) (ReportCard, error) {
	if err := checkArgs(
		vala.StringNotEmpty(studentID, "studentID"),
		vala.StringNotEmpty(yearID, "yearID"),
	); err != nil {
		return ReportCard{}, err
	}

	student, err := svc.repo.GetStudent(ctx, studentID)
	if err != nil {
		return ReportCard{}, err
	}
	class, err := svc.repo.GetClass(ctx, student.ClassID)
	if err != nil {
		return ReportCard{}, err
	}
	year, err := svc.repo.GetAcademicYear(ctx, yearID)
	if err != nil {
		return ReportCard{}, err
	}
	exams, err := svc.repo.QueryExams(ctx, true /* activeOnly */)
	if err != nil {
		return ReportCard{}, err
	}

	report := ReportCard{
		Student: ReportStudent{
			ID:         student.ID,
			Name:       student.Name,
			RollNumber: student.RollNumber,
			Class:      class.Name,
			ClassGroup: class.Group,
		},
		AcademicYear: year.Name,
		Exams:        make([]ExamResult, 0, len(exams)),
		Main:         make([]SubjectRow, 0),
		Optional:     make([]SubjectRow, 0),
	}

	examNames := make(map[string]string, len(exams))
	for _, exam := range exams {
		examNames[exam.ID] = exam.Name

		summary, err := svc.repo.GetSummary(ctx, SummaryKey{StudentID: student.ID, ExamID: exam.ID, AcademicYearID: year.ID})
		if err != nil {
			if err == ErrSummaryNotFound {
				continue
			}
			return ReportCard{}, err
		}
		report.Exams = append(report.Exams, ExamResult{
			Exam:          exam.Name,
			ExamType:      exam.Type,
			TotalObtained: summary.TotalObtained,
			TotalMax:      summary.TotalMax,
			Percentage:    summary.Percentage,
			OverallGrade:  summary.OverallGrade,
			ClassRank:     summary.ClassRank,
			SubjectsCount: summary.SubjectsCount,
		})
	}

	marks, err := svc.repo.QueryMarks(ctx, MarkFilter{StudentIDs: []string{student.ID}, AcademicYearID: year.ID})
	if err != nil {
		return ReportCard{}, err
	}
	marksBySubject := make(map[string]map[string]MarkResult)
	for _, mark := range marks {
		examName, ok := examNames[mark.ExamID]
		if !ok {
			continue
		}
		if marksBySubject[mark.SubjectID] == nil {
			marksBySubject[mark.SubjectID] = make(map[string]MarkResult)
		}
		marksBySubject[mark.SubjectID][examName] = MarkResult{
			Marks:      mark.MarksObtained,
			MaxMarks:   mark.MaxMarks,
			Grade:      mark.Grade,
			GradePoint: mark.GradePoint,
			IsAbsent:   mark.IsAbsent,
		}
	}

	mappings, err := svc.repo.QueryClassSubjects(ctx, class.ID, year.ID)
	if err != nil {
		return ReportCard{}, err
	}
	for _, cs := range mappings {
		subject, err := svc.repo.GetSubject(ctx, cs.SubjectID)
		if err != nil {
			return ReportCard{}, errors.Wrap(err, "loading mapped subject")
		}
		row := SubjectRow{Name: subject.Name, Code: subject.Code, Marks: marksBySubject[subject.ID]}
		if row.Marks == nil {
			row.Marks = map[string]MarkResult{}
		}
		if cs.IsMain {
			report.Main = append(report.Main, row)
		} else {
			report.Optional = append(report.Optional, row)
		}
	}
	sort.SliceStable(report.Main, func(i, j int) bool { return report.Main[i].Name < report.Main[j].Name })
	sort.SliceStable(report.Optional, func(i, j int) bool { return report.Optional[i].Name < report.Optional[j].Name })

	return report, nil
}

// ClassPerformance sums up the stored exam summaries of a class. It returns nil when the class has none.
func (svc *Service) ClassPerformance(ctx context.Context, classID, examID, yearID string) (*ClassPerformance, error) {
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

	summaries, err := svc.repo.QuerySummaries(ctx, SummaryFilter{ClassID: class.ID, ExamID: exam.ID, AcademicYearID: yearID})
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	students, err := svc.repo.QueryStudents(ctx, class.ID)
	if err != nil {
		return nil, err
	}
	studentsByID := make(map[string]Student, len(students))
	for _, st := range students {
		studentsByID[st.ID] = st
	}

	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].TotalObtained > summaries[j].TotalObtained })

	perf := &ClassPerformance{
		Class:             class.Name,
		Exam:              exam.Name,
		TotalStudents:     len(summaries),
		HighestMarks:      summaries[0].TotalObtained,
		LowestMarks:       summaries[len(summaries)-1].TotalObtained,
		GradeDistribution: make(map[string]int),
		Students:          make([]StudentRow, 0, len(summaries)),
	}
	var pctSum float64
	for _, s := range summaries {
		pctSum += s.Percentage
		perf.GradeDistribution[s.OverallGrade]++

		st := studentsByID[s.StudentID]
		perf.Students = append(perf.Students, StudentRow{
			StudentName: st.Name,
			RollNumber:  st.RollNumber,
			TotalMarks:  s.TotalObtained,
			Percentage:  s.Percentage,
			Grade:       s.OverallGrade,
			Rank:        s.ClassRank,
		})
	}
	perf.AveragePercentage = core.Round(pctSum/float64(len(summaries)), 2)
	return perf, nil
}

// MarksEntrySheet returns what a marks entry form needs: the roster, the class subjects
// (optionally narrowed down to one) with their maximum marks, and the marks already entered.
func (svc *Service) MarksEntrySheet(ctx context.Context, classID, examID, yearID, subjectID string) (MarksEntrySheet, error) {
	if err := checkArgs(
		vala.StringNotEmpty(classID, "classID"),
		vala.StringNotEmpty(examID, "examID"),
		vala.StringNotEmpty(yearID, "yearID"),
	); err != nil {
		return MarksEntrySheet{}, err
	}

	class, err := svc.repo.GetClass(ctx, classID)
	if err != nil {
		return MarksEntrySheet{}, err
	}
	exam, err := svc.repo.GetExam(ctx, examID)
	if err != nil {
		return MarksEntrySheet{}, err
	}
	if _, err = svc.repo.GetAcademicYear(ctx, yearID); err != nil {
		return MarksEntrySheet{}, err
	}
	students, err := svc.repo.QueryStudents(ctx, class.ID)
	if err != nil {
		return MarksEntrySheet{}, err
	}
	mappings, err := svc.repo.QueryClassSubjects(ctx, class.ID, yearID)
	if err != nil {
		return MarksEntrySheet{}, err
	}

	sheet := MarksEntrySheet{
		Class:          class,
		Exam:           exam,
		AcademicYearID: yearID,
		MaxMarks:       exam.MaxMarks(class.Group, nil),
		Subjects:       make([]SheetSubject, 0, len(mappings)),
		Students:       students,
		Marks:          make(map[string]map[string]SheetMark),
	}
	subjectIDs := make([]string, 0, len(mappings))
	for _, cs := range mappings {
		if subjectID != "" && cs.SubjectID != subjectID {
			continue
		}
		subject, err := svc.repo.GetSubject(ctx, cs.SubjectID)
		if err != nil {
			return MarksEntrySheet{}, errors.Wrap(err, "loading mapped subject")
		}
		sheet.Subjects = append(sheet.Subjects, SheetSubject{
			ID:       subject.ID,
			Name:     subject.Name,
			IsMain:   cs.IsMain,
			MaxMarks: exam.MaxMarks(class.Group, &subject),
		})
		subjectIDs = append(subjectIDs, subject.ID)
	}
	if len(subjectIDs) == 0 {
		return sheet, nil
	}

	marks, err := svc.repo.QueryMarks(ctx, MarkFilter{
		ClassID:        class.ID,
		SubjectIDs:     subjectIDs,
		ExamID:         exam.ID,
		AcademicYearID: yearID,
	})
	if err != nil {
		return MarksEntrySheet{}, err
	}
	for _, mark := range marks {
		if sheet.Marks[mark.StudentID] == nil {
			sheet.Marks[mark.StudentID] = make(map[string]SheetMark)
		}
		sheet.Marks[mark.StudentID][mark.SubjectID] = SheetMark{
			Marks:    mark.MarksObtained,
			Grade:    mark.Grade,
			IsAbsent: mark.IsAbsent,
		}
	}
	return sheet, nil
}
