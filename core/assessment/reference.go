package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"

	"github.com/trezcool/gradebook/core"
)

// ScienceGroup is the combined group of Physical Science and Natural Science.
const ScienceGroup = "science"

type (
	ClassesAndExams struct {
		Classes []Class `json:"classes"`
		Exams   []Exam  `json:"exams"`
	}

	// SeedData is the reference data a fresh installation starts with.
	SeedData struct {
		AcademicYear AcademicYear
		Exams        []Exam
		Subjects     []Subject
		GradeScales  []GradeScale
	}

	// SubjectPlan lists the subject codes mapped to a class group by default.
	SubjectPlan struct {
		Main     []string
		Optional []string
	}
)

var subjectPlans = map[ClassGroup]SubjectPlan{
	ClassGroupPre: {
		Main: []string{"TEL", "ENG", "MATH", "COL", "EVS"},
	},
	ClassGroupPrimary: {
		Main:     []string{"TEL", "HIN", "ENG", "MATH", "SCI", "SOC"},
		Optional: []string{"GK", "COMP"},
	},
	ClassGroupHigh: {
		Main:     []string{"TEL", "HIN", "ENG", "MATH", "PHY", "NAT", "SOC"},
		Optional: []string{"GK", "COMP"},
	},
}

// DefaultSubjectPlan returns the default subjects of a class group (legacy groups use their canonical plan).
func DefaultSubjectPlan(group ClassGroup) (SubjectPlan, bool) {
	plan, ok := subjectPlans[group.Canonical()]
	return plan, ok
}

// DefaultSeedData returns the 2024-2025 academic year, the FA1-4 and SA1-2 exams,
// the school subjects and the grade scales of every class group.
func DefaultSeedData() SeedData {
	faHigh := []GradeScale{
		{MinMarks: 46, MaxMarks: 50, Grade: "A1", GradePoint: 10},
		{MinMarks: 41, MaxMarks: 45, Grade: "A2", GradePoint: 9},
		{MinMarks: 36, MaxMarks: 40, Grade: "B1", GradePoint: 8},
		{MinMarks: 31, MaxMarks: 35, Grade: "B2", GradePoint: 7},
		{MinMarks: 26, MaxMarks: 30, Grade: "C1", GradePoint: 6},
		{MinMarks: 21, MaxMarks: 25, Grade: "C2", GradePoint: 5},
		{MinMarks: 18, MaxMarks: 20, Grade: "D1", GradePoint: 4},
		{MinMarks: 0, MaxMarks: 17, Grade: "D2", GradePoint: 3},
	}
	faPrimary := []GradeScale{
		{MinMarks: 23, MaxMarks: 25, Grade: "A1", GradePoint: 10},
		{MinMarks: 21, MaxMarks: 22, Grade: "A2", GradePoint: 9},
		{MinMarks: 19, MaxMarks: 20, Grade: "B1", GradePoint: 8},
		{MinMarks: 17, MaxMarks: 18, Grade: "B2", GradePoint: 7},
		{MinMarks: 15, MaxMarks: 16, Grade: "C1", GradePoint: 6},
		{MinMarks: 13, MaxMarks: 14, Grade: "C2", GradePoint: 5},
		{MinMarks: 11, MaxMarks: 12, Grade: "D1", GradePoint: 4},
		{MinMarks: 0, MaxMarks: 10, Grade: "D2", GradePoint: 3},
	}
	sa := []GradeScale{
		{MinMarks: 91, MaxMarks: 100, Grade: "A1", GradePoint: 10},
		{MinMarks: 81, MaxMarks: 90, Grade: "A2", GradePoint: 9},
		{MinMarks: 71, MaxMarks: 80, Grade: "B1", GradePoint: 8},
		{MinMarks: 61, MaxMarks: 70, Grade: "B2", GradePoint: 7},
		{MinMarks: 51, MaxMarks: 60, Grade: "C1", GradePoint: 6},
		{MinMarks: 41, MaxMarks: 50, Grade: "C2", GradePoint: 5},
		{MinMarks: 35, MaxMarks: 40, Grade: "D1", GradePoint: 4},
		{MinMarks: 0, MaxMarks: 34, Grade: "D2", GradePoint: 3},
	}

	var scales []GradeScale
	addScales := func(group ClassGroup, examType ExamType, rows []GradeScale) {
		for _, gs := range rows {
			gs.ClassGroup = group
			gs.ExamType = examType
			scales = append(scales, gs)
		}
	}
	addScales(ClassGroupPre, ExamTypeFA, faHigh)
	addScales(ClassGroupPre, ExamTypeSA, sa)
	addScales(ClassGroupPrimary, ExamTypeFA, faPrimary)
	addScales(ClassGroupPrimary, ExamTypeSA, sa)
	addScales(ClassGroupHigh, ExamTypeFA, faHigh)
	addScales(ClassGroupHigh, ExamTypeSA, sa)

	return SeedData{
		AcademicYear: AcademicYear{
			Name:      "2024-2025",
			StartDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC),
			IsCurrent: true,
			IsActive:  true,
		},
		Exams: []Exam{
			{Name: "FA1", Type: ExamTypeFA, Order: 1, IsActive: true},
			{Name: "FA2", Type: ExamTypeFA, Order: 2, IsActive: true},
			{Name: "FA3", Type: ExamTypeFA, Order: 3, IsActive: true},
			{Name: "FA4", Type: ExamTypeFA, Order: 4, IsActive: true},
			{Name: "SA1", Type: ExamTypeSA, Order: 1, IsActive: true},
			{Name: "SA2", Type: ExamTypeSA, Order: 2, IsActive: true},
		},
		Subjects: []Subject{
			{Name: "Telugu", Code: "TEL", IsActive: true},
			{Name: "English", Code: "ENG", IsActive: true},
			{Name: "Hindi", Code: "HIN", IsActive: true},
			{Name: "Mathematics", Code: "MATH", IsActive: true},
			{Name: "Color", Code: "COL", IsActive: true},
			{Name: "EVS", Code: "EVS", IsActive: true},
			{Name: "Science", Code: "SCI", IsActive: true},
			{Name: "Social", Code: "SOC", IsActive: true},
			{Name: "Physical Science", Code: "PHY", IsActive: true, CombinedGroup: ScienceGroup},
			{Name: "Natural Science", Code: "NAT", IsActive: true, CombinedGroup: ScienceGroup},
			{Name: "GK", Code: "GK", IsActive: true},
			{Name: "Computer", Code: "COMP", IsActive: true},
		},
		GradeScales: scales,
	}
}

// ValidateSeedData validates every seeded row and checks grade scales do not overlap.
func ValidateSeedData(validate *validator.Validate, data SeedData) error {
	if err := validate.Struct(data.AcademicYear); err != nil {
		return err
	}
	for _, exam := range data.Exams {
		if err := validate.Struct(exam); err != nil {
			return err
		}
	}
	for _, subject := range data.Subjects {
		if err := validate.Struct(subject); err != nil {
			return err
		}
	}
	for _, gs := range data.GradeScales {
		if err := validate.Struct(gs); err != nil {
			return err
		}
	}
	return ValidateScales(data.GradeScales)
}

// ActivateAcademicYear makes the year the current one; every other year stops being current.
func (svc *Service) ActivateAcademicYear(ctx context.Context, id string) (AcademicYear, error) {
	if err := checkArgs(vala.StringNotEmpty(id, "id")); err != nil {
		return AcademicYear{}, err
	}

	var year AcademicYear
	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		var txErr error
		if year, txErr = svc.repo.GetAcademicYear(ctx, id, exec); txErr != nil {
			return txErr
		}
		if txErr = svc.repo.SetCurrentAcademicYear(ctx, id, exec); txErr != nil {
			return txErr
		}
		year.IsCurrent = true
		return nil
	})
	if err != nil {
		return AcademicYear{}, err
	}
	svc.logger.Info(fmt.Sprintf("academic year %s activated", year.Name))
	return year, nil
}

// CurrentAcademicYear resolves the current year. It is meant for outer layers only: every
// grading operation takes the academic year as an explicit argument.
func (svc *Service) CurrentAcademicYear(ctx context.Context) (AcademicYear, error) {
	return svc.repo.GetCurrentAcademicYear(ctx)
}

func (svc *Service) ListClassesAndExams(ctx context.Context) (ClassesAndExams, error) {
	classes, err := svc.repo.QueryClasses(ctx)
	if err != nil {
		return ClassesAndExams{}, err
	}
	exams, err := svc.repo.QueryExams(ctx, true /* activeOnly */)
	if err != nil {
		return ClassesAndExams{}, err
	}
	return ClassesAndExams{Classes: classes, Exams: exams}, nil
}

// MapDefaultSubjects maps every class to the default subjects of its class group for the year.
// Existing mappings of those subjects are overwritten; it returns the number of mappings saved.
func (svc *Service) MapDefaultSubjects(ctx context.Context, yearID string) (int, error) {
	if err := checkArgs(vala.StringNotEmpty(yearID, "yearID")); err != nil {
		return 0, err
	}
	if _, err := svc.repo.GetAcademicYear(ctx, yearID); err != nil {
		return 0, err
	}

	var saved int
	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		classes, err := svc.repo.QueryClasses(ctx, exec)
		if err != nil {
			return err
		}
		subjects, err := svc.repo.QuerySubjects(ctx, SubjectFilter{}, exec)
		if err != nil {
			return err
		}
		subjectsByCode := make(map[string]Subject, len(subjects))
		for _, subj := range subjects {
			subjectsByCode[subj.Code] = subj
		}

		for _, class := range classes {
			plan, ok := DefaultSubjectPlan(class.Group)
			if !ok {
				svc.logger.Warn(fmt.Sprintf("no default subjects for class group %q (class %s)", class.Group, class.Name))
				continue
			}
			mapAll := func(codes []string, isMain bool) error {
				for _, code := range codes {
					subj, ok := subjectsByCode[code]
					if !ok {
						svc.logger.Warn(fmt.Sprintf("subject %s not found, not mapped to class %s", code, class.Name))
						continue
					}
					cs := ClassSubject{ClassID: class.ID, SubjectID: subj.ID, AcademicYearID: yearID, IsMain: isMain}
					if err := svc.repo.SaveClassSubject(ctx, cs, exec); err != nil {
						return err
					}
					saved++
				}
				return nil
			}
			if err = mapAll(plan.Main, true); err != nil {
				return err
			}
			if err = mapAll(plan.Optional, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return saved, nil
}
