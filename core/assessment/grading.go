package assessment

import (
	"context"
	"expvar"

	"github.com/trezcool/gradebook/core"
)

// gradingFallbacks counts marks graded with the fallback grade, per "class group/exam type".
var gradingFallbacks = expvar.NewMap("grading_fallbacks")

var defaultFallbackGrade = Grade{Grade: "D2", Point: 3.0}

// MarkContext holds the reference rows a mark is graded against.
type MarkContext struct {
	Student Student
	Class   Class
	Exam    Exam
	Subject Subject
}

// Grader is the grading engine: it turns a mark into a grade using the grade scale of the
// student's class group and the exam type.
type Grader struct {
	repo     Repository
	logger   core.Logger
	fallback Grade
	absent   string
}

func NewGrader(repo Repository, logger core.Logger, conf *core.Config) *Grader {
	fallback := defaultFallbackGrade
	if conf != nil && conf.Grading.FallbackGrade != "" {
		fallback = Grade{Grade: conf.Grading.FallbackGrade, Point: conf.Grading.FallbackGradePoint}
	}
	absent := AbsentGrade
	if conf != nil && conf.Grading.AbsentGrade != "" {
		absent = conf.Grading.AbsentGrade
	}
	return &Grader{repo: repo, logger: logger, fallback: fallback, absent: absent}
}

// Grade computes the grade of mark. It never fails on missing grade scale rows or missing
// combined siblings; only data access errors are returned.
func (g *Grader) Grade(ctx context.Context, mc MarkContext, mark StudentMark, exec ...core.DBExecutor) (Grade, error) {
	if mark.IsAbsent {
		return Grade{Grade: g.absent}, nil
	}

	group := mc.Class.Group.Canonical()
	scales, err := g.scales(ctx, group, mc.Exam.Type, exec...)
	if err != nil {
		return Grade{}, err
	}

	if mc.Subject.IsCombined() {
		total, ok, err := g.combinedMarks(ctx, mc, mark, exec...)
		if err != nil {
			return Grade{}, err
		}
		if ok {
			if grade, found := scales.Lookup(total); found {
				return grade, nil
			}
			g.logger.Debug("combined marks out of scale, grading subject alone", map[string]interface{}{
				"subject":  mc.Subject.Code,
				"combined": total,
			})
		}
	}
	return g.lookup(scales, group, mc.Exam.Type, mark.MarksObtained), nil
}

// combinedMarks sums mark with the marks of the other subjects of its combined group.
// ok is false when a sibling mark is missing or absent.
func (g *Grader) combinedMarks(ctx context.Context, mc MarkContext, mark StudentMark, exec ...core.DBExecutor) (total float64, ok bool, err error) {
	subjects, err := g.repo.QuerySubjects(ctx, SubjectFilter{CombinedGroup: mc.Subject.CombinedGroup}, exec...)
	if err != nil {
		return 0, false, err
	}
	siblingIDs := make([]string, 0, len(subjects))
	for _, subj := range subjects {
		if subj.ID != mc.Subject.ID {
			siblingIDs = append(siblingIDs, subj.ID)
		}
	}
	if len(siblingIDs) == 0 {
		return 0, false, nil
	}

	siblings, err := g.repo.QueryMarks(ctx, MarkFilter{
		StudentIDs:     []string{mark.StudentID},
		SubjectIDs:     siblingIDs,
		ExamID:         mark.ExamID,
		AcademicYearID: mark.AcademicYearID,
	}, exec...)
	if err != nil {
		return 0, false, err
	}
	if len(siblings) < len(siblingIDs) {
		g.logger.Debug("combined sibling mark missing, grading subject alone", map[string]interface{}{
			"subject": mc.Subject.Code,
			"student": mark.StudentID,
			"exam":    mc.Exam.Name,
		})
		return 0, false, nil
	}

	total = mark.MarksObtained
	for _, sibling := range siblings {
		if sibling.IsAbsent {
			g.logger.Debug("combined sibling mark absent, grading subject alone", map[string]interface{}{
				"subject": mc.Subject.Code,
				"student": mark.StudentID,
				"exam":    mc.Exam.Name,
			})
			return 0, false, nil
		}
		total += sibling.MarksObtained
	}
	return core.Round(total, 2), true, nil
}

// OverallGrade grades an exam percentage. FA percentages are first mapped back to marks out of the
// class group's FA maximum; SA scales are out of 100 so the percentage is used as is.
func (g *Grader) OverallGrade(ctx context.Context, group ClassGroup, examType ExamType, percentage float64, exec ...core.DBExecutor) (Grade, error) {
	group = group.Canonical()
	scales, err := g.scales(ctx, group, examType, exec...)
	if err != nil {
		return Grade{}, err
	}
	marks := percentage
	if examType == ExamTypeFA {
		marks = percentage * float64(MaxMarks(group, ExamTypeFA, nil)) / 100
	}
	return g.lookup(scales, group, examType, marks), nil
}

// scales returns the grade scale of the canonical group, or the scale of its first legacy
// variant that has one.
func (g *Grader) scales(ctx context.Context, group ClassGroup, examType ExamType, exec ...core.DBExecutor) (GradeScales, error) {
	scales, err := g.repo.QueryGradeScales(ctx, group, examType, exec...)
	if err != nil || len(scales) > 0 {
		return scales, err
	}
	for _, legacy := range legacyGroups[group] {
		if scales, err = g.repo.QueryGradeScales(ctx, legacy, examType, exec...); err != nil {
			return nil, err
		}
		if len(scales) > 0 {
			g.logger.Debug("grading with legacy grade scale", map[string]interface{}{
				"class_group": string(group),
				"legacy":      string(legacy),
				"exam_type":   string(examType),
			})
			return scales, nil
		}
	}
	return scales, nil
}

func (g *Grader) lookup(scales GradeScales, group ClassGroup, examType ExamType, marks float64) Grade {
	if grade, ok := scales.Lookup(marks); ok {
		return grade
	}
	gradingFallbacks.Add(string(group)+"/"+string(examType), 1)
	g.logger.Warn("no grade scale row matches marks, using fallback grade", map[string]interface{}{
		"class_group": string(group),
		"exam_type":   string(examType),
		"marks":       marks,
		"fallback":    g.fallback.Grade,
	})
	return g.fallback
}
