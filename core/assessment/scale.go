package assessment

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var ErrOverlappingScales = errors.New("grade scale ranges overlap")

// GradeScale maps an inclusive [MinMarks, MaxMarks] range to a grade for a class group and exam type.
type GradeScale struct {
	ID         string     `json:"id"`
	ClassGroup ClassGroup `json:"class_group" validate:"required,classgroup"`
	ExamType   ExamType   `json:"exam_type" validate:"required,examtype"`
	MinMarks   int        `json:"min_marks" validate:"gte=0"`
	MaxMarks   int        `json:"max_marks" validate:"gtefield=MinMarks"`
	Grade      string     `json:"grade" validate:"required,max=5"`
	GradePoint float64    `json:"grade_point" validate:"gte=0,lte=10"`
}

func (gs GradeScale) Contains(marks float64) bool {
	return float64(gs.MinMarks) <= marks && marks <= float64(gs.MaxMarks)
}

// GradeScales holds the rows of one (class group, exam type).
type GradeScales []GradeScale

// Lookup returns the grade of the first row containing marks.
func (s GradeScales) Lookup(marks float64) (Grade, bool) {
	for _, gs := range s {
		if gs.Contains(marks) {
			return Grade{Grade: gs.Grade, Point: gs.GradePoint}, true
		}
	}
	return Grade{}, false
}

// Gaps lists the integer ranges of [0, upTo] no row covers.
func (s GradeScales) Gaps(upTo int) [][2]int {
	sorted := make(GradeScales, len(s))
	copy(sorted, s)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinMarks < sorted[j].MinMarks })

	var gaps [][2]int
	next := 0
	for _, gs := range sorted {
		if next > upTo {
			break
		}
		if gs.MinMarks > next {
			end := gs.MinMarks - 1
			if end > upTo {
				end = upTo
			}
			gaps = append(gaps, [2]int{next, end})
		}
		if gs.MaxMarks+1 > next {
			next = gs.MaxMarks + 1
		}
	}
	if next <= upTo {
		gaps = append(gaps, [2]int{next, upTo})
	}
	return gaps
}

// ValidateScales checks that no two rows of the same (class group, exam type) overlap.
func ValidateScales(scales []GradeScale) error {
	type scope struct {
		group    ClassGroup
		examType ExamType
	}
	byScope := make(map[scope]GradeScales)
	for _, gs := range scales {
		key := scope{gs.ClassGroup, gs.ExamType}
		byScope[key] = append(byScope[key], gs)
	}

	var fldErrs []core.FieldError
	for key, rows := range byScope {
		sort.Slice(rows, func(i, j int) bool { return rows[i].MinMarks < rows[j].MinMarks })
		for i := 1; i < len(rows); i++ {
			prev, curr := rows[i-1], rows[i]
			if curr.MinMarks <= prev.MaxMarks {
				fldErrs = append(fldErrs, core.FieldError{
					Field: fmt.Sprintf("grade_scales[%s/%s]", key.group, key.examType),
					Error: fmt.Sprintf("%s (%d-%d) overlaps %s (%d-%d)",
						curr.Grade, curr.MinMarks, curr.MaxMarks, prev.Grade, prev.MinMarks, prev.MaxMarks),
				})
			}
		}
	}
	if len(fldErrs) > 0 {
		sort.Slice(fldErrs, func(i, j int) bool { return fldErrs[i].Field < fldErrs[j].Field })
		return core.NewValidationError(ErrOverlappingScales, fldErrs...)
	}
	return nil
}
