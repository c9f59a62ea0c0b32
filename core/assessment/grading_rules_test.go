package assessment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core"
)

func TestMaxMarks(t *testing.T) {
	science := &Subject{Code: "PHY", CombinedGroup: "science"}
	maths := &Subject{Code: "MATH"}

	tests := []struct {
		name     string
		group    ClassGroup
		examType ExamType
		subject  *Subject
		want     int
	}{
		{name: "combined FA", group: ClassGroupHigh, examType: ExamTypeFA, subject: science, want: 25},
		{name: "combined SA", group: ClassGroupHigh, examType: ExamTypeSA, subject: science, want: 50},
		{name: "SA", group: ClassGroupPrimary, examType: ExamTypeSA, subject: maths, want: 100},
		{name: "SA without subject", group: ClassGroupPre, examType: ExamTypeSA, want: 100},
		{name: "FA pre", group: ClassGroupPre, examType: ExamTypeFA, subject: maths, want: 50},
		{name: "FA 1-5", group: ClassGroupPrimary, examType: ExamTypeFA, subject: maths, want: 25},
		{name: "FA 6-10", group: ClassGroupHigh, examType: ExamTypeFA, subject: maths, want: 50},
		{name: "FA legacy 1-2", group: ClassGroup1To2, examType: ExamTypeFA, want: 25},
		{name: "FA legacy 3-5", group: ClassGroup3To5, examType: ExamTypeFA, want: 25},
		{name: "FA legacy 6-7", group: ClassGroup6To7, examType: ExamTypeFA, want: 50},
		{name: "FA legacy 8-10", group: ClassGroup8To10, examType: ExamTypeFA, want: 50},
		{name: "FA unknown group", group: "lol", examType: ExamTypeFA, want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxMarks(tt.group, tt.examType, tt.subject); got != tt.want {
				t.Errorf("MaxMarks() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGrader_Grade_absent(t *testing.T) {
	tests := []struct {
		name string
		conf *core.Config
		want Grade
	}{
		{name: "no config", want: Grade{Grade: AbsentGrade}},
		{name: "default", conf: &core.Config{}, want: Grade{Grade: AbsentGrade}},
		{name: "configured", conf: &core.Config{Grading: core.GradingConfig{AbsentGrade: "ABS"}}, want: Grade{Grade: "ABS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// absent marks never reach the repository
			g := NewGrader(nil, nil, tt.conf)
			got, err := g.Grade(context.Background(), MarkContext{}, StudentMark{MarksObtained: 42, IsAbsent: true})
			if err != nil {
				t.Fatalf("Grade() error = %v", err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClassGroup(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    ClassGroup
		wantErr bool
	}{
		{name: "pre", s: "pre", want: ClassGroupPre},
		{name: "upper case", s: " PRE ", want: ClassGroupPre},
		{name: "1-5", s: "1-5", want: ClassGroupPrimary},
		{name: "legacy 1-2", s: "1-2", want: ClassGroupPrimary},
		{name: "legacy 3-5", s: "3-5", want: ClassGroupPrimary},
		{name: "legacy 6-7", s: "6-7", want: ClassGroupHigh},
		{name: "legacy 8-10", s: "8-10", want: ClassGroupHigh},
		{name: "6-10", s: "6-10", want: ClassGroupHigh},
		{name: "unknown", s: "11-12", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClassGroup(tt.s)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseClassGroup() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseClassGroup() = %q, want %q", got, tt.want)
			}
		})
	}

	assert.True(t, ClassGroupHigh.IsCanonical())
	assert.False(t, ClassGroup8To10.IsCanonical())
	assert.Equal(t, ClassGroup("lol"), ClassGroup("lol").Canonical())
}

func TestGradeScales_Lookup(t *testing.T) {
	scales := GradeScales{
		{MinMarks: 91, MaxMarks: 100, Grade: "A1", GradePoint: 10},
		{MinMarks: 81, MaxMarks: 90, Grade: "A2", GradePoint: 9},
		{MinMarks: 0, MaxMarks: 34, Grade: "D2", GradePoint: 3},
	}

	tests := []struct {
		name   string
		marks  float64
		want   Grade
		wantOk bool
	}{
		{name: "upper bound", marks: 100, want: Grade{"A1", 10}, wantOk: true},
		{name: "lower bound", marks: 91, want: Grade{"A1", 10}, wantOk: true},
		{name: "inside range", marks: 85.5, want: Grade{"A2", 9}, wantOk: true},
		{name: "zero", marks: 0, want: Grade{"D2", 3}, wantOk: true},
		{name: "between rows", marks: 90.5},
		{name: "gap", marks: 50},
		{name: "above every row", marks: 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scales.Lookup(tt.marks)
			if ok != tt.wantOk {
				t.Fatalf("Lookup() ok = %v, want %v", ok, tt.wantOk)
			}
			if got != tt.want {
				t.Errorf("Lookup() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGradeScales_Gaps(t *testing.T) {
	scales := GradeScales{
		{MinMarks: 46, MaxMarks: 50},
		{MinMarks: 18, MaxMarks: 20},
		{MinMarks: 0, MaxMarks: 17},
		{MinMarks: 21, MaxMarks: 40},
	}
	assert.Equal(t, [][2]int{{41, 45}}, scales.Gaps(50))
	assert.Equal(t, [][2]int{{41, 45}, {51, 60}}, scales.Gaps(60))
	assert.Nil(t, scales.Gaps(40))
	assert.Equal(t, [][2]int{{0, 10}}, GradeScales{}.Gaps(10))
}

func TestValidateScales(t *testing.T) {
	tests := []struct {
		name    string
		scales  []GradeScale
		wantErr bool
	}{
		{name: "default seed", scales: DefaultSeedData().GradeScales},
		{
			name: "overlap in one scope",
			scales: []GradeScale{
				{ClassGroup: ClassGroupHigh, ExamType: ExamTypeSA, MinMarks: 0, MaxMarks: 40, Grade: "D2"},
				{ClassGroup: ClassGroupHigh, ExamType: ExamTypeSA, MinMarks: 35, MaxMarks: 50, Grade: "D1"},
			},
			wantErr: true,
		},
		{
			name: "same ranges in different scopes",
			scales: []GradeScale{
				{ClassGroup: ClassGroupHigh, ExamType: ExamTypeSA, MinMarks: 0, MaxMarks: 40, Grade: "D2"},
				{ClassGroup: ClassGroupHigh, ExamType: ExamTypeFA, MinMarks: 0, MaxMarks: 40, Grade: "D2"},
				{ClassGroup: ClassGroupPre, ExamType: ExamTypeSA, MinMarks: 0, MaxMarks: 40, Grade: "D2"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScales(tt.scales)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScales() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err.Error() != ErrOverlappingScales.Error() {
				t.Errorf("ValidateScales() error = %v, want %v", err, ErrOverlappingScales)
			}
		})
	}
}

func TestRankTotals(t *testing.T) {
	totals := []StudentTotal{
		{StudentID: "a", Total: 90},
		{StudentID: "b", Total: 75},
		{StudentID: "c", Total: 90},
		{StudentID: "d", Total: 0},
	}
	ranking := RankTotals(totals)

	tests := []struct {
		name      string
		studentID string
		want      int
	}{
		{name: "first of a tie", studentID: "a", want: 1},
		{name: "second of a tie", studentID: "c", want: 2},
		{name: "after the tie", studentID: "b", want: 3},
		{name: "no marks", studentID: "d", want: 4},
		{name: "not ranked", studentID: "z", want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ranking.RankOf(tt.studentID); got != tt.want {
				t.Errorf("RankOf() = %d, want %d", got, tt.want)
			}
		})
	}

	assert.Equal(t, "a", totals[0].StudentID, "input must not be reordered")
	assert.Equal(t, map[string]int{"a": 1, "c": 2, "b": 3, "d": 4}, ranking.Ranks())
	assert.Equal(t, 0, Ranking{}.RankOf("a"))
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name     string
		obtained float64
		max      int
		want     float64
	}{
		{name: "full", obtained: 180, max: 200, want: 90},
		{name: "rounded", obtained: 2, max: 3, want: 66.67},
		{name: "zero max", obtained: 10, max: 0, want: 0},
		{name: "zero", obtained: 0, max: 125, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.obtained, tt.max); got != tt.want {
				t.Errorf("Percentage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyLocker(t *testing.T) {
	l := newKeyLocker()
	unlock := l.lock("a")

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.lock("b")() // other keys are not blocked
		l.lock("a")()
	}()

	unlock()
	<-done
	assert.Empty(t, l.locks)
}
