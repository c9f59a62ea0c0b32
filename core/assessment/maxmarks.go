package assessment

const (
	combinedFAMaxMarks = 25
	combinedSAMaxMarks = 50
	saMaxMarks         = 100
	defaultFAMaxMarks  = 50
)

var faMaxMarks = map[ClassGroup]int{
	ClassGroupPre:     50,
	ClassGroup1To2:    25,
	ClassGroupPrimary: 25,
	ClassGroup3To5:    25,
	ClassGroup6To7:    50,
	ClassGroup8To10:   50,
	ClassGroupHigh:    50,
}

// MaxMarks returns the ceiling of a mark for the class group, exam type and (optional) subject.
// Combined subjects are out of 25 (FA) / 50 (SA) whatever the class group.
func MaxMarks(group ClassGroup, examType ExamType, subject *Subject) int {
	if subject != nil && subject.IsCombined() {
		if examType == ExamTypeSA {
			return combinedSAMaxMarks
		}
		return combinedFAMaxMarks
	}
	if examType == ExamTypeSA {
		return saMaxMarks
	}
	if max, ok := faMaxMarks[group]; ok {
		return max
	}
	return defaultFAMaxMarks
}
