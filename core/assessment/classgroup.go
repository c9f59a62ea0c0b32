package assessment

import (
	"fmt"

	"github.com/trezcool/gradebook/core"
)

// ClassGroup bands class levels; it selects mark ceilings and the grade scale.
type ClassGroup string

// Canonical class groups
const (
	ClassGroupPre     ClassGroup = "pre"
	ClassGroupPrimary ClassGroup = "1-5"
	ClassGroupHigh    ClassGroup = "6-10"
)

// Legacy class groups, still found in older data.
const (
	ClassGroup1To2  ClassGroup = "1-2"
	ClassGroup3To5  ClassGroup = "3-5"
	ClassGroup6To7  ClassGroup = "6-7"
	ClassGroup8To10 ClassGroup = "8-10"
)

var (
	ClassGroups = []ClassGroup{ClassGroupPre, ClassGroupPrimary, ClassGroupHigh}

	canonicalGroups = map[ClassGroup]ClassGroup{
		ClassGroupPre:     ClassGroupPre,
		ClassGroupPrimary: ClassGroupPrimary,
		ClassGroupHigh:    ClassGroupHigh,
		ClassGroup1To2:    ClassGroupPrimary,
		ClassGroup3To5:    ClassGroupPrimary,
		ClassGroup6To7:    ClassGroupHigh,
		ClassGroup8To10:   ClassGroupHigh,
	}

	// legacy variants whose grade scales stand in for a canonical group without one, preferred first
	legacyGroups = map[ClassGroup][]ClassGroup{
		ClassGroupPrimary: {ClassGroup3To5, ClassGroup1To2},
		ClassGroupHigh:    {ClassGroup8To10, ClassGroup6To7},
	}
)

// ParseClassGroup returns the canonical class group for s, mapping legacy variants onto it.
func ParseClassGroup(s string) (ClassGroup, error) {
	if grp, ok := canonicalGroups[ClassGroup(core.CleanString(s, true /* lower */))]; ok {
		return grp, nil
	}
	return "", fmt.Errorf("unknown class group %q", s)
}

// Canonical maps legacy variants onto their canonical group. Unknown groups are returned as is.
func (g ClassGroup) Canonical() ClassGroup {
	if grp, ok := canonicalGroups[g]; ok {
		return grp
	}
	return g
}

func (g ClassGroup) IsCanonical() bool {
	for _, grp := range ClassGroups {
		if g == grp {
			return true
		}
	}
	return false
}
