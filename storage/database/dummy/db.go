package dummydb

import (
	"context"
	"sync"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assessment"
)

type (
	// DB is an in-memory store. Transactions are serialized but never rolled back.
	DB struct {
		tx sync.Mutex

		year    *yearTable
		subject *subjectTable
		class   *classTable
		student *studentTable
		mapping *mappingTable
		exam    *examTable
		scale   *scaleTable
		mark    *markTable
		summary *summaryTable
	}

	yearTable struct {
		sync.RWMutex
		table map[string]*assessment.AcademicYear
	}

	subjectTable struct {
		sync.RWMutex
		table map[string]*assessment.Subject
	}

	classTable struct {
		sync.RWMutex
		table map[string]*assessment.Class
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*assessment.Student
	}

	mappingTable struct {
		sync.RWMutex
		table map[mappingKey]*assessment.ClassSubject
	}

	examTable struct {
		sync.RWMutex
		table map[string]*assessment.Exam
	}

	scaleTable struct {
		sync.RWMutex
		table map[string]*assessment.GradeScale
	}

	markTable struct {
		sync.RWMutex
		table map[assessment.MarkKey]*assessment.StudentMark
	}

	summaryTable struct {
		sync.RWMutex
		table map[assessment.SummaryKey]*assessment.StudentExamSummary
	}

	mappingKey struct {
		classID, subjectID, yearID string
	}
)

var _ core.TxRunner = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{
		year:    &yearTable{table: make(map[string]*assessment.AcademicYear)},
		subject: &subjectTable{table: make(map[string]*assessment.Subject)},
		class:   &classTable{table: make(map[string]*assessment.Class)},
		student: &studentTable{table: make(map[string]*assessment.Student)},
		mapping: &mappingTable{table: make(map[mappingKey]*assessment.ClassSubject)},
		exam:    &examTable{table: make(map[string]*assessment.Exam)},
		scale:   &scaleTable{table: make(map[string]*assessment.GradeScale)},
		mark:    &markTable{table: make(map[assessment.MarkKey]*assessment.StudentMark)},
		summary: &summaryTable{table: make(map[assessment.SummaryKey]*assessment.StudentExamSummary)},
	}
}

func (db *DB) RunInTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	db.tx.Lock()
	defer db.tx.Unlock()
	return fn(nil)
}
