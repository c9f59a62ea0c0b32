package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/assessment"
)

func (cli *commandLine) enter(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("enter")
	studentID := fs.String("student", "", "The student ID.")
	subjectID := fs.String("subject", "", "The subject ID.")
	examID := fs.String("exam", "", "The exam ID.")
	yearID := fs.String("year", "", "The academic year ID (default: current).")
	marks := fs.String("marks", "", "The marks obtained.")
	absent := fs.Bool("absent", false, "The student was absent.")
	enteredBy := fs.String("by", "", "Who entered the mark.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *studentID == "" || *subjectID == "" || *examID == "" || (*marks == "" && !*absent) {
		return usage(fs)
	}

	var obtained float64
	if *marks != "" {
		var err error
		if obtained, err = strconv.ParseFloat(*marks, 64); err != nil {
			return errors.Errorf("invalid marks %q", *marks)
		}
	}
	year, err := cli.resolveYear(ctx, *yearID)
	if err != nil {
		return err
	}

	mark, err := cli.svc.EnterMark(ctx, assessment.MarkEntry{
		MarkKey: assessment.MarkKey{
			StudentID:      *studentID,
			SubjectID:      *subjectID,
			ExamID:         *examID,
			AcademicYearID: year,
		},
		MarksObtained: obtained,
		IsAbsent:      *absent,
		EnteredBy:     *enteredBy,
	})
	if err != nil {
		return err
	}
	return cli.render(mark, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "MARKS\tMAX\tGRADE\tPOINT")
		fmt.Fprintf(w, "%g\t%d\t%s\t%g\n", mark.MarksObtained, mark.MaxMarks, mark.Grade, mark.GradePoint)
	})
}

var stdin io.Reader = os.Stdin

func (cli *commandLine) importMarks(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("import")
	path := fs.String("file", "", "The JSON bulk entry file ('-' for stdin).")
	yearID := fs.String("year", "", "The academic year ID, when the file has none (default: current).")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *path == "" {
		return usage(fs)
	}

	r := stdin
	if *path != "-" {
		f, err := os.Open(*path)
		if err != nil {
			return errors.Wrap(err, "opening bulk entry")
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var bulk assessment.BulkMarkEntry
	if err := json.NewDecoder(r).Decode(&bulk); err != nil {
		return errors.Wrap(err, "decoding bulk entry")
	}
	if bulk.AcademicYearID == "" {
		year, err := cli.resolveYear(ctx, *yearID)
		if err != nil {
			return err
		}
		bulk.AcademicYearID = year
	}

	saved, err := cli.svc.EnterMarks(ctx, bulk)
	if err != nil {
		return errors.Wrapf(err, "%d of %d marks saved", saved, len(bulk.Marks))
	}
	return cli.render(map[string]int{"saved": saved}, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%d marks saved\n", saved)
	})
}

func (cli *commandLine) regrade(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("regrade")
	classID := fs.String("class", "", "The class ID.")
	examID := fs.String("exam", "", "The exam ID.")
	yearID := fs.String("year", "", "The academic year ID (default: current).")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *classID == "" || *examID == "" {
		return usage(fs)
	}
	year, err := cli.resolveYear(ctx, *yearID)
	if err != nil {
		return err
	}

	changed, err := cli.svc.Regrade(ctx, *classID, *examID, year)
	if err != nil {
		return err
	}
	return cli.render(map[string]int{"regraded": changed}, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%d marks regraded\n", changed)
	})
}
