package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/gradebook/core/assessment"
)

func summaryTable(summaries []assessment.StudentExamSummary) func(w *tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "STUDENT\tTOTAL\tMAX\t%\tGRADE\tRANK")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%g\t%d\t%.2f\t%s\t%d\n", s.StudentID, s.TotalObtained, s.TotalMax, s.Percentage, s.OverallGrade, s.ClassRank)
		}
	}
}

func (cli *commandLine) summarize(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("summarize")
	studentID := fs.String("student", "", "The student ID.")
	classID := fs.String("class", "", "The class ID, to summarize every student.")
	examID := fs.String("exam", "", "The exam ID.")
	yearID := fs.String("year", "", "The academic year ID (default: current).")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *examID == "" || (*studentID == "") == (*classID == "") {
		return usage(fs)
	}
	year, err := cli.resolveYear(ctx, *yearID)
	if err != nil {
		return err
	}

	if *classID != "" {
		summaries, err := cli.svc.SummarizeClass(ctx, *classID, *examID, year)
		if err != nil {
			return err
		}
		return cli.render(summaries, summaryTable(summaries))
	}

	summary, err := cli.svc.Summarize(ctx, *studentID, *examID, year)
	if err != nil {
		return err
	}
	if summary == nil {
		fmt.Fprintln(cli.errOut, "no main subject marks: summary removed")
		return cli.render(summary, nil)
	}
	return cli.render(summary, summaryTable([]assessment.StudentExamSummary{*summary}))
}

func (cli *commandLine) rank(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("rank")
	studentID := fs.String("student", "", "The student ID.")
	examID := fs.String("exam", "", "The exam ID.")
	yearID := fs.String("year", "", "The academic year ID (default: current).")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *studentID == "" || *examID == "" {
		return usage(fs)
	}
	year, err := cli.resolveYear(ctx, *yearID)
	if err != nil {
		return err
	}

	rank, err := cli.svc.Rank(ctx, *studentID, *examID, year)
	if err != nil {
		return err
	}
	return cli.render(map[string]int{"rank": rank}, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "rank %d\n", rank)
	})
}
