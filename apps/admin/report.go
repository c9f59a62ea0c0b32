package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/trezcool/gradebook/core/assessment"
)

func subjectRows(w *tabwriter.Writer, title string, rows []assessment.SubjectRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for _, row := range rows {
		exams := make([]string, 0, len(row.Marks))
		for exam := range row.Marks {
			exams = append(exams, exam)
		}
		sort.Strings(exams)

		fmt.Fprint(w, row.Name)
		for _, exam := range exams {
			m := row.Marks[exam]
			if m.IsAbsent {
				fmt.Fprintf(w, "\t%s: %s", exam, m.Grade)
				continue
			}
			fmt.Fprintf(w, "\t%s: %g/%d %s", exam, m.Marks, m.MaxMarks, m.Grade)
		}
		fmt.Fprintln(w)
	}
}

func (cli *commandLine) report(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("report")
	studentID := fs.String("student", "", "The student ID.")
	yearID := fs.String("year", "", "The academic year ID (default: current).")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *studentID == "" {
		return usage(fs)
	}
	year, err := cli.resolveYear(ctx, *yearID)
	if err != nil {
		return err
	}

	card, err := cli.svc.ReportCard(ctx, *studentID, year)
	if err != nil {
		return err
	}
	return cli.render(card, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%s (roll %d), class %s, %s\n\n", card.Student.Name, card.Student.RollNumber, card.Student.Class, card.AcademicYear)
		fmt.Fprintln(w, "EXAM\tTOTAL\tMAX\t%\tGRADE\tRANK")
		for _, res := range card.Exams {
			fmt.Fprintf(w, "%s\t%g\t%d\t%.2f\t%s\t%d\n", res.Exam, res.TotalObtained, res.TotalMax, res.Percentage, res.OverallGrade, res.ClassRank)
		}
		subjectRows(w, "MAIN SUBJECTS", card.Main)
		subjectRows(w, "OPTIONAL SUBJECTS", card.Optional)
	})
}

func (cli *commandLine) performance(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("performance")
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

	perf, err := cli.svc.ClassPerformance(ctx, *classID, *examID, year)
	if err != nil {
		return err
	}
	if perf == nil {
		fmt.Fprintln(cli.errOut, "no exam summaries for this class")
		return cli.render(perf, nil)
	}
	return cli.render(perf, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%s, %s: %d students, average %.2f%%, highest %g, lowest %g\n\n",
			perf.Class, perf.Exam, perf.TotalStudents, perf.AveragePercentage, perf.HighestMarks, perf.LowestMarks)
		fmt.Fprintln(w, "RANK\tROLL\tSTUDENT\tTOTAL\t%\tGRADE")
		for _, st := range perf.Students {
			fmt.Fprintf(w, "%d\t%d\t%s\t%g\t%.2f\t%s\n", st.Rank, st.RollNumber, st.StudentName, st.TotalMarks, st.Percentage, st.Grade)
		}
	})
}

func (cli *commandLine) sheet(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("sheet")
	classID := fs.String("class", "", "The class ID.")
	examID := fs.String("exam", "", "The exam ID.")
	subjectID := fs.String("subject", "", "Restrict the sheet to one subject.")
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

	sheet, err := cli.svc.MarksEntrySheet(ctx, *classID, *examID, year, *subjectID)
	if err != nil {
		return err
	}
	return cli.render(sheet, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "ROLL\tSTUDENT")
		for _, subj := range sheet.Subjects {
			fmt.Fprintf(w, "\t%s /%d", subj.Name, subj.MaxMarks)
		}
		fmt.Fprintln(w)
		for _, st := range sheet.Students {
			fmt.Fprintf(w, "%d\t%s", st.RollNumber, st.Name)
			for _, subj := range sheet.Subjects {
				m, ok := sheet.Marks[st.ID][subj.ID]
				switch {
				case !ok:
					fmt.Fprint(w, "\t-")
				case m.IsAbsent:
					fmt.Fprint(w, "\tAB")
				default:
					fmt.Fprintf(w, "\t%g %s", m.Marks, m.Grade)
				}
			}
			fmt.Fprintln(w)
		}
	})
}
