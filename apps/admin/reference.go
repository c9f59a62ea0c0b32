package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/gradebook/core/assessment"
)

func (cli *commandLine) classes(ctx context.Context) error {
	list, err := cli.svc.ListClassesAndExams(ctx)
	if err != nil {
		return err
	}
	return cli.render(list, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "CLASS\tGROUP\tID")
		for _, class := range list.Classes {
			fmt.Fprintf(w, "%s\t%s\t%s\n", class.Name, class.Group, class.ID)
		}
		fmt.Fprintln(w, "\nEXAM\tTYPE\tID")
		for _, exam := range list.Exams {
			fmt.Fprintf(w, "%s\t%s\t%s\n", exam.Name, exam.Type, exam.ID)
		}
	})
}

func (cli *commandLine) activateYear(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("activate-year")
	yearID := fs.String("year", "", "The academic year ID.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *yearID == "" {
		return usage(fs)
	}

	year, err := cli.svc.ActivateAcademicYear(ctx, *yearID)
	if err != nil {
		return err
	}
	return cli.render(year, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%s is now the current academic year\n", year.Name)
	})
}

func (cli *commandLine) mapSubjects(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("map-subjects")
	yearID := fs.String("year", "", "The academic year ID (default: current).")
	showPlans := fs.Bool("plans", false, "Only show the default subjects of each class group.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *showPlans {
		return cli.render(subjectPlans(), nil)
	}

	year, err := cli.resolveYear(ctx, *yearID)
	if err != nil {
		return err
	}

	saved, err := cli.svc.MapDefaultSubjects(ctx, year)
	if err != nil {
		return err
	}
	return cli.render(map[string]int{"mapped": saved}, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "%d class subjects mapped\n", saved)
	})
}

// subjectPlans is rendered by map-subjects -plans.
func subjectPlans() map[assessment.ClassGroup]assessment.SubjectPlan {
	plans := make(map[assessment.ClassGroup]assessment.SubjectPlan, len(assessment.ClassGroups))
	for _, group := range assessment.ClassGroups {
		if plan, ok := assessment.DefaultSubjectPlan(group); ok {
			plans[group] = plan
		}
	}
	return plans
}
