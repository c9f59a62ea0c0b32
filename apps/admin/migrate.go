package main

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/trezcool/gradebook/core/assessment"
	"github.com/trezcool/gradebook/storage/database"
)

var (
	// mockable
	gooseRunFunc = goose.Run
	seedFunc     = database.Seed
)

func (cli *commandLine) migrate(args []string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseRunFunc(args[0], cli.db, database.MigrationsDir, args[1:]...)
}

func (cli *commandLine) seed(ctx context.Context) error {
	data := assessment.DefaultSeedData()
	if err := assessment.ValidateSeedData(cli.validate, data); err != nil {
		return err
	}
	if err := seedFunc(ctx, cli.db, data); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "seeded academic year %s, %d exams, %d subjects and %d grade scales\n",
		data.AcademicYear.Name, len(data.Exams), len(data.Subjects), len(data.GradeScales))
	return nil
}
