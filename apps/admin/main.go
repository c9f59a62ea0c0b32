package main

import (
	"log"
	"os"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assessment"
	logsvc "github.com/trezcool/gradebook/services/logger"
	"github.com/trezcool/gradebook/storage/database"
	boiledrepos "github.com/trezcool/gradebook/storage/database/sqlboiler"
)

var std *log.Logger

func main() {
	std = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(std, conf)

	// the app user & database must exist before the first migration
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		errAndDie(database.CreateIfNotExist(conf))
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)

	validate, translator := core.NewValidator()
	assessment.InitValidators(validate, translator)

	repo := boiledrepos.NewAssessmentRepository(db)
	svc := assessment.NewService(database.NewTxRunner(db), repo, validate, logger, conf)

	// start CLI
	cli := newCommandLine(db, svc, validate, translator, logger)
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			cli.printError(err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		std.Fatal(err)
	}
}
