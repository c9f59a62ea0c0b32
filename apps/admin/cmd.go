package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assessment"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	svc        *assessment.Service
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
	out        io.Writer
	errOut     io.Writer
}

func newCommandLine(db *sql.DB, svc *assessment.Service, validate *validator.Validate, translator ut.Translator, logger core.Logger) *commandLine {
	return &commandLine{
		db:         db,
		svc:        svc,
		validate:   validate,
		translator: translator,
		logger:     logger,
		out:        os.Stdout,
		errOut:     os.Stderr,
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.errOut, "Usage:")
	fmt.Fprintln(cli.errOut, "  migrate COMMAND [ARGS]                                  - run a goose command (up, down, status...)")
	fmt.Fprintln(cli.errOut, "  seed                                                    - insert the reference data")
	fmt.Fprintln(cli.errOut, "  classes                                                 - list classes and active exams")
	fmt.Fprintln(cli.errOut, "  activate-year -year ID                                  - make the academic year current")
	fmt.Fprintln(cli.errOut, "  map-subjects [-year ID]                                 - map every class to its default subjects")
	fmt.Fprintln(cli.errOut, "  enter -student ID -subject ID -exam ID -marks N|-absent - enter one mark")
	fmt.Fprintln(cli.errOut, "  import -file PATH                                       - enter the marks of a JSON bulk entry ('-' for stdin)")
	fmt.Fprintln(cli.errOut, "  regrade -class ID -exam ID                              - recompute the grades and summaries of a class")
	fmt.Fprintln(cli.errOut, "  summarize -exam ID -student ID|-class ID                - recompute exam summaries")
	fmt.Fprintln(cli.errOut, "  rank -student ID -exam ID                               - show a student's class rank")
	fmt.Fprintln(cli.errOut, "  report -student ID                                      - show a student's report card")
	fmt.Fprintln(cli.errOut, "  performance -class ID -exam ID                          - show a class performance report")
	fmt.Fprintln(cli.errOut, "  sheet -class ID -exam ID [-subject ID]                  - show a marks entry sheet")
	fmt.Fprintln(cli.errOut, "Every command but migrate, seed and classes accepts -year ID; the current academic year is used by default.")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	cmdArgs := args[2:]

	switch args[1] {
	case "migrate":
		if len(cmdArgs) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(cmdArgs)
	case "seed":
		return cli.seed(ctx)
	case "classes":
		return cli.classes(ctx)
	case "activate-year":
		return cli.activateYear(ctx, cmdArgs)
	case "map-subjects":
		return cli.mapSubjects(ctx, cmdArgs)
	case "enter":
		return cli.enter(ctx, cmdArgs)
	case "import":
		return cli.importMarks(ctx, cmdArgs)
	case "regrade":
		return cli.regrade(ctx, cmdArgs)
	case "summarize":
		return cli.summarize(ctx, cmdArgs)
	case "rank":
		return cli.rank(ctx, cmdArgs)
	case "report":
		return cli.report(ctx, cmdArgs)
	case "performance":
		return cli.performance(ctx, cmdArgs)
	case "sheet":
		return cli.sheet(ctx, cmdArgs)
	default:
		cli.printUsage()
		return errHelp
	}
}

// newFlagSet returns a flag set writing its usage to errOut.
func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.errOut)
	return fs
}

func (cli *commandLine) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// usage prints the flag set usage; it always returns errHelp.
func usage(fs *flag.FlagSet) error {
	fs.Usage()
	return errHelp
}

// resolveYear returns id, or the current academic year's when id is empty.
func (cli *commandLine) resolveYear(ctx context.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	year, err := cli.svc.CurrentAcademicYear(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving the current academic year: %w", err)
	}
	return year.ID, nil
}

// render prints v as a table when writing to a terminal, as indented JSON otherwise.
// A nil table always prints JSON.
func (cli *commandLine) render(v interface{}, table func(w *tabwriter.Writer)) error {
	if table != nil && cli.out == os.Stdout && isTerminalFunc(int(os.Stdout.Fd())) {
		w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
		table(w)
		return w.Flush()
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError prints err for the operator. Errors other than invalid input are also logged.
func (cli *commandLine) printError(err error) {
	fields, ok := core.FieldErrors(err, cli.translator)
	if !ok {
		cli.logger.Error("admin command failed", err)
		fmt.Fprintf(cli.errOut, "error: %s\n", err)
		return
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(cli.errOut, "invalid input:")
	for _, name := range names {
		fmt.Fprintf(cli.errOut, "  %s: %s\n", name, fields[name])
	}
}
