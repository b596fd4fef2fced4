// Command kegmon-migrate-times rewrites stored timestamps that hold local
// wall-clock values stamped as UTC, reinterpreting them in the correct
// zone. It refuses to change anything until every row converts cleanly.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/draughtlab/kegmon/internal/config"
	"github.com/draughtlab/kegmon/internal/logger"
	"github.com/draughtlab/kegmon/internal/timemigrate"
	"github.com/draughtlab/kegmon/pkg/db"
)

func main() {
	var (
		from    = flag.String("from", "UTC", "zone the stored wall clocks are currently stamped with")
		to      = flag.String("to", "", "IANA zone the wall clocks actually belong to (required)")
		inverse = flag.Bool("inverse", false, "undo a previous conversion by swapping the zones")
		apply   = flag.Bool("apply", false, "write the converted timestamps; default is a dry run")
		yes     = flag.Bool("yes", false, "skip the interactive confirmation")
	)
	flag.Parse()

	if *to == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: -to")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	conn, err := db.Open(cfg.DB, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}

	conv, err := timemigrate.NewConverter(*from, *to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *inverse {
		conv = conv.Inverse()
	}

	ctx := context.Background()
	migrator := timemigrate.NewMigrator(conn, log)

	report, err := migrator.Run(ctx, conv, false)
	printReport(report)
	if err != nil {
		if errors.Is(err, timemigrate.ErrNonexistentTimes) {
			fmt.Fprintln(os.Stderr, "aborted: fix the rows above and rerun")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "dry run failed: %v\n", err)
		os.Exit(1)
	}

	if !*apply {
		fmt.Println("dry run only; rerun with -apply to write changes")
		return
	}
	if !*yes && !confirm() {
		fmt.Println("cancelled")
		return
	}

	report, err = migrator.Run(ctx, conv, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("done: %d rows converted\n", report.Converted)
}

func printReport(report *timemigrate.Report) {
	if report == nil {
		return
	}
	fmt.Printf("scanned %d rows, %d need conversion\n", report.Scanned, report.Converted)
	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "  %s.%s id=%s: %s does not exist in the target zone\n",
			f.Table, f.Column, f.RowID, f.Value.Format("2006-01-02 15:04:05"))
	}
}

func confirm() bool {
	fmt.Print("this rewrites timestamps in place; type 'yes' to continue: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "yes"
}
