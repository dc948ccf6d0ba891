// Command syncbox-diag inspects a local sync database: it prints outbox
// status counts and can rebuild stock balances from the movement log.
//
// Sync failures are background concerns and never surface to users; this tool
// is the operator's window into a queue that is stuck on FAILED records.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tradewell/syncbox/sqlite"
)

const exitUsage = 2

func main() {
	var (
		path    string
		table   string
		rebuild bool
	)

	flag.StringVar(&path, "db", "", "Path to the local SQLite database")
	flag.StringVar(&table, "table", "outbox", "Outbox table name")
	flag.BoolVar(&rebuild, "rebuild", false, "Rebuild all stock balances from the movement log")
	flag.Parse()

	if path == "" {
		fmt.Fprintln(os.Stderr, "db is required")
		flag.Usage()
		os.Exit(exitUsage)
	}

	if err := run(path, table, rebuild); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func run(path, table string, rebuild bool) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	store, err := sqlite.NewStore(db, sqlite.WithOutboxTable(table))
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	ctx := context.Background()
	if rebuild {
		ledger, err := sqlite.NewLedger(store)
		if err != nil {
			return fmt.Errorf("init ledger: %w", err)
		}
		rebuilt, err := ledger.RebuildAllBalances(ctx)
		if err != nil {
			return fmt.Errorf("rebuild balances: %w", err)
		}
		fmt.Printf("rebuilt %d balances\n", rebuilt)

		return nil
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("counts: %w", err)
	}
	fmt.Printf("pending=%d failed=%d sent=%d\n", counts.Pending, counts.Failed, counts.Sent)

	return nil
}
