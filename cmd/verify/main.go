// Command verify prints the stored customer total and the count of rows
// created inside the trailing window. Read-only; safe to run any time.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/mercately-sync/internal/repository/postgres"
	"github.com/ignite/mercately-sync/internal/sync"
)

func main() {
	days := flag.Int("days", 7, "trailing window in days")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}

	windowStart := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -*days)

	verifier := sync.NewVerifier(postgres.NewCustomerStore(db))
	report, err := verifier.Verify(ctx, windowStart)
	if err != nil {
		log.Fatalf("verify: %v", err)
	}

	fmt.Printf("Total customers:        %d\n", report.Total)
	fmt.Printf("Created in last %2d days: %d (since %s)\n",
		*days, report.InWindow, report.WindowStart.Format("2006-01-02"))
}
