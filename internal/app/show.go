package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"support-band-alerts/internal/state"
)

// Show prints recently dispatched digests from the audit log.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if a.Config.State.Backend != "postgres" {
		return errors.New("show requires the postgres state backend")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	pg, ok := store.(*state.PostgresStore)
	if !ok {
		return errors.New("state backend does not keep an alert log")
	}

	entries, err := pg.RecentAlerts(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts recorded")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tRun\tClassification\tSymbols")

	for _, entry := range entries {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\n",
			entry.CreatedAt.UTC().Format(time.RFC3339),
			shortRunID(entry.RunID),
			entry.Classification,
			strings.Join(entry.Symbols, ","),
		)
	}

	writer.Flush()
	return nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
