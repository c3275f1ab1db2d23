package db

import (
	"fmt"
	"io"
	"strconv"
)

// RunMigrateCommand executes a migrate subcommand against the database at
// dbPath, writing human readable output to out.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return fmt.Errorf("missing migrate action")
	}

	database, err := OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	switch args[0] {
	case "up":
		if err := database.MigrateUp(); err != nil {
			return err
		}
		fmt.Fprintln(out, "all migrations applied")
	case "down":
		if err := database.MigrateDown(); err != nil {
			return err
		}
		fmt.Fprintln(out, "rolled back one migration")
	case "status":
		// handled below
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate force <version>")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := database.MigrateForce(v); err != nil {
			return err
		}
		fmt.Fprintf(out, "forced schema version to %d\n", v)
	case "help":
		PrintMigrateHelp(out)
		return nil
	default:
		PrintMigrateHelp(out)
		return fmt.Errorf("unknown migrate action %q", args[0])
	}
	return printStatus(database, out)
}

func printStatus(database *DB, out io.Writer) error {
	v, dirty, err := database.MigrateVersion()
	if err != nil {
		return err
	}
	latest, err := LatestVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version: %d (latest %d)\n", v, latest)
	if dirty {
		fmt.Fprintln(out, "WARNING: database is dirty; inspect it and run 'migrate force <version>'")
	} else if v < latest {
		fmt.Fprintf(out, "%d migration(s) pending; run 'migrate up'\n", latest-v)
	}
	return nil
}

// PrintMigrateHelp writes usage for the migrate subcommand.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Usage: scan2bim migrate <action>

Actions:
  up               apply all pending migrations
  down             roll back the most recent migration
  status           show the applied and latest schema version
  force <version>  mark the schema as <version> without running scripts
  help             show this message
`)
}
