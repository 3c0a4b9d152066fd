package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/patienthjem/bus-scheduling/internal/db"
	"github.com/patienthjem/bus-scheduling/internal/logging"
	"github.com/patienthjem/bus-scheduling/internal/schedule"
	"github.com/patienthjem/bus-scheduling/internal/transport"
)

// scheduletool imports or exports the shuttle timetable as CSV, replacing
// spreadsheet round-trips with the operators.
func main() {
	var (
		doImport = flag.Bool("import", false, "import schedules from the CSV file")
		doExport = flag.Bool("export", false, "export schedules to the CSV file")
		file     = flag.String("file", "schedules.csv", "CSV file path")
	)
	flag.Parse()

	logging.Init("scheduletool", os.Getenv("APP_ENV"))

	if *doImport == *doExport {
		log.Fatal().Msg("exactly one of -import or -export is required")
	}

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	scheduleRepo := schedule.NewPgRepository(pool)
	transportRepo := transport.NewPgRepository(pool)

	if *doImport {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("open csv")
		}
		defer f.Close()

		res, err := schedule.ImportCSV(ctx, f, scheduleRepo, transportRepo)
		if err != nil {
			log.Fatal().Err(err).Msg("import failed")
		}
		log.Info().Int("imported", res.Imported).Int("skipped", res.Skipped).Msg("import complete")
		return
	}

	f, err := os.Create(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("create csv")
	}
	defer f.Close()

	if err := schedule.ExportCSV(ctx, f, scheduleRepo); err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}
	log.Info().Str("file", *file).Msg("export complete")
}
