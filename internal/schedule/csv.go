package schedule

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/patienthjem/bus-scheduling/internal/bustime"
)

// csvHeader is the column layout shared by import and export:
// destination_id,day_of_week,departure_time,departure_location
var csvHeader = []string{"destination_id", "day_of_week", "departure_time", "departure_location"}

// HospitalChecker lets the importer skip rows referencing unknown hospitals
// instead of failing the whole file.
type HospitalChecker interface {
	HospitalExists(ctx context.Context, id int64) (bool, error)
}

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportCSV reads timetable rows and upserts them. Rows with unknown
// hospitals or malformed fields are skipped and logged, matching how the
// operators have always run imports against partial exports.
func ImportCSV(ctx context.Context, r io.Reader, repo Repository, hospitals HospitalChecker) (ImportResult, error) {
	reader := csv.NewReader(r)
	// Ragged rows show up in hand-edited exports; the length check below
	// handles them per row.
	reader.FieldsPerRecord = -1

	// Header row
	if _, err := reader.Read(); err != nil {
		return ImportResult{}, fmt.Errorf("read csv header: %w", err)
	}

	var res ImportResult
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read csv record: %w", err)
		}
		if len(record) < 4 {
			log.Warn().Strs("record", record).Msg("skipping short csv record")
			res.Skipped++
			continue
		}

		destinationID, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			log.Warn().Str("destination_id", record[0]).Msg("skipping record with bad destination id")
			res.Skipped++
			continue
		}

		dayOfWeek := record[1]
		if !ValidDayOfWeek(dayOfWeek) {
			log.Warn().Str("day_of_week", dayOfWeek).Msg("skipping record with unknown weekday")
			res.Skipped++
			continue
		}

		departure, err := bustime.ParseTimeOfDay(record[2])
		if err != nil {
			log.Warn().Str("departure_time", record[2]).Msg("skipping record with bad departure time")
			res.Skipped++
			continue
		}

		exists, err := hospitals.HospitalExists(ctx, destinationID)
		if err != nil {
			return res, fmt.Errorf("check hospital %d: %w", destinationID, err)
		}
		if !exists {
			log.Warn().Int64("hospital_id", destinationID).Msg("skipping record, hospital not found")
			res.Skipped++
			continue
		}

		entry := Entry{
			DestinationID:     destinationID,
			DayOfWeek:         dayOfWeek,
			DepartureTime:     departure,
			DepartureLocation: record[3],
		}
		if err := repo.Upsert(ctx, entry); err != nil {
			return res, err
		}
		res.Imported++
	}

	return res, nil
}

// ExportCSV writes the full timetable in the import's column layout.
func ExportCSV(ctx context.Context, w io.Writer, repo Repository) error {
	entries, err := repo.List(ctx, 0, "")
	if err != nil {
		return fmt.Errorf("list schedule entries: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			strconv.FormatInt(e.DestinationID, 10),
			e.DayOfWeek,
			e.DepartureTime.String(),
			e.DepartureLocation,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
