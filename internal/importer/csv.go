package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Row is one historical set from a training-log export.
type Row struct {
	Date     time.Time
	Workout  string
	Exercise string
	SetNum   int
	Weight   float64
	Reps     int
}

// expected header columns, in order.
var header = []string{"date", "workout", "exercise", "set_number", "weight", "reps"}

// ParseCSV reads a training-log CSV export. The first line must be the
// header. Lines with an unparseable date or numbers are returned in
// skipped rather than failing the whole file; exports from other apps
// tend to mix notes and summary lines into the data.
func ParseCSV(r io.Reader) (rows []Row, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}
	if err := checkHeader(first); err != nil {
		return nil, 0, err
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("reading record: %w", err)
		}
		if len(record) < len(header) {
			skipped++
			continue
		}

		row, ok := parseRecord(record)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func checkHeader(record []string) error {
	if len(record) < len(header) {
		return fmt.Errorf("header has %d columns, want %d (%s)", len(record), len(header), strings.Join(header, ","))
	}
	for i, want := range header {
		if !strings.EqualFold(strings.TrimSpace(record[i]), want) {
			return fmt.Errorf("header column %d is %q, want %q", i+1, record[i], want)
		}
	}
	return nil
}

func parseRecord(record []string) (Row, bool) {
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(record[0]), time.UTC)
	if err != nil {
		return Row{}, false
	}
	workout := strings.TrimSpace(record[1])
	exercise := strings.TrimSpace(record[2])
	if workout == "" || exercise == "" {
		return Row{}, false
	}
	setNum, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil || setNum < 1 {
		return Row{}, false
	}
	weight, ok := parseDecimal(record[4])
	if !ok {
		return Row{}, false
	}
	reps, err := strconv.Atoi(strings.TrimSpace(record[5]))
	if err != nil {
		return Row{}, false
	}

	return Row{
		Date:     date,
		Workout:  workout,
		Exercise: exercise,
		SetNum:   setNum,
		Weight:   weight,
		Reps:     reps,
	}, true
}

// parseDecimal accepts both "102.5" and the European "102,5".
func parseDecimal(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
