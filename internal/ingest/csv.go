package ingest

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
}

// ReadCSV parses venue records from a CSV stream. The first row is the
// header. Rows that fail to parse are returned as per-row errors alongside
// the good records so one bad row does not sink a whole import.
func ReadCSV(r io.Reader, opts CSVOptions) ([]*VenueRecord, []error, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, eris.New("ingest: empty CSV file")
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: read CSV header")
	}
	columns := headerIndex(header)

	var records []*VenueRecord
	var rowErrs []error
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "ingest: read CSV row")
		}
		rec, err := parseRecord(columns, row)
		if err != nil {
			rowErrs = append(rowErrs, err)
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

func readCSVFile(path string) ([]*VenueRecord, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: open csv")
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(f, CSVOptions{})
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[canonicalColumn(h)] = i
	}
	return columns
}
