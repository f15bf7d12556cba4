package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	contactmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	"github.com/andreypavlenko/crmcore/modules/imports/ports"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

var candidateDelimiters = []rune{',', ';', '\t'}

// detectDelimiter picks the delimiter with the highest majority count
// across the first five lines (spec §6 "CSV file format").
func detectDelimiter(sample []byte) rune {
	lines := strings.SplitN(string(sample), "\n", 6)
	if len(lines) > 5 {
		lines = lines[:5]
	}

	best := ','
	bestCount := -1
	for _, d := range candidateDelimiters {
		total := 0
		for _, line := range lines {
			total += strings.Count(line, string(d))
		}
		if total > bestCount {
			bestCount = total
			best = d
		}
	}
	return best
}

// newReader strips a UTF-8 BOM if present and returns a csv.Reader
// configured with the auto-detected delimiter.
func newReader(r io.Reader) (*csv.Reader, error) {
	buffered := bufio.NewReader(r)
	peek, err := buffered.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, err
	}
	peek = bytes.TrimPrefix(peek, bom)
	if bytes.HasPrefix(peek, bom) {
		peek = peek[len(bom):]
	}

	delim := detectDelimiter(peek)

	first3, _ := buffered.Peek(len(bom))
	if bytes.Equal(first3, bom) {
		_, _ = buffered.Discard(len(bom))
	}

	cr := csv.NewReader(buffered)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr, nil
}

// dedupeHeaders disambiguates repeated header names with _2, _3, ...
// suffixes (spec §6).
func dedupeHeaders(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		seen[h]++
		if seen[h] == 1 {
			out[i] = h
		} else {
			out[i] = fmt.Sprintf("%s_%d", h, seen[h])
		}
	}
	return out
}

// CSVRow is one parsed data row keyed by deduplicated header name.
type CSVRow struct {
	Number int // 1-based, counted from the first data row
	Fields map[string]string
}

// CountRows streams the file once, returning the total data-row count
// and the deduplicated headers (spec §4.3 step 3 pre-pass).
func CountRows(ctx context.Context, store ports.FileStore, key string) (int, []string, error) {
	f, err := store.Open(ctx, key)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	cr, err := newReader(f)
	if err != nil {
		return 0, nil, err
	}

	headerRaw, err := cr.Read()
	if err == io.EOF {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	headers := dedupeHeaders(headerRaw)

	count := 0
	for {
		if ctx.Err() != nil {
			return count, headers, ctx.Err()
		}
		_, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, headers, err
		}
		count++
	}
	return count, headers, nil
}

// StreamRows opens a fresh read of the file and invokes fn for every
// batch of up to batchSize rows (spec §4.3 step 5 "stream the CSV in
// batches of 500 rows"). fn receiving an error aborts the stream.
func StreamRows(ctx context.Context, store ports.FileStore, key string, batchSize int, fn func(batch []CSVRow) error) error {
	f, err := store.Open(ctx, key)
	if err != nil {
		return err
	}
	defer f.Close()

	cr, err := newReader(f)
	if err != nil {
		return err
	}

	headerRaw, err := cr.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	headers := dedupeHeaders(headerRaw)

	batch := make([]CSVRow, 0, batchSize)
	rowNumber := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		rowNumber++

		fields := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				fields[h] = record[i]
			}
		}
		batch = append(batch, CSVRow{Number: rowNumber, Fields: fields})

		if len(batch) >= batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

// SuggestMapping heuristically maps raw headers to the fixed set of
// fields the worker consumes, by case-insensitive substring match
// (spec §6 upload() response "suggested_mapping").
func SuggestMapping(headers []string) map[string]string {
	suggestions := map[string][]string{
		"email":        {"email"},
		"linkedin_url": {"linkedin", "profile url", "profile_url"},
		"first_name":   {"first name", "first_name", "firstname"},
		"last_name":    {"last name", "last_name", "lastname"},
		"name":         {"name", "full name"},
		"job_title":    {"position", "title", "job title", "job_title"},
		"company":      {"company", "current company"},
		"connected_on": {"connected on", "connected_on", "connected"},
	}

	mapping := make(map[string]string)
	for _, header := range headers {
		lower := strings.ToLower(strings.TrimSpace(header))
		for field, needles := range suggestions {
			if _, already := mapping[field]; already {
				continue
			}
			for _, needle := range needles {
				if strings.Contains(lower, needle) {
					mapping[field] = header
					break
				}
			}
		}
	}
	return mapping
}

// PrepareResult is what rowPreparer.prepare returns after normalizing a
// raw CSV row into the worker's internal record, classifying it and
// flagging validation/parse failures (spec §4.3 step 5). prepare never
// itself discards a row - invalidity is
// reported through the returned bools so the caller can emit the
// right audit record.
type PrepareResult struct {
	Row           *contactmodel.PreparedRow
	Invalid       bool
	InvalidReason string
	ParseFailures []ParseFailureDetail
}

type ParseFailureDetail struct {
	ReasonCode string
	Detail     string
}
