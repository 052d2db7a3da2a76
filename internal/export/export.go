// Package export reads and writes rating backups.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ramonehamilton/commander-rater/internal/storage/models"
)

// Format represents the export format.
type Format string

const (
	// FormatJSON writes {"ratings": [...], "count": n}.
	FormatJSON Format = "json"
	// FormatCSV writes an external_id,rating header and one row per rating.
	FormatCSV Format = "csv"
)

var csvHeader = []string{"external_id", "rating"}

// Document is the JSON shape of a rating backup. The API export and import bodies use it too.
type Document struct {
	Ratings []models.RatingRecord `json:"ratings"`
	Count   int                   `json:"count"`
}

// NewDocument wraps records. A nil slice becomes empty so it encodes as [].
func NewDocument(records []models.RatingRecord) Document {
	if records == nil {
		records = []models.RatingRecord{}
	}
	return Document{Ratings: records, Count: len(records)}
}

// Options holds configuration for export operations.
type Options struct {
	Format     Format
	FilePath   string
	PrettyJSON bool
	Overwrite  bool
}

// FormatFromPath picks the format from the file extension; anything but .csv is JSON.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatJSON
}

// WriteFile writes records to opts.FilePath, replacing any existing file atomically.
func WriteFile(records []models.RatingRecord, opts Options) error {
	if _, err := os.Stat(opts.FilePath); err == nil && !opts.Overwrite {
		return fmt.Errorf("file already exists: %s (use overwrite option to replace)", opts.FilePath)
	}

	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, opts.Format, records, opts.PrettyJSON); err != nil {
		return err
	}

	if err := atomic.WriteFile(opts.FilePath, &buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.FilePath, err)
	}
	return nil
}

// Write encodes records to w.
func Write(w io.Writer, format Format, records []models.RatingRecord, prettyJSON bool) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		if prettyJSON {
			encoder.SetIndent("", "  ")
		}
		return encoder.Encode(NewDocument(records))
	case FormatCSV:
		return writeCSV(w, records)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func writeCSV(w io.Writer, records []models.RatingRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, rec := range records {
		if err := writer.Write([]string{rec.ExternalID, string(rec.Rating)}); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadFile loads records from path, choosing the format by extension.
// Records are returned as found; the import operation rejects invalid ones.
func ReadFile(path string) ([]models.RatingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Read(f, FormatFromPath(path))
}

// Read decodes records from r.
func Read(r io.Reader, format Format) ([]models.RatingRecord, error) {
	switch format {
	case FormatJSON:
		var doc struct {
			Ratings json.RawMessage `json:"ratings"`
		}
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode ratings: %w", err)
		}
		return DecodeRatings(doc.Ratings)
	case FormatCSV:
		return readCSV(r)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ErrNotArray is returned when the ratings field is missing or not a JSON array.
var ErrNotArray = errors.New("ratings must be an array")

// DecodeRatings decodes a JSON array of ratings. An entry that does not decode
// is kept zero-valued so it is counted as an error on import.
func DecodeRatings(raw json.RawMessage) ([]models.RatingRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrNotArray
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}

	records := make([]models.RatingRecord, len(entries))
	for i, entry := range entries {
		_ = json.Unmarshal(entry, &records[i])
	}
	return records, nil
}

func readCSV(r io.Reader) ([]models.RatingRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	records := []models.RatingRecord{}
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == csvHeader[0] {
			continue
		}
		var rec models.RatingRecord
		if len(row) == 2 {
			rec = models.RatingRecord{ExternalID: strings.TrimSpace(row[0]), Rating: models.Rating(strings.TrimSpace(row[1]))}
		}
		records = append(records, rec)
	}
	return records, nil
}

// GenerateFilename generates a default filename based on the export type and format.
func GenerateFilename(exportType string, format Format) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", exportType, timestamp, format)
}
