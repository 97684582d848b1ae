// Package excel imports flashcards in bulk from spreadsheet files, the
// format the platform's bulk-upload tooling produces.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/provalab/internal/database"
	"github.com/example/provalab/pkg/models"
)

// ImportConfig defines the import configuration.
type ImportConfig struct {
	FilePath    string // Path to the Excel or CSV file
	FrontColumn string // Column with the card front
	BackColumn  string // Column with the card back
	SheetName   string // Name of the sheet to import
	StartRow    int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FrontColumn: "A",
		BackColumn:  "B",
		SheetName:   "Sheet1",
		StartRow:    2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation.
type ImportResult struct {
	TotalProcessed int      `json:"total_processed"`
	Created        int      `json:"created"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors"`
}

// Importer creates flashcards from spreadsheet rows.
type Importer struct {
	flashcards *database.FlashcardRepository
}

// NewImporter creates an importer over the flashcard repository.
func NewImporter(flashcards *database.FlashcardRepository) *Importer {
	return &Importer{flashcards: flashcards}
}

// ImportFlashcards imports cards for the user from an Excel or CSV file.
func (imp *Importer) ImportFlashcards(ctx context.Context, userID int64, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return imp.importFromCSV(ctx, userID, config)
	}
	return imp.importFromExcel(ctx, userID, config)
}

// importFromExcel imports cards from an Excel file.
func (imp *Importer) importFromExcel(ctx context.Context, userID int64, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++
		if err := imp.processRow(ctx, userID, row, config, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

// importFromCSV imports cards from a CSV file. The front is the first
// column and the back the second, regardless of the configured letters.
func (imp *Importer) importFromCSV(ctx context.Context, userID int64, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++
		if err := imp.createCard(ctx, userID, valueAt(row, 0), valueAt(row, 1), result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return result, nil
}

func (imp *Importer) processRow(ctx context.Context, userID int64, row []string, config ImportConfig, result *ImportResult) error {
	front := valueAt(row, columnToIndex(config.FrontColumn))
	back := valueAt(row, columnToIndex(config.BackColumn))
	return imp.createCard(ctx, userID, front, back, result)
}

func (imp *Importer) createCard(ctx context.Context, userID int64, front, back string, result *ImportResult) error {
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	if front == "" || back == "" {
		result.Skipped++
		return nil
	}
	card := &models.Flashcard{UserID: userID, Front: front, Back: back}
	if err := imp.flashcards.Create(ctx, card); err != nil {
		return err
	}
	result.Created++
	return nil
}

func valueAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// columnToIndex converts a column letter ("A", "B", ..., "AA") to a
// zero-based index.
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	idx := 0
	for _, r := range column {
		if r < 'A' || r > 'Z' {
			return -1
		}
		idx = idx*26 + int(r-'A') + 1
	}
	return idx - 1
}
