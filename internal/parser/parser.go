// Package parser turns uploaded statement files into transaction counts. It
// locates a header row by matching column names against known aliases, so
// exports from different institutions parse without per-bank profiles.
package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmorgal/bankfeed/internal/catalog"
	enc "github.com/jmorgal/bankfeed/internal/encoding"
)

// Column aliases, matched case-insensitively after trimming.
var (
	dateAliases   = []string{"date", "transaction date", "value date", "posting date", "data"}
	descAliases   = []string{"description", "details", "narrative", "memo", "descricao", "descrição"}
	amountAliases = []string{"amount", "value", "montante", "valor"}
	debitAliases  = []string{"debit", "debito", "débito", "withdrawal"}
	creditAliases = []string{"credit", "credito", "crédito", "deposit"}
)

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"01/02/2006",
	"02.01.2006",
}

// Parser parses statement files submitted against a catalog template.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

// Parse reads the statement and returns the number of transactions it
// contains. Only CSV templates are parseable; other formats fail with an
// explanatory error that is surfaced through the job status endpoint.
func (p *Parser) Parse(tmpl catalog.Template, r io.Reader) (int, error) {
	if tmpl.Format != catalog.FormatCSV {
		return 0, fmt.Errorf("%s statements are not supported yet", strings.ToUpper(string(tmpl.Format)))
	}

	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return 0, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return 0, fmt.Errorf("read statement: %w", err)
	}

	// European exports commonly use semicolons; try both delimiters and
	// keep whichever yields a recognizable header.
	for _, comma := range []rune{',', ';'} {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = comma
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		rows, err := reader.ReadAll()
		if err != nil {
			continue
		}

		if cols, headerIdx, ok := findHeader(rows); ok {
			return countRows(cols, rows[headerIdx+1:])
		}
	}

	return 0, fmt.Errorf("no statement header found: expected date and amount columns")
}

// columns holds the resolved indexes of the statement columns. amount is -1
// when the statement uses separate debit and credit columns instead.
type columns struct {
	date   int
	desc   int
	amount int
	debit  int
	credit int
}

// findHeader scans rows for one that contains a date column and either an
// amount column or a debit/credit pair.
func findHeader(rows [][]string) (columns, int, bool) {
	for rowIdx, row := range rows {
		cols := columns{date: -1, desc: -1, amount: -1, debit: -1, credit: -1}

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))

			switch {
			case cols.date < 0 && matchesAlias(name, dateAliases):
				cols.date = i
			case cols.desc < 0 && matchesAlias(name, descAliases):
				cols.desc = i
			case cols.amount < 0 && matchesAlias(name, amountAliases):
				cols.amount = i
			case cols.debit < 0 && matchesAlias(name, debitAliases):
				cols.debit = i
			case cols.credit < 0 && matchesAlias(name, creditAliases):
				cols.credit = i
			}
		}

		if cols.date >= 0 && (cols.amount >= 0 || (cols.debit >= 0 && cols.credit >= 0)) {
			return cols, rowIdx, true
		}
	}

	return columns{}, 0, false
}

func matchesAlias(name string, aliases []string) bool {
	for _, a := range aliases {
		if name == a {
			return true
		}
	}

	return false
}

// countRows counts the data rows that parse as transactions. Rows without a
// parseable date are skipped (footers, balances); rows with a date but a
// malformed amount fail the whole file.
func countRows(cols columns, rows [][]string) (int, error) {
	count := 0

	for i, row := range rows {
		if _, ok := parseDate(cellValue(row, cols.date)); !ok {
			continue
		}

		if err := parseRowAmount(cols, row); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+2, err)
		}

		count++
	}

	if count == 0 {
		return 0, fmt.Errorf("statement contains no transactions")
	}

	return count, nil
}

func parseRowAmount(cols columns, row []string) error {
	if cols.amount >= 0 {
		_, err := parseAmount(cellValue(row, cols.amount))
		return err
	}

	debit := cellValue(row, cols.debit)
	credit := cellValue(row, cols.credit)

	if debit == "" && credit == "" {
		return fmt.Errorf("missing amount")
	}

	if debit != "" {
		if _, err := parseAmount(debit); err != nil {
			return err
		}
	}

	if credit != "" {
		if _, err := parseAmount(credit); err != nil {
			return err
		}
	}

	return nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
