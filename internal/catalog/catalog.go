package catalog

import (
	"fmt"
	"strings"
)

// FileFormat is the closed set of statement file formats the ingestion
// service knows how to accept.
type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLS  FileFormat = "xls"
	FormatXLSX FileFormat = "xlsx"
	FormatPDF  FileFormat = "pdf"
)

// IsValidFormat reports whether f is one of the supported file formats.
func IsValidFormat(f FileFormat) bool {
	switch f {
	case FormatCSV, FormatXLS, FormatXLSX, FormatPDF:
		return true
	default:
		return false
	}
}

// Matches reports whether filename carries this format's extension,
// compared case-insensitively.
func (f FileFormat) Matches(filename string) bool {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return false
	}

	return strings.EqualFold(filename[idx+1:], string(f))
}

// RecordType identifies the kind of account record a template parses.
// The authoritative set is whatever the catalog offers; these are the
// well-known values.
type RecordType string

const (
	RecordSavings          RecordType = "savings"
	RecordCreditCard       RecordType = "credit_card"
	RecordRecurringDeposit RecordType = "recurring_deposit"
	RecordLoan             RecordType = "loan"
)

// Template describes one (institution, record type, file format) combination
// the ingestion service can parse. Templates are immutable once the catalog
// is built.
type Template struct {
	ID              string
	InstitutionCode string
	InstitutionName string
	RecordType      RecordType
	Format          FileFormat
	Label           string
	Description     string
}

// Institution groups the templates offered for a single issuing institution.
type Institution struct {
	Code      string
	Name      string
	LogoURL   string
	Templates []Template
}

type tripleKey struct {
	institution string
	recordType  RecordType
	format      FileFormat
}

// Catalog is an immutable registry of upload templates, indexed by the
// (institution, record type, format) triple and by template id.
type Catalog struct {
	institutions []Institution
	byTriple     map[tripleKey]Template
	byID         map[string]Template
}

// New builds a catalog from institution groups. It returns an error when two
// templates share the same (institution, record type, format) triple or the
// same id, since lookups would be ambiguous.
func New(institutions []Institution) (*Catalog, error) {
	c := &Catalog{
		institutions: institutions,
		byTriple:     make(map[tripleKey]Template),
		byID:         make(map[string]Template),
	}

	for gi, inst := range institutions {
		for ti, tmpl := range inst.Templates {
			tmpl.InstitutionCode = inst.Code
			tmpl.InstitutionName = inst.Name

			if !IsValidFormat(tmpl.Format) {
				return nil, fmt.Errorf("template %q: unsupported file format %q", tmpl.ID, tmpl.Format)
			}

			if _, exists := c.byID[tmpl.ID]; exists {
				return nil, fmt.Errorf("duplicate template id %q", tmpl.ID)
			}

			key := tripleKey{inst.Code, tmpl.RecordType, tmpl.Format}
			if _, exists := c.byTriple[key]; exists {
				return nil, fmt.Errorf("duplicate template for %s/%s/%s", inst.Code, tmpl.RecordType, tmpl.Format)
			}

			c.byTriple[key] = tmpl
			c.byID[tmpl.ID] = tmpl
			c.institutions[gi].Templates[ti] = tmpl
		}
	}

	return c, nil
}

// Institutions returns the institution groups in catalog order.
func (c *Catalog) Institutions() []Institution {
	return c.institutions
}

// Institution returns the institution group for code.
func (c *Catalog) Institution(code string) (Institution, bool) {
	for _, inst := range c.institutions {
		if inst.Code == code {
			return inst, true
		}
	}

	return Institution{}, false
}

// RecordTypes returns the record types offered under an institution,
// deduplicated, in catalog order.
func (c *Catalog) RecordTypes(institutionCode string) []RecordType {
	inst, ok := c.Institution(institutionCode)
	if !ok {
		return nil
	}

	seen := make(map[RecordType]bool)

	var types []RecordType

	for _, tmpl := range inst.Templates {
		if seen[tmpl.RecordType] {
			continue
		}

		seen[tmpl.RecordType] = true
		types = append(types, tmpl.RecordType)
	}

	return types
}

// Formats returns the file formats offered for an (institution, record type)
// pair, in catalog order.
func (c *Catalog) Formats(institutionCode string, recordType RecordType) []FileFormat {
	inst, ok := c.Institution(institutionCode)
	if !ok {
		return nil
	}

	var formats []FileFormat

	for _, tmpl := range inst.Templates {
		if tmpl.RecordType == recordType {
			formats = append(formats, tmpl.Format)
		}
	}

	return formats
}

// Find returns the unique template matching the full triple.
func (c *Catalog) Find(institutionCode string, recordType RecordType, format FileFormat) (Template, bool) {
	tmpl, ok := c.byTriple[tripleKey{institutionCode, recordType, format}]
	return tmpl, ok
}

// TemplateByID returns the template with the given id.
func (c *Catalog) TemplateByID(id string) (Template, bool) {
	tmpl, ok := c.byID[id]
	return tmpl, ok
}
