// Package selection implements the three-stage template selector:
// institution, then record type, then file format. Each stage narrows the
// catalog, and changing an earlier stage clears everything after it.
package selection

import (
	"github.com/jmorgal/bankfeed/internal/catalog"
)

// Cascade holds the current selection state against a fixed catalog. The
// zero selection is empty; it is mutated only through the Select methods.
type Cascade struct {
	catalog *catalog.Catalog

	institution string
	recordType  catalog.RecordType
	format      catalog.FileFormat
}

// New creates an empty cascade over the given catalog.
func New(c *catalog.Catalog) *Cascade {
	return &Cascade{catalog: c}
}

// SelectInstitution sets the institution and clears the record type and
// format selections.
func (c *Cascade) SelectInstitution(code string) {
	c.institution = code
	c.recordType = ""
	c.format = ""
}

// SelectRecordType sets the record type and clears the format. It is a no-op
// when the type is not offered under the current institution. When the
// narrowed template set offers exactly one format, that format is selected
// automatically.
func (c *Cascade) SelectRecordType(rt catalog.RecordType) {
	if !c.offersRecordType(rt) {
		return
	}

	c.recordType = rt
	c.format = ""

	if formats := c.Formats(); len(formats) == 1 {
		c.format = formats[0]
	}
}

// SelectFormat sets the file format. It is a no-op when the format is not
// offered for the current institution and record type.
func (c *Cascade) SelectFormat(f catalog.FileFormat) {
	if c.recordType == "" {
		return
	}

	for _, offered := range c.Formats() {
		if offered == f {
			c.format = f
			return
		}
	}
}

// Institution returns the selected institution code, or "" when unset.
func (c *Cascade) Institution() string { return c.institution }

// RecordType returns the selected record type, or "" when unset.
func (c *Cascade) RecordType() catalog.RecordType { return c.recordType }

// Format returns the selected file format, or "" when unset.
func (c *Cascade) Format() catalog.FileFormat { return c.format }

// RecordTypes returns the record types offered under the selected
// institution.
func (c *Cascade) RecordTypes() []catalog.RecordType {
	if c.institution == "" {
		return nil
	}

	return c.catalog.RecordTypes(c.institution)
}

// Formats returns the file formats offered for the selected institution and
// record type.
func (c *Cascade) Formats() []catalog.FileFormat {
	if c.institution == "" || c.recordType == "" {
		return nil
	}

	return c.catalog.Formats(c.institution, c.recordType)
}

// ActiveTemplate resolves the single template matching all three selections.
// It returns nil until every stage is set and the triple exists in the
// catalog.
func (c *Cascade) ActiveTemplate() *catalog.Template {
	if c.institution == "" || c.recordType == "" || c.format == "" {
		return nil
	}

	tmpl, ok := c.catalog.Find(c.institution, c.recordType, c.format)
	if !ok {
		return nil
	}

	return &tmpl
}

func (c *Cascade) offersRecordType(rt catalog.RecordType) bool {
	for _, offered := range c.RecordTypes() {
		if offered == rt {
			return true
		}
	}

	return false
}
