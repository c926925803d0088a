package catalog

// Defaults returns the built-in catalog served by the reference API. Template
// ids are stable so clients can safely cache them for a session.
func Defaults() *Catalog {
	c, err := New([]Institution{
		{
			Code: "abc",
			Name: "ABC Bank",
			Templates: []Template{
				{ID: "abc-savings-csv", RecordType: RecordSavings, Format: FormatCSV, Label: "ABC savings export (CSV)"},
				{ID: "abc-savings-xlsx", RecordType: RecordSavings, Format: FormatXLSX, Label: "ABC savings export (Excel)"},
				{ID: "abc-cc-csv", RecordType: RecordCreditCard, Format: FormatCSV, Label: "ABC credit card statement (CSV)"},
			},
		},
		{
			Code: "norda",
			Name: "Norda Savings",
			Templates: []Template{
				{ID: "norda-savings-csv", RecordType: RecordSavings, Format: FormatCSV, Label: "Norda account history (CSV)"},
				{ID: "norda-rd-csv", RecordType: RecordRecurringDeposit, Format: FormatCSV, Label: "Norda recurring deposit schedule (CSV)"},
			},
		},
		{
			Code: "meridian",
			Name: "Meridian Credit Union",
			Templates: []Template{
				{ID: "meridian-loan-pdf", RecordType: RecordLoan, Format: FormatPDF, Label: "Meridian loan statement (PDF)"},
				{ID: "meridian-savings-csv", RecordType: RecordSavings, Format: FormatCSV, Label: "Meridian account export (CSV)"},
			},
		},
	})
	if err != nil {
		// The built-in catalog is validated by tests; a conflict here is a
		// programming error.
		panic(err)
	}

	return c
}
