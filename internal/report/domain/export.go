package domain

import (
	"encoding/csv"
	"io"
	"strings"
)

// ExportKind is the closed set of exportable projections.
type ExportKind int

const (
	ExportInvoices ExportKind = iota + 1
	ExportClients
	ExportProducts
)

var exportTags = map[ExportKind]string{
	ExportInvoices: "invoices",
	ExportClients:  "clients",
	ExportProducts: "products",
}

// exportColumns is the fixed projection of each kind as header and record key.
var exportColumns = map[ExportKind][][2]string{
	ExportInvoices: {{"Invoice Number", "invoice_number"}, {"Status", "status"}, {"Total", "total"}},
	ExportClients:  {{"Name", "name"}, {"Email", "email"}, {"Phone", "phone"}},
	ExportProducts: {{"Name", "name"}, {"Price", "price"}},
}

// ParseExportKind resolves an export tag. An empty tag selects invoices.
func ParseExportKind(tag string) (ExportKind, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return ExportInvoices, nil
	}
	for kind, known := range exportTags {
		if known == tag {
			return kind, nil
		}
	}
	return 0, ErrUnknownExportKind
}

func (k ExportKind) String() string {
	return exportTags[k]
}

func (k ExportKind) Valid() bool {
	_, ok := exportTags[k]
	return ok
}

// Filename is the download name of a CSV export of this kind.
func (k ExportKind) Filename() string {
	return k.String() + "_export.csv"
}

// NewTable returns an empty table with the projection of kind.
func NewTable(kind ExportKind) (Table, error) {
	columns, ok := exportColumns[kind]
	if !ok {
		return Table{}, ErrUnknownExportKind
	}
	t := Table{Kind: kind}
	for _, column := range columns {
		t.Header = append(t.Header, column[0])
		t.Keys = append(t.Keys, column[1])
	}
	t.Rows = [][]string{}
	return t, nil
}

// Table is a flat projection: one header plus rows of the same width.
type Table struct {
	Kind   ExportKind
	Header []string
	Keys   []string
	Rows   [][]string
}

func (t *Table) Append(values ...string) {
	row := make([]string, len(t.Header))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// Records returns the rows keyed by column for the JSON export.
func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make(map[string]string, len(t.Keys))
		for i, key := range t.Keys {
			record[key] = row[i]
		}
		out = append(out, record)
	}
	return out
}

// WriteCSV writes the header and rows as RFC 4180 CSV. Fields holding a
// comma, a quote or a line break are quoted and embedded quotes doubled.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// ExportFormat is the encoding of an export response.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

func ParseExportFormat(value string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", ErrUnknownExportFormat
	}
}
