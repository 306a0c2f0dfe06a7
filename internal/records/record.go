// Package records defines the normalized deed record schema and the
// best-effort extraction of records from rendered result-table rows.
package records

import "strings"

// DeedRecord is the normalized shape of one row from the county results
// table. Every field is a trimmed string; a cell the portal did not render
// is the empty string, never a missing-key error.
type DeedRecord struct {
	Grantor          string
	Grantee          string
	DocType          string
	RecordedDate     string
	DocNumber        string
	BookVolumePage   string
	LegalDescription string
	Lot              string
	Block            string
	NCB              string
	CountyBlock      string
	PropertyAddress  string
}

// Valid reports whether the record carries the unique business key.
// Records without a document number are discarded before buffering.
func (r DeedRecord) Valid() bool { return r.DocNumber != "" }

// Row exposes best-effort access to a rendered table row's cells by
// presentation column identifier. A failed lookup means the cell was not
// rendered, not that the row is bad.
type Row interface {
	Field(column string) (string, bool)
}

// CellMap is a Row backed by a column-class to cell-text map, as produced
// by the browser session's row snapshot.
type CellMap map[string]string

// Field returns the cell text for the given presentation column.
func (m CellMap) Field(column string) (string, bool) {
	v, ok := m[column]
	return v, ok
}

// columnBindings maps the portal's presentation column classes onto
// DeedRecord fields, in presentation order.
var columnBindings = []struct {
	Class string
	Set   func(*DeedRecord, string)
}{
	{"col-3", func(r *DeedRecord, v string) { r.Grantor = v }},
	{"col-4", func(r *DeedRecord, v string) { r.Grantee = v }},
	{"col-5", func(r *DeedRecord, v string) { r.DocType = v }},
	{"col-6", func(r *DeedRecord, v string) { r.RecordedDate = v }},
	{"col-7", func(r *DeedRecord, v string) { r.DocNumber = v }},
	{"col-8", func(r *DeedRecord, v string) { r.BookVolumePage = v }},
	{"col-9", func(r *DeedRecord, v string) { r.LegalDescription = v }},
	{"col-10", func(r *DeedRecord, v string) { r.Lot = v }},
	{"col-11", func(r *DeedRecord, v string) { r.Block = v }},
	{"col-12", func(r *DeedRecord, v string) { r.NCB = v }},
	{"col-13", func(r *DeedRecord, v string) { r.CountyBlock = v }},
	{"col-14", func(r *DeedRecord, v string) { r.PropertyAddress = v }},
}

// FromRow maps presentation columns onto a DeedRecord. Lookup failures
// become empty fields; the function is total over the fixed field list and
// never fails for a row believed to contain data.
func FromRow(row Row) DeedRecord {
	var rec DeedRecord
	for _, col := range columnBindings {
		v, ok := row.Field(col.Class)
		if !ok {
			v = ""
		}
		col.Set(&rec, strings.TrimSpace(v))
	}
	return rec
}
