package common

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect parameterizes the DDL and literal building shared by the relational
// contexts instead of duplicating it per store.
type Dialect struct {
	Name       string
	IdentQuote string // empty when identifiers are not quoted

	Types map[FieldType]string

	// Vector columns are selected by a naming convention on the field:
	// "_vector" gets the full-precision type, "_halfvec" the reduced one.
	// Both empty when the store has no vector support.
	VectorType     string
	HalfVectorType string

	TrueLiteral  string
	FalseLiteral string
}

var Postgres = Dialect{
	Name: "postgres",
	Types: map[FieldType]string{
		TypeString: "TEXT",
		TypeInt:    "BIGINT",
		TypeFloat:  "DOUBLE PRECISION",
		TypeBool:   "BOOLEAN",
	},
	VectorType:     "VECTOR",
	HalfVectorType: "HALFVEC",
	TrueLiteral:    "'t'",
	FalseLiteral:   "'f'",
}

var MySQL = Dialect{
	Name:       "mysql",
	IdentQuote: "`",
	Types: map[FieldType]string{
		TypeString: "VARCHAR(255)",
		TypeInt:    "BIGINT",
		TypeFloat:  "DOUBLE",
		TypeBool:   "BOOLEAN",
	},
	TrueLiteral:  "TRUE",
	FalseLiteral: "FALSE",
}

func (d Dialect) QuoteIdent(name string) string {
	return d.IdentQuote + name + d.IdentQuote
}

// ColumnType maps a field to the store-native DDL type.
func (d Dialect) ColumnType(f Field) (string, error) {
	if f.Type == TypeVector {
		switch {
		case d.HalfVectorType != "" && strings.Contains(f.Name, "_halfvec"):
			return d.HalfVectorType, nil
		case d.VectorType != "" && strings.Contains(f.Name, "_vector"):
			return d.VectorType, nil
		}
		return "", fmt.Errorf("%w: %s field %q on %s", ErrUnsupportedType, f.Type, f.Name, d.Name)
	}
	t, ok := d.Types[f.Type]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", ErrUnsupportedType, f.Type, d.Name)
	}
	return t, nil
}

// CreateTableSQL builds an idempotent table-creation statement. When
// addAuditColumns is set, the non-nullable changelog envelope columns
// (time, diff) are appended after the user fields.
func (d Dialect) CreateTableSQL(table string, schema Schema, addAuditColumns bool) (string, error) {
	var columns []string
	for _, f := range schema.Fields() {
		columnType, err := d.ColumnType(f)
		if err != nil {
			return "", err
		}
		parts := []string{d.QuoteIdent(f.Name), columnType}
		if f.PrimaryKey {
			parts = append(parts, "PRIMARY KEY NOT NULL")
		} else if !f.Nullable {
			parts = append(parts, "NOT NULL")
		}
		columns = append(columns, strings.Join(parts, " "))
	}
	if addAuditColumns {
		columns = append(columns,
			d.QuoteIdent("time")+" BIGINT NOT NULL",
			d.QuoteIdent("diff")+" BIGINT NOT NULL",
		)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(columns, ",")), nil
}

// Literal renders a value in the store's literal form for direct inclusion in
// an SQL statement. Strings are quoted with embedded quotes doubled.
func (d Dialect) Literal(v Value) string {
	switch v.Kind() {
	case KindString:
		return "'" + strings.ReplaceAll(v.AsString(), "'", "''") + "'"
	case KindBool:
		if v.AsBool() {
			return d.TrueLiteral
		}
		return d.FalseLiteral
	case KindNull:
		return "NULL"
	}
	return v.String()
}

// InsertSQL builds a literal single-row insert, fields in sorted order so the
// statement is deterministic. Dialect violations surface as store errors on
// execution; there is no validation or retry here.
func (d Dialect) InsertSQL(table string, rec Record) string {
	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)
	quoted := make([]string, 0, len(names))
	values := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, d.QuoteIdent(name))
		values = append(values, d.Literal(rec[name]))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(quoted, ","), strings.Join(values, ","))
}
