// Package mysql is the MySQL fixture context. Inserts go through driver
// placeholders rather than literal SQL; note that MySQL's BOOLEAN is
// TINYINT(1), so inserted booleans read back as integers 0/1.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Stars1233/pathway/fixtures/common"
)

type Settings struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

func (s Settings) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", s.User, s.Password, s.Host, s.Port, s.Database)
}

type Context struct {
	db       *sql.DB
	database string
	dialect  common.Dialect
}

var _ common.TableStore = (*Context)(nil)

func New(ctx context.Context, settings Settings) (*Context, error) {
	db, err := sql.Open("mysql", settings.dsn())
	if err != nil {
		return nil, err
	}
	// One live connection per context instance.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql ping failed: %w", err)
	}
	return &Context{db: db, database: settings.Database, dialect: common.MySQL}, nil
}

func (c *Context) Close() error {
	return c.db.Close()
}

func (c *Context) CreateTable(ctx context.Context, schema common.Schema, addAuditColumns bool) (string, error) {
	table := common.RandomName("mysql_")
	createSQL, err := c.dialect.CreateTableSQL(table, schema, addAuditColumns)
	if err != nil {
		return "", err
	}
	slog.Debug("creating table", "sql", createSQL)
	if _, err := c.db.ExecContext(ctx, createSQL); err != nil {
		return "", err
	}
	return table, nil
}

func (c *Context) Insert(ctx context.Context, table string, rec common.Record) error {
	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)

	quoted := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, c.dialect.QuoteIdent(name))
		args = append(args, rec[name].Native())
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(quoted, ","), strings.TrimSuffix(strings.Repeat("?,", len(names)), ","))
	slog.Debug("inserting a row", "query", query)
	_, err := c.db.ExecContext(ctx, query, args...)
	return err
}

func (c *Context) ReadAll(ctx context.Context, table string, fields []string, sortBy ...string) ([]common.Record, error) {
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, c.dialect.QuoteIdent(f))
	}
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ","), table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	var result []common.Record
	for rows.Next() {
		raw := make([]any, len(fields))
		dest := make([]any, len(fields))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec := make(common.Record, len(fields))
		for i, name := range fields {
			v, err := fromColumn(raw[i], columnTypes[i].DatabaseTypeName())
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
			rec[name] = v
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	common.SortRecords(result, sortBy...)
	return result, nil
}

// fromColumn converts a driver value to a record value. The MySQL text
// protocol hands every column back as bytes, so numeric columns are parsed by
// their declared type.
func fromColumn(raw any, dbType string) (common.Value, error) {
	b, ok := raw.([]byte)
	if !ok {
		return common.FromNative(raw)
	}
	switch dbType {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT":
		i, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return common.Value{}, err
		}
		return common.Int(i), nil
	case "FLOAT", "DOUBLE":
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return common.Value{}, err
		}
		return common.Float(f), nil
	}
	return common.String(string(b)), nil
}

// TableSchema introspects a created table's physical columns.
func (c *Context) TableSchema(ctx context.Context, table string) (map[string]common.ColumnProperties, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, c.database, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	props := map[string]common.ColumnProperties{}
	for rows.Next() {
		var name, typeName, nullable string
		if err := rows.Scan(&name, &typeName, &nullable); err != nil {
			return nil, err
		}
		props[name] = common.ColumnProperties{
			TypeName:   strings.ToLower(typeName),
			IsNullable: strings.EqualFold(nullable, "YES"),
		}
	}
	return props, rows.Err()
}
