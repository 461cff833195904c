// Package postgres is the fixture context for stores speaking the Postgres
// wire protocol: Postgres itself, pgvector, and QuestDB.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Stars1233/pathway/fixtures/common"
)

type Settings struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	// TablePrefix is prepended to generated table names; defaults to "wire_".
	TablePrefix string
}

func (s Settings) connString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(s.User), url.QueryEscape(s.Password), s.Host, s.Port, s.Database)
}

// Context owns a single live connection for its lifetime. It is not safe for
// concurrent use; serialize access or create separate instances.
type Context struct {
	conn        *pgx.Conn
	dialect     common.Dialect
	tablePrefix string
}

var _ common.TableStore = (*Context)(nil)

func New(ctx context.Context, settings Settings) (*Context, error) {
	conn, err := pgx.Connect(ctx, settings.connString())
	if err != nil {
		return nil, fmt.Errorf("connect to %s:%d: %w", settings.Host, settings.Port, err)
	}
	prefix := settings.TablePrefix
	if prefix == "" {
		prefix = "wire_"
	}
	return &Context{conn: conn, dialect: common.Postgres, tablePrefix: prefix}, nil
}

// NewPgvector connects like New and makes sure the vector extension is
// available, so VECTOR/HALFVEC columns can be created.
func NewPgvector(ctx context.Context, settings Settings) (*Context, error) {
	c, err := New(ctx, settings)
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("create vector extension: %w", err)
	}
	return c, nil
}

func (c *Context) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

func (c *Context) CreateTable(ctx context.Context, schema common.Schema, addAuditColumns bool) (string, error) {
	table := common.RandomName(c.tablePrefix)
	sql, err := c.dialect.CreateTableSQL(table, schema, addAuditColumns)
	if err != nil {
		return "", err
	}
	slog.Debug("creating table", "sql", sql)
	if _, err := c.conn.Exec(ctx, sql); err != nil {
		return "", err
	}
	return table, nil
}

func (c *Context) Insert(ctx context.Context, table string, rec common.Record) error {
	sql := c.dialect.InsertSQL(table, rec)
	slog.Debug("inserting a row", "sql", sql)
	_, err := c.conn.Exec(ctx, sql)
	return err
}

func (c *Context) ReadAll(ctx context.Context, table string, fields []string, sortBy ...string) ([]common.Record, error) {
	rows, err := c.conn.Query(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(fields, ","), table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []common.Record
	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return nil, err
		}
		rec := make(common.Record, len(fields))
		for i, name := range fields {
			v, err := common.FromNative(raw[i])
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

// TableSchema introspects the created table through information_schema so
// tests can assert the physical column types and nullability.
func (c *Context) TableSchema(ctx context.Context, table string) (map[string]common.ColumnProperties, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_name = $1 AND table_schema = 'public'
		ORDER BY ordinal_position`, table)
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
			IsNullable: nullable == "YES",
		}
	}
	return props, rows.Err()
}
