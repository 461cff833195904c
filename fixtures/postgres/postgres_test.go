//go:build external
// +build external

package postgres

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stars1233/pathway/fixtures/common"
)

// Needs a running Postgres, e.g. the docker-compose test environment:
//
//	POSTGRES_TEST_HOST=localhost POSTGRES_TEST_PORT=5432 go test -tags external ./fixtures/postgres
func testSettings() Settings {
	port := 5432
	if p := os.Getenv("POSTGRES_TEST_PORT"); p != "" {
		port, _ = strconv.Atoi(p)
	}
	host := os.Getenv("POSTGRES_TEST_HOST")
	if host == "" {
		host = "postgres"
	}
	return Settings{
		Host:     host,
		Port:     port,
		Database: envOr("POSTGRES_TEST_DB", "tests"),
		User:     envOr("POSTGRES_TEST_USER", "user"),
		Password: envOr("POSTGRES_TEST_PASSWORD", "password"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestTypeMappingRoundTrip(t *testing.T) {
	ctx := context.Background()
	pg, err := New(ctx, testSettings())
	require.NoError(t, err)
	defer pg.Close(ctx)

	for _, tc := range []struct {
		fieldType common.FieldType
		nullable  bool
		typeName  string
	}{
		{common.TypeString, true, "text"},
		{common.TypeString, false, "text"},
		{common.TypeInt, false, "bigint"},
		{common.TypeFloat, true, "double precision"},
		{common.TypeBool, false, "boolean"},
	} {
		schema := common.MustSchema(common.Field{Name: "a", Type: tc.fieldType, Nullable: tc.nullable})
		table, err := pg.CreateTable(ctx, schema, false)
		require.NoError(t, err)

		props, err := pg.TableSchema(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, common.ColumnProperties{TypeName: tc.typeName, IsNullable: tc.nullable}, props["a"])
	}
}

func TestExampleScenario(t *testing.T) {
	ctx := context.Background()
	pg, err := New(ctx, testSettings())
	require.NoError(t, err)
	defer pg.Close(ctx)

	schema := common.MustSchema(
		common.Field{Name: "id", Type: common.TypeInt, PrimaryKey: true},
		common.Field{Name: "val", Type: common.TypeString, Nullable: true},
	)
	table, err := pg.CreateTable(ctx, schema, true)
	require.NoError(t, err)

	props, err := pg.TableSchema(ctx, table)
	require.NoError(t, err)
	require.Len(t, props, 4)
	assert.Equal(t, common.ColumnProperties{TypeName: "bigint", IsNullable: false}, props["id"])
	assert.Equal(t, common.ColumnProperties{TypeName: "bigint", IsNullable: false}, props["time"])
	assert.Equal(t, common.ColumnProperties{TypeName: "bigint", IsNullable: false}, props["diff"])

	rec := common.Record{
		"id":   common.Int(1),
		"val":  common.String("x"),
		"time": common.Int(1000),
		"diff": common.Int(1),
	}
	require.NoError(t, pg.Insert(ctx, table, rec))

	rows, err := pg.ReadAll(ctx, table, []string{"id", "val", "time", "diff"}, "id")
	require.NoError(t, err)
	assert.Equal(t, []common.Record{rec}, rows)
}

func TestReadAllSortsByKey(t *testing.T) {
	ctx := context.Background()
	pg, err := New(ctx, testSettings())
	require.NoError(t, err)
	defer pg.Close(ctx)

	schema := common.MustSchema(
		common.Field{Name: "id", Type: common.TypeInt, PrimaryKey: true},
		common.Field{Name: "name", Type: common.TypeString, Nullable: true},
	)
	table, err := pg.CreateTable(ctx, schema, false)
	require.NoError(t, err)

	for i, name := range []string{"c", "a", "b"} {
		require.NoError(t, pg.Insert(ctx, table, common.Record{
			"id":   common.Int(int64(i)),
			"name": common.String(name),
		}))
	}

	unsorted, err := pg.ReadAll(ctx, table, []string{"id", "name"})
	require.NoError(t, err)
	assert.Len(t, unsorted, 3)

	sorted, err := pg.ReadAll(ctx, table, []string{"id", "name"}, "name")
	require.NoError(t, err)
	assert.Equal(t, common.String("a"), sorted[0]["name"])
	assert.Equal(t, common.String("b"), sorted[1]["name"])
	assert.Equal(t, common.String("c"), sorted[2]["name"])
}

func TestBooleanAndQuoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	pg, err := New(ctx, testSettings())
	require.NoError(t, err)
	defer pg.Close(ctx)

	schema := common.MustSchema(
		common.Field{Name: "id", Type: common.TypeInt, PrimaryKey: true},
		common.Field{Name: "available", Type: common.TypeBool, Nullable: true},
		common.Field{Name: "comment", Type: common.TypeString, Nullable: true},
	)
	table, err := pg.CreateTable(ctx, schema, false)
	require.NoError(t, err)

	rec := common.Record{
		"id":        common.Int(1),
		"available": common.Bool(true),
		"comment":   common.String("it's fine"),
	}
	require.NoError(t, pg.Insert(ctx, table, rec))

	rows, err := pg.ReadAll(ctx, table, []string{"id", "available", "comment"}, "id")
	require.NoError(t, err)
	assert.Equal(t, []common.Record{rec}, rows)
}

func TestCreateTableIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pg, err := New(ctx, testSettings())
	require.NoError(t, err)
	defer pg.Close(ctx)

	schema := common.MustSchema(common.Field{Name: "a", Type: common.TypeInt, Nullable: true})
	table, err := pg.CreateTable(ctx, schema, false)
	require.NoError(t, err)

	sql, err := common.Postgres.CreateTableSQL(table, schema, false)
	require.NoError(t, err)
	_, err = pg.conn.Exec(ctx, sql)
	assert.NoError(t, err)
}

func TestCountCheckOnMissingTable(t *testing.T) {
	ctx := context.Background()
	pg, err := New(ctx, testSettings())
	require.NoError(t, err)
	defer pg.Close(ctx)

	missing := common.RandomName("wire_")
	check := common.NewCountCheck(1, pg, missing, []string{"id"})
	assert.False(t, check.Done(ctx))

	schema := common.MustSchema(common.Field{Name: "id", Type: common.TypeInt, PrimaryKey: true})
	table, err := pg.CreateTable(ctx, schema, false)
	require.NoError(t, err)

	check = common.NewCountCheck(1, pg, table, []string{"id"})
	assert.False(t, check.Done(ctx))
	require.NoError(t, pg.Insert(ctx, table, common.Record{"id": common.Int(1)}))
	assert.True(t, check.Done(ctx))
}
