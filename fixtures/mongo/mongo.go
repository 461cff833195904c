// Package mongo is the document-store fixture context.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Stars1233/pathway/fixtures/common"
)

type Settings struct {
	ConnectionString string
	Database         string

	ServerConnectTimeout time.Duration
	PingTimeout          time.Duration
}

type Context struct {
	client   *mongo.Client
	database string
}

var _ common.TableStore = (*Context)(nil)

func New(ctx context.Context, settings Settings) (*Context, error) {
	if settings.ServerConnectTimeout == 0 {
		settings.ServerConnectTimeout = 10 * time.Second
	}
	if settings.PingTimeout == 0 {
		settings.PingTimeout = 2 * time.Second
	}

	ctxConnect, cancelConnect := context.WithTimeout(ctx, settings.ServerConnectTimeout)
	defer cancelConnect()
	clientOptions := options.Client().ApplyURI(settings.ConnectionString).SetConnectTimeout(settings.ServerConnectTimeout)
	client, err := mongo.Connect(ctxConnect, clientOptions)
	if err != nil {
		return nil, err
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, settings.PingTimeout)
	defer cancelPing()
	if err := client.Ping(ctxPing, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Context{client: client, database: settings.Database}, nil
}

func (c *Context) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateTable creates a fresh collection. The schema is validated for the
// fixture invariants but otherwise ignored: collections are schemaless.
func (c *Context) CreateTable(ctx context.Context, schema common.Schema, addAuditColumns bool) (string, error) {
	_ = addAuditColumns
	name := common.RandomName("mongodb_")
	err := c.client.Database(c.database).CreateCollection(ctx, name)
	if err != nil && !isNamespaceExists(err) {
		return "", err
	}
	return name, nil
}

func isNamespaceExists(err error) bool {
	const namespaceExistsCode = 48
	if cmdErr, ok := err.(mongo.CommandError); ok {
		return cmdErr.Code == namespaceExistsCode
	}
	return false
}

func (c *Context) Insert(ctx context.Context, collection string, rec common.Record) error {
	doc := bson.M{}
	for name, v := range rec {
		doc[name] = v.Native()
	}
	_, err := c.client.Database(c.database).Collection(collection).InsertOne(ctx, doc)
	return err
}

func (c *Context) ReadAll(ctx context.Context, collection string, fields []string, sortBy ...string) ([]common.Record, error) {
	projection := bson.D{{Key: "_id", Value: 0}}
	for _, f := range fields {
		projection = append(projection, bson.E{Key: f, Value: 1})
	}
	cursor, err := c.client.Database(c.database).Collection(collection).
		Find(ctx, bson.D{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []common.Record
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		rec := make(common.Record, len(fields))
		for _, name := range fields {
			v, err := common.FromNative(doc[name])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			rec[name] = v
		}
		result = append(result, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	common.SortRecords(result, sortBy...)
	return result, nil
}
