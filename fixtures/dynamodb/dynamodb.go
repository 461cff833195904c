// Package dynamodb is the key-value cloud store fixture. It only inspects
// tables the system under test writes to; creation and population happen on
// the other side.
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/Stars1233/pathway/fixtures/common"
)

type Settings struct {
	Region string

	// Endpoint overrides the AWS endpoint, e.g. for LocalStack.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type Context struct {
	client *dynamodb.Client
}

func New(ctx context.Context, settings Settings) (*Context, error) {
	if settings.Region == "" {
		settings.Region = "us-west-2"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(settings.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if settings.AccessKeyID != "" && settings.SecretAccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, "")
	}
	var clientOptions []func(*dynamodb.Options)
	if settings.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(settings.Endpoint)
		})
	}
	return &Context{client: dynamodb.NewFromConfig(cfg, clientOptions...)}, nil
}

// Ping verifies the endpoint answers API calls at all.
func (c *Context) Ping(ctx context.Context) error {
	_, err := c.client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	return err
}

func (c *Context) GenerateTableName() string {
	return "table" + uuid.NewString()
}

// ScanAll fetches the full table contents, following the continuation token
// until no page remains. DynamoDB numbers read back as floats.
func (c *Context) ScanAll(ctx context.Context, table string) ([]common.Record, error) {
	var result []common.Record
	var exclusiveStartKey map[string]types.AttributeValue
	for {
		res, err := c.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(table),
			ExclusiveStartKey: exclusiveStartKey,
		})
		if err != nil {
			return nil, err
		}
		var items []map[string]any
		if err := attributevalue.UnmarshalListOfMaps(res.Items, &items); err != nil {
			return nil, err
		}
		for _, item := range items {
			rec, err := common.NewRecord(item)
			if err != nil {
				return nil, err
			}
			result = append(result, rec)
		}
		if res.LastEvaluatedKey == nil {
			return result, nil
		}
		exclusiveStartKey = res.LastEvaluatedKey
	}
}

// CountCheck binds a completion poller to a table scan.
func (c *Context) CountCheck(expected int, table string) common.CountCheck {
	return common.CountCheck{
		Expected: expected,
		Read: func(ctx context.Context) ([]common.Record, error) {
			return c.ScanAll(ctx, table)
		},
	}
}
