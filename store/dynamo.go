package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client used by DynamoBackend.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// DynamoBackend implements Backend on DynamoDB.
type DynamoBackend struct {
	client API
}

// NewDynamoBackend creates a Backend over a DynamoDB client.
func NewDynamoBackend(client API) *DynamoBackend {
	return &DynamoBackend{client: client}
}

// PutItem writes rec, optionally guarded by cond.
func (d *DynamoBackend) PutItem(ctx context.Context, table string, rec Record, cond Filter) error {
	input := &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      rec,
	}

	expr, ok, err := cond.ConditionExpression()
	if err != nil {
		return err
	}
	if ok {
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := d.client.PutItem(ctx, input); err != nil {
		return mapDynamoError(err, "put item into "+table)
	}
	return nil
}

// GetItem reads one item with a strongly consistent read.
func (d *DynamoBackend) GetItem(ctx context.Context, table string, key PK) (Record, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, mapDynamoError(err, "get item from "+table)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	return result.Item, nil
}

// Scan pages through the whole table. DynamoDB applies the filter after
// reading each page, so cost is proportional to table size.
func (d *DynamoBackend) Scan(ctx context.Context, table string, filter Filter) ([]Record, error) {
	input := &dynamodb.ScanInput{
		TableName:      aws.String(table),
		ConsistentRead: aws.Bool(true),
	}

	expr, ok, err := filter.FilterExpression()
	if err != nil {
		return nil, err
	}
	if ok {
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var records []Record
	paginator := dynamodb.NewScanPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapDynamoError(err, "scan "+table)
		}
		for _, item := range page.Items {
			records = append(records, item)
		}
	}

	return records, nil
}

// mapDynamoError translates SDK errors into the store taxonomy. The SDK error
// stays wrapped so callers can still inspect it.
func mapDynamoError(err error, op string) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("%s: %w", op, ErrConditionFailed)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}
