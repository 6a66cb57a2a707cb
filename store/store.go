package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Store provides Item persistence on a DynamoDB table with a serialNumber GSI.
type Store struct {
	client *dynamodb.Client
	config Config
}

// New creates a new Store instance.
func New(client *dynamodb.Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// GetByID retrieves an Item by primary key, returning ErrNotFound if missing.
func (s *Store) GetByID(ctx context.Context, id string) (*Item, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       itemKey(id),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	return unmarshalItem(result.Item)
}

// GetBySerialNumber resolves an Item through the serialNumber index.
// serialNumber is not unique; when several Items share one, the most
// recently created wins, using the index's dateCreatedAt ordering.
func (s *Store) GetBySerialNumber(ctx context.Context, serialNumber string) (*Item, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("serialNumber").Equal(expression.Value(serialNumber))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.TableName),
		IndexName:                 aws.String(s.config.SerialNumberIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}

	return unmarshalItem(result.Items[0])
}

// List returns every stored Item, paging through all scan pages. Order is
// unspecified.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	var items []Item
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.config.TableName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var pageItems []Item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
		items = append(items, pageItems...)
	}

	return items, nil
}

// Put writes an Item. With expectNotExists the write is conditional on the
// id being absent and returns ErrAlreadyExists when a concurrent or prior
// create won; otherwise it overwrites unconditionally. The serialNumber
// index projection is maintained by the table.
func (s *Store) Put(ctx context.Context, it Item, expectNotExists bool) error {
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.config.TableName),
		Item:      av,
	}
	if expectNotExists {
		input.ConditionExpression = aws.String("attribute_not_exists(id)")
	}

	_, err = s.client.PutItem(ctx, input)

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrAlreadyExists
	}
	return err
}

// ApplyPartialUpdate merges the supplied fields onto an existing Item and
// returns the updated record. It fails with ErrNotFound if the id is absent.
// An empty patch is a pass-through read.
func (s *Store) ApplyPartialUpdate(ctx context.Context, id string, patch Patch) (*Item, error) {
	if patch.IsEmpty() {
		return s.GetByID(ctx, id)
	}

	updateExpr, exprNames, exprValues := buildUpdateExpression(patch.Fields())

	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.TableName),
		Key:                       itemKey(id),
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return unmarshalItem(result.Attributes)
}

// Delete removes an Item and, through the table's projection, its index
// entry. Returns ErrNotFound if the id is absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.config.TableName),
		Key:                 itemKey(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrNotFound
	}
	return err
}

// itemKey builds the primary key attribute map for an id.
func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// unmarshalItem converts a raw DynamoDB attribute map to an Item.
func unmarshalItem(raw map[string]types.AttributeValue) (*Item, error) {
	var it Item
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &it, nil
}

// buildUpdateExpression turns a field map into a SET expression with
// placeholder names and values. Fields are sorted so the expression is
// deterministic.
func buildUpdateExpression(fields map[string]string) (string, map[string]string, map[string]types.AttributeValue) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	exprNames := make(map[string]string, len(fields))
	exprValues := make(map[string]types.AttributeValue, len(fields))
	var setClauses []string
	for i, name := range names {
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = name
		exprValues[valueKey] = &types.AttributeValueMemberS{Value: fields[name]}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}

	return "SET " + joinStrings(setClauses, ", "), exprNames, exprValues
}

// joinStrings joins strings with a separator (avoiding strings package import).
func joinStrings(strs []string, sep string) string {
	if len(strs) == 0 {
		return ""
	}
	result := strs[0]
	for _, s := range strs[1:] {
		result += sep + s
	}
	return result
}
