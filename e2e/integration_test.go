//go:build e2e

// Package e2e contains end-to-end integration tests using a real DynamoDB table.
// Run with: go test -tags=e2e -v ./e2e/...
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/itemstore/dispatch"
	"github.com/jacentio/itemstore/store"
)

// Test configuration
const (
	awsProfile = "jacent-alpha-cp"

	// Table name - unique per test run to avoid conflicts
	tablePrefix = "itemstore-e2e-test"

	indexName = "serialNumber-index"
)

var (
	testID     string
	itemsTable string

	ddbClient  *dynamodb.Client
	dispatcher *dispatch.Dispatcher
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	// Generate unique test ID
	testID = uuid.New().String()[:8]
	itemsTable = fmt.Sprintf("%s-%s-items", tablePrefix, testID)

	fmt.Printf("Test ID: %s\n", testID)
	fmt.Printf("Table: %s\n", itemsTable)

	// Initialize AWS client (uses region from profile config)
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(awsProfile),
	)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg)

	if err := createTable(ctx); err != nil {
		fmt.Printf("Failed to create table: %v\n", err)
		os.Exit(1)
	}

	s := store.New(ddbClient, store.Config{
		TableName:         itemsTable,
		SerialNumberIndex: indexName,
	})
	dispatcher = dispatch.New(s, nil)

	// Run tests
	code := m.Run()

	if err := deleteTable(ctx); err != nil {
		fmt.Printf("Failed to delete table: %v\n", err)
	}

	os.Exit(code)
}

func createTable(ctx context.Context) error {
	fmt.Println("Creating test table...")

	_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(itemsTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("serialNumber"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("dateCreatedAt"), AttributeType: types.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(indexName),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("serialNumber"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("dateCreatedAt"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", itemsTable, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(ddbClient)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(itemsTable),
	}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", itemsTable, err)
	}

	fmt.Println("Table created and active")
	return nil
}

func deleteTable(ctx context.Context) error {
	fmt.Println("Deleting test table...")

	_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(itemsTable),
	})
	if err != nil {
		return fmt.Errorf("delete table %s: %w", itemsTable, err)
	}

	fmt.Println("Table deleted")
	return nil
}

// --- Helpers ---

func createArgs(id, serial string) map[string]any {
	return map[string]any{
		"item": map[string]any{
			"id":                  id,
			"modelNumber":         "M-100",
			"serialNumber":        serial,
			"dateWarrantyBegins":  "2024-06-01",
			"dateWarrantyExpires": "2026-06-01",
		},
	}
}

func mustItem(t *testing.T, result dispatch.Result) *store.Item {
	t.Helper()
	if result.Error != nil {
		t.Fatalf("unexpected failure: %+v", result.Error)
	}
	it, ok := result.Data.(*store.Item)
	if !ok {
		t.Fatalf("expected *store.Item data, got %T", result.Data)
	}
	return it
}

// lookupSerial retries a serialNumber lookup briefly; the GSI is eventually
// consistent on a freshly written item.
func lookupSerial(ctx context.Context, serial string) dispatch.Result {
	deadline := time.Now().Add(10 * time.Second)
	for {
		result := dispatcher.Handle(ctx, dispatch.OpGetItemBySerialNumber,
			map[string]any{"serialNumber": serial})
		if result.Error == nil || result.Error.Code != dispatch.CodeNotFound || time.Now().After(deadline) {
			return result
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// --- Operation Tests ---

func TestCreateAndGetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()

	created := mustItem(t, dispatcher.Handle(ctx, dispatch.OpCreateItem, createArgs(id, "e2e-sn-"+id)))
	if created.DateCreatedAt == "" {
		t.Fatal("expected server-assigned dateCreatedAt")
	}

	got := mustItem(t, dispatcher.Handle(ctx, dispatch.OpGetItemByID, map[string]any{"itemId": id}))
	if *got != *created {
		t.Errorf("expected %+v, got %+v", *created, *got)
	}
}

func TestCreate_DuplicateID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()

	first := mustItem(t, dispatcher.Handle(ctx, dispatch.OpCreateItem, createArgs(id, "e2e-sn-a")))

	result := dispatcher.Handle(ctx, dispatch.OpCreateItem, createArgs(id, "e2e-sn-b"))
	if result.Error == nil || result.Error.Code != dispatch.CodeAlreadyExists {
		t.Fatalf("expected AlreadyExists, got %+v", result)
	}

	got := mustItem(t, dispatcher.Handle(ctx, dispatch.OpGetItemByID, map[string]any{"itemId": id}))
	if *got != *first {
		t.Errorf("first item changed: expected %+v, got %+v", *first, *got)
	}
}

func TestGetBySerialNumber_LatestWins(t *testing.T) {
	ctx := context.Background()
	serial := "e2e-dup-" + uuid.New().String()[:8]

	early := uuid.New().String()
	late := uuid.New().String()
	mustItem(t, dispatcher.Handle(ctx, dispatch.OpCreateItem, createArgs(early, serial)))
	mustItem(t, dispatcher.Handle(ctx, dispatch.OpCreateItem, createArgs(late, serial)))

	result := lookupSerial(ctx, serial)
	got := mustItem(t, result)
	if got.ID != late {
		t.Errorf("expected latest item %s, got %s", late, got.ID)
	}
}

func TestUpdate_PartialMerge(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()

	original := mustItem(t, dispatcher.Handle(ctx, dispatch.OpCreateItem, createArgs(id, "e2e-sn-"+id)))

	updated := mustItem(t, dispatcher.Handle(ctx, dispatch.OpUpdateItem, map[string]any{
		"item": map[string]any{"id": id, "modelNumber": "M-900"},
	}))
	if updated.ModelNumber != "M-900" {
		t.Errorf("expected ModelNumber 'M-900', got %q", updated.ModelNumber)
	}
	if updated.SerialNumber != original.SerialNumber {
		t.Errorf("expected SerialNumber untouched, got %q", updated.SerialNumber)
	}
	if updated.DateCreatedAt != original.DateCreatedAt {
		t.Errorf("expected DateCreatedAt untouched, got %q", updated.DateCreatedAt)
	}
}

func TestDelete_RemovesBothLookups(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	serial := "e2e-del-" + id[:8]

	mustItem(t, dispatcher.Handle(ctx, dispatch.OpCreateItem, createArgs(id, serial)))

	result := dispatcher.Handle(ctx, dispatch.OpDeleteItem, map[string]any{"itemId": id})
	if result.Error != nil {
		t.Fatalf("delete failed: %+v", result.Error)
	}
	if result.Data != id {
		t.Errorf("expected echoed id %q, got %v", id, result.Data)
	}

	result = dispatcher.Handle(ctx, dispatch.OpGetItemByID, map[string]any{"itemId": id})
	if result.Error == nil || result.Error.Code != dispatch.CodeNotFound {
		t.Errorf("expected NotFound by id, got %+v", result)
	}

	result = dispatcher.Handle(ctx, dispatch.OpDeleteItem, map[string]any{"itemId": id})
	if result.Error == nil || result.Error.Code != dispatch.CodeNotFound {
		t.Errorf("expected NotFound on second delete, got %+v", result)
	}
}

func TestListItems_ContainsCreated(t *testing.T) {
	ctx := context.Background()

	ids := make(map[string]bool)
	for i := 0; i < 5; i++ {
		id := uuid.New().String()
		ids[id] = true
		mustItem(t, dispatcher.Handle(ctx, dispatch.OpCreateItem, createArgs(id, fmt.Sprintf("e2e-list-%d", i))))
	}

	result := dispatcher.Handle(ctx, dispatch.OpListItems, nil)
	if result.Error != nil {
		t.Fatalf("list failed: %+v", result.Error)
	}
	items, ok := result.Data.([]store.Item)
	if !ok {
		t.Fatalf("expected []store.Item, got %T", result.Data)
	}

	found := 0
	for _, it := range items {
		if ids[it.ID] {
			found++
		}
	}
	if found != len(ids) {
		t.Errorf("expected all %d created items in list, found %d", len(ids), found)
	}
}
