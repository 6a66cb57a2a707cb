// Package dispatch routes named Item operations to the store and
// normalizes every outcome into a uniform result envelope.
//
// The dispatcher assumes an already-authenticated, already-parsed operation
// name and argument record; transport framing and authorization are the
// calling gateway's concern. It holds no mutable state of its own, so one
// Dispatcher serves any number of concurrent requests.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/jacentio/itemstore/store"
)

// Operation names served by Handle.
const (
	OpListItems             = "listItems"
	OpGetItemByID           = "getItemById"
	OpGetItemBySerialNumber = "getItemBySerialNumber"
	OpCreateItem            = "createItem"
	OpUpdateItem            = "updateItem"
	OpDeleteItem            = "deleteItem"
)

// Store is the persistence contract the dispatcher depends on. Both the
// DynamoDB store and the BadgerDB memstore satisfy it.
type Store interface {
	GetByID(ctx context.Context, id string) (*store.Item, error)
	GetBySerialNumber(ctx context.Context, serialNumber string) (*store.Item, error)
	List(ctx context.Context) ([]store.Item, error)
	Put(ctx context.Context, item store.Item, expectNotExists bool) error
	ApplyPartialUpdate(ctx context.Context, id string, patch store.Patch) (*store.Item, error)
	Delete(ctx context.Context, id string) error
}

// Dispatcher routes operations to a Store.
type Dispatcher struct {
	store  Store
	logger *slog.Logger

	// now supplies dateCreatedAt for created Items. The dispatcher, not
	// the caller, is the source of truth for creation time.
	now func() time.Time
}

// New creates a Dispatcher over the given store.
func New(s Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:  s,
		logger: logger,
		now:    time.Now,
	}
}

// Handle resolves an operation name, validates the argument record, invokes
// the store and returns the normalized result. It never panics and never
// raises: every path resolves to exactly one Result.
func (d *Dispatcher) Handle(ctx context.Context, operation string, args map[string]any) Result {
	switch operation {
	case OpListItems:
		return d.listItems(ctx)
	case OpGetItemByID:
		return d.getItemByID(ctx, args)
	case OpGetItemBySerialNumber:
		return d.getItemBySerialNumber(ctx, args)
	case OpCreateItem:
		return d.createItem(ctx, args)
	case OpUpdateItem:
		return d.updateItem(ctx, args)
	case OpDeleteItem:
		return d.deleteItem(ctx, args)
	default:
		d.logger.Warn("unknown operation", "operation", operation)
		return failf(CodeUnknownOperation, "unknown operation %q", operation)
	}
}

func (d *Dispatcher) listItems(ctx context.Context) Result {
	items, err := d.store.List(ctx)
	if err != nil {
		return d.storeFailure(OpListItems, err)
	}
	if items == nil {
		items = []store.Item{}
	}
	return ok(items)
}

func (d *Dispatcher) getItemByID(ctx context.Context, args map[string]any) Result {
	id, err := stringArg(args, "itemId")
	if err != nil {
		return fail(CodeInvalidArgument, err.Error())
	}

	it, err := d.store.GetByID(ctx, id)
	if err != nil {
		return d.storeFailure(OpGetItemByID, err)
	}
	return ok(it)
}

func (d *Dispatcher) getItemBySerialNumber(ctx context.Context, args map[string]any) Result {
	serialNumber, err := stringArg(args, "serialNumber")
	if err != nil {
		return fail(CodeInvalidArgument, err.Error())
	}

	it, err := d.store.GetBySerialNumber(ctx, serialNumber)
	if err != nil {
		return d.storeFailure(OpGetItemBySerialNumber, err)
	}
	return ok(it)
}

func (d *Dispatcher) createItem(ctx context.Context, args map[string]any) Result {
	it, err := createItemFromArgs(args)
	if err != nil {
		return fail(CodeInvalidArgument, err.Error())
	}
	it.DateCreatedAt = d.now().UTC().Format(store.TimeLayout)

	if err := d.store.Put(ctx, it, true); err != nil {
		return d.storeFailure(OpCreateItem, err)
	}

	d.logger.Info("item created", "id", it.ID, "serialNumber", it.SerialNumber)
	return ok(&it)
}

func (d *Dispatcher) updateItem(ctx context.Context, args map[string]any) Result {
	id, patch, err := updatePatchFromArgs(args)
	if err != nil {
		return fail(CodeInvalidArgument, err.Error())
	}

	updated, err := d.store.ApplyPartialUpdate(ctx, id, patch)
	if err != nil {
		return d.storeFailure(OpUpdateItem, err)
	}

	d.logger.Info("item updated", "id", id)
	return ok(updated)
}

func (d *Dispatcher) deleteItem(ctx context.Context, args map[string]any) Result {
	id, err := stringArg(args, "itemId")
	if err != nil {
		return fail(CodeInvalidArgument, err.Error())
	}

	if err := d.store.Delete(ctx, id); err != nil {
		return d.storeFailure(OpDeleteItem, err)
	}

	d.logger.Info("item deleted", "id", id)
	return ok(id)
}

// storeFailure normalizes a store error, logging only genuine persistence
// failures. NotFound and AlreadyExists are expected outcomes and stay quiet.
func (d *Dispatcher) storeFailure(operation string, err error) Result {
	result := normalize(err)
	if result.Error.Code == CodeStoreError {
		d.logger.Error("store call failed", "operation", operation, "error", err)
	}
	return result
}
