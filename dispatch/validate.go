package dispatch

import (
	"fmt"
	"strings"

	"github.com/jacentio/itemstore/store"
)

// stringArg extracts a required non-empty string argument.
func stringArg(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	if s == "" {
		return "", fmt.Errorf("argument %q must not be empty", name)
	}
	return s, nil
}

// itemArg extracts the nested item record carried by createItem and
// updateItem.
func itemArg(args map[string]any) (map[string]any, error) {
	raw, ok := args["item"]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", "item")
	}
	record, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object", "item")
	}
	return record, nil
}

// requiredField extracts a required non-empty string field from an item
// record.
func requiredField(record map[string]any, name string) (string, error) {
	raw, ok := record[name]
	if !ok {
		return "", fmt.Errorf("missing required field %q", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q must be a string", name)
	}
	if s == "" {
		return "", fmt.Errorf("field %q must not be empty", name)
	}
	return s, nil
}

// optionalField extracts an optional string field; nil means absent.
func optionalField(record map[string]any, name string) (*string, error) {
	raw, ok := record[name]
	if !ok {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("field %q must be a string", name)
	}
	return &s, nil
}

// validateID rejects ids that would be unsafe as storage keys.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("field %q must not be empty", "id")
	}
	if strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("field %q must not contain path separators", "id")
	}
	return nil
}

// createItemFromArgs validates the createItem payload and builds the Item
// to store. dateCreatedAt is deliberately not read from the record: the
// dispatcher assigns it so the serialNumber index's creation ordering is
// trustworthy.
func createItemFromArgs(args map[string]any) (store.Item, error) {
	record, err := itemArg(args)
	if err != nil {
		return store.Item{}, err
	}

	var it store.Item
	if it.ID, err = requiredField(record, "id"); err != nil {
		return store.Item{}, err
	}
	if err := validateID(it.ID); err != nil {
		return store.Item{}, err
	}
	if it.ModelNumber, err = requiredField(record, "modelNumber"); err != nil {
		return store.Item{}, err
	}
	if it.SerialNumber, err = requiredField(record, "serialNumber"); err != nil {
		return store.Item{}, err
	}
	if it.DateWarrantyBegins, err = requiredField(record, "dateWarrantyBegins"); err != nil {
		return store.Item{}, err
	}
	if it.DateWarrantyExpires, err = requiredField(record, "dateWarrantyExpires"); err != nil {
		return store.Item{}, err
	}

	return it, nil
}

// updatePatchFromArgs validates the updateItem payload. Only the four
// mutable fields are read; id and dateCreatedAt are immutable, so a
// supplied dateCreatedAt is ignored.
func updatePatchFromArgs(args map[string]any) (string, store.Patch, error) {
	record, err := itemArg(args)
	if err != nil {
		return "", store.Patch{}, err
	}

	id, err := requiredField(record, "id")
	if err != nil {
		return "", store.Patch{}, err
	}
	if err := validateID(id); err != nil {
		return "", store.Patch{}, err
	}

	var patch store.Patch
	if patch.ModelNumber, err = optionalField(record, "modelNumber"); err != nil {
		return "", store.Patch{}, err
	}
	if patch.SerialNumber, err = optionalField(record, "serialNumber"); err != nil {
		return "", store.Patch{}, err
	}
	if patch.DateWarrantyBegins, err = optionalField(record, "dateWarrantyBegins"); err != nil {
		return "", store.Patch{}, err
	}
	if patch.DateWarrantyExpires, err = optionalField(record, "dateWarrantyExpires"); err != nil {
		return "", store.Patch{}, err
	}

	return id, patch, nil
}
