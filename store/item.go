package store

// TimeLayout is the dateCreatedAt format: RFC 3339 with a fixed nine-digit
// fraction. Every timestamp has the same width, so string comparison on the
// GSI sort key orders items by creation time.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Item is the sole entity managed by this module. Field names on the wire
// match the external schema.
type Item struct {
	// ID is the caller-assigned primary key, immutable after creation.
	ID string `json:"id" dynamodbav:"id"`

	// DateCreatedAt is set once at creation (see TimeLayout) and is the
	// sort key of the serialNumber index.
	DateCreatedAt string `json:"dateCreatedAt,omitempty" dynamodbav:"dateCreatedAt"`

	ModelNumber string `json:"modelNumber,omitempty" dynamodbav:"modelNumber,omitempty"`

	// SerialNumber is the partition key of the secondary index. Not unique
	// at the store layer.
	SerialNumber string `json:"serialNumber,omitempty" dynamodbav:"serialNumber,omitempty"`

	DateWarrantyBegins  string `json:"dateWarrantyBegins,omitempty" dynamodbav:"dateWarrantyBegins,omitempty"`
	DateWarrantyExpires string `json:"dateWarrantyExpires,omitempty" dynamodbav:"dateWarrantyExpires,omitempty"`
}

// Patch describes a partial update. Nil fields are left untouched.
// ID and DateCreatedAt are immutable and therefore not patchable.
type Patch struct {
	ModelNumber         *string
	SerialNumber        *string
	DateWarrantyBegins  *string
	DateWarrantyExpires *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.ModelNumber == nil && p.SerialNumber == nil &&
		p.DateWarrantyBegins == nil && p.DateWarrantyExpires == nil
}

// Fields returns the supplied attributes as a name-to-value map, using the
// wire attribute names.
func (p Patch) Fields() map[string]string {
	fields := make(map[string]string)
	if p.ModelNumber != nil {
		fields["modelNumber"] = *p.ModelNumber
	}
	if p.SerialNumber != nil {
		fields["serialNumber"] = *p.SerialNumber
	}
	if p.DateWarrantyBegins != nil {
		fields["dateWarrantyBegins"] = *p.DateWarrantyBegins
	}
	if p.DateWarrantyExpires != nil {
		fields["dateWarrantyExpires"] = *p.DateWarrantyExpires
	}
	return fields
}

// Apply merges the patch onto an Item in place.
func (p Patch) Apply(it *Item) {
	if p.ModelNumber != nil {
		it.ModelNumber = *p.ModelNumber
	}
	if p.SerialNumber != nil {
		it.SerialNumber = *p.SerialNumber
	}
	if p.DateWarrantyBegins != nil {
		it.DateWarrantyBegins = *p.DateWarrantyBegins
	}
	if p.DateWarrantyExpires != nil {
		it.DateWarrantyExpires = *p.DateWarrantyExpires
	}
}
