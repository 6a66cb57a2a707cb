package store

// Config holds configuration for the Store.
type Config struct {
	// TableName is the DynamoDB table holding Items.
	// Default: "items"
	TableName string

	// SerialNumberIndex is the GSI keyed by serialNumber with
	// dateCreatedAt as the sort key.
	// Default: "serialNumber-index"
	SerialNumberIndex string
}

// DefaultConfig returns the table and index names used by the deployed stack.
func DefaultConfig() Config {
	return Config{
		TableName:         "items",
		SerialNumberIndex: "serialNumber-index",
	}
}

// validate fills in defaults for empty values.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "items"
	}
	if c.SerialNumberIndex == "" {
		c.SerialNumberIndex = "serialNumber-index"
	}
}
