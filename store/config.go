package store

import (
	"log/slog"
	"time"
)

// Default table names.
const (
	DefaultCustomerTable = "Customer"
	DefaultGroomerTable  = "Groomer"
	DefaultScheduleTable = "Schedule"
)

// Config holds configuration shared by the stores.
type Config struct {
	// CustomerTable holds parents and pets.
	// Default: "Customer"
	CustomerTable string

	// GroomerTable holds groomer snapshots and latest pointers.
	// Default: "Groomer"
	GroomerTable string

	// ScheduleTable holds appointments.
	// Default: "Schedule"
	ScheduleTable string

	// Location is the zone used to turn an appointment's wall clock into a
	// schedule id and to read stored appointment times back.
	// Default: time.Local. Deployments in more than one zone should use time.UTC,
	// otherwise the same appointment maps to different ids per host.
	Location *time.Location

	// StrictVersioning conditions groomer writes so that a concurrent save for
	// the same employee fails with ErrConcurrentModification instead of
	// silently dropping a version.
	// Default: false (single writer per employee assumed)
	StrictVersioning bool

	// Logger receives scan and versioning diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the default table names.
func DefaultConfig() Config {
	return Config{
		CustomerTable: DefaultCustomerTable,
		GroomerTable:  DefaultGroomerTable,
		ScheduleTable: DefaultScheduleTable,
		Location:      time.Local,
		Logger:        slog.Default(),
	}
}

// KeySchema names the key attributes of a table. SortKey is empty for
// tables with a simple primary key.
type KeySchema struct {
	PartitionKey string
	SortKey      string
}

// Schemas returns the key schema of every table, keyed by table name.
func (c Config) Schemas() map[string]KeySchema {
	c.validate()
	return map[string]KeySchema{
		c.CustomerTable: {PartitionKey: AttrCustomerID, SortKey: AttrID},
		c.GroomerTable:  {PartitionKey: AttrGroomerID, SortKey: AttrVersion},
		c.ScheduleTable: {PartitionKey: AttrScheduleID},
	}
}

// validate fills in defaults for unset fields.
func (c *Config) validate() {
	if c.CustomerTable == "" {
		c.CustomerTable = DefaultCustomerTable
	}
	if c.GroomerTable == "" {
		c.GroomerTable = DefaultGroomerTable
	}
	if c.ScheduleTable == "" {
		c.ScheduleTable = DefaultScheduleTable
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
