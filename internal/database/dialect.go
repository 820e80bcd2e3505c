package database

import "fmt"

// Dialect captures the few statements that differ between MySQL and
// SQLite.  Everything else is written in the shared subset with ?
// placeholders.
type Dialect struct {
	Name       string // "mysql" or "sqlite"
	DriverName string // database/sql driver name
}

var (
	MySQL  = Dialect{Name: "mysql", DriverName: "mysql"}
	SQLite = Dialect{Name: "sqlite", DriverName: "sqlite"}
)

// DialectFor resolves a DB_DRIVER value.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "", "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// InsertIgnore returns the INSERT verb that silently skips rows which
// would violate a unique key.
func (d Dialect) InsertIgnore() string {
	if d.Name == "sqlite" {
		return "INSERT OR IGNORE"
	}
	return "INSERT IGNORE"
}

// ForUpdate returns the row-lock suffix for a SELECT inside a
// transaction.  SQLite has no row locks; its single writer already
// serialises the transaction.
func (d Dialect) ForUpdate() string {
	if d.Name == "sqlite" {
		return ""
	}
	return " FOR UPDATE"
}
