package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// DB is the data-access handle passed to every repository.  It pairs
// the connection pool with the SQL dialect of the driver behind it.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the given driver ("mysql" or "sqlite") and verifies
// the connection.
func Open(driver, dsn string) (*DB, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	switch d.Name {
	case "mysql":
		if dsn, err = normalizeMySQLDSN(dsn); err != nil {
			return nil, fmt.Errorf("mysql dsn: %w", err)
		}
	case "sqlite":
		dsn = normalizeSQLiteDSN(dsn)
	}

	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	if d.Name == "sqlite" {
		// one writer at a time; every statement inside a tx must use the tx
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{DB: db, Dialect: d}, nil
}

// MySQLDSN builds a go-sql-driver DSN from discrete connection settings.
func MySQLDSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s", auth, host, port, name)
}

// normalizeMySQLDSN accepts either a driver DSN or a mysql:// URL and
// forces parseTime=true and loc=UTC so DATETIME columns scan into
// time.Time consistently.
func normalizeMySQLDSN(dsn string) (string, error) {
	var cfg *mysql.Config
	if strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", err
		}
		cfg = mysql.NewConfig()
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		if _, _, err := net.SplitHostPort(u.Host); err != nil {
			cfg.Addr = net.JoinHostPort(u.Host, "3306")
		}
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
	} else {
		parsed, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", err
		}
		cfg = parsed
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}

// normalizeSQLiteDSN turns on foreign keys, a busy timeout and the
// sqlite time format unless the caller set them already.
func normalizeSQLiteDSN(dsn string) string {
	opts := []struct{ needle, param string }{
		{"foreign_keys", "_pragma=foreign_keys(1)"},
		{"busy_timeout", "_pragma=busy_timeout(5000)"},
		{"_time_format", "_time_format=sqlite"},
	}
	for _, o := range opts {
		if strings.Contains(dsn, o.needle) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + o.param
	}
	return dsn
}

// Stamp normalises a timestamp before it is written: UTC, whole seconds.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
