package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrIncompleteParams is returned for params that lib/pq would otherwise
// complete from PG* environment variables or its localhost default.
var ErrIncompleteParams = errors.New("incomplete connection parameters")

// ConnParams are the five values needed to reach the database. There are no
// defaults: empty or invalid values make the connection attempt fail.
type ConnParams struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// SSLMode is passed through to lib/pq; empty means "disable".
	SSLMode string
}

// Validate checks that host, port, database and user are all given. The
// password may be empty.
func (p ConnParams) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Host) == "" {
		missing = append(missing, "host")
	}
	if p.Port < 1 || p.Port > 65535 {
		missing = append(missing, "port")
	}
	if strings.TrimSpace(p.Database) == "" {
		missing = append(missing, "database")
	}
	if strings.TrimSpace(p.Username) == "" {
		missing = append(missing, "username")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompleteParams, strings.Join(missing, ", "))
	}
	return nil
}

// DSN renders the params as a lib/pq key/value connection string.
func (p ConnParams) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	pairs := []struct{ key, value string }{
		{"host", p.Host},
		{"port", strconv.Itoa(p.Port)},
		{"dbname", p.Database},
		{"user", p.Username},
		{"password", p.Password},
		{"sslmode", sslMode},
	}

	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, kv.key+"="+quoteDSNValue(kv.value))
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes a value and escapes backslashes and quotes, as
// lib/pq's key/value parser expects.
func quoteDSNValue(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
