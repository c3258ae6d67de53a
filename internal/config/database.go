// internal/config/database.go
package config

import (
	"fmt"
)

// DSN is a lib/pq connection string, or the database file for sqlite.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Database
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}
