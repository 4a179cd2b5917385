// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, using database/sql over the
// pgx stdlib driver.
package postgres
