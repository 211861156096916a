// Package storage handles database connections, schema migrations, and data
// operations using SQLite.
package storage

import (
	"database/sql"
	"time"

	"github.com/woozymasta/masterstat/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters,
// and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// UpsertServer inserts a new server sighting or updates an existing one
// keyed by (ip, port): the sighting count grows, last_seen advances, and the
// country code is overwritten only when the new one is non-empty.
func (r *Repository) UpsertServer(s models.Server) error {
	query := `
	INSERT INTO servers (ip, port, country_code, first_seen, last_seen, count)
	VALUES (?, ?, ?, ?, ?, 1)
	ON CONFLICT(ip, port) DO UPDATE SET
		count = count + 1,
		last_seen = excluded.last_seen,
		country_code = CASE WHEN excluded.country_code != '' THEN excluded.country_code ELSE servers.country_code END;
	`

	_, err := r.db.Exec(query, s.IP, s.Port, s.CountryCode, s.FirstSeen, s.LastSeen)

	return err
}

// GetServers retrieves all tracked servers, most recently seen first.
func (r *Repository) GetServers() ([]models.Server, error) {
	rows, err := r.db.Query(`
		SELECT ip, port, country_code, first_seen, last_seen, count
		FROM servers
		ORDER BY last_seen DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var servers []models.Server
	for rows.Next() {
		var s models.Server
		if err := rows.Scan(&s.IP, &s.Port, &s.CountryCode, &s.FirstSeen, &s.LastSeen, &s.Count); err != nil {
			continue
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

// PruneStale removes servers whose last sighting is older than the cutoff.
func (r *Repository) PruneStale(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM servers WHERE last_seen < ?`, cutoff)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// RecordRun appends one run summary to the runs log.
func (r *Repository) RecordRun(run models.Run) error {
	query := `
	INSERT INTO runs (started_at, masters_total, masters_failed, servers_total, list_hash)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.StartedAt, run.MastersTotal, run.MastersFailed, run.ServersTotal, run.ListHash)

	return err
}

// LastRunHash returns the server list fingerprint of the most recent run, or
// an empty string if no run has been recorded yet.
func (r *Repository) LastRunHash() (string, error) {
	var hash string
	err := r.db.QueryRow(`SELECT list_hash FROM runs ORDER BY id DESC LIMIT 1`).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return hash, nil
}
