// Package store persists reseller accounts, reseller sessions and
// generated client-access links in a local SQLite database.
package store

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/netbridge/iptv-migrator/internal/models"
)

// ErrExists means a unique constraint was violated (duplicate reseller
// username or client link).
var ErrExists = errors.New("already exists")

// ErrNotFound means no row matched.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS resellers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	netplay_username TEXT NOT NULL,
	netplay_password TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	reseller_id INTEGER NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (reseller_id) REFERENCES resellers (id)
);

CREATE TABLE IF NOT EXISTS client_links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	reseller_id INTEGER NOT NULL,
	client_username TEXT NOT NULL,
	client_password TEXT NOT NULL,
	link_token TEXT UNIQUE NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	last_accessed TIMESTAMP,
	FOREIGN KEY (reseller_id) REFERENCES resellers (id),
	UNIQUE(reseller_id, client_username)
);

CREATE TABLE IF NOT EXISTS activity_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	reseller_id INTEGER NOT NULL,
	total INTEGER NOT NULL,
	succeeded INTEGER NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps the SQLite database. Safe for concurrent use; database/sql
// serializes access to the single connection sqlite3 exposes.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: sqlite serializes writers anyway, and a ":memory:"
	// database is per-connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// newToken returns a 32-byte URL-safe random token.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateReseller registers a reseller with the panel credentials the
// backend will use on their behalf.
func (s *Store) CreateReseller(username, password, netplayUser, netplayPass string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO resellers (username, password_hash, netplay_username, netplay_password)
		VALUES (?, ?, ?, ?)`,
		username, hashPassword(password), netplayUser, netplayPass)
	if err != nil {
		if isUniqueErr(err) {
			return 0, fmt.Errorf("reseller %q: %w", username, ErrExists)
		}
		return 0, fmt.Errorf("creating reseller: %w", err)
	}
	return res.LastInsertId()
}

// AuthenticateReseller checks username/password and returns the account.
func (s *Store) AuthenticateReseller(username, password string) (*models.Reseller, error) {
	row := s.db.QueryRow(`
		SELECT id, username, netplay_username, netplay_password
		FROM resellers
		WHERE username = ? AND password_hash = ?`,
		username, hashPassword(password))

	var r models.Reseller
	err := row.Scan(&r.ID, &r.Username, &r.NetplayUsername, &r.NetplayPassword)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying reseller: %w", err)
	}
	return &r, nil
}

// CreateSession issues a new session token for a reseller.
func (s *Store) CreateSession(resellerID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if _, err := s.db.Exec(`INSERT INTO sessions (token, reseller_id) VALUES (?, ?)`, token, resellerID); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return token, nil
}

// SessionReseller resolves a session token to its reseller.
func (s *Store) SessionReseller(token string) (*models.Reseller, error) {
	row := s.db.QueryRow(`
		SELECT r.id, r.username, r.netplay_username, r.netplay_password
		FROM sessions s JOIN resellers r ON s.reseller_id = r.id
		WHERE s.token = ?`, token)

	var r models.Reseller
	err := row.Scan(&r.ID, &r.Username, &r.NetplayUsername, &r.NetplayPassword)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &r, nil
}

// RevokeSession deletes a session token. Revoking an unknown token is
// not an error.
func (s *Store) RevokeSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// CreateClientLink creates (or refreshes) the access link for one of a
// reseller's clients and returns the new token. Re-creating a link for
// the same client replaces the password and rotates the token.
func (s *Store) CreateClientLink(resellerID int64, clientUser, clientPass string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	res, err := s.db.Exec(`
		UPDATE client_links
		SET client_password = ?, link_token = ?, created_at = CURRENT_TIMESTAMP
		WHERE reseller_id = ? AND client_username = ?`,
		clientPass, token, resellerID, clientUser)
	if err != nil {
		return "", fmt.Errorf("updating client link: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return token, nil
	}

	_, err = s.db.Exec(`
		INSERT INTO client_links (reseller_id, client_username, client_password, link_token)
		VALUES (?, ?, ?, ?)`,
		resellerID, clientUser, clientPass, token)
	if err != nil {
		return "", fmt.Errorf("creating client link: %w", err)
	}
	return token, nil
}

// ClientByToken resolves a link token to the client credentials plus
// the owning reseller's panel credentials, touching last_accessed.
func (s *Store) ClientByToken(token string) (*models.ClientAccess, error) {
	row := s.db.QueryRow(`
		SELECT cl.client_username, cl.client_password, r.username, r.netplay_username, r.netplay_password
		FROM client_links cl JOIN resellers r ON cl.reseller_id = r.id
		WHERE cl.link_token = ?`, token)

	var a models.ClientAccess
	err := row.Scan(&a.ClientUsername, &a.ClientPassword, &a.ResellerUsername, &a.NetplayUsername, &a.NetplayPassword)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying client link: %w", err)
	}

	if _, err := s.db.Exec(`
		UPDATE client_links SET last_accessed = CURRENT_TIMESTAMP WHERE link_token = ?`, token); err != nil {
		return nil, fmt.Errorf("touching client link: %w", err)
	}
	return &a, nil
}

// ResellerClients lists a reseller's client links, newest first.
func (s *Store) ResellerClients(resellerID int64) ([]models.ClientLink, error) {
	rows, err := s.db.Query(`
		SELECT client_username, link_token, created_at, last_accessed
		FROM client_links
		WHERE reseller_id = ?
		ORDER BY created_at DESC`, resellerID)
	if err != nil {
		return nil, fmt.Errorf("listing client links: %w", err)
	}
	defer rows.Close()

	var links []models.ClientLink
	for rows.Next() {
		var l models.ClientLink
		var last sql.NullTime
		if err := rows.Scan(&l.ClientUsername, &l.LinkToken, &l.CreatedAt, &last); err != nil {
			return nil, fmt.Errorf("scanning client link: %w", err)
		}
		if last.Valid {
			t := last.Time
			l.LastAccessed = &t
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// RecordBatch logs one batch migration run for auditing.
func (s *Store) RecordBatch(resellerID int64, total, succeeded int) error {
	_, err := s.db.Exec(`
		INSERT INTO activity_log (reseller_id, total, succeeded) VALUES (?, ?, ?)`,
		resellerID, total, succeeded)
	if err != nil {
		return fmt.Errorf("recording batch: %w", err)
	}
	return nil
}

// RecentActivity returns the latest batch runs, newest first.
func (s *Store) RecentActivity(limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, reseller_id, total, succeeded, created_at
		FROM activity_log
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		var created time.Time
		if err := rows.Scan(&e.ID, &e.ResellerID, &e.Total, &e.Succeeded, &created); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		e.CreatedAt = created
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func isUniqueErr(err error) bool {
	// sqlite3 reports constraint violations in the error text; matching
	// the message avoids binding to driver-internal error codes.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
