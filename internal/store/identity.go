package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoIdentity is returned by Identity before first-run provisioning.
var ErrNoIdentity = errors.New("node identity not provisioned")

// EnsureIdentity creates the singleton user row on first run. On later runs
// it refreshes the stored address if the configuration changed, and rejects
// a username change, which would orphan every queued message.
func (db *DB) EnsureIdentity(username, address string) (*Identity, error) {
	existing, err := db.Identity()
	if err != nil && !errors.Is(err, ErrNoIdentity) {
		return nil, err
	}
	if existing == nil {
		res, err := db.Exec(`INSERT INTO user (username, address) VALUES (?, ?)`, username, address)
		if err != nil {
			return nil, fmt.Errorf("insert identity: %w", err)
		}
		id, _ := res.LastInsertId()
		return &Identity{ID: id, Username: username, Address: address}, nil
	}

	if existing.Username != username {
		return nil, fmt.Errorf("identity is %q, refusing to rename to %q", existing.Username, username)
	}
	if existing.Address != address {
		if _, err := db.Exec(`UPDATE user SET address = ? WHERE id = ?`, address, existing.ID); err != nil {
			return nil, fmt.Errorf("update identity address: %w", err)
		}
		existing.Address = address
	}
	return existing, nil
}

// Identity returns the node's user row.
func (db *DB) Identity() (*Identity, error) {
	var ident Identity
	err := db.QueryRow(`SELECT id, username, address FROM user LIMIT 1`).
		Scan(&ident.ID, &ident.Username, &ident.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, err
	}
	return &ident, nil
}
