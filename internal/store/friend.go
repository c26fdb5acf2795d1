package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mankeli-chat/mankeli/internal/relation"
)

// GetFriend returns the relationship row for username, or nil when absent.
func (db *DB) GetFriend(username string) (*Friend, error) {
	var f Friend
	err := db.QueryRow(`
		SELECT id, username, address, status, delivered, updated_at
		FROM friends WHERE username = ?`, username).
		Scan(&f.ID, &f.Username, &f.Address, &f.Status, &f.Delivered, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpsertFriend creates or replaces the relationship row for username.
// The UNIQUE constraint on username keeps at most one row per peer.
func (db *DB) UpsertFriend(username, address string, status relation.Status, delivered bool) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO friends (username, address, status, delivered, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			address = excluded.address,
			status = excluded.status,
			delivered = excluded.delivered,
			updated_at = excluded.updated_at`,
		username, address, status, delivered, now)
	return err
}

// ListFriends returns every relationship row, newest change first.
func (db *DB) ListFriends() ([]Friend, error) {
	rows, err := db.Query(`
		SELECT id, username, address, status, delivered, updated_at
		FROM friends ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanFriends(rows)
}

// AcceptedFriends returns the relationships the message poller pulls from.
func (db *DB) AcceptedFriends() ([]Friend, error) {
	rows, err := db.Query(`
		SELECT id, username, address, status, delivered, updated_at
		FROM friends WHERE status = ?`, relation.Accepted)
	if err != nil {
		return nil, err
	}
	return scanFriends(rows)
}

// UndeliveredFriends returns relationships whose current status has not been
// pushed to the peer yet.
func (db *DB) UndeliveredFriends() ([]Friend, error) {
	rows, err := db.Query(`
		SELECT id, username, address, status, delivered, updated_at
		FROM friends WHERE delivered = 0`)
	if err != nil {
		return nil, err
	}
	return scanFriends(rows)
}

// MarkFriendDelivered records that the peer acknowledged the given status.
// The status guard keeps a slow push from clobbering a newer local change:
// if the row moved on since the push was read, the flag stays false and the
// next tick pushes the newer status.
func (db *DB) MarkFriendDelivered(username string, status relation.Status) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE friends SET delivered = 1, updated_at = ?
		WHERE username = ? AND status = ? AND delivered = 0`,
		now, username, status)
	return err
}

// DeleteFriend removes the relationship row. Console-only operation.
func (db *DB) DeleteFriend(username string) error {
	_, err := db.Exec(`DELETE FROM friends WHERE username = ?`, username)
	return err
}

func scanFriends(rows *sql.Rows) ([]Friend, error) {
	defer func() { _ = rows.Close() }()

	var friends []Friend
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.ID, &f.Username, &f.Address, &f.Status, &f.Delivered, &f.UpdatedAt); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}
