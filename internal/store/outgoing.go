package store

import (
	"database/sql"
	"time"
)

// QueueOutgoing adds a message to the store-and-forward queue. The recipient
// address is snapshotted by the caller at enqueue time.
func (db *DB) QueueOutgoing(sender, recipient, recipientAddr, subject, body string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO outgoing (sender, recipient, recipient_address, subject, body, queued_at, delivered)
		VALUES (?, ?, ?, ?, ?, ?, 0)`,
		sender, recipient, recipientAddr, subject, body, now)
	return err
}

// ListOutgoing returns the full outbound audit log, newest first.
func (db *DB) ListOutgoing() ([]OutgoingMessage, error) {
	rows, err := db.Query(`
		SELECT id, sender, recipient, recipient_address, subject, body, queued_at, delivered
		FROM outgoing ORDER BY queued_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanOutgoing(rows)
}

// CollectOutgoingFor returns the undelivered queue for recipient and marks
// the returned rows delivered, both inside one transaction so a concurrent
// poll of the same recipient cannot hand out a message twice.
//
// The rows are marked before the response reaches the caller: a partition in
// between loses that batch from the caller's perspective. Deliberate
// trade-off, inherited from the wire contract's single round trip.
func (db *DB) CollectOutgoingFor(recipient string) ([]OutgoingMessage, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.Query(`
		SELECT id, sender, recipient, recipient_address, subject, body, queued_at, delivered
		FROM outgoing
		WHERE recipient = ? AND delivered = 0
		ORDER BY queued_at ASC`, recipient)
	if err != nil {
		return nil, err
	}
	msgs, err := scanOutgoing(rows)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, tx.Commit()
	}

	for _, m := range msgs {
		if _, err := tx.Exec(`UPDATE outgoing SET delivered = 1 WHERE id = ?`, m.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	for i := range msgs {
		msgs[i].Delivered = true
	}
	return msgs, nil
}

func scanOutgoing(rows *sql.Rows) ([]OutgoingMessage, error) {
	defer func() { _ = rows.Close() }()

	var msgs []OutgoingMessage
	for rows.Next() {
		var m OutgoingMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Recipient, &m.RecipientAddress,
			&m.Subject, &m.Body, &m.QueuedAt, &m.Delivered); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
