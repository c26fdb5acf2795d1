package store

import "time"

// InsertInboxBatch ingests one peer's pulled messages atomically. A batch
// that fails midway leaves no partial rows, so the next poll can retry the
// whole pull.
func (db *DB) InsertInboxBatch(msgs []InboxMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, m := range msgs {
		receivedAt := m.ReceivedAt
		if receivedAt == 0 {
			receivedAt = now
		}
		if _, err := tx.Exec(`
			INSERT INTO inbox (sender, subject, body, received_at)
			VALUES (?, ?, ?, ?)`,
			m.Sender, m.Subject, m.Body, receivedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListInbox returns ingested mail, newest first.
func (db *DB) ListInbox() ([]InboxMessage, error) {
	rows, err := db.Query(`
		SELECT id, sender, subject, body, received_at
		FROM inbox ORDER BY received_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []InboxMessage
	for rows.Next() {
		var m InboxMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Subject, &m.Body, &m.ReceivedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// DeleteInboxMessage removes one read message. Console-only operation.
func (db *DB) DeleteInboxMessage(id int64) error {
	_, err := db.Exec(`DELETE FROM inbox WHERE id = ?`, id)
	return err
}
