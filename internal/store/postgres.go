package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
)

// PostgresStore persists chat history in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RunMigrations applies the chat schema. Idempotent.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			seq         BIGSERIAL PRIMARY KEY,
			id          TEXT NOT NULL UNIQUE,
			room_id     TEXT NOT NULL,
			sender_id   TEXT NOT NULL,
			sender_role TEXT NOT NULL,
			body        TEXT NOT NULL DEFAULT '',
			gif         TEXT NOT NULL DEFAULT '',
			file_url    TEXT NOT NULL DEFAULT '',
			file_type   TEXT NOT NULL DEFAULT '',
			file_name   TEXT NOT NULL DEFAULT '',
			group_name  TEXT NOT NULL DEFAULT '',
			members     TEXT,
			created_at  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS messages_room_order_idx
			ON messages (room_id, created_at, seq);
		CREATE INDEX IF NOT EXISTS messages_sender_idx
			ON messages (sender_id);
		CREATE TABLE IF NOT EXISTS message_reads (
			message_id TEXT NOT NULL REFERENCES messages(id),
			user_id    TEXT NOT NULL,
			PRIMARY KEY (message_id, user_id)
		);
	`)
	return err
}

// Append persists a message and returns it with id, seq and timestamp
// assigned.
func (s *PostgresStore) Append(ctx context.Context, m *models.ChatMessage) (*models.ChatMessage, error) {
	if err := prepare(m); err != nil {
		return nil, err
	}

	var members *string
	if len(m.Members) > 0 {
		data, err := json.Marshal(m.Members)
		if err != nil {
			return nil, err
		}
		v := string(data)
		members = &v
	}

	var fileURL, fileType, fileName string
	if m.File != nil {
		fileURL, fileType, fileName = m.File.URL, m.File.Type, m.File.Name
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, room_id, sender_id, sender_role, body, gif,
			file_url, file_type, file_name, group_name, members, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq
	`, m.ID, m.RoomID, m.SenderID, string(m.SenderRole), m.Text, m.GIF,
		fileURL, fileType, fileName, m.GroupName, members, m.Timestamp).Scan(&m.Seq)
	if err != nil {
		return nil, err
	}
	return m, nil
}

const messageColumns = `
	m.id, m.seq, m.room_id, m.sender_id, m.sender_role, m.body, m.gif,
	m.file_url, m.file_type, m.file_name, m.group_name, m.members, m.created_at,
	COALESCE(array_agg(r.user_id) FILTER (WHERE r.user_id IS NOT NULL), '{}')
`

// ListByRoom returns a room's messages ascending by (timestamp, seq).
func (s *PostgresStore) ListByRoom(ctx context.Context, roomID string) ([]*models.ChatMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages m
		LEFT JOIN message_reads r ON r.message_id = m.id
		WHERE m.room_id = $1
		GROUP BY m.seq
		ORDER BY m.created_at ASC, m.seq ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Latest returns the newest message in a room, or nil.
func (s *PostgresStore) Latest(ctx context.Context, roomID string) (*models.ChatMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages m
		LEFT JOIN message_reads r ON r.message_id = m.id
		WHERE m.room_id = $1
		GROUP BY m.seq
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT 1
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, nil
	}
	return scanMessage(rows)
}

// First returns the oldest message in a room, or nil.
func (s *PostgresStore) First(ctx context.Context, roomID string) (*models.ChatMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages m
		LEFT JOIN message_reads r ON r.message_id = m.id
		WHERE m.room_id = $1
		GROUP BY m.seq
		ORDER BY m.created_at ASC, m.seq ASC
		LIMIT 1
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, nil
	}
	return scanMessage(rows)
}

// UnreadCount counts messages unread by viewerID. The viewer's own
// messages never count, regardless of read marks.
func (s *PostgresStore) UnreadCount(ctx context.Context, roomID, viewerID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM messages m
		WHERE m.room_id = $1
		  AND m.sender_id <> $2
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = $2
		  )
	`, roomID, viewerID).Scan(&count)
	return count, err
}

// MarkRoomRead adds viewerID to the read set of every message in the
// room. Insert-or-ignore makes concurrent calls converge to the union.
func (s *PostgresStore) MarkRoomRead(ctx context.Context, roomID, viewerID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id)
		SELECT id, $2 FROM messages WHERE room_id = $1
		ON CONFLICT DO NOTHING
	`, roomID, viewerID)
	return err
}

// ListRoomIDs enumerates rooms touched by an identity.
func (s *PostgresStore) ListRoomIDs(ctx context.Context, participantID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT room_id FROM messages
		WHERE room_id LIKE '%' || $1 || '%'
		   OR sender_id = $1
		   OR members LIKE '%' || $1 || '%'
	`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roomIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		roomIDs = append(roomIDs, id)
	}
	return roomIDs, rows.Err()
}

func scanMessage(rows pgx.Rows) (*models.ChatMessage, error) {
	m := &models.ChatMessage{}
	var role string
	var fileURL, fileType, fileName string
	var members *string

	err := rows.Scan(
		&m.ID, &m.Seq, &m.RoomID, &m.SenderID, &role, &m.Text, &m.GIF,
		&fileURL, &fileType, &fileName, &m.GroupName, &members, &m.Timestamp, &m.ReadBy,
	)
	if err != nil {
		return nil, err
	}

	m.SenderRole = models.Role(role)
	if fileURL != "" {
		m.File = &models.FileRef{URL: fileURL, Type: fileType, Name: fileName}
	}
	if members != nil {
		if err := json.Unmarshal([]byte(*members), &m.Members); err != nil {
			return nil, err
		}
	}
	return m, nil
}
