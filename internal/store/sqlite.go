package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
)

// SQLiteStore is the zero-infrastructure development backend. Same
// schema shape as Postgres, minus the array aggregation.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the SQLite database.
// If dbPath is empty, defaults to "./data/nexthire.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/nexthire.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under concurrent read-marking.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
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
			created_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS messages_room_order_idx
			ON messages (room_id, created_at, seq);
		CREATE TABLE IF NOT EXISTS message_reads (
			message_id TEXT NOT NULL REFERENCES messages(id),
			user_id    TEXT NOT NULL,
			PRIMARY KEY (message_id, user_id)
		);
	`)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Append persists a message.
func (s *SQLiteStore) Append(ctx context.Context, m *models.ChatMessage) (*models.ChatMessage, error) {
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

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, room_id, sender_id, sender_role, body, gif,
			file_url, file_type, file_name, group_name, members, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.RoomID, m.SenderID, string(m.SenderRole), m.Text, m.GIF,
		fileURL, fileType, fileName, m.GroupName, members, m.Timestamp.UnixMicro())
	if err != nil {
		return nil, err
	}
	m.Seq, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return m, nil
}

const sqliteMessageColumns = `
	m.id, m.seq, m.room_id, m.sender_id, m.sender_role, m.body, m.gif,
	m.file_url, m.file_type, m.file_name, m.group_name, m.members, m.created_at,
	COALESCE(GROUP_CONCAT(r.user_id), '')
`

// ListByRoom returns a room's messages ascending by (timestamp, seq).
func (s *SQLiteStore) ListByRoom(ctx context.Context, roomID string) ([]*models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteMessageColumns+`
		FROM messages m
		LEFT JOIN message_reads r ON r.message_id = m.id
		WHERE m.room_id = ?
		GROUP BY m.seq
		ORDER BY m.created_at ASC, m.seq ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		m, err := scanSQLiteMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Latest returns the newest message in a room, or nil.
func (s *SQLiteStore) Latest(ctx context.Context, roomID string) (*models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteMessageColumns+`
		FROM messages m
		LEFT JOIN message_reads r ON r.message_id = m.id
		WHERE m.room_id = ?
		GROUP BY m.seq
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT 1
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, nil
	}
	return scanSQLiteMessage(rows)
}

// First returns the oldest message in a room, or nil.
func (s *SQLiteStore) First(ctx context.Context, roomID string) (*models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteMessageColumns+`
		FROM messages m
		LEFT JOIN message_reads r ON r.message_id = m.id
		WHERE m.room_id = ?
		GROUP BY m.seq
		ORDER BY m.created_at ASC, m.seq ASC
		LIMIT 1
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, nil
	}
	return scanSQLiteMessage(rows)
}

// UnreadCount counts messages unread by viewerID.
func (s *SQLiteStore) UnreadCount(ctx context.Context, roomID, viewerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM messages m
		WHERE m.room_id = ?
		  AND m.sender_id <> ?
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = ?
		  )
	`, roomID, viewerID, viewerID).Scan(&count)
	return count, err
}

// MarkRoomRead adds viewerID to the read set of every message in the room.
func (s *SQLiteStore) MarkRoomRead(ctx context.Context, roomID, viewerID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO message_reads (message_id, user_id)
		SELECT id, ? FROM messages WHERE room_id = ?
	`, viewerID, roomID)
	return err
}

// ListRoomIDs enumerates rooms touched by an identity.
func (s *SQLiteStore) ListRoomIDs(ctx context.Context, participantID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT room_id FROM messages
		WHERE room_id LIKE '%' || ? || '%'
		   OR sender_id = ?
		   OR members LIKE '%' || ? || '%'
	`, participantID, participantID, participantID)
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

func scanSQLiteMessage(rows *sql.Rows) (*models.ChatMessage, error) {
	m := &models.ChatMessage{}
	var role string
	var fileURL, fileType, fileName, readBy string
	var members *string
	var createdAt int64

	err := rows.Scan(
		&m.ID, &m.Seq, &m.RoomID, &m.SenderID, &role, &m.Text, &m.GIF,
		&fileURL, &fileType, &fileName, &m.GroupName, &members, &createdAt, &readBy,
	)
	if err != nil {
		return nil, err
	}

	m.SenderRole = models.Role(role)
	m.Timestamp = time.UnixMicro(createdAt).UTC()
	if fileURL != "" {
		m.File = &models.FileRef{URL: fileURL, Type: fileType, Name: fileName}
	}
	if members != nil {
		if err := json.Unmarshal([]byte(*members), &m.Members); err != nil {
			return nil, err
		}
	}
	if readBy != "" {
		m.ReadBy = strings.Split(readBy, ",")
	} else {
		m.ReadBy = []string{}
	}
	return m, nil
}
