package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	if connectionString == "" {
		connectionString = ":memory:"
	}
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// every pooled connection would otherwise open its own empty in-memory database
	if strings.Contains(connectionString, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			original_image BLOB NOT NULL,
			original_content_type TEXT NOT NULL,
			processed_image BLOB,
			processed_size INTEGER,
			processed_format TEXT,
			processed_quality INTEGER,
			marker_image BLOB,
			marker_quality INTEGER,
			marker_size INTEGER,
			marker_has_video INTEGER,
			marker_links TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS video_links (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			type TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			rank TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_video_links_session_rank ON video_links (session_id, rank)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DoesDatabaseExist pings; sqlite creates the file on first connect
func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	return s.db.Ping() == nil
}

func (s *SQLiteDatabase) CreateSession(original []byte, contentType string) (*Session, error) {
	session := &Session{
		ID:                  uuid.NewString(),
		OriginalImage:       original,
		OriginalContentType: contentType,
		CreatedAt:           time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, original_image, original_content_type, created_at) VALUES (?, ?, ?, ?)",
		session.ID, session.OriginalImage, session.OriginalContentType, session.CreatedAt.UnixMilli())
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SQLiteDatabase) ReplaceOriginalImage(id string, original []byte, contentType string) error {
	res, err := s.db.Exec(`UPDATE sessions SET
		original_image = ?, original_content_type = ?,
		processed_image = NULL, processed_size = NULL, processed_format = NULL, processed_quality = NULL,
		marker_image = NULL, marker_quality = NULL, marker_size = NULL, marker_has_video = NULL, marker_links = NULL
		WHERE id = ?`, original, contentType, id)
	if err != nil {
		return err
	}
	return expectAffected(res, ErrSessionNotFound)
}

func (s *SQLiteDatabase) GetSessionByID(id string) (*Session, error) {
	row := s.db.QueryRow(`SELECT id, original_image, original_content_type,
		processed_image, processed_size, processed_format, processed_quality,
		marker_image, marker_quality, marker_size, marker_has_video, marker_links, created_at
		FROM sessions WHERE id = ?`, id)

	var (
		session          Session
		processedImage   []byte
		processedSize    sql.NullInt64
		processedFormat  sql.NullString
		processedQuality sql.NullInt64
		markerImage      []byte
		markerQuality    sql.NullInt64
		markerSize       sql.NullInt64
		markerHasVideo   sql.NullBool
		markerLinks      sql.NullString
		createdAt        int64
	)
	err := row.Scan(&session.ID, &session.OriginalImage, &session.OriginalContentType,
		&processedImage, &processedSize, &processedFormat, &processedQuality,
		&markerImage, &markerQuality, &markerSize, &markerHasVideo, &markerLinks, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session.CreatedAt = time.UnixMilli(createdAt).UTC()

	if processedImage != nil {
		session.Processed = &ProcessedImage{
			Data:    processedImage,
			Size:    int(processedSize.Int64),
			Format:  processedFormat.String,
			Quality: int(processedQuality.Int64),
		}
	}
	if markerImage != nil {
		marker := &Marker{
			Data:     markerImage,
			Quality:  int(markerQuality.Int64),
			Size:     int(markerSize.Int64),
			HasVideo: markerHasVideo.Bool,
		}
		if markerLinks.Valid && markerLinks.String != "" {
			if err := json.Unmarshal([]byte(markerLinks.String), &marker.VideoLinks); err != nil {
				return nil, fmt.Errorf("failed to decode marker video links: %w", err)
			}
		}
		session.Marker = marker
	}
	return &session, nil
}

func (s *SQLiteDatabase) DeleteSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if _, err := tx.Exec("DELETE FROM video_links WHERE session_id = ?", id); err != nil {
		return err
	}
	res, err := tx.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if err := expectAffected(res, ErrSessionNotFound); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteDatabase) SetProcessedImage(id string, processed *ProcessedImage) error {
	if processed == nil {
		return fmt.Errorf("processed image must not be nil")
	}
	res, err := s.db.Exec(`UPDATE sessions SET
		processed_image = ?, processed_size = ?, processed_format = ?, processed_quality = ?,
		marker_image = NULL, marker_quality = NULL, marker_size = NULL, marker_has_video = NULL, marker_links = NULL
		WHERE id = ?`, processed.Data, processed.Size, processed.Format, processed.Quality, id)
	if err != nil {
		return err
	}
	return expectAffected(res, ErrSessionNotFound)
}

func (s *SQLiteDatabase) SetMarker(id string, marker *Marker) error {
	if marker == nil {
		return fmt.Errorf("marker must not be nil")
	}
	links, err := json.Marshal(marker.VideoLinks)
	if err != nil {
		return fmt.Errorf("failed to encode marker video links: %w", err)
	}
	res, err := s.db.Exec(`UPDATE sessions SET
		marker_image = ?, marker_quality = ?, marker_size = ?, marker_has_video = ?, marker_links = ?
		WHERE id = ?`, marker.Data, marker.Quality, marker.Size, marker.HasVideo, string(links), id)
	if err != nil {
		return err
	}
	return expectAffected(res, ErrSessionNotFound)
}

func (s *SQLiteDatabase) CreateVideoLink(sessionID string, link *VideoLink) (*VideoLink, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	if err := tx.QueryRow("SELECT COUNT(1) FROM sessions WHERE id = ?", sessionID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrSessionNotFound
	}

	var lastRank sql.NullString
	if err := tx.QueryRow("SELECT MAX(rank) FROM video_links WHERE session_id = ?", sessionID).Scan(&lastRank); err != nil {
		return nil, err
	}

	created := *link
	created.ID = uuid.NewString()
	created.Rank = Next(lastRank.String)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	created.CreatedAt = created.CreatedAt.Truncate(time.Millisecond)

	_, err = tx.Exec("INSERT INTO video_links (id, session_id, title, url, type, created_at, rank) VALUES (?, ?, ?, ?, ?, ?, ?)",
		created.ID, sessionID, created.Title, created.URL, created.Type, created.CreatedAt.UnixMilli(), created.Rank)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *SQLiteDatabase) UpdateVideoLink(sessionID string, link *VideoLink) error {
	res, err := s.db.Exec("UPDATE video_links SET title = ?, url = ?, type = ? WHERE id = ? AND session_id = ?",
		link.Title, link.URL, link.Type, link.ID, sessionID)
	if err != nil {
		return err
	}
	return expectAffected(res, ErrVideoLinkNotFound)
}

func (s *SQLiteDatabase) DeleteVideoLink(sessionID, linkID string) error {
	res, err := s.db.Exec("DELETE FROM video_links WHERE id = ? AND session_id = ?", linkID, sessionID)
	if err != nil {
		return err
	}
	return expectAffected(res, ErrVideoLinkNotFound)
}

func (s *SQLiteDatabase) GetVideoLinks(sessionID string) ([]*VideoLink, error) {
	rows, err := s.db.Query(
		"SELECT id, title, url, type, created_at, rank FROM video_links WHERE session_id = ? ORDER BY rank ASC, created_at ASC",
		sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	links := make([]*VideoLink, 0)
	for rows.Next() {
		var (
			link      VideoLink
			createdAt int64
		)
		if err := rows.Scan(&link.ID, &link.Title, &link.URL, &link.Type, &createdAt, &link.Rank); err != nil {
			return nil, err
		}
		link.CreatedAt = time.UnixMilli(createdAt).UTC()
		links = append(links, &link)
	}
	return links, rows.Err()
}

func (s *SQLiteDatabase) UpdateVideoLinkRanks(sessionID string, ranks map[string]string) error {
	if len(ranks) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare("UPDATE video_links SET rank = ? WHERE id = ? AND session_id = ?")
	if err != nil {
		return err
	}
	defer func() {
		_ = stmt.Close()
	}()

	for id, rank := range ranks {
		res, err := stmt.Exec(rank, id, sessionID)
		if err != nil {
			return err
		}
		if err := expectAffected(res, ErrVideoLinkNotFound); err != nil {
			return fmt.Errorf("rank update for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
