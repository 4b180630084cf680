package cart

import (
	"database/sql"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStorage persists cart state in a single key-value table. One row
// per visitor cart; the value is the serialized cart JSON.
type SQLiteStorage struct {
	DB *sql.DB
}

func NewSQLiteStorage(dataSourceName string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStorage{DB: db}
	if err := s.InitSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS carts (
		cart_key   TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.DB.Exec(query)
	return err
}

func (s *SQLiteStorage) Read(key string) (string, bool, error) {
	var data string
	err := s.DB.QueryRow(`SELECT data FROM carts WHERE cart_key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return data, true, nil
}

func (s *SQLiteStorage) Write(key, value string) error {
	query := `
		INSERT INTO carts (cart_key, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(cart_key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.DB.Exec(query, key, value)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.DB.Close()
}
