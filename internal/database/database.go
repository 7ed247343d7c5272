package database

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

func Open(databaseFile string) error {
	db, err := sql.Open("sqlite3", databaseFile+"?_journal_mode=WAL")
	if err != nil {
		return err
	}

	DB = db
	return nil
}

func CreateTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS downloads (
			url TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			subreddit TEXT,
			post_name TEXT,
			run_id TEXT,
			downloaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := DB.Exec(query)
	return err
}

func Close() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			slog.Error("Error closing database",
				"Error", err.Error())
		} else {
			slog.Debug("Database closed")
		}
		DB = nil
	}
}

// Download is one row of the history ledger.
type Download struct {
	URL       string
	Path      string
	Subreddit string
	PostName  string
	RunID     string
}

// SaveDownload records where a media URL was stored. Without an open
// database it does nothing.
func SaveDownload(download Download) error {
	if DB == nil {
		return nil
	}

	query := `
		INSERT INTO downloads (url, path, subreddit, post_name, run_id, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			path = excluded.path,
			run_id = excluded.run_id,
			downloaded_at = excluded.downloaded_at;
	`
	_, err := DB.Exec(query,
		download.URL,
		download.Path,
		download.Subreddit,
		download.PostName,
		download.RunID,
		time.Now().UTC())
	return err
}

// DownloadedPath returns the stored path of url, or an empty string when it
// was never recorded.
func DownloadedPath(url string) (string, error) {
	if DB == nil {
		return "", nil
	}

	var path string
	err := DB.QueryRow("SELECT path FROM downloads WHERE url = ?;", url).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return path, err
}

// CountRun returns how many rows a run produced.
func CountRun(runID string) (int, error) {
	if DB == nil {
		return 0, nil
	}

	var count int
	err := DB.QueryRow("SELECT COUNT(*) FROM downloads WHERE run_id = ?;", runID).Scan(&count)
	return count, err
}
