package camsnap

import (
	"crypto/sha1"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Capture is a single frame persisted to the store.
type Capture struct {
	Seq      int
	Filename string
	Width    int
	Height   int
	Size     int
	SHA1     string
	Taken    time.Time
}

// Catalog records every capture written to the store.
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens, or creates, the catalog database in file.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS capture (id INTEGER PRIMARY KEY NOT NULL, seq INTEGER NOT NULL UNIQUE, filename TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, size INTEGER NOT NULL, sha1 TEXT NOT NULL, taken INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func checksum(b []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(b))
}

// Add records a capture, replacing any previous capture with the same
// sequence number.
func (c *Catalog) Add(capture Capture) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO capture (seq, filename, width, height, size, sha1, taken) VALUES (?, ?, ?, ?, ?, ?, ?)", capture.Seq, capture.Filename, capture.Width, capture.Height, capture.Size, capture.SHA1, capture.Taken.UnixNano()); err != nil {
		return err
	}
	return nil
}

// NextSequence returns one past the highest recorded sequence number.
func (c *Catalog) NextSequence() (int, error) {
	var seq sql.NullInt64
	if err := c.db.QueryRow("SELECT MAX(seq) FROM capture").Scan(&seq); err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil
	}
	return int(seq.Int64) + 1, nil
}

func scanCapture(scan func(...interface{}) error) (Capture, error) {
	var capture Capture
	var taken int64
	if err := scan(&capture.Seq, &capture.Filename, &capture.Width, &capture.Height, &capture.Size, &capture.SHA1, &taken); err != nil {
		return Capture{}, err
	}
	capture.Taken = time.Unix(0, taken)
	return capture, nil
}

// List returns all captures ordered by sequence number.
func (c *Catalog) List() ([]Capture, error) {
	rows, err := c.db.Query("SELECT seq, filename, width, height, size, sha1, taken FROM capture ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		capture, err := scanCapture(rows.Scan)
		if err != nil {
			return nil, err
		}
		captures = append(captures, capture)
	}

	return captures, rows.Err()
}

// FindBySHA1 returns the first capture with the given checksum, or nil if
// there isn't one.
func (c *Catalog) FindBySHA1(sha string) (*Capture, error) {
	capture, err := scanCapture(c.db.QueryRow("SELECT seq, filename, width, height, size, sha1, taken FROM capture WHERE sha1 = ? ORDER BY seq LIMIT 1", sha).Scan)
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &capture, nil
	default:
		return nil, err
	}
}
