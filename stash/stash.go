// Package stash archives serialized object streams in a local SQLite
// database. Snapshots are keyed by name, digests are verified on the way
// back out, and Export/Import move snapshots between stashes as CBOR
// envelopes.
package stash

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/objstream"
)

var (
	ErrSnapshotNotFound = errors.New("stash: snapshot not found")
	ErrCorruptSnapshot  = errors.New("stash: snapshot digest mismatch")
)

// Info summarizes one stored snapshot.
type Info struct {
	Name      string
	Format    objstream.Format
	Size      int
	CreatedAt time.Time
}

// Stash is a named snapshot archive backed by one SQLite file. The
// database/sql pool makes it safe for concurrent use.
type Stash struct {
	db *sql.DB
}

// Open opens or creates a stash at path.
func Open(path string) (*Stash, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		format TEXT NOT NULL,
		digest TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Stash{db: db}, nil
}

// Close closes the database connection.
func (s *Stash) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores a snapshot, replacing any existing snapshot of the same name.
func (s *Stash) Put(name string, format objstream.Format, payload []byte) error {
	if name == "" {
		return fmt.Errorf("stash: empty snapshot name")
	}
	digest := sha256.Sum256(payload)
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (name, format, digest, created_at, payload) VALUES (?, ?, ?, ?, ?)",
		name, format.String(), hex.EncodeToString(digest[:]), time.Now().Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Get retrieves a snapshot payload and its format, verifying the stored
// digest first.
func (s *Stash) Get(name string) ([]byte, objstream.Format, error) {
	var formatName, digest string
	var payload []byte
	err := s.db.QueryRow(
		"SELECT format, digest, payload FROM snapshots WHERE name = ?", name,
	).Scan(&formatName, &digest, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
		}
		return nil, 0, fmt.Errorf("querying snapshot: %w", err)
	}

	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != digest {
		return nil, 0, fmt.Errorf("%w: %s", ErrCorruptSnapshot, name)
	}
	format, err := objstream.ParseFormat(formatName)
	if err != nil {
		return nil, 0, fmt.Errorf("snapshot %s: %w", name, err)
	}
	return payload, format, nil
}

// List returns every stored snapshot, ordered by name.
func (s *Stash) List() ([]Info, error) {
	rows, err := s.db.Query(
		"SELECT name, format, length(payload), created_at FROM snapshots ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var formatName string
		var createdAt int64
		if err := rows.Scan(&info.Name, &formatName, &info.Size, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		if info.Format, err = objstream.ParseFormat(formatName); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", info.Name, err)
		}
		info.CreatedAt = time.Unix(createdAt, 0)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a snapshot.
func (s *Stash) Delete(name string) error {
	res, err := s.db.Exec("DELETE FROM snapshots WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	return nil
}

// Export wraps a stored snapshot in a portable envelope.
func (s *Stash) Export(name string) ([]byte, error) {
	var formatName, digest string
	var createdAt int64
	var payload []byte
	err := s.db.QueryRow(
		"SELECT format, digest, created_at, payload FROM snapshots WHERE name = ?", name,
	).Scan(&formatName, &digest, &createdAt, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
		}
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	e := &Envelope{
		Version:   EnvelopeVersion,
		Name:      name,
		Format:    formatName,
		Digest:    sha256.Sum256(payload),
		CreatedAt: createdAt,
		Payload:   payload,
	}
	if hex.EncodeToString(e.Digest[:]) != digest {
		return nil, fmt.Errorf("%w: %s", ErrCorruptSnapshot, name)
	}
	return MarshalEnvelope(e)
}

// Import stores an exported snapshot, preserving its original creation
// time, and returns the snapshot name. An existing snapshot of the same
// name is replaced.
func (s *Stash) Import(data []byte) (string, error) {
	e, err := UnmarshalEnvelope(data)
	if err != nil {
		return "", err
	}
	if e.Name == "" {
		return "", fmt.Errorf("stash: envelope has no snapshot name")
	}
	if sha256.Sum256(e.Payload) != e.Digest {
		return "", fmt.Errorf("%w: %s", ErrCorruptSnapshot, e.Name)
	}
	if _, err := objstream.ParseFormat(e.Format); err != nil {
		return "", fmt.Errorf("envelope %s: %w", e.Name, err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO snapshots (name, format, digest, created_at, payload) VALUES (?, ?, ?, ?, ?)",
		e.Name, e.Format, hex.EncodeToString(e.Digest[:]), e.CreatedAt, e.Payload,
	)
	if err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}
	return e.Name, nil
}
