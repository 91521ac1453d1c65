package env

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// historyEnvVar overrides the default ~/.sona_history.db path.
const historyEnvVar = "SONA_HISTORY_PATH"

// History persists every REPL line and its outcome to a local sqlite
// database, tagged with a fresh session id per process so lines from
// concurrent sessions never interleave under the same key.
type History struct {
	db      *sql.DB
	session string
	seq     int64
}

// OpenHistory opens (creating if absent) the history database at
// SONA_HISTORY_PATH, or ~/.sona_history.db if unset. A failure here is
// never fatal to the REPL; callers fall back to a nil *History, which
// every method below treats as a no-op.
func OpenHistory() (*History, error) {
	path, err := historyPath()
	if err != nil {
		return nil, errors.Wrap(err, "resolve history path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open history db %s", path)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS history (
	session TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	kind    TEXT NOT NULL,
	text    TEXT NOT NULL,
	at      TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create history schema")
	}
	return &History{db: db, session: uuid.NewString()}, nil
}

func historyPath() (string, error) {
	if p := os.Getenv(historyEnvVar); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sona_history.db"), nil
}

// Kind distinguishes a recorded line's role for later replay/inspection.
type Kind string

const (
	KindInput  Kind = "input"
	KindOutput Kind = "output"
	KindError  Kind = "error"
)

// Record appends one line to this session's history. It is best-effort:
// a write failure is reported to the caller but never interrupts the
// REPL loop that called it.
func (h *History) Record(kind Kind, text string) error {
	if h == nil {
		return nil
	}
	h.seq++
	_, err := h.db.Exec(
		`INSERT INTO history (session, seq, kind, text, at) VALUES (?, ?, ?, ?, ?)`,
		h.session, h.seq, string(kind), text, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrap(err, "record history")
	}
	return nil
}

// Recent returns up to n of this session's most recent input lines, in
// the order they were entered. The REPL does not call it; it has no
// line recall.
func (h *History) Recent(n int) ([]string, error) {
	if h == nil {
		return nil, nil
	}
	rows, err := h.db.Query(
		`SELECT text FROM history WHERE session = ? AND kind = ? ORDER BY seq DESC LIMIT ?`,
		h.session, string(KindInput), n,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, errors.Wrap(err, "scan history row")
		}
		out = append(out, text)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (h *History) Close() error {
	if h == nil {
		return nil
	}
	return h.db.Close()
}

func (h *History) String() string {
	if h == nil {
		return "<no history>"
	}
	return fmt.Sprintf("<history session=%s>", h.session)
}
