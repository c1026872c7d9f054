package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"bankreviews/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  inputPath TEXT NOT NULL,
  translator TEXT NOT NULL,
  status TEXT NOT NULL,
  reviews INTEGER NOT NULL DEFAULT 0,
  translated INTEGER NOT NULL DEFAULT 0,
  missing INTEGER NOT NULL DEFAULT 0,
  timingsJson TEXT NOT NULL DEFAULT '{}',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  finishedAt TEXT
);

CREATE TABLE IF NOT EXISTS reviews (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  rowNo INTEGER NOT NULL,
  source TEXT NOT NULL,
  bankLabel TEXT NOT NULL,
  bank TEXT NOT NULL,
  text TEXT NOT NULL,
  textEn TEXT,
  textClean TEXT NOT NULL,
  extraJson TEXT NOT NULL,
  UNIQUE(runId, rowNo),
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_reviews_bank ON reviews(bank);

CREATE TABLE IF NOT EXISTS translations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  source TEXT NOT NULL,
  target TEXT NOT NULL,
  hash TEXT NOT NULL,
  text TEXT NOT NULL,
  translated TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, source, target, hash)
);

CREATE TABLE IF NOT EXISTS bank_labels (
  label TEXT PRIMARY KEY,
  bank TEXT NOT NULL,
  seenCount INTEGER NOT NULL DEFAULT 0,
  lastRunId TEXT,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(run internal.RunRow) error {
	timingsJSON, _ := json.Marshal(run.Timings)
	if run.Timings == nil {
		timingsJSON = []byte("{}")
	}
	_, err := d.conn.Exec(`
INSERT INTO runs (id, inputPath, translator, status, reviews, translated, missing, timingsJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.InputPath, run.Translator, string(run.Status), run.Reviews, run.Translated, run.Missing, string(timingsJSON))
	return err
}

func (d *DB) FinishRun(run internal.RunRow) error {
	timingsJSON, _ := json.Marshal(run.Timings)
	if run.Timings == nil {
		timingsJSON = []byte("{}")
	}
	result, err := d.conn.Exec(`
UPDATE runs SET status = ?, reviews = ?, translated = ?, missing = ?, timingsJson = ?, finishedAt = CURRENT_TIMESTAMP
WHERE id = ?
`, string(run.Status), run.Reviews, run.Translated, run.Missing, string(timingsJSON), run.ID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

func (d *DB) GetRun(id string) (*internal.RunRow, error) {
	var row internal.RunRow
	var status, timingsJSON string
	err := d.conn.QueryRow(`
SELECT id, inputPath, translator, status, reviews, translated, missing, timingsJson, createdAt, finishedAt
FROM runs WHERE id = ?
`, id).Scan(
		&row.ID, &row.InputPath, &row.Translator, &status, &row.Reviews, &row.Translated, &row.Missing, &timingsJSON, &row.CreatedAt, &row.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row.Status = internal.RunStatus(status)
	_ = json.Unmarshal([]byte(timingsJSON), &row.Timings)
	return &row, nil
}

func (d *DB) MustRun(id string) (internal.RunRow, error) {
	row, err := d.GetRun(id)
	if err != nil {
		return internal.RunRow{}, err
	}
	if row == nil {
		return internal.RunRow{}, fmt.Errorf("run not found: %s", id)
	}
	return *row, nil
}

func (d *DB) InsertReviews(runID string, reviews []internal.ProcessedReview) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO reviews (runId, rowNo, source, bankLabel, bank, text, textEn, textClean, extraJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(runId, rowNo) DO UPDATE SET
  source=excluded.source,
  bankLabel=excluded.bankLabel,
  bank=excluded.bank,
  text=excluded.text,
  textEn=excluded.textEn,
  textClean=excluded.textClean,
  extraJson=excluded.extraJson
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range reviews {
		extraJSON, _ := json.Marshal(r.Extra)
		if r.Extra == nil {
			extraJSON = []byte("{}")
		}
		if _, err := stmt.Exec(
			runID, r.Row, string(r.Source), r.BankLabel, r.Bank, r.Text, r.TextEN, r.TextClean, string(extraJSON),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListReviews(runID string) ([]internal.ProcessedReview, error) {
	rows, err := d.conn.Query(`
SELECT rowNo, source, bankLabel, bank, text, textEn, textClean, extraJson
FROM reviews WHERE runId = ? ORDER BY rowNo ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ProcessedReview
	for rows.Next() {
		var r internal.ProcessedReview
		var source, extraJSON string
		if err := rows.Scan(&r.Row, &source, &r.BankLabel, &r.Bank, &r.Text, &r.TextEN, &r.TextClean, &extraJSON); err != nil {
			return nil, err
		}
		r.Source = internal.ReviewSource(source)
		_ = json.Unmarshal([]byte(extraJSON), &r.Extra)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountByBank returns review counts for a run, largest first.
func (d *DB) CountByBank(runID string) ([]internal.BankCount, error) {
	rows, err := d.conn.Query(`
SELECT bank, COUNT(*) FROM reviews WHERE runId = ? GROUP BY bank ORDER BY COUNT(*) DESC, bank ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.BankCount
	for rows.Next() {
		var c internal.BankCount
		if err := rows.Scan(&c.Bank, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertBankLabels records label -> bank assignments; SeenCount is added to
// the stored count.
func (d *DB) UpsertBankLabels(labels []internal.BankLabelRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO bank_labels (label, bank, seenCount, lastRunId) VALUES (?, ?, ?, ?)
ON CONFLICT(label) DO UPDATE SET
  bank=excluded.bank,
  seenCount=bank_labels.seenCount + excluded.seenCount,
  lastRunId=excluded.lastRunId,
  updatedAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range labels {
		if _, err := stmt.Exec(l.Label, l.Bank, l.SeenCount, l.LastRunID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) ListBankLabels() ([]internal.BankLabelRow, error) {
	rows, err := d.conn.Query(`SELECT label, bank, seenCount, COALESCE(lastRunId, '') FROM bank_labels ORDER BY bank ASC, label ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.BankLabelRow
	for rows.Next() {
		var l internal.BankLabelRow
		if err := rows.Scan(&l.Label, &l.Bank, &l.SeenCount, &l.LastRunID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (d *DB) GetTranslation(provider, from, to, text string) (string, bool, error) {
	var translated string
	err := d.conn.QueryRow(`
SELECT translated FROM translations WHERE provider = ? AND source = ? AND target = ? AND hash = ?
`, provider, from, to, textHash(text)).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return translated, true, nil
}

func (d *DB) PutTranslation(provider, from, to, text, translated string) error {
	_, err := d.conn.Exec(`
INSERT INTO translations (provider, source, target, hash, text, translated) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, source, target, hash) DO UPDATE SET translated = excluded.translated
`, provider, from, to, textHash(text), text, translated)
	return err
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
