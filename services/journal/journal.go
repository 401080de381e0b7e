package journal

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"nirvana/core/center"
	"nirvana/core/events"
)

var (
	// ErrPathRequired is returned when the journal path is missing.
	ErrPathRequired = errors.New("journal: path must be configured")
	// ErrNotFound is returned when no receipt carries the requested id.
	ErrNotFound = errors.New("journal: receipt not found")
	// ErrDigestMismatch is returned when a stored receipt no longer matches
	// its digest.
	ErrDigestMismatch = errors.New("journal: digest mismatch")
)

const schema = `
CREATE TABLE IF NOT EXISTS receipts (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	op          TEXT NOT NULL,
	owner       TEXT NOT NULL,
	op_time     INTEGER NOT NULL,
	digest      TEXT NOT NULL,
	payload     TEXT NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS receipts_owner ON receipts(owner);
CREATE TABLE IF NOT EXISTS events (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	type        TEXT NOT NULL,
	attributes  TEXT NOT NULL,
	recorded_at INTEGER NOT NULL
);
`

// Journal is an append-only sqlite record of committed receipts and the
// events emitted alongside them.
type Journal struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
	nowFn  func() time.Time
}

// Open initialises the journal using a sqlite DSN.
func Open(path string) (*Journal, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, ErrPathRequired
	}
	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps ":memory:"
	// databases shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Journal{db: db, logger: slog.Default(), nowFn: time.Now}, nil
}

// SetLogger overrides the logger used for emit failures.
func (j *Journal) SetLogger(logger *slog.Logger) {
	if j == nil || logger == nil {
		return
	}
	j.logger = logger
}

// Close releases database resources.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Transfer is the journal form of a receipt transfer.
type Transfer struct {
	Kind   string `json:"kind"`
	Asset  string `json:"asset"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Amount string `json:"amount"`
}

// Entry is a stored receipt.
type Entry struct {
	Seq        int64      `json:"seq"`
	ID         string     `json:"id"`
	Op         string     `json:"op"`
	Owner      string     `json:"owner"`
	Time       uint64     `json:"time"`
	Digest     string     `json:"digest"`
	Transfers  []Transfer `json:"transfers"`
	RecordedAt time.Time  `json:"recordedAt"`
}

type payload struct {
	ID        string     `json:"id"`
	Op        string     `json:"op"`
	Owner     string     `json:"owner"`
	Time      uint64     `json:"time"`
	Transfers []Transfer `json:"transfers"`
}

func encodeReceipt(receipt *center.Receipt) ([]byte, string, error) {
	p := payload{
		ID:        receipt.ID,
		Op:        receipt.Op,
		Owner:     receipt.Owner.Hex(),
		Time:      receipt.Time,
		Transfers: make([]Transfer, 0, len(receipt.Transfers)),
	}
	for _, t := range receipt.Transfers {
		p.Transfers = append(p.Transfers, Transfer{
			Kind:   string(t.Kind),
			Asset:  string(t.Asset),
			From:   string(t.From),
			To:     string(t.To),
			Amount: t.Amount.String(),
		})
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, "", err
	}
	return raw, digest(raw), nil
}

func digest(raw []byte) string {
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// RecordReceipt appends a committed receipt. Receipts are keyed by id, so
// recording the same receipt twice fails.
func (j *Journal) RecordReceipt(ctx context.Context, receipt *center.Receipt) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("journal not configured")
	}
	if receipt == nil {
		return nil
	}
	raw, sum, err := encodeReceipt(receipt)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.db.ExecContext(ctx, `
        INSERT INTO receipts(id, op, owner, op_time, digest, payload, recorded_at)
        VALUES(?, ?, ?, ?, ?, ?, ?)
    `, receipt.ID, receipt.Op, receipt.Owner.Hex(), int64(receipt.Time), sum, string(raw), j.nowFn().Unix())
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

// Emit implements events.Emitter. Events that can be flattened are stored;
// failures are logged since emitters cannot return errors.
func (j *Journal) Emit(evt events.Event) {
	if j == nil || j.db == nil || evt == nil {
		return
	}
	recordable, ok := evt.(events.Recordable)
	if !ok {
		return
	}
	record := recordable.Event()
	if record == nil {
		return
	}
	if err := j.recordEvent(context.Background(), record); err != nil {
		j.logger.Warn("journal event dropped", slog.String("type", record.Type), slog.Any("error", err))
	}
}

func (j *Journal) recordEvent(ctx context.Context, record *events.Record) error {
	attrs, err := json.Marshal(record.Attributes)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.db.ExecContext(ctx, `
        INSERT INTO events(id, type, attributes, recorded_at)
        VALUES(?, ?, ?, ?)
    `, uuid.NewString(), record.Type, string(attrs), j.nowFn().Unix())
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Receipt loads a receipt by id and checks its digest.
func (j *Journal) Receipt(ctx context.Context, id string) (*Entry, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("journal not configured")
	}
	row := j.db.QueryRowContext(ctx, `
        SELECT seq, id, op, owner, op_time, digest, payload, recorded_at
        FROM receipts
        WHERE id = ?
    `, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return entry, err
}

// Recent returns the latest receipts, newest first. An owner filters to one
// participant.
func (j *Journal) Recent(ctx context.Context, owner string, limit int) ([]*Entry, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("journal not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT seq, id, op, owner, op_time, digest, payload, recorded_at
        FROM receipts`
	args := []any{}
	if owner = strings.TrimSpace(owner); owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()
	var out []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// EventCount returns the number of stored events of the given type.
func (j *Journal) EventCount(ctx context.Context, eventType string) (int64, error) {
	var n int64
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE type = ?`, eventType).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		entry    Entry
		opTime   int64
		raw      string
		recorded int64
	)
	if err := row.Scan(&entry.Seq, &entry.ID, &entry.Op, &entry.Owner, &opTime, &entry.Digest, &raw, &recorded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan receipt: %w", err)
	}
	if digest([]byte(raw)) != entry.Digest {
		return nil, fmt.Errorf("%w: receipt %s", ErrDigestMismatch, entry.ID)
	}
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode receipt %s: %w", entry.ID, err)
	}
	entry.Time = uint64(opTime)
	entry.Transfers = p.Transfers
	entry.RecordedAt = time.Unix(recorded, 0).UTC()
	return &entry, nil
}
