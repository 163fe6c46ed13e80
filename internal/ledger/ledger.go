// Package ledger is the tamper-evident commitment log: an append-only,
// hash-chained sequence of entries, one per audited (or generated) artifact.
// Each entry hash depends on its predecessor's, so rewriting any past report
// diverges every descendant hash. The ledger does not prevent rewriting; it
// makes it detectable through VerifyChain.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/model"
)

var (
	ErrStorageUnavailable = errors.New("ledger: storage unavailable")
	ErrAppendConflict     = errors.New("ledger: concurrent append conflict")
)

// ZeroHash is the previous-entry hash of the genesis entry.
var ZeroHash = strings.Repeat("0", 64)

// Entry is one committed audit. Entries are never mutated or deleted after
// creation; all fields are scalars so encoding stays deterministic.
type Entry struct {
	Seq        uint64 `json:"seq" gorm:"primaryKey;autoIncrement:false"`
	Kind       string `json:"kind"` // generate | scan
	ReportHash string `json:"reportHash"`
	PrevHash   string `json:"prevHash"`
	EntryHash  string `json:"entryHash"`
	Timestamp  int64  `json:"timestamp"` // unix seconds, UTC
	TxID       string `json:"txId"`
}

func (Entry) TableName() string { return "ledger_entries" }

// ComputeEntryHash is the chain function:
// H(prev | reportHash | kind | unix-seconds).
func ComputeEntryHash(prevHash, reportHash, kind string, ts int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", prevHash, reportHash, kind, ts)))
	return hex.EncodeToString(sum[:])
}

// txID mirrors the network transaction id format for presentation.
func txID(kind, entryHash string) string {
	prefix := "QUBIC-TX-"
	if kind == string(model.OpScan) {
		prefix = "QUBIC-SCAN-TX-"
	}
	return prefix + strings.ToUpper(entryHash[:16])
}

// Store persists entries in sequence order. Implementations must be
// append-only: entries are never updated in place.
type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
}

// Ledger serializes appends over a Store. It is an explicit handle, not
// process-global state, so several ledgers (per tenant, per test) coexist.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	lastHash string
	nextSeq  uint64
}

// Open loads the chain tail from the store so appends continue where the
// persisted sequence left off.
func Open(ctx context.Context, store Store) (*Ledger, error) {
	entries, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	l := &Ledger{store: store, lastHash: ZeroHash, nextSeq: 1}
	if n := len(entries); n > 0 {
		l.lastHash = entries[n-1].EntryHash
		l.nextSeq = entries[n-1].Seq + 1
	}
	return l, nil
}

// Append commits one report hash. The mutex linearizes the read of the
// previous hash with the write of the new entry; on store failure the chain
// state is untouched and no partial entry is visible.
func (l *Ledger) Append(ctx context.Context, reportHash string, kind model.OperationKind, ts time.Time) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := Entry{
		Seq:        l.nextSeq,
		Kind:       string(kind),
		ReportHash: reportHash,
		PrevHash:   l.lastHash,
		Timestamp:  ts.UTC().Unix(),
	}
	e.EntryHash = ComputeEntryHash(e.PrevHash, e.ReportHash, e.Kind, e.Timestamp)
	e.TxID = txID(e.Kind, e.EntryHash)
	if err := l.store.Append(ctx, e); err != nil {
		if errors.Is(err, ErrAppendConflict) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	l.lastHash = e.EntryHash
	l.nextSeq++
	return e, nil
}

type VerificationResult struct {
	Valid                  bool   `json:"valid"`
	Entries                uint64 `json:"entries"`
	FirstDivergentSequence uint64 `json:"firstDivergentSequence,omitempty"`
}

// VerifyChain recomputes every entry hash from its recorded fields over a
// snapshot of the store. It may run concurrently with appends; entries
// committed after the snapshot are simply not covered by this verification.
func (l *Ledger) VerifyChain(ctx context.Context) (VerificationResult, error) {
	entries, err := l.store.List(ctx)
	if err != nil {
		return VerificationResult{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	prev := ZeroHash
	for i, e := range entries {
		seq := uint64(i) + 1
		if e.Seq != seq ||
			e.PrevHash != prev ||
			e.EntryHash != ComputeEntryHash(e.PrevHash, e.ReportHash, e.Kind, e.Timestamp) {
			return VerificationResult{Valid: false, Entries: uint64(len(entries)), FirstDivergentSequence: seq}, nil
		}
		prev = e.EntryHash
	}
	return VerificationResult{Valid: true, Entries: uint64(len(entries))}, nil
}
