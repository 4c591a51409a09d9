// Package ledger implements a single node ledger that executes signed
// transactions against a key/value database.
//
// Each transaction runs inside one database update. The contract works on an
// in-memory overlay of the state which is written back only when the
// transaction is accepted, together with the events it published. A refused
// transaction only consumes the nonce of its identity.
package ledger

import (
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/heirloom"
	"go.dedis.ch/heirloom/core/access"
	"go.dedis.ch/heirloom/core/clock"
	"go.dedis.ch/heirloom/core/events"
	"go.dedis.ch/heirloom/core/execution"
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/core/store/kv"
	"go.dedis.ch/heirloom/core/store/mem"
	"go.dedis.ch/heirloom/core/txn"
	"go.dedis.ch/heirloom/serde"
	sjson "go.dedis.ch/heirloom/serde/json"
	"golang.org/x/xerrors"
)

var (
	stateBucket  = []byte("state")
	nonceBucket  = []byte("nonces")
	metaBucket   = []byte("meta")
	eventsBucket = []byte("events")

	timeKey = []byte("time")
)

var promTxs = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "heirloom_ledger_transactions_total",
	Help: "total number of transactions executed, per result",
}, []string{"result"})

func init() {
	heirloom.PromCollectors = append(heirloom.PromCollectors, promTxs)
}

// Entry is an event committed by the ledger.
type Entry struct {
	Index uint64
	Time  uint64
	TxID  []byte
	Event events.Event
}

// entryJSON is the JSON message of an entry of the event log.
type entryJSON struct {
	Index uint64
	Time  uint64
	TxID  []byte
	Event json.RawMessage
}

// Ledger is a ledger backed by a key/value database. It serializes the
// transactions.
//
// - implements signed.Client
type Ledger struct {
	sync.Mutex

	db      kv.DB
	exec    execution.Service
	clock   clock.Clock
	journal *events.Journal
	sink    events.Publisher
	context serde.Context
}

// Option is the type of option to create a ledger.
type Option func(*Ledger)

// WithClock is an option to set the source of time. The system clock is used
// by default.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithJournal is an option to set the journal the contracts publish their
// events to. The ledger flushes it when a transaction commits and discards it
// otherwise.
func WithJournal(j *events.Journal) Option {
	return func(l *Ledger) {
		l.journal = j
	}
}

// WithSink is an option to set the publisher that receives the events of the
// committed transactions.
func WithSink(p events.Publisher) Option {
	return func(l *Ledger) {
		l.sink = p
	}
}

// WithContext is an option to set the serialization context of the event log.
func WithContext(ctx serde.Context) Option {
	return func(l *Ledger) {
		l.context = ctx
	}
}

// NewLedger creates a new ledger on top of the database.
func NewLedger(db kv.DB, exec execution.Service, opts ...Option) *Ledger {
	l := &Ledger{
		db:      db,
		exec:    exec,
		clock:   clock.System{},
		journal: events.NewJournal(),
		context: sjson.NewContext(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// GetNonce implements signed.Client. It returns the nonce the next transaction
// of the identity must use.
func (l *Ledger) GetNonce(ident access.Identity) (uint64, error) {
	key, err := ident.MarshalText()
	if err != nil {
		return 0, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	var nonce uint64

	err = l.db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(nonceBucket)
		if bucket != nil {
			nonce = decodeUint64(bucket.Get(key))
		}

		return nil
	})

	if err != nil {
		return 0, xerrors.Errorf("failed to read nonce: %v", err)
	}

	return nonce, nil
}

// Time returns the current time of the ledger. It never goes backward even if
// the clock does.
func (l *Ledger) Time() (uint64, error) {
	var now uint64

	err := l.db.View(func(tx kv.ReadableTx) error {
		now = l.timeOf(tx)
		return nil
	})

	if err != nil {
		return 0, xerrors.Errorf("failed to read time: %v", err)
	}

	return now, nil
}

// View runs the function on a read-only view of the contract state, with the
// current time of the ledger.
func (l *Ledger) View(fn func(snap store.Readable, now uint64) error) error {
	return l.db.View(func(tx kv.ReadableTx) error {
		return fn(readableBucket{bucket: tx.GetBucket(stateBucket)}, l.timeOf(tx))
	})
}

// Execute executes the transaction and commits the result. It returns an error
// when the transaction cannot be processed at all, for instance when the nonce
// is wrong, and a refused result when the contract rejected it.
func (l *Ledger) Execute(tx txn.Transaction) (execution.Result, error) {
	l.Lock()
	defer l.Unlock()

	err := tx.Verify()
	if err != nil {
		return execution.Result{}, xerrors.Errorf("invalid transaction: %v", err)
	}

	identKey, err := tx.GetIdentity().MarshalText()
	if err != nil {
		return execution.Result{}, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	var res execution.Result

	err = l.db.Update(func(wtx kv.WritableTx) error {
		nonces, err := wtx.GetBucketOrCreate(nonceBucket)
		if err != nil {
			return xerrors.Errorf("bucket failed: %v", err)
		}

		expected := decodeUint64(nonces.Get(identKey))
		if tx.GetNonce() != expected {
			return xerrors.Errorf("nonce '%d' does not match '%d'", tx.GetNonce(), expected)
		}

		state, err := wtx.GetBucketOrCreate(stateBucket)
		if err != nil {
			return xerrors.Errorf("bucket failed: %v", err)
		}

		now := l.timeOf(wtx)

		overlay := mem.NewSnapshot(readableBucket{bucket: state})

		step := execution.Step{
			Current: tx,
			Time:    now,
		}

		res, err = l.exec.Execute(overlay, step)
		if err != nil {
			return xerrors.Errorf("failed to execute tx: %v", err)
		}

		if res.Accepted {
			err = overlay.Apply(state)
			if err != nil {
				return xerrors.Errorf("failed to apply: %v", err)
			}

			err = l.appendEvents(wtx, tx, now)
			if err != nil {
				return xerrors.Errorf("failed to store events: %v", err)
			}

			wtx.OnCommit(func() {
				l.journal.Flush(l.sink)
			})
		} else {
			l.journal.Discard()
		}

		err = nonces.Set(identKey, encodeUint64(expected+1))
		if err != nil {
			return xerrors.Errorf("failed to write nonce: %v", err)
		}

		meta, err := wtx.GetBucketOrCreate(metaBucket)
		if err != nil {
			return xerrors.Errorf("bucket failed: %v", err)
		}

		err = meta.Set(timeKey, encodeUint64(now))
		if err != nil {
			return xerrors.Errorf("failed to write time: %v", err)
		}

		return nil
	})

	if err != nil {
		l.journal.Discard()

		return execution.Result{}, xerrors.Errorf("failed to commit: %v", err)
	}

	if res.Accepted {
		promTxs.WithLabelValues("accepted").Inc()

		heirloom.Logger.Debug().
			Hex("id", tx.GetID()).
			Uint64("nonce", tx.GetNonce()).
			Msg("transaction accepted")
	} else {
		promTxs.WithLabelValues("refused").Inc()

		heirloom.Logger.Info().
			Hex("id", tx.GetID()).
			Str("reason", res.Message).
			Msg("transaction refused")
	}

	return res, nil
}

// Events returns the event log in the order of the commits.
func (l *Ledger) Events() ([]Entry, error) {
	entries := []Entry{}

	err := l.db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(eventsBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			m := entryJSON{}
			err := l.context.Unmarshal(v, &m)
			if err != nil {
				return xerrors.Errorf("malformed entry: %v", err)
			}

			event, err := events.Factory{}.EventOf(l.context, m.Event)
			if err != nil {
				return xerrors.Errorf("malformed event: %v", err)
			}

			entries = append(entries, Entry{
				Index: m.Index,
				Time:  m.Time,
				TxID:  m.TxID,
				Event: event,
			})

			return nil
		})
	})

	if err != nil {
		return nil, xerrors.Errorf("failed to read events: %v", err)
	}

	return entries, nil
}

func (l *Ledger) appendEvents(wtx kv.WritableTx, tx txn.Transaction, now uint64) error {
	pending := l.journal.Pending()
	if len(pending) == 0 {
		return nil
	}

	bucket, err := wtx.GetBucketOrCreate(eventsBucket)
	if err != nil {
		return xerrors.Errorf("bucket failed: %v", err)
	}

	meta, err := wtx.GetBucketOrCreate(metaBucket)
	if err != nil {
		return xerrors.Errorf("bucket failed: %v", err)
	}

	index := decodeUint64(meta.Get(eventsBucket))

	for _, event := range pending {
		data, err := event.Serialize(l.context)
		if err != nil {
			return xerrors.Errorf("failed to serialize event: %v", err)
		}

		data, err = l.context.Marshal(entryJSON{
			Index: index,
			Time:  now,
			TxID:  tx.GetID(),
			Event: data,
		})
		if err != nil {
			return xerrors.Errorf("failed to marshal entry: %v", err)
		}

		// Big endian keys keep the bucket in the order of the log.
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, index)

		err = bucket.Set(key, data)
		if err != nil {
			return xerrors.Errorf("failed to write event: %v", err)
		}

		index++
	}

	return meta.Set(eventsBucket, encodeUint64(index))
}

// timeOf returns the time of the clock, or the time of the last transaction if
// the clock is behind.
func (l *Ledger) timeOf(tx kv.ReadableTx) uint64 {
	now := l.clock.Now()

	meta := tx.GetBucket(metaBucket)
	if meta == nil {
		return now
	}

	last := decodeUint64(meta.Get(timeKey))
	if last > now {
		return last
	}

	return now
}

func encodeUint64(value uint64) []byte {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, value)

	return buffer
}

func decodeUint64(data []byte) uint64 {
	if len(data) != 8 {
		return 0
	}

	return binary.LittleEndian.Uint64(data)
}

// readableBucket is a readable store of a database bucket. A missing bucket is
// an empty store.
//
// - implements store.Readable
type readableBucket struct {
	bucket kv.Bucket
}

// Get implements store.Readable. It returns a copy of the value as the
// database owns the memory only for the duration of the transaction.
func (r readableBucket) Get(key []byte) ([]byte, error) {
	if r.bucket == nil {
		return nil, nil
	}

	value := r.bucket.Get(key)
	if value == nil {
		return nil, nil
	}

	return append([]byte{}, value...), nil
}
