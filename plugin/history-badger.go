package plugin

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	St "github.com/maroda/scrollplot/types"
)

const keyTimeLen = 8

type BadgerStore struct {
	MU        sync.Mutex
	DB        *badger.DB
	BatchSize int
	Buffer    []St.SeriesPoint
}

func NewBadgerStore(path string, batchSize int) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerStore failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerStore opened",
		slog.String("path", path),
		slog.Int("batchSize", batchSize))

	return NewBadgerStoreWithDB(db, batchSize), nil
}

// NewBadgerStoreWithDB wraps an already open database,
// tests use this with an in-memory instance
func NewBadgerStoreWithDB(db *badger.DB, batchSize int) *BadgerStore {
	return &BadgerStore{
		DB:        db,
		BatchSize: max(batchSize, 1),
		Buffer:    make([]St.SeriesPoint, 0, batchSize),
	}
}

// WritePoint queues up a point,
// when batchsize is reached the buffer goes to WriteBatch
func (bs *BadgerStore) WritePoint(p St.SeriesPoint) error {
	bs.MU.Lock()
	defer bs.MU.Unlock()

	bs.Buffer = append(bs.Buffer, p)
	if len(bs.Buffer) >= bs.BatchSize {
		return bs.flushLocked()
	}
	return nil
}

// WriteBatch creates the keys and values and writes them in one badger batch
func (bs *BadgerStore) WriteBatch(points []St.SeriesPoint) error {
	wb := bs.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, p := range points {
		if err := wb.Set(PointKey(p), PointEncode(p)); err != nil {
			slog.Error("BadgerStore failed to set key in batch",
				slog.Any("error", err),
				slog.Int64("timestamp", p.Timestamp),
				slog.String("series", p.Series))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerStore failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}

	return nil
}

// Flush sends whatever is buffered to WriteBatch and clears the buffer
func (bs *BadgerStore) Flush() error {
	bs.MU.Lock()
	defer bs.MU.Unlock()
	return bs.flushLocked()
}

func (bs *BadgerStore) flushLocked() error {
	if len(bs.Buffer) == 0 {
		return nil
	}
	err := bs.WriteBatch(bs.Buffer)
	bs.Buffer = bs.Buffer[:0] // Clear but keep capacity
	return err
}

// Close returns a Flush error but still attempts to close
func (bs *BadgerStore) Close() error {
	slog.Info("BadgerStore closing, flushing buffer",
		slog.Int("bufferSize", len(bs.Buffer)))
	flushErr := bs.Flush()
	closeErr := bs.DB.Close()

	if flushErr != nil {
		slog.Error("BadgerStore failed to flush on close", slog.Any("error", flushErr))
		return fmt.Errorf("flush failed, close may have failed: %w", flushErr)
	}

	if closeErr != nil {
		slog.Error("BadgerStore failed to close database", slog.Any("error", closeErr))
		return fmt.Errorf("close failed: %w", closeErr)
	}

	slog.Info("BadgerStore closed successfully")
	return nil
}

func (bs *BadgerStore) Type() string { return "BadgerDB" }

// PointKey is the big-endian timestamp followed by the series name.
// Flipping the sign bit keeps negative timestamps in order, so badger
// iterates keys chronologically.
func PointKey(p St.SeriesPoint) []byte {
	key := make([]byte, keyTimeLen+len(p.Series))
	putTime(key, p.Timestamp)
	copy(key[keyTimeLen:], p.Series)
	return key
}

func putTime(key []byte, ts int64) {
	binary.BigEndian.PutUint64(key[:keyTimeLen], uint64(ts)^(1<<63))
}

// KeyTime reads the timestamp back out of a key
func KeyTime(key []byte) int64 {
	return int64(binary.BigEndian.Uint64(key[:keyTimeLen]) ^ (1 << 63))
}

// PointEncode serializes a point for storage
func PointEncode(p St.SeriesPoint) []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(p); err != nil {
		slog.Error("BadgerStore failed to encode point", slog.Any("error", err))
	}
	return buf.Bytes()
}

// PointDecode deserializes stored point data
func PointDecode(data []byte) (St.SeriesPoint, error) {
	var p St.SeriesPoint
	dec := gob.NewDecoder(bytes.NewBuffer(data))
	err := dec.Decode(&p)
	return p, err
}

// QueryRange retrieves points with start <= timestamp <= end.
// The iterator seeks straight to start and stops at the first key past end.
func (bs *BadgerStore) QueryRange(start, end int64) ([]St.SeriesPoint, error) {
	var points []St.SeriesPoint

	seek := make([]byte, keyTimeLen)
	putTime(seek, start)

	err := bs.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(seek); it.Valid(); it.Next() {
			item := it.Item()
			if KeyTime(item.Key()) > end {
				break
			}

			err := item.Value(func(val []byte) error {
				p, err := PointDecode(val)
				if err != nil {
					slog.Error("BadgerStore failed to decode point", slog.Any("error", err))
					return fmt.Errorf("point decode error: %w", err)
				}
				points = append(points, p)
				return nil
			})
			if err != nil {
				slog.Error("BadgerStore callback failure", slog.Any("error", err))
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})

	slog.Debug("BadgerStore QueryRange",
		slog.Int64("start", start),
		slog.Int64("end", end),
		slog.Int("count", len(points)))

	return points, err
}
