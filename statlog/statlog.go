// Package statlog persists periodic socket-table snapshots to an embedded
// badger key-value store, giving operators a queryable history of
// connection counts and per-socket sequence state beyond what PrintStats's
// live text dump offers.
package statlog

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/dogukanarat/danp/log"
)

// Entry is one socket's state at the moment a snapshot was recorded.
type Entry struct {
	Port       uint16
	Type       string
	State      string
	RemoteNode uint16
	RemotePort uint16
	TxSeq      uint8
	RxSeq      uint8
}

// Journal appends Entry snapshots keyed by a monotonically increasing
// sequence number, backed by a badger database rooted at dir.
type Journal struct {
	db  *badger.DB
	seq uint64
}

// Open opens (creating if absent) the badger database at dir.
func Open(dir string) (*Journal, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("danp: open statlog at %s: %w", dir, err)
	}
	j := &Journal{db: db}
	// Resume the sequence after the newest key already stored.
	_ = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Seek([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
		if it.Valid() && len(it.Item().Key()) >= 8 {
			j.seq = binary.BigEndian.Uint64(it.Item().Key()[:8])
		}
		return nil
	})
	return j, nil
}

// Close flushes and closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Record appends one snapshot batch under a fresh sequence key.
func (j *Journal) Record(entries []Entry) error {
	j.seq++
	key := seqKey(j.seq)

	return j.db.Update(func(txn *badger.Txn) error {
		for i, e := range entries {
			val := encodeEntry(e)
			itemKey := append(append([]byte{}, key...), byte(i))
			if err := txn.Set(itemKey, val); err != nil {
				return err
			}
		}
		return nil
	})
}

func encodeEntry(e Entry) []byte {
	b := make([]byte, 0, 16+len(e.Type)+len(e.State))
	b = binary.BigEndian.AppendUint16(b, e.Port)
	b = binary.BigEndian.AppendUint16(b, e.RemoteNode)
	b = binary.BigEndian.AppendUint16(b, e.RemotePort)
	b = append(b, e.TxSeq, e.RxSeq)
	b = append(b, byte(len(e.Type)))
	b = append(b, e.Type...)
	b = append(b, byte(len(e.State)))
	b = append(b, e.State...)
	return b
}

func decodeEntry(b []byte) (Entry, error) {
	var e Entry
	if len(b) < 9 {
		return e, fmt.Errorf("danp: statlog entry too short")
	}
	e.Port = binary.BigEndian.Uint16(b[0:2])
	e.RemoteNode = binary.BigEndian.Uint16(b[2:4])
	e.RemotePort = binary.BigEndian.Uint16(b[4:6])
	e.TxSeq, e.RxSeq = b[6], b[7]
	off := 8
	tlen := int(b[off])
	off++
	e.Type = string(b[off : off+tlen])
	off += tlen
	slen := int(b[off])
	off++
	e.State = string(b[off : off+slen])
	return e, nil
}

// Recent returns up to limit of the most recently recorded entries, newest
// first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	var out []Entry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}); it.Valid() && len(out) < limit; it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				e, err := decodeEntry(val)
				if err != nil {
					log.Warn("skipping corrupt statlog entry", "err", err)
					return nil
				}
				out = append(out, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}
