// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket provides a logical key namespace within a kv store.
//
// Storage-versioned entity collections each live in their own bucket,
// e.g. "Users1". A bucket's name, once released, is never reused for a
// collection with a different key or payload shape; shape changes get a
// new bucket with a bumped version suffix instead.
type Bucket string

// ProtoKey returns the full underlying key for the given logical key.
func (b Bucket) ProtoKey(key []byte) []byte {
	return append([]byte(b), key...)
}

// NewStore creates a bucket store upon the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

type bucketStore struct {
	b   Bucket
	src Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) {
	return s.src.Get(s.b.ProtoKey(key))
}

func (s *bucketStore) Has(key []byte) (bool, error) {
	return s.src.Has(s.b.ProtoKey(key))
}

func (s *bucketStore) IsNotFound(err error) bool {
	return s.src.IsNotFound(err)
}

func (s *bucketStore) Put(key, value []byte) error {
	return s.src.Put(s.b.ProtoKey(key), value)
}

func (s *bucketStore) Delete(key []byte) error {
	return s.src.Delete(s.b.ProtoKey(key))
}

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s.b, s.src.NewBatch()}
}

func (s *bucketStore) NewIterator(r Range) Iterator {
	from := s.b.ProtoKey(r.From)
	var to []byte
	if len(r.To) == 0 {
		to = util.BytesPrefix([]byte(s.b)).Limit
	} else {
		to = s.b.ProtoKey(r.To)
	}
	return &bucketIterator{s.b, s.src.NewIterator(Range{From: from, To: to})}
}

type bucketBatch struct {
	b     Bucket
	batch Batch
}

func (b *bucketBatch) Put(key, value []byte) error {
	return b.batch.Put(b.b.ProtoKey(key), value)
}

func (b *bucketBatch) Delete(key []byte) error {
	return b.batch.Delete(b.b.ProtoKey(key))
}

func (b *bucketBatch) Len() int { return b.batch.Len() }

func (b *bucketBatch) Write() error { return b.batch.Write() }

type bucketIterator struct {
	b    Bucket
	iter Iterator
}

func (i *bucketIterator) Next() bool    { return i.iter.Next() }
func (i *bucketIterator) Release()      { i.iter.Release() }
func (i *bucketIterator) Error() error  { return i.iter.Error() }
func (i *bucketIterator) Value() []byte { return i.iter.Value() }

// Key strips the bucket prefix.
func (i *bucketIterator) Key() []byte {
	return i.iter.Key()[len(i.b):]
}
