// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/kv"
	"github.com/memaxo/zephyr/state"
	"github.com/memaxo/zephyr/zephyr"
)

const (
	blockBucket kv.Bucket = "chain.blk"   // block blobs keyed by block hash
	indexBucket kv.Bucket = "chain.idx"   // big endian height -> block hash
	propBucket  kv.Bucket = "chain.props" // named chain properties
	snapBucket  kv.Bucket = "chain.snap"  // state/trie snapshot blobs
)

var (
	latestHeightKey = []byte("latest-height")
	baseHeightKey   = []byte("base-height")
	stateSnapKey    = []byte("state")
	trieSnapKey     = []byte("state-trie")
)

func saveRLP(w kv.Putter, key []byte, val any) error {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return w.Put(key, data)
}

func loadRLP(r kv.Getter, key []byte, val any) error {
	data, err := r.Get(key)
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(data, val)
}

func heightKey(height uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], height)
	return key[:]
}

func saveBlock(w kv.Putter, b *block.Block) error {
	hash := b.Hash()
	if err := saveRLP(blockBucket.NewPutter(w), hash[:], b); err != nil {
		return err
	}
	return indexBucket.NewPutter(w).Put(heightKey(b.Header().Height()), hash[:])
}

func deleteBlock(w kv.Putter, hash zephyr.Bytes32, height uint64) error {
	if err := blockBucket.NewPutter(w).Delete(hash[:]); err != nil {
		return err
	}
	return indexBucket.NewPutter(w).Delete(heightKey(height))
}

func loadBlock(r kv.Getter, hash zephyr.Bytes32) (*block.Block, error) {
	var b block.Block
	if err := loadRLP(blockBucket.NewGetter(r), hash[:], &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func loadBlockHash(r kv.Getter, height uint64) (zephyr.Bytes32, error) {
	data, err := indexBucket.NewGetter(r).Get(heightKey(height))
	if err != nil {
		return zephyr.Bytes32{}, err
	}
	return zephyr.BytesToBytes32(data), nil
}

func saveHeightProp(w kv.Putter, key []byte, height uint64) error {
	return propBucket.NewPutter(w).Put(key, heightKey(height))
}

func loadHeightProp(r kv.Getter, key []byte) (uint64, error) {
	data, err := propBucket.NewGetter(r).Get(key)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, errors.New("malformed height property")
	}
	return binary.BigEndian.Uint64(data), nil
}

// saveSnapshot persists the two state snapshot blobs, snappy compressed.
func saveSnapshot(w kv.Putter, st *state.State) error {
	accounts, err := st.Serialize()
	if err != nil {
		return err
	}
	put := snapBucket.NewPutter(w)
	if err := put.Put(stateSnapKey, snappy.Encode(nil, accounts)); err != nil {
		return err
	}
	return put.Put(trieSnapKey, snappy.Encode(nil, st.SerializeTrie()))
}

// RestoreState rebuilds the account state from the persisted snapshot
// blobs. It reports false when no snapshot has been written yet.
func RestoreState(store kv.Store) (*state.State, bool, error) {
	get := snapBucket.NewGetter(store)

	accounts, err := get.Get(stateSnapKey)
	if err != nil {
		if get.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "read state snapshot")
	}
	trieBlob, err := get.Get(trieSnapKey)
	if err != nil {
		if get.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "read trie snapshot")
	}

	accounts, err = snappy.Decode(nil, accounts)
	if err != nil {
		return nil, false, errors.Wrap(err, "decompress state snapshot")
	}
	trieBlob, err = snappy.Decode(nil, trieBlob)
	if err != nil {
		return nil, false, errors.Wrap(err, "decompress trie snapshot")
	}

	st, err := state.Restore(store, accounts, trieBlob)
	if err != nil {
		return nil, false, err
	}
	return st, true, nil
}
