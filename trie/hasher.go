// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"sync"

	"github.com/memaxo/zephyr/zephyr"
)

// encode buffers live in a global pool.
var encBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 512)
		return &buf
	},
}

// emptyRoot is the digest an empty trie reports through Hash.
var emptyRoot = func() zephyr.Bytes32 {
	var t Trie
	ref := t.alloc(node{})
	return zephyr.Blake2b(t.encodeNode(ref, nil))
}()

// digest returns the node's content digest, computing and caching it on
// first use. Child digests are baked into the encoding, so a cached digest
// commits to the whole subtree.
func (t *Trie) digest(ref nodeRef) zephyr.Bytes32 {
	if n := &t.nodes[ref]; n.hashed {
		return n.hash
	}
	buf := encBufPool.Get().(*[]byte)
	enc := t.encodeNode(ref, (*buf)[:0])
	hash := zephyr.Blake2b(enc)
	*buf = enc[:0]
	encBufPool.Put(buf)

	n := &t.nodes[ref]
	n.hash, n.hashed = hash, true
	return hash
}

// encodeNode appends the canonical encoding of the node to buf:
//
//	seg · value presence (+ value) · child count · (byte, child digest)*
//
// The encoding doubles as the proof element for the node. Signatures are
// deliberately left out so that signing does not shift digests.
func (t *Trie) encodeNode(ref nodeRef, buf []byte) []byte {
	n := &t.nodes[ref]
	buf = vp.AppendString(buf, n.seg)
	if n.value != nil {
		buf = append(buf, 1)
		buf = vp.AppendString(buf, n.value)
	} else {
		buf = append(buf, 0)
	}
	buf = vp.AppendUint32(buf, uint32(len(n.children)))
	for _, c := range n.children {
		buf = append(buf, c.b)
		d := t.digest(c.ref)
		buf = append(buf, d[:]...)
	}
	return buf
}
