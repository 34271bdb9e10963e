// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/zephyr"
)

// Prove collects the canonical encodings of the nodes on the path from the
// root towards key, terminal node included. The walk stops at the first
// missing node, so a proof for an absent key covers only the existing
// prefix. Returns false for an empty trie.
func (t *Trie) Prove(key []byte) ([][]byte, bool) {
	if t.root == nilRef {
		return nil, false
	}
	proof := make([][]byte, 0, len(key)+1)
	ref := t.root
	for depth := 0; ; depth++ {
		proof = append(proof, t.encodeNode(ref, nil))
		if depth == len(key) {
			return proof, true
		}
		if ref = t.nodes[ref].child(key[depth]); ref == nilRef {
			return proof, true
		}
	}
}

// VerifyProof checks that proof binds (key, value) to root: the first
// element must digest to root, each element's digest must appear in its
// parent's child table under the right key byte, and the last element must
// carry value at the key's terminal depth.
func VerifyProof(root zephyr.Bytes32, key, value []byte, proof [][]byte) bool {
	if len(proof) != len(key)+1 {
		return false
	}
	want := root
	for depth, blob := range proof {
		if zephyr.Blake2b(blob) != want {
			return false
		}
		n, err := decodeProofNode(blob)
		if err != nil {
			return false
		}
		if depth == 0 {
			if len(n.seg) != 0 {
				return false
			}
		} else if len(n.seg) != 1 || n.seg[0] != key[depth-1] {
			return false
		}
		if depth == len(key) {
			return n.hasValue && bytes.Equal(n.value, value)
		}
		next, ok := n.childDigest(key[depth])
		if !ok {
			return false
		}
		want = next
	}
	return false
}

type proofChild struct {
	b      byte
	digest zephyr.Bytes32
}

type proofNode struct {
	seg      []byte
	value    []byte
	hasValue bool
	children []proofChild
}

func (n *proofNode) childDigest(b byte) (zephyr.Bytes32, bool) {
	for _, c := range n.children {
		if c.b == b {
			return c.digest, true
		}
	}
	return zephyr.Bytes32{}, false
}

// decodeProofNode parses a canonical node encoding, rejecting trailing
// bytes and out-of-order child tables.
func decodeProofNode(blob []byte) (*proofNode, error) {
	var (
		n   proofNode
		err error
	)
	if n.seg, blob, err = vp.SplitString(blob); err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, errors.New("truncated node")
	}
	switch blob[0] {
	case 0:
		blob = blob[1:]
	case 1:
		if n.value, blob, err = vp.SplitString(blob[1:]); err != nil {
			return nil, err
		}
		n.hasValue = true
	default:
		return nil, errors.New("invalid value marker")
	}
	count, blob, err := vp.SplitUint32(blob)
	if err != nil {
		return nil, err
	}
	if count > 256 {
		return nil, errors.New("invalid child count")
	}
	n.children = make([]proofChild, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(blob) < 33 {
			return nil, errors.New("truncated child entry")
		}
		c := proofChild{b: blob[0], digest: zephyr.BytesToBytes32(blob[1:33])}
		if i > 0 && c.b <= n.children[i-1].b {
			return nil, errors.New("unordered child table")
		}
		n.children = append(n.children, c)
		blob = blob[33:]
	}
	if len(blob) != 0 {
		return nil, errors.New("trailing bytes")
	}
	return &n, nil
}
