// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package trie implements a byte-keyed Merkle trie backed by an arena of
// immutable nodes.
//
// Every key byte owns one node level, so a key of n bytes terminates at
// depth n. Structural updates copy the nodes along the modified path into
// fresh arena slots and leave every previously allocated slot untouched,
// which makes any root obtained earlier a stable read-only snapshot.
//
// The trie is not safe for concurrent use. Callers guard it with their own
// synchronization, typically the state store's commit lock.
package trie

import (
	"crypto/ecdsa"
	"errors"

	"github.com/memaxo/zephyr/cry"
	"github.com/memaxo/zephyr/zephyr"
)

// ErrNotFound is returned when removing a key the trie does not hold.
var ErrNotFound = errors.New("trie: key not found")

// Root identifies a committed root inside the arena. The zero Root is the
// empty trie. A Root stays valid for the lifetime of the trie it came from.
type Root uint32

// Trie is the mutable facade over the node arena. The zero value is an
// empty trie ready for use.
type Trie struct {
	nodes []node
	root  nodeRef
}

// New creates an empty trie.
func New() *Trie {
	return &Trie{}
}

func (t *Trie) alloc(n node) nodeRef {
	if len(t.nodes) == 0 {
		// slot 0 is the nil sentinel
		t.nodes = make([]node, 1, 16)
	}
	t.nodes = append(t.nodes, n)
	return nodeRef(len(t.nodes) - 1)
}

// Insert sets the value for key, overwriting any previous value. It walks
// one node per key byte, allocating missing path nodes as it goes.
func (t *Trie) Insert(key, value []byte) {
	t.root = t.insert(t.root, key, value, 0)
}

func (t *Trie) insert(ref nodeRef, key, value []byte, depth int) nodeRef {
	var n node
	if ref != nilRef {
		n = t.nodes[ref]
	} else if depth > 0 {
		n.seg = []byte{key[depth-1]}
	}
	// content changes; fresh digest, no inherited authentication
	n.hash, n.hashed, n.sig = zephyr.Bytes32{}, false, nil

	if depth == len(key) {
		v := make([]byte, len(value))
		copy(v, value)
		n.value = v
	} else {
		b := key[depth]
		n.setChild(b, t.insert(n.child(b), key, value, depth+1))
	}
	return t.alloc(n)
}

// Get returns the value stored for key. The returned slice must not be
// modified by the caller.
func (t *Trie) Get(key []byte) ([]byte, bool) {
	return t.lookup(t.root, key)
}

// GetAt is Get against an earlier root obtained from RootRef.
func (t *Trie) GetAt(root Root, key []byte) ([]byte, bool) {
	return t.lookup(nodeRef(root), key)
}

func (t *Trie) lookup(ref nodeRef, key []byte) ([]byte, bool) {
	for depth := 0; ; depth++ {
		if ref == nilRef {
			return nil, false
		}
		n := &t.nodes[ref]
		if depth == len(key) {
			if n.value == nil {
				return nil, false
			}
			return n.value, true
		}
		ref = n.child(key[depth])
	}
}

// Remove clears the value for key and prunes any node left with neither
// value nor children, bottom-up along the path.
func (t *Trie) Remove(key []byte) error {
	root, err := t.remove(t.root, key, 0)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *Trie) remove(ref nodeRef, key []byte, depth int) (nodeRef, error) {
	if ref == nilRef {
		return nilRef, ErrNotFound
	}
	n := t.nodes[ref]
	if depth == len(key) {
		if n.value == nil {
			return nilRef, ErrNotFound
		}
		n.value = nil
	} else {
		b := key[depth]
		sub, err := t.remove(n.child(b), key, depth+1)
		if err != nil {
			return nilRef, err
		}
		if sub == nilRef {
			n.removeChild(b)
		} else {
			n.setChild(b, sub)
		}
	}
	if n.value == nil && len(n.children) == 0 {
		return nilRef, nil
	}
	n.hash, n.hashed, n.sig = zephyr.Bytes32{}, false, nil
	return t.alloc(n), nil
}

// RootRef returns a handle to the current root, usable with GetAt after
// further mutations.
func (t *Trie) RootRef() Root {
	return Root(t.root)
}

// RootHash returns the digest of the root node, or false for an empty trie.
func (t *Trie) RootHash() (zephyr.Bytes32, bool) {
	if t.root == nilRef {
		return zephyr.Bytes32{}, false
	}
	return t.digest(t.root), true
}

// Hash is like RootHash but maps the empty trie to a fixed empty-root
// digest, for contexts that need a total function.
func (t *Trie) Hash() zephyr.Bytes32 {
	if hash, ok := t.RootHash(); ok {
		return hash
	}
	return emptyRoot
}

// Walk visits all stored key/value pairs in lexicographic key order,
// stopping early when fn returns false. The key slice is reused between
// calls; copy it to retain it.
func (t *Trie) Walk(fn func(key, value []byte) bool) {
	if t.root == nilRef {
		return
	}
	t.walk(t.root, nil, fn)
}

func (t *Trie) walk(ref nodeRef, prefix []byte, fn func(key, value []byte) bool) bool {
	n := &t.nodes[ref]
	if n.value != nil {
		if !fn(prefix, n.value) {
			return false
		}
	}
	for _, c := range n.children {
		if !t.walk(c.ref, append(prefix, c.b), fn) {
			return false
		}
	}
	return true
}

// Sign authenticates every node reachable from the current root: each node's
// digest is signed with priv and attached to the node. Signatures ride along
// as metadata and never feed back into digests, so the root hash is
// unchanged by signing.
func (t *Trie) Sign(priv *ecdsa.PrivateKey) error {
	if t.root == nilRef {
		return nil
	}
	return t.sign(t.root, priv)
}

func (t *Trie) sign(ref nodeRef, priv *ecdsa.PrivateKey) error {
	sig, err := cry.Sign(t.digest(ref), priv)
	if err != nil {
		return err
	}
	t.nodes[ref].sig = sig
	for _, c := range t.nodes[ref].children {
		if err := t.sign(c.ref, priv); err != nil {
			return err
		}
	}
	return nil
}

// VerifySignature recomputes the digest of every reachable node and checks
// its attached signature against pub. An empty trie verifies trivially.
func (t *Trie) VerifySignature(pub *ecdsa.PublicKey) bool {
	if t.root == nilRef {
		return true
	}
	return t.verifySig(t.root, zephyr.AddressFromPublicKey(pub))
}

func (t *Trie) verifySig(ref nodeRef, signer zephyr.Address) bool {
	n := &t.nodes[ref]
	if len(n.sig) == 0 {
		return false
	}
	if !cry.Verify(t.digest(ref), n.sig, signer) {
		return false
	}
	for _, c := range n.children {
		if !t.verifySig(c.ref, signer) {
			return false
		}
	}
	return true
}
