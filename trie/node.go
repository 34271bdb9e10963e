// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"sort"

	"github.com/memaxo/zephyr/zephyr"
)

// nodeRef addresses a node inside a trie's arena. The zero ref is the nil
// sentinel and never dereferenced.
type nodeRef uint32

const nilRef nodeRef = 0

// child links a node to one of its children by the next key byte.
type child struct {
	b   byte
	ref nodeRef
}

// node is one element of the trie keyed by a single byte of the key.
// Nodes are immutable once placed in the arena; updates copy the path from
// the root and allocate fresh refs, leaving prior refs intact for readers
// still holding an older root.
type node struct {
	seg      []byte  // key byte leading to this node, empty for the root
	value    []byte  // nil when the node stores no value
	children []child // sorted ascending by byte, at most 256 entries

	// digest cache and detached authentication. The signature covers the
	// digest but is excluded from it, so signing leaves content identity
	// unchanged.
	hash   zephyr.Bytes32
	hashed bool
	sig    []byte
}

// child returns the ref of the child reached via b, or nilRef.
func (n *node) child(b byte) nodeRef {
	i := sort.Search(len(n.children), func(i int) bool { return n.children[i].b >= b })
	if i < len(n.children) && n.children[i].b == b {
		return n.children[i].ref
	}
	return nilRef
}

// setChild links b to ref, copying the children slice so siblings shared
// with older nodes stay untouched.
func (n *node) setChild(b byte, ref nodeRef) {
	i := sort.Search(len(n.children), func(i int) bool { return n.children[i].b >= b })
	if i < len(n.children) && n.children[i].b == b {
		cpy := make([]child, len(n.children))
		copy(cpy, n.children)
		cpy[i].ref = ref
		n.children = cpy
		return
	}
	cpy := make([]child, len(n.children)+1)
	copy(cpy, n.children[:i])
	cpy[i] = child{b: b, ref: ref}
	copy(cpy[i+1:], n.children[i:])
	n.children = cpy
}

// removeChild unlinks the child reached via b, if any.
func (n *node) removeChild(b byte) {
	i := sort.Search(len(n.children), func(i int) bool { return n.children[i].b >= b })
	if i >= len(n.children) || n.children[i].b != b {
		return
	}
	cpy := make([]child, len(n.children)-1)
	copy(cpy, n.children[:i])
	copy(cpy[i:], n.children[i+1:])
	n.children = cpy
}
