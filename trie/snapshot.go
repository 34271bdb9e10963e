// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import "github.com/pkg/errors"

// Serialize flattens the nodes reachable from the current root into a
// portable blob, children before parents, with child links rewritten to
// positions in the blob. Unreachable arena slots are dropped, so a
// serialize/deserialize round trip also compacts the arena. Node
// signatures are carried along.
func (t *Trie) Serialize() []byte {
	var order []nodeRef
	index := make(map[nodeRef]uint32)

	var walk func(ref nodeRef)
	walk = func(ref nodeRef) {
		if _, ok := index[ref]; ok {
			return
		}
		for _, c := range t.nodes[ref].children {
			walk(c.ref)
		}
		index[ref] = uint32(len(order))
		order = append(order, ref)
	}
	if t.root != nilRef {
		walk(t.root)
	}

	buf := vp.AppendUint32(nil, uint32(len(order)))
	for _, ref := range order {
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
			buf = vp.AppendUint32(buf, index[c.ref])
		}
		buf = vp.AppendString(buf, n.sig)
	}
	return buf
}

// Deserialize rebuilds a trie from a Serialize blob.
func Deserialize(data []byte) (*Trie, error) {
	count, data, err := vp.SplitUint32(data)
	if err != nil {
		return nil, errors.Wrap(err, "node count")
	}
	t := New()
	if count == 0 {
		if len(data) != 0 {
			return nil, errors.New("trailing bytes")
		}
		return t, nil
	}

	for i := uint32(0); i < count; i++ {
		var n node
		var seg []byte
		if seg, data, err = vp.SplitString(data); err != nil {
			return nil, errors.Wrap(err, "node seg")
		}
		if len(seg) > 1 {
			return nil, errors.New("invalid seg length")
		}
		if len(seg) > 0 {
			n.seg = append([]byte(nil), seg...)
		}
		if len(data) == 0 {
			return nil, errors.New("truncated node")
		}
		switch data[0] {
		case 0:
			data = data[1:]
		case 1:
			var v []byte
			if v, data, err = vp.SplitString(data[1:]); err != nil {
				return nil, errors.Wrap(err, "node value")
			}
			n.value = make([]byte, len(v))
			copy(n.value, v)
		default:
			return nil, errors.New("invalid value marker")
		}
		var nchildren uint32
		if nchildren, data, err = vp.SplitUint32(data); err != nil {
			return nil, errors.Wrap(err, "child count")
		}
		if nchildren > 256 {
			return nil, errors.New("invalid child count")
		}
		n.children = make([]child, 0, nchildren)
		for j := uint32(0); j < nchildren; j++ {
			if len(data) == 0 {
				return nil, errors.New("truncated child entry")
			}
			b := data[0]
			var ci uint32
			if ci, data, err = vp.SplitUint32(data[1:]); err != nil {
				return nil, errors.Wrap(err, "child index")
			}
			// children precede parents in the blob
			if ci >= i {
				return nil, errors.New("forward child reference")
			}
			if j > 0 && b <= n.children[j-1].b {
				return nil, errors.New("unordered child table")
			}
			n.children = append(n.children, child{b: b, ref: nodeRef(ci + 1)})
		}
		var sig []byte
		if sig, data, err = vp.SplitString(data); err != nil {
			return nil, errors.Wrap(err, "node sig")
		}
		if len(sig) > 0 {
			n.sig = append([]byte(nil), sig...)
		}
		t.alloc(n)
	}
	if len(data) != 0 {
		return nil, errors.New("trailing bytes")
	}
	t.root = nodeRef(count)
	return t, nil
}
