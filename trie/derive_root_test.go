// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memaxo/zephyr/zephyr"
)

type MockDerivableList struct {
	Elements [][]byte
}

func (m *MockDerivableList) Len() int {
	return len(m.Elements)
}

func (m *MockDerivableList) GetRlp(i int) []byte {
	if i >= len(m.Elements) {
		return nil
	}
	return m.Elements[i]
}

func TestDeriveRoot(t *testing.T) {
	mockList := &MockDerivableList{
		Elements: [][]byte{
			{1, 2, 3, 4},
			{1, 2, 3, 4, 5, 6},
		},
	}

	root := DeriveRoot(mockList)

	assert.NotEqual(t, zephyr.Bytes32{}, root, "The root hash should not be empty")
	assert.Equal(t, root, DeriveRoot(mockList), "deriving twice should be stable")
}

func TestDeriveRootEmpty(t *testing.T) {
	root := DeriveRoot(&MockDerivableList{})
	assert.Equal(t, emptyRoot, root)
}

func TestDeriveRootOrderSensitive(t *testing.T) {
	a := &MockDerivableList{Elements: [][]byte{{1}, {2}}}
	b := &MockDerivableList{Elements: [][]byte{{2}, {1}}}
	assert.NotEqual(t, DeriveRoot(a), DeriveRoot(b))
}
