// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, false))

	l.Info("block committed", "height", 12, "txs", 3)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "INFO "), out)
	assert.Contains(t, out, "block committed")
	assert.Contains(t, out, "height=12")
	assert.Contains(t, out, "txs=3")
}

func TestWithContextLazyRoot(t *testing.T) {
	pkgLogger := WithContext("pkg", "test")

	var buf bytes.Buffer
	SetDefault(NewLogger(NewTerminalHandler(&buf, false)))
	defer SetDefault(NewLogger(DiscardHandler()))

	// the handler installed after WithContext must still receive the record
	pkgLogger.Warn("tick")

	out := buf.String()
	assert.Contains(t, out, "pkg=test")
	assert.Contains(t, out, "tick")
}
