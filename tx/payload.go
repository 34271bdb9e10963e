// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/zephyr"
)

// maxPayloadDepth bounds bracket nesting inside a contract payload.
// Deeper bodies exhaust the stack of downstream contract parsers.
const maxPayloadDepth = 128

// dangerousPatterns are byte sequences rejected inside contract payloads,
// unbounded-execution constructs the downstream interpreter cannot
// terminate.
var dangerousPatterns = [][]byte{
	[]byte("while(true)"),
	[]byte("while (true)"),
	[]byte("for(;;)"),
	[]byte("for (;;)"),
}

// ValidatePayload runs the structural checks over an attached contract
// payload. Payloads are opaque to the ledger; only their size and shape
// are bounded, plus a screen for the known dangerous patterns.
func ValidatePayload(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if len(data) > zephyr.MaxPayloadSize() {
		return errors.Errorf("payload size %v exceeds limit %v", len(data), zephyr.MaxPayloadSize())
	}

	depth := 0
	for _, b := range data {
		switch b {
		case '(', '[', '{':
			depth++
			if depth > maxPayloadDepth {
				return errors.Errorf("payload nesting deeper than %v", maxPayloadDepth)
			}
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}

	for _, pattern := range dangerousPatterns {
		if bytes.Contains(data, pattern) {
			return errors.Errorf("payload contains dangerous pattern %q", pattern)
		}
	}
	return nil
}
