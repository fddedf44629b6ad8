// USB 1.x bus sniffer capture pipeline - packet decoder
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestWriteCursorNeverOvertakesReadCursor turns on debugCheckCursors and
// runs the decoder over randomly generated packet streams, proving the
// in-place rewrite's core obligation: the decoder never writes a
// processed record past the raw words it has already consumed.
// Process panicking on violation (rather than this test inspecting
// cursors directly) is deliberate — decodeState's cursors are internal
// to a single Process call, so the only way to observe every step is to
// have the loop assert on itself.
func TestWriteCursorNeverOvertakesReadCursor(t *testing.T) {
	debugCheckCursors = true
	defer func() { debugCheckCursors = false }()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "numPackets")
		var packets [][]byte

		for i := 0; i < n; i++ {
			kind := rapid.IntRange(0, 2).Draw(rt, "kind")
			switch kind {
			case 0:
				packets = append(packets, sofToken(0x80, uint16(i)))
			case 1:
				packets = append(packets, inToken(0x80, 0x12, 3))
			default:
				payloadLen := rapid.IntRange(0, 16).Draw(rt, "payloadLen")
				payload := make([]byte, payloadLen)
				for j := range payload {
					payload[j] = byte(rapid.IntRange(0, 255).Draw(rt, "b"))
				}
				packets = append(packets, data0(0x80, payload))
			}
		}

		buf, count := buildRaw(packets)
		info := BufferInfo{Speed: SpeedFull, Count: count}
		var d Decoder

		require.NotPanics(t, func() {
			d.Process(buf, &info)
		})
	})
}
