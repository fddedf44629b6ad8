// USB 1.x bus sniffer capture pipeline - display renderer
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usbarmory/usbsniffer/sampler"
)

// renderOne decodes and renders a single already-decoded payload, the
// concrete end-to-end scenarios' shared plumbing: Encode it, lay it out
// as one raw record, decode, render.
func renderOne(t *testing.T, fullSpeed bool, payload []byte) string {
	t.Helper()

	buf := NewBuffer()
	buf[0] = uint32(sampler.EncodedBitLen(payload) + 1)
	buf[1] = 1000
	copy(buf[2:], sampler.Encode(payload))

	speed := SpeedFull
	if !fullSpeed {
		speed = SpeedLow
	}
	info := BufferInfo{Speed: speed, Count: 1}
	var d Decoder
	d.Process(buf, &info)
	require.False(t, info.SyncError)

	var out bytes.Buffer
	r := NewRenderer(DefaultSettings())
	r.Render(&out, buf, &info)
	return out.String()
}

// TestEmptyBufferMessage proves an empty buffer renders a fixed message.
func TestEmptyBufferMessage(t *testing.T) {
	buf := NewBuffer()
	info := BufferInfo{Count: 0}

	var out bytes.Buffer
	r := NewRenderer(DefaultSettings())
	r.Render(&out, buf, &info)

	require.Equal(t, "\r\nCapture buffer is empty\r\n", out.String())
}

// TestS1FullSpeedSOF proves a Full-Speed SOF token for frame 42 renders its
// frame number, with its CRC5 solved rather than hand-transcribed.
func TestS1FullSpeedSOF(t *testing.T) {
	text := renderOne(t, true, sofToken(0x80, 42))
	require.Contains(t, text, "SOF #42\r\n")
}

// TestS2FullSpeedIN proves an IN token to address 0x12, endpoint 3,
// renders as "IN: 0x12/3", with its CRC5 solved rather than
// hand-transcribed.
func TestS2FullSpeedIN(t *testing.T) {
	payload := inToken(0x80, 0x12, 3)
	text := renderOne(t, true, payload)
	require.Contains(t, text, "IN: 0x12/3\r\n")
}

// TestS3ACKHandshake proves an ACK handshake renders as a bare "ACK" line.
func TestS3ACKHandshake(t *testing.T) {
	text := renderOne(t, true, []byte{0x80, 0xD2})
	require.Contains(t, text, "ACK\r\n")
}

// TestS4DATA0ZLP proves a zero-length DATA0 packet renders as "DATA0: ZLP".
func TestS4DATA0ZLP(t *testing.T) {
	text := renderOne(t, true, []byte{0x80, 0xC3, 0x00, 0x00})
	require.Contains(t, text, "DATA0: ZLP\r\n")
}

// TestS5BusResetRecord proves a bus reset record renders a "--- RESET ---" line.
func TestS5BusResetRecord(t *testing.T) {
	buf := NewBuffer()
	buf[0] = 0 // raw size field 0: a bus reset record
	buf[1] = 5

	info := BufferInfo{Speed: SpeedFull, Count: 1}
	var d Decoder
	d.Process(buf, &info)
	require.Equal(t, 1, info.Resets)

	var out bytes.Buffer
	r := NewRenderer(DefaultSettings())
	r.Render(&out, buf, &info)
	require.Contains(t, out.String(), "--- RESET ---\r\n")
}

// TestS6FoldThreeEmptyFrames proves that four consecutive SOFs with only
// IN/NAK between them fold to a single "Folded 3 frames" line followed by
// the SOF that broke the run (a run's leading frames are only tagged
// MAY_FOLD once a later SOF confirms the pattern continued, so the run's
// closing SOF is the one actually printed, never the first).
func TestS6FoldThreeEmptyFrames(t *testing.T) {
	packets := [][]byte{
		sofToken(0x80, 1),
		inToken(0x80, 5, 1),
		nak(0x80),
		sofToken(0x80, 2),
		inToken(0x80, 5, 1),
		nak(0x80),
		sofToken(0x80, 3),
		inToken(0x80, 5, 1),
		nak(0x80),
		sofToken(0x80, 4),
	}

	buf, count := buildRaw(packets)
	info := BufferInfo{Speed: SpeedFull, Count: count}
	var d Decoder
	d.Process(buf, &info)
	require.Equal(t, 3, info.Folded)

	settings := DefaultSettings()
	settings.Fold = FoldEnabled

	var out bytes.Buffer
	r := NewRenderer(settings)
	r.Render(&out, buf, &info)

	text := out.String()
	foldIdx := strings.Index(text, "   ... : Folded 3 frames\r\n")
	sofIdx := strings.Index(text, "SOF #4\r\n")
	require.NotEqual(t, -1, foldIdx)
	require.NotEqual(t, -1, sofIdx)
	require.Less(t, foldIdx, sofIdx)
	require.NotContains(t, text, "SOF #1")
	require.NotContains(t, text, "SOF #2")
	require.NotContains(t, text, "SOF #3")
}

// TestSyncErrorRendersSpeedHint proves a condemned buffer renders the
// single speed-setting hint line and nothing else.
func TestSyncErrorRendersSpeedHint(t *testing.T) {
	buf := NewBuffer()
	info := BufferInfo{Speed: SpeedFull, SyncError: true}

	var out bytes.Buffer
	r := NewRenderer(DefaultSettings())
	r.Render(&out, buf, &info)

	require.Equal(t, "Synchronization error. Check your speed setting.\r\n", out.String())
}
