// USB 1.x bus sniffer capture pipeline - capture buffer layout
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

// BufferWords is the capacity of the shared capture buffer: roughly 232KiB
// of 32-bit words.
const BufferWords = (232 * 1024) / 4

// reservedTailWords is kept free at the end of the buffer so a bus reset
// record (length 0, i.e. two words) can always be appended even if the
// sampler loop breaks out right at the edge of the buffer.
const reservedTailWords = 4

// ReservedTailWords is reservedTailWords, exported for callers outside the
// package (control.Loop) that drive sampler.Run directly against a
// Session's buffer.
const ReservedTailWords = reservedTailWords

// Buffer is the shared capture region: raw sampler output in its first
// lifetime, in-place decoded records in its second. It is allocated once
// per Session and reused across capture runs, keeping the capture path
// free of allocation — on TamaGo this backing slice is carved out of a
// static DMA-safe reservation, see session_tamago.go.
type Buffer []uint32

// NewBuffer allocates a capture buffer of the standard size. Host builds
// (tests, replay/sim tools) call this directly; the TamaGo build instead
// wraps a statically reserved region (see session_tamago.go).
func NewBuffer() Buffer {
	return make(Buffer, BufferWords)
}

// BufferInfo accompanies a Buffer with session-level counters.
type BufferInfo struct {
	Speed   Speed
	Trigger bool
	Limit   int // configured packet cap, Settings.Limit.PacketCount()

	Count  int // observed packet count after processing
	Errors int
	Resets int
	Frames int
	Folded int

	// SyncError is set when the decoder finds a raw record whose size
	// field is out of range, meaning the sampler ran at the wrong clock.
	// The renderer reports this instead of any packet lines.
	SyncError bool
}

// PacketNoun returns the trailer's packet-count unit name, "FS packet" or
// "LS packet" depending on the captured speed.
func (bi *BufferInfo) PacketNoun() string {
	if bi.Speed == SpeedFull {
		return "FS packet"
	}
	return "LS packet"
}

// Record is a read/write view of one processed-phase record:
// buf[off] = flags, buf[off+1] = timestamp, buf[off+2:] = payload bytes
// packed little-endian.
type Record struct {
	buf Buffer
	off int
}

// recordAt returns a Record view starting at word offset off.
func recordAt(buf Buffer, off int) Record { return Record{buf: buf, off: off} }

// RecordAt returns a Record view starting at word offset off, for
// callers outside the package walking a decoded Buffer (e.g. tests,
// cmd/usbsniff-replay).
func RecordAt(buf Buffer, off int) Record { return recordAt(buf, off) }

// Payload returns the record's decoded payload bytes (SYNC, PID, and any
// following bytes).
func (r Record) Payload() []byte { return r.payloadBytes() }

// WordLen returns the record's total length in words, header included;
// callers walking a decoded buffer advance by this amount.
func (r Record) WordLen() int { return r.wordLen() }

// Flags returns the record's annotation/size word.
func (r Record) Flags() Flags { return Flags(r.buf[r.off]) }

// SetFlags overwrites the record's annotation/size word.
func (r Record) SetFlags(f Flags) { r.buf[r.off] = uint32(f) }

// Time returns the record's timestamp in microseconds.
func (r Record) Time() uint32 { return r.buf[r.off+1] }

// SetTime overwrites the record's timestamp.
func (r Record) SetTime(t uint32) { r.buf[r.off+1] = t }

// payloadBytes returns a byte-addressable view of the record's decoded
// payload (SYNC, PID, and any following bytes), little-endian packed
// across the underlying words.
func (r Record) payloadBytes() []byte {
	return r.bytesN(r.Flags().Size())
}

// bytesN is payloadBytes with an explicit size, used by the decoder while
// a record's Flags word has not been written yet.
func (r Record) bytesN(size int) []byte {
	words := (size + 3) / 4
	out := make([]byte, 0, words*4)
	for i := 0; i < words; i++ {
		w := r.buf[r.off+2+i]
		out = append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out[:size]
}

// wordLen returns the record's total length in words, header included.
func (r Record) wordLen() int {
	return 2 + (r.Flags().Size()+3)/4
}

// byteAt returns the payload byte at index i (0 = SYNC, 1 = PID).
func (r Record) byteAt(i int) byte {
	w := r.buf[r.off+2+i/4]
	return byte(w >> (uint(i%4) * 8))
}

// setByteAt writes the payload byte at index i, used only by the decoder
// while it is packing unstuffed bits into the output window.
func (r Record) setByteAt(i int, v byte) {
	shift := uint(i%4) * 8
	wi := r.off + 2 + i/4
	r.buf[wi] = (r.buf[wi] &^ (0xff << shift)) | uint32(v)<<shift
}

// pid returns the record's PID (payload byte 1's low nibble), valid once
// size >= 2.
func (r Record) pid() PID { return PID(r.byteAt(1) & 0x0f) }
