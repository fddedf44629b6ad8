// USB 1.x bus sniffer capture pipeline - record annotations
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

// Flags is the processed-record annotation/size word: the low 16 bits
// hold the decoded payload size in bytes, the upper bits hold single-bit
// error/state annotations.
type Flags uint32

// Annotation bits. The assignments are fixed wire format, shared with the
// capture file layout usbsniff-sim/usbsniff-replay exchange.
const (
	ErrorStuff Flags = 1 << 31
	ErrorCRC   Flags = 1 << 30
	ErrorPID   Flags = 1 << 29
	ErrorSync  Flags = 1 << 28
	ErrorNbit  Flags = 1 << 27
	ErrorSize  Flags = 1 << 26
	Reset      Flags = 1 << 25
	LSSof      Flags = 1 << 24
	MayFold    Flags = 1 << 23

	errorMask Flags = ErrorStuff | ErrorCRC | ErrorPID | ErrorSync | ErrorNbit | ErrorSize
	sizeMask  Flags = 0xffff
)

// Size returns the decoded payload size in bytes.
func (f Flags) Size() int { return int(f & sizeMask) }

// HasError reports whether any error annotation bit is set.
func (f Flags) HasError() bool { return f&errorMask != 0 }

// Errors returns the set error bits only.
func (f Flags) Errors() Flags { return f & errorMask }

// errorNames pairs each error bit with its display token, ordered
// lowest bit first: for bits 26..31 that is SIZE, NBIT, SYNC, PID, CRC,
// STUFF — not the declaration order above.
var errorNames = []struct {
	bit  Flags
	name string
}{
	{ErrorSize, "SIZE"},
	{ErrorNbit, "NBIT"},
	{ErrorSync, "SYNC"},
	{ErrorPID, "PID"},
	{ErrorCRC, "CRC"},
	{ErrorStuff, "STUFF"},
}
