// USB 1.x bus sniffer capture pipeline - display renderer
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

import (
	"fmt"
	"io"
)

// errorDataSizeLimit caps how much of an errored packet's payload is
// printed; maxPacketDelta is the timestamp discontinuity past which the
// buffer is considered corrupt.
const (
	errorDataSizeLimit = 16
	maxPacketDelta     = 10000 // microseconds
)

// Renderer formats a decoded Buffer as the operator-facing text stream.
// It holds no session state of its own; Settings is read once per Render
// call.
type Renderer struct {
	Settings Settings
}

// NewRenderer builds a Renderer for the given display settings.
func NewRenderer(s Settings) *Renderer { return &Renderer{Settings: s} }

// Render writes buf's info.Count processed records to w, followed by the
// trailer totals line.
func (rd *Renderer) Render(w io.Writer, buf Buffer, info *BufferInfo) {
	if info.SyncError {
		fmt.Fprint(w, "Synchronization error. Check your speed setting.\r\n")
		return
	}

	if info.Count == 0 {
		fmt.Fprint(w, "\r\nCapture buffer is empty\r\n")
		return
	}

	fmt.Fprint(w, "\r\nCapture buffer:\r\n")

	st := &renderState{
		w:          w,
		settings:   rd.Settings,
		refTime:    buf[1],
		prevTime:   buf[1],
		checkDelta: true,
	}

	off := 0
	for i := 0; i < info.Count; i++ {
		rec := recordAt(buf, off)
		if !st.printPacket(rec) {
			break
		}
		off += rec.wordLen()
	}

	if st.folding && st.foldCount > 0 {
		st.printFoldCount()
	}

	fmt.Fprint(w, "\r\n")
	fmt.Fprint(w, "Total: ")
	writeCount(w, info.Errors, "error")
	fmt.Fprint(w, ", ")
	writeCount(w, info.Resets, "bus reset")
	fmt.Fprint(w, ", ")
	writeCount(w, info.Count, info.PacketNoun())
	fmt.Fprint(w, ", ")
	writeCount(w, info.Frames, "frame")
	fmt.Fprint(w, ", ")
	writeCount(w, info.Folded, "empty frame")
	fmt.Fprint(w, "\r\n\r\n")
}

// renderState is the reference-time and folding state threaded through
// one Render pass.
type renderState struct {
	w        io.Writer
	settings Settings

	refTime    uint32
	prevTime   uint32
	checkDelta bool
	folding    bool
	foldCount  int
}

// printPacket formats one record, returning false if rendering must stop
// because of a detected timestamp discontinuity.
func (s *renderState) printPacket(rec Record) bool {
	flags := rec.Flags()
	t := rec.Time()
	size := flags.Size()

	delta := int32(t) - int32(s.prevTime)
	if s.checkDelta && delta > maxPacketDelta {
		fmt.Fprint(s.w, "Time delta between packets is too large, possible buffer corruption.\r\n")
		return false
	}

	s.prevTime = t
	s.checkDelta = true

	isReset := flags&Reset != 0
	isLSSof := flags&LSSof != 0

	var pid PID
	switch {
	case isLSSof:
		pid = PIDSof
	case isReset:
		// No real PID; pid stays PIDReserved (0), which never matches
		// PIDSof below. No fold run is open when a reset arrives: the
		// decoder never tags MAY_FOLD on a SOF followed by a reset.
	default:
		pid = rec.pid()
	}

	ftime := t - s.refTime

	if (s.settings.TimeBase == TimeBaseSOF && pid == PIDSof) || s.settings.TimeBase == TimeBasePrevious {
		s.refTime = t
	}

	if s.folding {
		if pid != PIDSof {
			return true
		}
		if flags&MayFold != 0 {
			s.foldCount++
			return true
		}
		s.printFoldCount()
		s.folding = false
	}

	if flags&MayFold != 0 && s.settings.Fold == FoldEnabled {
		s.folding = true
		s.foldCount = 1
		return true
	}

	s.printTime(ftime)

	if isReset {
		fmt.Fprint(s.w, "--- RESET ---\r\n")
		if s.settings.TimeBase == TimeBaseReset {
			s.refTime = t
		}
		s.checkDelta = false
		return true
	}

	if isLSSof {
		fmt.Fprint(s.w, "LS SOF\r\n")
		return true
	}

	if flags.HasError() {
		s.printErrors(flags, rec)
		return true
	}

	payload := rec.bytesN(size)

	switch pid {
	case PIDSof:
		printSOF(s.w, payload)
	case PIDIn:
		printInOutSetup(s.w, "IN", payload)
	case PIDOut:
		printInOutSetup(s.w, "OUT", payload)
	case PIDSetup:
		printInOutSetup(s.w, "SETUP", payload)
	case PIDAck:
		printSimple(s.w, "ACK")
	case PIDNak:
		printSimple(s.w, "NAK")
	case PIDStall:
		printSimple(s.w, "STALL")
	case PIDNyet:
		printSimple(s.w, "NYET")
	case PIDData0:
		s.printData("DATA0", payload, size)
	case PIDData1:
		s.printData("DATA1", payload, size)
	case PIDData2:
		s.printData("DATA2", payload, size)
	case PIDMData:
		s.printData("MDATA", payload, size)
	case PIDPing:
		printSimple(s.w, "PING")
	case PIDPreErr:
		printSimple(s.w, "PRE/ERR")
	case PIDSplit:
		printSplit(s.w, payload)
	case PIDReserved:
		printSimple(s.w, "RESERVED")
	}

	return true
}

func (s *renderState) printTime(ftime uint32) {
	fmt.Fprintf(s.w, "%s : ", formatDec(ftime, 6))
}

func (s *renderState) printFoldCount() {
	fmt.Fprint(s.w, "   ... : Folded ")
	if s.foldCount == 1 {
		fmt.Fprint(s.w, "1 frame")
	} else {
		fmt.Fprintf(s.w, "%d frames", s.foldCount)
	}
	fmt.Fprint(s.w, "\r\n")
}

// printErrors prints an errored record's tag list and raw bytes. The
// trailing ", " after SYNC/PID stays even when no later field follows.
func (s *renderState) printErrors(flags Flags, rec Record) {
	fmt.Fprint(s.w, "ERROR [")

	errs := flags.Errors()
	first := true
	for _, e := range errorNames {
		if errs&e.bit == 0 {
			continue
		}
		if !first {
			fmt.Fprint(s.w, ", ")
		}
		fmt.Fprint(s.w, e.name)
		first = false
	}

	fmt.Fprint(s.w, "]: ")

	size := flags.Size()
	data := rec.bytesN(size)

	if size > 0 {
		fmt.Fprintf(s.w, "SYNC=0x%s, ", formatHex(uint32(data[0]), 2))
	}

	if size > 1 {
		fmt.Fprintf(s.w, "PID=0x%s, ", formatHex(uint32(data[1]), 2))
	}

	if size > 2 {
		fmt.Fprint(s.w, "DATA: ")

		limit := size
		limited := false
		if limit > errorDataSizeLimit {
			limit = errorDataSizeLimit
			limited = true
		}

		for i := 2; i < limit; i++ {
			fmt.Fprintf(s.w, "%s ", formatHex(uint32(data[i]), 2))
		}

		if limited {
			fmt.Fprint(s.w, "...")
		}
	}

	fmt.Fprint(s.w, "\r\n")
}

func printSOF(w io.Writer, payload []byte) {
	frame := (uint32(payload[3])<<8 | uint32(payload[2])) & 0x7ff
	fmt.Fprintf(w, "SOF #%s\r\n", formatDec(frame, 0))
}

func printInOutSetup(w io.Writer, name string, payload []byte) {
	v := uint32(payload[3])<<8 | uint32(payload[2])
	addr := v & 0x7f
	ep := (v >> 7) & 0xf
	fmt.Fprintf(w, "%s: 0x%s/%s\r\n", name, formatHex(addr, 2), formatHex(ep, 1))
}

func printSplit(w io.Writer, payload []byte) {
	addr := payload[2] & 0x7f
	sc := (payload[2] >> 7) & 1
	port := payload[3] & 0x7f
	s := (payload[3] >> 7) & 1
	e := payload[4] & 1
	et := (payload[4] >> 1) & 3

	fmt.Fprintf(w, "SPLIT: HubAddr=0x%s, SC=%s, Port=0x%s, S=%s, E=%s, ET=%s\r\n",
		formatHex(uint32(addr), 2), formatHex(uint32(sc), 1),
		formatHex(uint32(port), 2), formatHex(uint32(s), 1),
		formatHex(uint32(e), 1), formatHex(uint32(et), 1))
}

func printSimple(w io.Writer, name string) {
	fmt.Fprintf(w, "%s\r\n", name)
}

// printData prints a DATAx record. fullSize is the record's total
// decoded size (SYNC+PID+data+CRC16); the 4-byte overhead is subtracted
// to get the data payload length.
func (s *renderState) printData(name string, payload []byte, fullSize int) {
	size := fullSize - 4

	fmt.Fprint(s.w, name)

	if size == 0 {
		fmt.Fprint(s.w, ": ZLP\r\n")
		return
	}

	limited := s.settings.DataDisplay.limit(size)

	fmt.Fprintf(s.w, " (%d): ", size)
	for j := 0; j < limited; j++ {
		fmt.Fprintf(s.w, "%s ", formatHex(uint32(payload[j+2]), 2))
	}
	if limited < size {
		fmt.Fprint(s.w, "...")
	}
	fmt.Fprint(s.w, "\r\n")
}

// writeCount prints a decimal count followed by name, pluralized with a
// trailing "s" unless count == 1.
func writeCount(w io.Writer, value int, name string) {
	fmt.Fprintf(w, "%d %s", value, name)
	if value != 1 {
		fmt.Fprint(w, "s")
	}
}

// formatDec renders v's decimal digits, left-padded with spaces to at
// least width characters (width == 0 means no padding).
func formatDec(v uint32, width int) string {
	digits := []byte(fmt.Sprintf("%d", v))
	for len(digits) < width {
		digits = append([]byte{' '}, digits...)
	}
	return string(digits)
}

// formatHex renders exactly digits lowercase hex characters, taken from
// v's low digits*4 bits.
func formatHex(v uint32, digits int) string {
	const hexChars = "0123456789abcdef"
	buf := make([]byte, digits)
	for i := 0; i < digits; i++ {
		offs := uint((digits - 1 - i) * 4)
		buf[i] = hexChars[(v>>offs)&0xf]
	}
	return string(buf)
}
