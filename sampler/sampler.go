// USB 1.x bus sniffer capture pipeline - sample stream drain
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package sampler drains the sampling hardware's raw word stream into a
// capture.Buffer. The PIO-specific producer lives in sampler_tamago.go;
// this file only knows about the FIFO/Clock handoff contract, so it can
// be driven by a software stand-in in tests and host tools.
package sampler

// FIFO is the minimal contract a sample source must satisfy: one queue
// of 32-bit words draining the programmable state machine that samples
// the bus. The top bit of a word distinguishes a control word (inverted
// packet bit-count, per the sampler's handoff contract) from a plain
// data word.
type FIFO interface {
	// Ready reports whether a word is available without blocking.
	Ready() bool
	// Pop removes and returns the next word. Only called after Ready
	// returns true.
	Pop() uint32
}

// Clock supplies the free-running microsecond timestamp sampled at each
// packet's end-of-packet edge, the paired timestamp word that follows
// every control word.
type Clock interface {
	Now() uint32
}

// CmdSource polls for an operator command pending during a capture run,
// so a stop request can break the drain loop between FIFO words.
type CmdSource interface {
	// Poll returns a pending command byte, or 0 if none is queued.
	Poll() byte
}

// Result reports how a Run terminated.
type Result struct {
	Words    int  // raw words written into buf, including the 2-word header
	Count    int  // packet/control records observed
	Stopped  bool // the stop command broke the loop
	Overflow bool // the buffer filled before Count reached limit
}

// stopCommand is the single-character command that ends a capture in
// progress, the same byte control.Loop.Dispatch treats as stop, duplicated
// here so this package does not need to import control.
const stopCommand = 'p'

// Run drains fifo into buf until limit packet records have been seen,
// the buffer fills, or cmd reports the stop command.
// buf must be at least capture.BufferWords words with
// capture.reservedTailWords of headroom already accounted for by the
// caller, so a trailing reset record always has room to land.
func Run(fifo FIFO, clock Clock, cmd CmdSource, buf []uint32, limit, reservedTail int) Result {
	index := 2
	packetStart := 0
	count := 0

	for {
		if fifo.Ready() {
			v := fifo.Pop()

			if v&0x80000000 != 0 {
				buf[packetStart] = 0xffffffff - v
				buf[packetStart+1] = clock.Now()
				count++
				packetStart = index
				index += 2

				if count == limit {
					return Result{Words: index, Count: count}
				}
			} else if index < len(buf)-reservedTail {
				buf[index] = v
				index++
			} else {
				return Result{Words: index, Count: count, Overflow: true}
			}

			continue
		}

		if cmd != nil {
			if b := cmd.Poll(); b == stopCommand || b == 'P' {
				return Result{Words: index, Count: count, Stopped: true}
			}
		}
	}
}
