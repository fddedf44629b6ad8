// USB 1.x bus sniffer capture pipeline - inter-core console transport
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

package control

import (
	"github.com/usbarmory/usbsniffer/soc/rp2040/sio"
)

// FIFOConsole adapts the RP2040 inter-core SIO mailbox to an io.Writer, one
// byte per FIFO word: text from the capture core is handed across the
// inter-core FIFO byte by byte (the console-owning core, out of scope
// here, drains the other side of this same FIFO onto the USB-CDC
// transport).
type FIFOConsole struct {
	fifo *sio.FIFO
}

// NewFIFOConsole wraps an inter-core FIFO handle as a console Writer.
func NewFIFOConsole(fifo *sio.FIFO) *FIFOConsole {
	return &FIFOConsole{fifo: fifo}
}

// WriteByte busy-waits for the mailbox to accept one byte: a cooperative,
// spin-only suspension model, no blocking syscalls involved.
func (c *FIFOConsole) WriteByte(b byte) error {
	for !c.fifo.Ready() {
	}
	c.fifo.Send(uint32(b))
	return nil
}

// Write sends p one byte at a time, satisfying io.Writer for
// capture.Renderer and control.Loop's text output.
func (c *FIFOConsole) Write(p []byte) (int, error) {
	for _, b := range p {
		if err := c.WriteByte(b); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
