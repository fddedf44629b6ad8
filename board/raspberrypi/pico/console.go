// Raspberry Pi Pico console redirection
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

package pico

import (
	_ "unsafe"
)

// On this board the serial console is the USB-CDC virtual COM port
// (out of scope for this repository beyond its contract as a byte sink)
// rather than a UART, so standard output is redirected through
// the inter-core FIFO to the console-owning core, which owns the USB-CDC
// transport. See control/console_tamago.go for the FIFO-backed io.Writer this
// feeds.
//
//go:linkname printk runtime.printk
func printk(c byte) {
	if consoleOut == nil {
		return
	}

	consoleOut.WriteByte(c)
}

// consoleOut is set by SetConsole during start-up; until then printk
// silently drops bytes, the same failure mode TamaGo's own console
// linknames have before runtime init.
var consoleOut interface {
	WriteByte(byte) error
}

// SetConsole directs this board's redirected standard output to w, a
// control.FIFOConsole in normal operation.
func SetConsole(w interface {
	WriteByte(byte) error
}) {
	consoleOut = w
}
