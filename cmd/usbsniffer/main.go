// USB 1.x bus sniffer firmware
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

// Command usbsniffer is the capture-core firmware entry point for the
// Raspberry Pi Pico build: it binds the PIO sampling hardware, the
// DMA-backed capture buffer, and the inter-core console/command FIFO to
// the portable control loop. The companion core's USB-CDC transport and
// the clock/PLL bring-up are out of scope here; they only meet this
// program at the two ends of the SIO mailbox.
package main

import (
	"github.com/usbarmory/usbsniffer/board/raspberrypi/pico"
	"github.com/usbarmory/usbsniffer/capture"
	"github.com/usbarmory/usbsniffer/control"
	"github.com/usbarmory/usbsniffer/sampler"
)

// boardTrigger adapts the board's active-low trigger input to the
// control loop's TriggerPin contract.
type boardTrigger struct {
	b *pico.Board
}

func (t boardTrigger) Armed() bool { return t.b.TriggerArmed() }

func main() {
	board := pico.New()

	fifo := board.SIO.FIFO()
	console := control.NewFIFOConsole(fifo)
	pico.SetConsole(console)

	sess := capture.NewSessionDMA(capture.DefaultSettings())

	loop := control.NewLoop(
		sess,
		sampler.NewSIOCmdSource(fifo),
		console,
		boardTrigger{b: board},
		sampler.NewPIOFIFO(board.PIO0),
		sampler.NewTimerClock(),
	)

	loop.Hardware = &sampler.PIOCapture{
		P0:       board.PIO0,
		P1:       board.PIO1,
		DPPin:    pico.PinDP,
		StartPin: pico.PinSTART,
	}

	board.LEDOK.Set()

	loop.Run()
}
