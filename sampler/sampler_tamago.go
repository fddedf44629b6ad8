// USB 1.x bus sniffer capture pipeline - PIO-backed sample source
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

package sampler

import (
	"github.com/usbarmory/usbsniffer/soc/rp2040/pio"
	"github.com/usbarmory/usbsniffer/soc/rp2040/sio"
)

// pioFIFO adapts a PIO state machine's RX FIFO to the sampler.FIFO
// contract.
type pioFIFO struct{ p *pio.PIO }

func (f pioFIFO) Ready() bool { return f.p.RXReady() }
func (f pioFIFO) Pop() uint32 { return f.p.Pop() }

// NewPIOFIFO wraps a PIO state machine as a sampler.FIFO.
func NewPIOFIFO(p *pio.PIO) FIFO { return pioFIFO{p: p} }

// NewTimerClock returns the Clock backed by RP2040's always-on
// microsecond timer.
func NewTimerClock() Clock { return pio.Timer{} }

// PIOCapture owns the two PIO blocks' per-capture lifecycle: Prepare
// reprograms both state machines for the configured bus speed, Arm
// enables them. It satisfies control.CaptureHardware, slotting the
// hardware bring-up under the portable control loop.
type PIOCapture struct {
	P0, P1 *pio.PIO

	// DPPin is the D+ input (D- is DPPin+1); StartPin carries the
	// internal PIO1-to-PIO0 start signal.
	DPPin    uint32
	StartPin uint32
}

// Prepare resets and reprograms both PIO blocks for the given speed.
func (c *PIOCapture) Prepare(fullSpeed bool) {
	pio.ConfigureCapture(c.P0, c.P1, fullSpeed, c.DPPin, c.StartPin)
}

// Arm enables the configured state machines; sampling begins on the next
// bus-idle window.
func (c *PIOCapture) Arm() {
	pio.Arm(c.P0, c.P1)
}

// sioCmdSource adapts the inter-core mailbox FIFO to the sampler's
// CmdSource contract: a pending word's low byte is the command.
type sioCmdSource struct{ fifo *sio.FIFO }

// NewSIOCmdSource wraps the inter-core FIFO as a sampler.CmdSource,
// polling the console core's mailbox for command bytes.
func NewSIOCmdSource(fifo *sio.FIFO) CmdSource { return sioCmdSource{fifo: fifo} }

func (c sioCmdSource) Poll() byte {
	if v, ok := c.fifo.TryRecv(); ok {
		return byte(v)
	}
	return 0
}
