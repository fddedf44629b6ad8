// Raspberry Pi Pico (RP2040) board support for the USB sniffer firmware
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

// Package pico wires the sniffer's capture bus, trigger input, and status
// LEDs to concrete RP2040 pins, in the same spirit as TamaGo's board
// packages (e.g. board/f-secure/usbarmory/mark-two) binding a generic SoC
// driver to one physical layout.
package pico

import (
	"github.com/usbarmory/usbsniffer/internal/reg"
	"github.com/usbarmory/usbsniffer/soc/rp2040/pio"
	"github.com/usbarmory/usbsniffer/soc/rp2040/sio"
)

// Pin assignments. D+ and D- must be adjacent and in that order because
// PIO0's IN instruction reads them as a contiguous 2-bit group; START is
// an internal PIO1->PIO0 signal, TRIGGER is the external gate input.
const (
	PinDP      = 10
	PinDM      = 11
	PinSTART   = 12
	PinTRIGGER = 18

	PinLEDStatus = 25
	PinLEDError  = 26
)

// Base addresses, p6, 2.1 Address Map, RP2040 Datasheet.
const (
	baseSIO       = 0xd0000000
	basePIO0      = 0x50200000
	basePIO1      = 0x50300000
	baseIOBank0   = 0x40014000
	basePadsBank0 = 0x4001c000
)

// Per-pin function select values, p243, 2.19.2 Function Select,
// RP2040 Datasheet.
const (
	funcSIO  = 5
	funcPIO0 = 6
	funcPIO1 = 7
)

// PADS_BANK0 per-pin control bits.
const (
	padPDEBit = 2
	padPUEBit = 3
)

// funcSel routes a pin to one of its peripheral functions through
// IO_BANK0's per-pin CTRL register (8 bytes per pin, CTRL at offset 4).
func funcSel(pin int, fn uint32) {
	reg.Write(baseIOBank0+uint32(8*pin+4), fn)
}

// pullUp enables the pin's internal pull-up and disables its pull-down.
func pullUp(pin int) {
	pad := basePadsBank0 + uint32(4+4*pin)
	reg.Set(pad, padPUEBit)
	reg.Clear(pad, padPDEBit)
}

// Board groups the peripheral handles a running sniffer needs.
type Board struct {
	SIO  *sio.SIO
	PIO0 *pio.PIO
	PIO1 *pio.PIO

	Trigger  *sio.Pin
	LEDOK    *sio.Pin
	LEDError *sio.Pin
}

// New returns the board's peripheral handles, with the trigger input and
// status LEDs configured for direction but not yet driven.
func New() *Board {
	s := &sio.SIO{Base: baseSIO}

	b := &Board{
		SIO:      s,
		PIO0:     &pio.PIO{Base: basePIO0},
		PIO1:     &pio.PIO{Base: basePIO1},
		Trigger:  s.Pin(PinTRIGGER),
		LEDOK:    s.Pin(PinLEDStatus),
		LEDError: s.Pin(PinLEDError),
	}

	funcSel(PinDP, funcPIO0)
	funcSel(PinDM, funcPIO0)
	funcSel(PinSTART, funcPIO1)

	funcSel(PinTRIGGER, funcSIO)
	b.Trigger.In()
	pullUp(PinTRIGGER)

	funcSel(PinLEDStatus, funcSIO)
	funcSel(PinLEDError, funcSIO)
	b.LEDOK.Out()
	b.LEDError.Out()

	return b
}

// TriggerArmed reports a logic-0 on the external trigger input, the
// active-low armed condition the capture loop gates on.
func (b *Board) TriggerArmed() bool {
	return b.Trigger.Read() == 0
}

// SetError drives the error status LED.
func (b *Board) SetError(v bool) {
	b.LEDError.Write(v)
}
