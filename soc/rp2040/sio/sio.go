// RP2040 SIO (inter-core FIFO + single-cycle GPIO) driver
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

// Package sio implements the two RP2040 SIO facilities the capture/control
// split relies on: the lock-free inter-core mailbox FIFO used to pass
// single-byte commands and rendered text between the two cooperative
// cores, and the single-cycle GPIO bank used for the trigger pin and status
// LEDs.
//
// This package is only meant to be used with `GOOS=tamago GOARCH=arm` as
// supported by the TamaGo framework for bare metal Go on ARM SoCs, see
// https://github.com/usbarmory/tamago.
package sio

import (
	"github.com/usbarmory/usbsniffer/internal/reg"
)

// SIO register offsets, p46, 2.3.1.7 List of Registers, RP2040 Datasheet.
const (
	gpioOut    = 0x010
	gpioOutSet = 0x014
	gpioOutClr = 0x018
	gpioOE     = 0x020
	gpioOESet  = 0x024
	gpioOEClr  = 0x028
	gpioIn     = 0x004

	fifoST = 0x050
	fifoWR = 0x054
	fifoRD = 0x058
)

const (
	fifoSTVldPos = 0
	fifoSTRdyPos = 1
)

// SIO is the RP2040's inter-core/GPIO peripheral; it has a single fixed
// base address shared by both cores.
type SIO struct {
	Base uint32
}

// FIFO is the lock-free mailbox between the capture core and the console
// core. Send/Recv never block; callers busy-wait on Ready/Avail
// themselves, keeping both cores on their single cooperative loops.
type FIFO struct {
	sio *SIO
}

// FIFO returns the inter-core mailbox handle.
func (s *SIO) FIFO() *FIFO { return &FIFO{sio: s} }

// Avail reports whether a word is available to Recv.
func (f *FIFO) Avail() bool {
	return reg.Get(f.sio.Base+fifoST, fifoSTVldPos, 1) == 1
}

// Ready reports whether the FIFO can accept a Send without blocking.
func (f *FIFO) Ready() bool {
	return reg.Get(f.sio.Base+fifoST, fifoSTRdyPos, 1) == 1
}

// Recv reads one word from FIFO_RD. The caller must check Avail (or use
// TryRecv).
func (f *FIFO) Recv() uint32 {
	return reg.Read(f.sio.Base + fifoRD)
}

// TryRecv is a non-blocking Recv.
func (f *FIFO) TryRecv() (v uint32, ok bool) {
	if !f.Avail() {
		return 0, false
	}
	return f.Recv(), true
}

// Send writes one word if the FIFO is ready, otherwise drops it;
// command delivery across cores is best-effort by design of the mailbox.
func (f *FIFO) Send(v uint32) {
	if f.Ready() {
		reg.Write(f.sio.Base+fifoWR, v)
	}
}

// Pin is a single-cycle GPIO accessed through SIO, bypassing the slower
// IO bank path; used for the trigger input and the two status LEDs.
type Pin struct {
	sio *SIO
	num int
}

// Pin returns a SIO-backed GPIO handle for the given pin number.
func (s *SIO) Pin(num int) *Pin { return &Pin{sio: s, num: num} }

// In configures the pin as input.
func (p *Pin) In() { reg.Set(p.sio.Base+gpioOEClr, p.num) }

// Out configures the pin as output.
func (p *Pin) Out() { reg.Set(p.sio.Base+gpioOESet, p.num) }

// Read samples the pin.
func (p *Pin) Read() int { return int(reg.Get(p.sio.Base+gpioIn, p.num, 1)) }

// Set drives the pin high.
func (p *Pin) Set() { reg.Set(p.sio.Base+gpioOutSet, p.num) }

// Clear drives the pin low.
func (p *Pin) Clear() { reg.Set(p.sio.Base+gpioOutClr, p.num) }

// Write drives the pin to the given logic level.
func (p *Pin) Write(high bool) {
	if high {
		p.Set()
	} else {
		p.Clear()
	}
}
