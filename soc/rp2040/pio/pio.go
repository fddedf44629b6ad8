// RP2040 PIO state machine register driver
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

package pio

import (
	"github.com/usbarmory/usbsniffer/internal/reg"
)

// Register offsets, relative to a PIO block's base address, p348,
// 3.7 List of Registers, RP2040 Datasheet. Only SM0's subset is exposed,
// the sampler only ever needs one state machine per PIO block.
const (
	ctrl  = 0x000
	fstat = 0x004

	sm0ClkDiv    = 0x0c8
	sm0ExecCtrl  = 0x0cc
	sm0ShiftCtrl = 0x0d0
	sm0Instr     = 0x0d8
	sm0PinCtrl   = 0x0dc

	instrMem0 = 0x048

	rxf0 = 0x020
)

// field positions used by this driver.
const (
	ctrlSMEnablePos = 0

	fstatRxEmptyPos = 8

	clkDivIntPos = 16

	execCtrlJmpPinPos  = 24
	execCtrlWrapTopPos = 12
	execCtrlWrapBotPos = 7

	shiftCtrlFJoinRXPos    = 31
	shiftCtrlAutoPushPos   = 16
	shiftCtrlPushThreshPos = 20

	pinCtrlInBasePos   = 15
	pinCtrlSetBasePos  = 5
	pinCtrlSetCountPos = 26
)

// PIO represents one of the RP2040's two PIO blocks.
type PIO struct {
	// Base is the PIO block's register base address.
	Base uint32
}

// LoadProgram writes a microprogram into the PIO's instruction memory,
// starting at word 0.
func (p *PIO) LoadProgram(prog []uint16) {
	for i, instr := range prog {
		reg.Write(p.Base+instrMem0+uint32(i*4), uint32(instr))
	}
}

// SM0Config holds the per-state-machine fields programmed into
// SM0_CLKDIV/EXECCTRL/SHIFTCTRL/PINCTRL.
type SM0Config struct {
	// ClkDivInt is the integer clock divider (1 for Full Speed 4x
	// oversampling at 48MHz, 8 for Low Speed 4x oversampling at 6MHz).
	ClkDivInt uint32
	// JmpPin is the pin JMP_COND_PIN branches test (D- index for Full
	// Speed, D+ index for Low Speed).
	JmpPin uint32
	// WrapTop/WrapBottom bound the instruction memory wrap window.
	WrapTop, WrapBottom uint32
	// AutoPush enables ISR auto-push at PushThresh bits, joined with the
	// TX FIFO to give the RX path the whole 8-word FIFO (FJOIN_RX).
	AutoPush   bool
	JoinRX     bool
	PushThresh uint32
	// InBase is the first of the two input pins (D+; D- is InBase+1).
	InBase uint32
	// SetBase/SetCount configure a SET-capable pin group (unused by PIO0,
	// used by PIO1 to drive the internal START line).
	SetBase, SetCount uint32
}

// Configure programs SM0's control registers per cfg.
func (p *PIO) Configure(cfg SM0Config) {
	reg.Write(p.Base+sm0ClkDiv, cfg.ClkDivInt<<clkDivIntPos)

	execCtrl := (cfg.JmpPin << execCtrlJmpPinPos) |
		(cfg.WrapTop << execCtrlWrapTopPos) |
		(cfg.WrapBottom << execCtrlWrapBotPos)
	reg.Write(p.Base+sm0ExecCtrl, execCtrl)

	var shiftCtrl uint32
	if cfg.JoinRX {
		shiftCtrl |= 1 << shiftCtrlFJoinRXPos
	}
	if cfg.AutoPush {
		shiftCtrl |= 1 << shiftCtrlAutoPushPos
	}
	shiftCtrl |= cfg.PushThresh << shiftCtrlPushThreshPos
	reg.Write(p.Base+sm0ShiftCtrl, shiftCtrl)

	pinCtrl := (cfg.InBase << pinCtrlInBasePos) |
		(cfg.SetBase << pinCtrlSetBasePos) |
		(cfg.SetCount << pinCtrlSetCountPos)
	reg.Write(p.Base+sm0PinCtrl, pinCtrl)
}

// Jump forces SM0's program counter to addr (used to set the entry point
// before enabling the state machine).
func (p *PIO) Jump(addr int) {
	reg.Write(p.Base+sm0Instr, uint32(OpJMP(JmpCondAlways, addr)))
}

// Exec runs a single instruction immediately on SM0 (used by the
// watchdog block's START-pin setup before it is enabled).
func (p *PIO) Exec(instr uint16) {
	reg.Write(p.Base+sm0Instr, uint32(instr))
}

// Enable starts SM0.
func (p *PIO) Enable() {
	reg.Set(p.Base+ctrl, ctrlSMEnablePos)
}

// RXReady reports whether SM0's RX FIFO has a word available.
func (p *PIO) RXReady() bool {
	return reg.Get(p.Base+fstat, fstatRxEmptyPos, 1) == 0
}

// Pop reads one word from SM0's RX FIFO. The caller must check RXReady
// first; Pop does not block.
func (p *PIO) Pop() uint32 {
	return reg.Read(p.Base + rxf0)
}
