// RP2040 PIO instruction encoding
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package pio implements the bare minimum of the RP2040 Programmable I/O
// block needed to run the capture microprograms: instruction encoding, the
// two fixed microprograms the sampler loads, and a register-level driver
// for a block's state machine 0 (PIO) in the same idiom TamaGo's NXP peripheral drivers use
// (const register-offset blocks consumed through internal/reg).
//
// This package is only meant to be used with `GOOS=tamago GOARCH=arm` as
// supported by the TamaGo framework for bare metal Go on ARM SoCs, see
// https://github.com/usbarmory/tamago.
package pio

// Instruction opcodes, p321, 3.4 Instruction Set, RP2040 Datasheet.
const (
	opJMP  = 0 << 13
	opWAIT = 1 << 13
	opIN   = 2 << 13
	opOUT  = 3 << 13
	opPUSH = (4 << 13) | (0 << 7)
	opMOV  = 5 << 13
	opSET  = 7 << 13
)

// OpNOP is MOV Y, Y, the canonical RP2040 encoding of a no-op.
const OpNOP = opMOV | MovDstY | MovSrcY

// OpDelay returns the instruction's post-execution delay field (0-31 cycles).
func OpDelay(cycles int) uint16 {
	return uint16(cycles) << 8
}

// JMP condition codes.
const (
	JmpCondAlways  = 0 << 5
	JmpCondXZero   = 1 << 5
	JmpCondXNzPd   = 2 << 5
	JmpCondYZero   = 3 << 5
	JmpCondYNzPd   = 4 << 5
	JmpCondXNeY    = 5 << 5
	JmpCondPin     = 6 << 5
	JmpCondNotOsre = 7 << 5
)

// JmpAddr encodes a JMP target address.
func JmpAddr(addr int) uint16 { return uint16(addr) }

// OpJMP assembles a JMP instruction.
func OpJMP(cond uint16, addr int) uint16 {
	return opJMP | cond | JmpAddr(addr)
}

// WAIT polarity and source selectors.
const (
	WaitPol0    = 0 << 7
	WaitPol1    = 1 << 7
	WaitSrcGPIO = 0 << 5
	WaitSrcPin  = 1 << 5
	WaitSrcIRQ  = 2 << 5
)

// WaitIndex encodes the WAIT source index (GPIO/pin/IRQ number).
func WaitIndex(x int) uint16 { return uint16(x) }

// OpWAIT assembles a WAIT instruction.
func OpWAIT(pol, src uint16, index int) uint16 {
	return opWAIT | pol | src | WaitIndex(index)
}

// IN source selectors.
const (
	InSrcPins = 0 << 5
	InSrcX    = 1 << 5
	InSrcY    = 2 << 5
	InSrcNull = 3 << 5
	InSrcISR  = 6 << 5
	InSrcOSR  = 7 << 5
)

// InCnt encodes the IN bit count (32 wraps to 0, per the RP2040 encoding).
func InCnt(n int) uint16 {
	if n == 32 {
		return 0
	}
	return uint16(n)
}

// OpIN assembles an IN instruction.
func OpIN(src uint16, count int) uint16 {
	return opIN | src | InCnt(count)
}

// OUT destination selectors.
const (
	OutDstPins    = 0 << 5
	OutDstX       = 1 << 5
	OutDstY       = 2 << 5
	OutDstNull    = 3 << 5
	OutDstPindirs = 4 << 5
	OutDstPC      = 5 << 5
	OutDstISR     = 6 << 5
	OutDstExec    = 7 << 5
)

// OutCnt encodes the OUT bit count (32 wraps to 0).
func OutCnt(n int) uint16 {
	if n == 32 {
		return 0
	}
	return uint16(n)
}

// OpOUT assembles an OUT instruction.
func OpOUT(dst uint16, count int) uint16 {
	return opOUT | dst | OutCnt(count)
}

// OpPUSH assembles the non-blocking, non-conditional PUSH used throughout
// the capture program (transfer ISR to the RX FIFO unconditionally).
const OpPUSH = opPUSH

// MOV destinations, operations and sources.
const (
	MovDstPins = 0 << 5
	MovDstX    = 1 << 5
	MovDstY    = 2 << 5
	MovDstExec = 4 << 5
	MovDstPC   = 5 << 5
	MovDstISR  = 6 << 5
	MovDstOSR  = 7 << 5

	MovOpNone   = 0 << 3
	MovOpInvert = 1 << 3
	MovOpBitRev = 2 << 3

	MovSrcPins = 0 << 0
	MovSrcX    = 1 << 0
	MovSrcY    = 2 << 0
	MovSrcNull = 3 << 0
	MovSrcISR  = 6 << 0
	MovSrcOSR  = 7 << 0
)

// OpMOV assembles a MOV instruction.
func OpMOV(dst, op, src uint16) uint16 {
	return opMOV | dst | op | src
}

// SET destinations.
const (
	SetDstPins    = 0 << 5
	SetDstX       = 1 << 5
	SetDstY       = 2 << 5
	SetDstPindirs = 4 << 5
)

// SetData encodes the 5-bit SET immediate.
func SetData(x int) uint16 { return uint16(x) }

// OpSET assembles a SET instruction.
func OpSET(dst uint16, data int) uint16 {
	return opSET | dst | SetData(data)
}
