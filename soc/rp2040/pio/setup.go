// RP2040 PIO capture bring-up
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

package pio

import (
	"github.com/usbarmory/usbsniffer/internal/reg"
)

// RESETS subsystem registers, p177, 2.14.3 List of Registers, RP2040
// Datasheet. The atomic set/clear aliases avoid a read-modify-write on a
// register shared with every other peripheral.
const (
	resetsBase     = 0x4000c000
	resetsSetAlias = 0x2000
	resetsClrAlias = 0x3000

	resetsReset     = 0x000
	resetsResetDone = 0x008

	resetPIO0Bit = 10
	resetPIO1Bit = 11
)

// ResetBlocks cycles both PIO blocks through the RESETS subsystem and
// waits until they come back, so each capture starts from pristine state
// machines regardless of how the previous run ended.
func ResetBlocks() {
	mask := uint32(1<<resetPIO0Bit | 1<<resetPIO1Bit)

	reg.Write(resetsBase+resetsSetAlias+resetsReset, mask)
	reg.Write(resetsBase+resetsClrAlias+resetsReset, mask)

	for reg.Get(resetsBase+resetsResetDone, resetPIO0Bit, 1) == 0 ||
		reg.Get(resetsBase+resetsResetDone, resetPIO1Bit, 1) == 0 {
	}
}

// clock dividers for 4x oversampling: system clock /1 keeps 48MHz for
// Full Speed, /8 yields 6MHz for Low Speed.
const (
	clkDivFull = 1
	clkDivLow  = 8
)

// entryPoint is the capture program's WAIT-for-START instruction, where
// SM0's program counter must sit before the state machine is enabled.
const entryPoint = 31

// ConfigureCapture resets both PIO blocks and programs them for one
// capture run: p0 runs the sampling microprogram against the D+/D- pair
// starting at dpPin, p1 runs the bus-idle watchdog that raises startPin
// to release p0's entry point. Neither state machine is enabled yet;
// call Arm for that once any trigger condition has been met.
func ConfigureCapture(p0, p1 *PIO, fullSpeed bool, dpPin, startPin uint32) {
	ResetBlocks()

	div := uint32(clkDivLow)
	if fullSpeed {
		div = clkDivFull
	}

	// The edge-resync JMPs watch the line that idles low: D- at Full
	// Speed, D+ at Low Speed.
	jmpPin := dpPin
	if fullSpeed {
		jmpPin = dpPin + 1
	}

	p0.LoadProgram(CaptureProgramFor(fullSpeed))
	p0.Configure(SM0Config{
		ClkDivInt:  div,
		JmpPin:     jmpPin,
		WrapTop:    30,
		WrapBottom: 0,
		AutoPush:   true,
		JoinRX:     true,
		PushThresh: 31,
		InBase:     dpPin,
	})
	p0.Jump(entryPoint)

	p1.LoadProgram(TriggerProgram)
	p1.Configure(SM0Config{
		ClkDivInt:  div,
		WrapTop:    31,
		WrapBottom: 0,
		InBase:     dpPin,
		SetBase:    startPin,
		SetCount:   1,
	})
	p1.Exec(OpSET(SetDstPindirs, 1))
	p1.Exec(OpSET(SetDstPins, 0))
}

// Arm enables the two configured state machines, watchdog first so the
// START line is guaranteed low before the sampler starts waiting on it.
func Arm(p0, p1 *PIO) {
	p1.Enable()
	p0.Enable()
}
