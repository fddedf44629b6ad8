// RP2040 always-on timer register driver
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

package pio

import (
	"github.com/usbarmory/usbsniffer/internal/reg"
)

// timelr is TIMER's free-running 1us tick low register, p564, 4.6.5
// List of Registers, RP2040 Datasheet.
const timerBase = 0x40054000
const timelr = 0x00c

// Timer reads the always-on 1us-resolution free-running counter the
// drain loop samples at every packet's end-of-packet edge.
type Timer struct{}

// Now returns the current microsecond tick count.
func (Timer) Now() uint32 { return reg.Read(timerBase + timelr) }
