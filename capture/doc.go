// USB 1.x bus sniffer capture pipeline
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package capture implements the core of a low-cost USB 1.x bus sniffer:
// the line-level sampler's record contract, the packet decoder (NRZI
// demodulation, bit unstuffing, CRC5/CRC16 validation, error
// classification), and the display renderer, all operating on a single
// shared capture buffer exactly as a bare-metal, no-allocation,
// dual-core implementation would (see soc/rp2040 and board/raspberrypi/pico
// for the RP2040-specific hardware layer this package is paired with on
// TamaGo).
//
// Nothing in this package depends on a particular OS or hardware: it is
// portable Go, built and tested the same way on a workstation as on target.
package capture
