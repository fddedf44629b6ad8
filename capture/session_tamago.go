// USB 1.x bus sniffer capture pipeline - DMA-backed buffer
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// +build tamago,arm

package capture

import (
	"reflect"
	"unsafe"

	"github.com/usbarmory/tamago/dma"
)

// NewBufferDMA reserves the capture buffer inside TamaGo's DMA-safe memory
// region and reinterprets the reservation as a []uint32 view, the same
// dma.Region.Reserve() + reflect.SliceHeader idiom the region's own
// implementation uses internally, adapted here to a uint32 element size
// instead of byte. This keeps the PIO state machine's direct FIFO-drain
// writes (soc/rp2040/pio, sampler.Run) landing in memory the Go garbage
// collector will never relocate: no dynamic allocation on the capture
// path, the reservation happens once, at Session construction, never per
// capture.
func NewBufferDMA() Buffer {
	addr, _ := dma.Reserve(BufferWords*4, 4)

	var buf Buffer
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&buf))
	hdr.Data = uintptr(addr)
	hdr.Len = BufferWords
	hdr.Cap = BufferWords

	return buf
}

// NewSessionDMA builds a Session backed by a DMA-reserved buffer instead of
// an ordinary Go slice, for on-target use; host builds (tests, replay/sim
// tools) use NewSession instead.
func NewSessionDMA(s Settings) *Session {
	return &Session{
		Settings: s,
		Buf:      NewBufferDMA(),
		renderer: Renderer{Settings: s},
	}
}
