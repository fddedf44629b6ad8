// USB 1.x bus sniffer capture pipeline - USB CRC5/CRC16
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

// CRC5/CRC16 residues a valid USB packet's trailing CRC must produce when
// the CRC itself is included in the input.
const (
	crc5Residue  = 0x09
	crc16Residue = 0xb001
)

// crc5Poly/crc16Poly are the reflected forms of x^5+x^2+1 and
// x^16+x^15+x^2+1 respectively. The tables are generated from these
// polynomials at init rather than embedded; crc_test.go pins the
// generated tables against known-good literal values.
const (
	crc5Poly  = 0x14
	crc16Poly = 0xa001
)

var crc5Table [256]uint8
var crc16Table [256]uint16

func init() {
	for i := 0; i < 256; i++ {
		crc := uint8(i)
		for b := 0; b < 8; b++ {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ crc5Poly
			} else {
				crc = crc >> 1
			}
		}
		crc5Table[i] = crc
	}

	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for b := 0; b < 8; b++ {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ crc16Poly
			} else {
				crc = crc >> 1
			}
		}
		crc16Table[i] = crc
	}
}

// crc5 computes the USB token/SPLIT CRC5 over data, one table lookup per
// input byte.
func crc5(data []byte) uint8 {
	crc := uint8(0xff)
	for _, b := range data {
		crc = crc5Table[(crc^b)&0xff]
	}
	return crc
}

// crc16 computes the USB data-packet CRC16 over data.
func crc16(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		crc = crc16Table[(crc^uint16(b))&0xff] ^ (crc >> 8)
	}
	return crc
}

// crc5Record/crc16Record are crc5/crc16 run directly against a Record's
// payload bytes [from, size) via byteAt, instead of a materialized slice.
// processPacket must not allocate per packet; bytesN's make([]byte, ...)
// would do so for every token/data packet checked, so these read the
// record in place.
func crc5Record(rec Record, from, size int) uint8 {
	crc := uint8(0xff)
	for i := from; i < size; i++ {
		crc = crc5Table[(crc^rec.byteAt(i))&0xff]
	}
	return crc
}

func crc16Record(rec Record, from, size int) uint16 {
	crc := uint16(0xffff)
	for i := from; i < size; i++ {
		b := rec.byteAt(i)
		crc = crc16Table[(crc^uint16(b))&0xff] ^ (crc >> 8)
	}
	return crc
}
