// USB 1.x bus sniffer capture pipeline - CRC field solving
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

// SolveCRC16 returns the two CRC16 bytes (transmitted low byte first) to
// append after payload so crc16 run over payload+crc validates against
// crc16Residue, the encoding-side counterpart crc16's receive-side residue
// check never needed on-target. cmd/usbsniff-sim uses this to synthesize
// DATAx packets whose CRC the decoder accepts.
func SolveCRC16(payload []byte) [2]byte {
	buf := make([]byte, len(payload)+2)
	copy(buf, payload)

	for v := 0; v < 0x10000; v++ {
		buf[len(payload)] = byte(v)
		buf[len(payload)+1] = byte(v >> 8)

		if crc16(buf) == crc16Residue {
			return [2]byte{buf[len(payload)], buf[len(payload)+1]}
		}
	}

	panic("capture: no CRC16 value satisfies the residue check, which cannot happen")
}

// SolveCRC5 returns the full last byte of a token/SPLIT field: last3's
// bits occupy its low 3 bits (the caller's already-assembled data bits),
// and the CRC5 occupies its top 5 bits, chosen so crc5 run over
// prefix+thatByte validates against crc5Residue. cmd/usbsniff-sim uses
// this to synthesize token and SPLIT packets.
func SolveCRC5(prefix []byte, last3 byte) byte {
	buf := make([]byte, len(prefix)+1)
	copy(buf, prefix)

	for v := 0; v < 32; v++ {
		buf[len(prefix)] = (last3 & 0x07) | byte(v<<3)

		if crc5(buf) == crc5Residue {
			return buf[len(prefix)]
		}
	}

	panic("capture: no CRC5 value satisfies the residue check, which cannot happen")
}
