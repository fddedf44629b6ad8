// USB 1.x bus sniffer capture pipeline - NRZI/bit-stuffing encoder
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sampler

// Encode converts a packet's already-assembled bytes (SYNC byte through
// its trailing CRC, exactly what capture.Decoder would hand back as a
// record's payload) into the raw 32-bit words the sampler's PIO program
// would have produced sampling it off the wire. It is the inverse of the
// decoder's demodulation, used by cmd/usbsniff-sim to synthesize a
// capture buffer without real hardware and by the round-trip tests.
//
// The decoder demodulates each raw word via
//
//	v ^= w ^ (w << 1)
//
// starting from a seed of v = 0x80000000, then reads decoded bits off
// v's top bit down. Given the desired decoded (post-NRZI, pre-unstuffing)
// bit stream, this is a linear system in the raw word's bits with one
// free bit per word (the one position extraction never reads); Encode
// solves it directly rather than simulating physical line transitions.
func Encode(payload []byte) []uint32 {
	return packRawWords(stuffBits(payload))
}

// EncodedBitLen returns the bit-stuffed length Encode(payload) is built
// from. A raw record header stores this length plus one (the size-field
// convention); cmd/usbsniff-sim uses this to build that header without
// duplicating the stuffing logic.
func EncodedBitLen(payload []byte) int {
	return len(stuffBits(payload))
}

// stuffBits returns payload's bits, LSB-first per byte, with a stuffed 0
// inserted after every run of six consecutive 1 bits — the forward
// operation the decoder's unstuffing undoes.
func stuffBits(payload []byte) []int {
	bits := make([]int, 0, len(payload)*8+len(payload)/6+2)
	run := 0

	for _, b := range payload {
		for i := 0; i < 8; i++ {
			bit := int((b >> uint(i)) & 1)
			bits = append(bits, bit)

			if bit == 1 {
				run++
				if run == 6 {
					bits = append(bits, 0)
					run = 0
				}
			} else {
				run = 0
			}
		}
	}

	return bits
}

// packRawWords packs a decoded bit stream into the raw word format, 31
// new bits per word, MSB-first, with the word's lowest unconsumed bit
// carrying continuity into the next word exactly as the decoder's shift
// register expects.
func packRawWords(bits []int) []uint32 {
	var words []uint32
	carry := 1 // matches the demodulator's v seed, 0x80000000

	for len(bits) > 0 {
		n := len(bits)
		if n > 31 {
			n = 31
		}
		chunk := bits[:n]
		bits = bits[n:]

		top, bot := 31, 32-n
		var effw [32]int

		prev := 0 // effw[bot-1], forced zero: unconsumed padding (or,
		// for a full word, the freely chosen carry-out bit).
		for p := bot; p <= top; p++ {
			i := top - p // chronological index within this chunk
			vn := 1 - chunk[i]
			v := prev ^ vn
			if p == top {
				v ^= carry
			}
			effw[p] = v
			prev = v
		}

		var w uint32
		for p := bot; p <= top; p++ {
			if effw[p] == 1 {
				w |= 1 << uint(p)
			}
		}

		if n < 31 {
			// The decoder left-shifts a short final word by (30-size)
			// before using it; undo that here so the stored word, once
			// shifted again, reproduces the bit pattern solved above.
			w >>= uint(30 - n)
		}

		words = append(words, w)
		carry = 0 // bit 0 of every word is forced to zero above
	}

	return words
}
