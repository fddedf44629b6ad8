// USB 1.x bus sniffer capture pipeline - packet decoder
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

// Decoder rewrites a Buffer from its raw sampler-phase layout into
// processed-phase records, in place.
type Decoder struct{}

// decodeState carries the cursor and folding bookkeeping for one Process
// call; it never outlives it.
type decodeState struct {
	buf       Buffer
	info      *BufferInfo
	fullSpeed bool

	rdPtr    int
	wrPtr    int
	sofIndex int
	mayFold  bool
}

// startTime back-calculates a packet's start time from its end timestamp
// and bit count. The fixed-point multiplies are exact over the 16-bit
// size range and keep timestamps reproducible bit-for-bit; do not
// substitute native division.
func startTime(fullSpeed bool, endTime, size uint32) uint32 {
	if fullSpeed {
		return endTime - ((size * 5461) >> 16) // /12
	}
	return endTime - ((size * 43691) >> 16) // /1.5
}

// Process decodes info.Count raw records from buf, starting at word 0,
// into processed records occupying a prefix of the same buffer, and
// updates info's Errors/Resets/Frames/Folded/Count/SyncError fields.
func (d *Decoder) Process(buf Buffer, info *BufferInfo) {
	fullSpeed := info.Speed == SpeedFull
	timeOffset := startTime(fullSpeed, buf[1], buf[0])

	s := &decodeState{buf: buf, info: info, fullSpeed: fullSpeed}
	info.Errors, info.Resets, info.Frames, info.Folded, info.SyncError = 0, 0, 0, 0, false

	outCount := 0

	for i := 0; i < info.Count; i++ {
		size := buf[s.rdPtr]
		t := startTime(fullSpeed, buf[s.rdPtr+1], size)

		if size > 0xffff {
			info.SyncError = true
			outCount = 0
			break
		}

		buf[s.wrPtr+1] = t - timeOffset
		s.rdPtr += 2
		s.wrPtr += 2
		outCount++

		switch {
		case size == 0:
			recordAt(buf, s.wrPtr-2).SetFlags(Reset)
			s.handleFolding(pidResetSentinel, 0)
			info.Resets++

		case size == 1:
			if fullSpeed {
				outCount-- // discard the packet
				s.wrPtr -= 2
			} else {
				recordAt(buf, s.wrPtr-2).SetFlags(LSSof)
				s.handleFolding(pidOf(PIDSof), 0) // fold on LS SOFs
			}
			s.rdPtr++

		default:
			s.processPacket(int(size - 1))
		}

		if debugCheckCursors && s.wrPtr > s.rdPtr {
			panic("capture: write cursor overtook read cursor")
		}
	}

	info.Count = outCount
}

// debugCheckCursors gates the write_cursor <= read_cursor assertion below.
// Off by default (zero cost on the hot path); invariant_test.go turns it
// on to prove the in-place rewrite never lets the decoder race ahead of
// its own input.
var debugCheckCursors = false

// handleFolding updates the folding bookkeeping after one record has
// been decoded. pid is a pseudoPID so pidResetSentinel can be passed for
// a bus reset, which disqualifies folding without being a packet.
func (s *decodeState) handleFolding(pid pseudoPID, errFlags Flags) {
	if errFlags != 0 {
		s.info.Errors++
	}

	if pid == pidOf(PIDSof) {
		s.info.Frames++

		if s.mayFold {
			rec := recordAt(s.buf, s.sofIndex)
			rec.SetFlags(rec.Flags() | MayFold)
			s.info.Folded++
		}

		s.sofIndex = s.wrPtr - 2
		s.mayFold = true
	} else if pid != pidOf(PIDIn) && pid != pidOf(PIDNak) {
		s.mayFold = false
	}

	if errFlags != 0 {
		s.mayFold = false
	}
}

// processPacket demodulates, unstuffs, and classifies one packet's raw
// sample words, writing the decoded payload and annotation word into the
// record already reserved at s.wrPtr-2. size is the packet's bit count,
// the raw record's size field minus one.
func (s *decodeState) processPacket(size int) {
	rec := recordAt(s.buf, s.wrPtr-2)

	v := uint32(0x80000000)
	var errFlags Flags
	outSize := 0
	outBit := 0
	var outByte byte
	stuffCount := 0

	for size > 0 {
		w := s.buf[s.rdPtr]
		s.rdPtr++

		var bitCount int
		if size < 31 {
			w <<= uint(30 - size)
			bitCount = size
		} else {
			bitCount = 31
		}

		v ^= w ^ (w << 1)

		for i := 0; i < bitCount; i++ {
			bit := 0
			if v&0x80000000 == 0 {
				bit = 1
			}
			v <<= 1

			if stuffCount == 6 {
				if bit == 1 {
					errFlags |= ErrorStuff
				}
				stuffCount = 0
				continue
			} else if bit == 1 {
				stuffCount++
			} else {
				stuffCount = 0
			}

			if bit == 1 {
				outByte |= 1 << uint(outBit)
			}
			outBit++

			if outBit == 8 {
				rec.setByteAt(outSize, outByte)
				outSize++
				outByte = 0
				outBit = 0
			}
		}

		size -= bitCount
	}

	if outBit != 0 {
		errFlags |= ErrorNbit
	}

	// A record that decoded to fewer than two bytes is still finalized
	// (flags written, cursor advanced) so no stale raw word is ever left
	// behind the write cursor.
	if outSize < 1 {
		errFlags |= ErrorSize
		s.finishPacket(rec, pidNone, errFlags, outSize)
		return
	}

	sync := byte(0x81)
	if s.fullSpeed {
		sync = 0x80
	}
	if rec.byteAt(0) != sync {
		errFlags |= ErrorSync
	}

	if outSize < 2 {
		errFlags |= ErrorSize
		s.finishPacket(rec, pidNone, errFlags, outSize)
		return
	}

	pid := PID(rec.byteAt(1) & 0x0f)
	npid := PID((^rec.byteAt(1) >> 4) & 0x0f)

	if pid != npid || pid == PIDReserved {
		errFlags |= ErrorPID
	}

	switch {
	case pid.isToken() || pid == PIDSplit:
		want := 4
		if pid == PIDSplit {
			want = 5
		}
		if outSize != want {
			errFlags |= ErrorSize
		} else if crc5Record(rec, 2, outSize) != crc5Residue {
			errFlags |= ErrorCRC
		}

	case pid.isData():
		if outSize < 4 {
			errFlags |= ErrorSize
		} else if crc16Record(rec, 2, outSize) != crc16Residue {
			errFlags |= ErrorCRC
		}
	}

	s.finishPacket(rec, pidOf(pid), errFlags, outSize)
}

// finishPacket writes the record's annotation/size word, runs folding
// bookkeeping, and advances the write cursor past the payload.
func (s *decodeState) finishPacket(rec Record, pid pseudoPID, errFlags Flags, outSize int) {
	s.handleFolding(pid, errFlags)
	rec.SetFlags(errFlags | Flags(outSize))
	s.wrPtr += (outSize + 3) / 4
}
