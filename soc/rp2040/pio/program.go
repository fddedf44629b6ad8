// RP2040 PIO capture microprograms
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package pio

// CaptureProgram is PIO0's state machine 0 microprogram: it oversamples
// D+/D- at 4x the bit rate, phase-locks to D- transitions while reading a
// logical 1, detects SOP/EOP and pushes one 31-bit raw-bit word per 31
// sampled bits, followed on EOP by an inverted bit-count control word.
//
// Labels (for the JMP targets below): idle=0, start0=3, read0=4, read1=11,
// eop=21, poll_reset=24, poll_loop=25, entry=31.
var CaptureProgram = []uint16{
	/* 0  idle        */ OpMOV(MovDstX, MovOpInvert, MovSrcNull),
	/* 1  idle+1      */ OpWAIT(WaitPol1, WaitSrcPin, 0),
	/* 2  idle+2      */ OpWAIT(WaitPol0, WaitSrcPin, 0),
	/* 3  start0      */ OpNOP | OpDelay(1),
	/* 4  read0       */ OpJMP(JmpCondXNzPd, 5),
	/* 5  read0+1     */ OpIN(InSrcPins, 1),
	/* 6  read0+2     */ OpMOV(MovDstOSR, MovOpBitRev, MovSrcPins),
	/* 7  read0+3     */ OpOUT(OutDstY, 2),
	/* 8  read0+4     */ OpJMP(JmpCondYZero, 21),
	/* 9  read0+5     */ OpNOP | OpDelay(3),
	/* 10 read0+6     */ OpJMP(JmpCondPin, 4),
	/* 11 read1       */ OpJMP(JmpCondXNzPd, 12),
	/* 12 read1+1     */ OpIN(InSrcPins, 1),
	/* 13 read1+2     */ OpMOV(MovDstOSR, MovOpBitRev, MovSrcPins),
	/* 14 read1+3     */ OpOUT(OutDstY, 2),
	/* 15 read1+4     */ OpJMP(JmpCondYZero, 21),
	/* 16 read1+5     */ OpJMP(JmpCondPin, 3),
	/* 17 read1+6     */ OpJMP(JmpCondPin, 3),
	/* 18 read1+7     */ OpJMP(JmpCondPin, 3),
	/* 19 read1+8     */ OpJMP(JmpCondPin, 3),
	/* 20 read1+9     */ OpJMP(JmpCondAlways, 11),
	/* 21 eop         */ OpPUSH,
	/* 22 eop+1       */ OpMOV(MovDstISR, MovOpNone, MovSrcX),
	/* 23 eop+2       */ OpPUSH,
	/* 24 poll_reset  */ OpSET(SetDstX, 31),
	/* 25 poll_loop   */ OpMOV(MovDstOSR, MovOpBitRev, MovSrcPins),
	/* 26 poll_loop+1 */ OpOUT(OutDstY, 2),
	/* 27 poll_loop+2 */ OpJMP(JmpCondYNzPd, 0),
	/* 28 poll_loop+3 */ OpJMP(JmpCondXNzPd, 25),
	/* 29 poll_loop+4 */ OpMOV(MovDstISR, MovOpInvert, MovSrcNull),
	/* 30 poll_loop+5 */ OpPUSH,
	/* 31 entry       */ OpWAIT(WaitPol1, WaitSrcPin, 2),
}

// patchLowSpeed rewrites the idle-wait instructions to watch D- (index 1)
// instead of D+ (index 0): the line that idles high swaps between the two
// speeds.
func patchLowSpeed(prog []uint16) []uint16 {
	out := append([]uint16(nil), prog...)
	out[1] = OpWAIT(WaitPol1, WaitSrcPin, 1)
	out[2] = OpWAIT(WaitPol0, WaitSrcPin, 1)
	return out
}

// CaptureProgramFor returns the capture microprogram for the given speed;
// fullSpeed selects the D+ idle/SOP wait pin, !fullSpeed selects D-.
func CaptureProgramFor(fullSpeed bool) []uint16 {
	if fullSpeed {
		return CaptureProgram
	}
	return patchLowSpeed(CaptureProgram)
}

// TriggerProgram is PIO1's state machine 0 microprogram: after a start-up
// delay it watches D+/D- until four consecutive samples read SE0 (an
// end-of-packet or bus reset), then raises the internal START line that
// gates PIO0's entry point, so PIO0 begins sampling at a packet boundary.
//
// Labels: wait_se0=4, self=17.
var TriggerProgram = []uint16{
	/* 0 */ OpNOP | OpDelay(31),
	/* 1 */ OpNOP | OpDelay(31),
	/* 2 */ OpNOP | OpDelay(31),
	/* 3 */ OpNOP | OpDelay(31),
	/* 4  wait_se0   */ OpMOV(MovDstOSR, MovOpBitRev, MovSrcPins),
	/* 5  wait_se0+1 */ OpOUT(OutDstY, 2),
	/* 6  wait_se0+2 */ OpJMP(JmpCondYNzPd, 4),
	/* 7             */ OpMOV(MovDstOSR, MovOpBitRev, MovSrcPins),
	/* 8             */ OpOUT(OutDstY, 2),
	/* 9             */ OpJMP(JmpCondYNzPd, 4),
	/* 10            */ OpMOV(MovDstOSR, MovOpBitRev, MovSrcPins),
	/* 11            */ OpOUT(OutDstY, 2),
	/* 12            */ OpJMP(JmpCondYNzPd, 4),
	/* 13            */ OpMOV(MovDstOSR, MovOpBitRev, MovSrcPins),
	/* 14            */ OpOUT(OutDstY, 2),
	/* 15            */ OpJMP(JmpCondYNzPd, 4),
	/* 16            */ OpSET(SetDstPins, 1),
	/* 17 self       */ OpJMP(JmpCondAlways, 17),
}
