// USB 1.x bus sniffer capture pipeline - packet identifiers
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

// PID is a 4-bit USB packet identifier, p196, 8.3.1 Packet Identifier Field,
// USB2.0.
type PID uint8

// Known PID values.
const (
	PIDReserved PID = 0

	PIDOut   PID = 1
	PIDIn    PID = 9
	PIDSof   PID = 5
	PIDSetup PID = 13

	PIDData0 PID = 3
	PIDData1 PID = 11
	PIDData2 PID = 7
	PIDMData PID = 15

	PIDAck   PID = 2
	PIDNak   PID = 10
	PIDStall PID = 14
	PIDNyet  PID = 6

	PIDPing   PID = 4
	PIDPreErr PID = 12
	PIDSplit  PID = 8
)

// pseudoPID widens PID with named sentinel values that never appear as a
// real 4-bit PID, so the folding bookkeeping can be handed non-packet
// events without a magic in-band value.
type pseudoPID int16

const (
	// pidNone marks a record that decoded too short to carry a PID.
	pidNone pseudoPID = -2
	// pidResetSentinel stands in for a bus reset: it disqualifies
	// folding but is not itself a packet with a PID.
	pidResetSentinel pseudoPID = -1
)

func pidOf(p PID) pseudoPID { return pseudoPID(p) }

// isToken reports whether pid is a token-class PID carrying a CRC5
// (OUT, IN, SOF, SETUP, PING); SPLIT is sized differently but uses the same
// CRC5 residue check and is handled alongside these in the decoder.
func (p PID) isToken() bool {
	switch p {
	case PIDOut, PIDIn, PIDSof, PIDSetup, PIDPing:
		return true
	}
	return false
}

func (p PID) isData() bool {
	switch p {
	case PIDData0, PIDData1, PIDData2, PIDMData:
		return true
	}
	return false
}

func (p PID) isHandshake() bool {
	switch p {
	case PIDAck, PIDNak, PIDStall, PIDNyet:
		return true
	}
	return false
}

// String names a PID the way the renderer prints it for the PIDs that have
// a fixed bare-name rendering (handshakes and specials); token and data
// PIDs are formatted with additional fields by the renderer instead.
func (p PID) String() string {
	switch p {
	case PIDReserved:
		return "RESERVED"
	case PIDOut:
		return "OUT"
	case PIDIn:
		return "IN"
	case PIDSof:
		return "SOF"
	case PIDSetup:
		return "SETUP"
	case PIDData0:
		return "DATA0"
	case PIDData1:
		return "DATA1"
	case PIDData2:
		return "DATA2"
	case PIDMData:
		return "MDATA"
	case PIDAck:
		return "ACK"
	case PIDNak:
		return "NAK"
	case PIDStall:
		return "STALL"
	case PIDNyet:
		return "NYET"
	case PIDPing:
		return "PING"
	case PIDPreErr:
		return "PRE/ERR"
	case PIDSplit:
		return "SPLIT"
	default:
		return "RESERVED"
	}
}
