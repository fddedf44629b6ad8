// USB 1.x bus sniffer capture pipeline - capture/display settings
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

// Speed selects the captured bus's signaling rate.
type Speed int

const (
	SpeedLow Speed = iota
	SpeedFull
	speedCount
)

func (s Speed) String() string {
	if s == SpeedLow {
		return "Low"
	}
	return "Full"
}

// Trigger selects whether a capture waits for the external trigger pin
// (or a "stop" command) before sampling begins.
type Trigger int

const (
	TriggerEnabled Trigger = iota
	TriggerDisabled
	triggerCount
)

func (t Trigger) String() string {
	if t == TriggerEnabled {
		return "Enabled"
	}
	return "Disabled"
}

// Limit selects the configured packet cap for a capture session.
type Limit int

const (
	Limit100 Limit = iota
	Limit200
	Limit500
	Limit1000
	Limit2000
	Limit5000
	Limit10000
	LimitUnlimited
	limitCount
)

var limitStrings = [...]string{
	Limit100:       "100 packets",
	Limit200:       "200 packets",
	Limit500:       "500 packets",
	Limit1000:      "1000 packets",
	Limit2000:      "2000 packets",
	Limit5000:      "5000 packets",
	Limit10000:     "10000 packets",
	LimitUnlimited: "Unlimited",
}

func (l Limit) String() string { return limitStrings[l] }

// PacketCount returns the concrete packet cap a Limit represents;
// Unlimited is in practice bounded by what the buffer can hold.
func (l Limit) PacketCount() int {
	switch l {
	case Limit100:
		return 100
	case Limit200:
		return 200
	case Limit500:
		return 500
	case Limit1000:
		return 1000
	case Limit2000:
		return 2000
	case Limit5000:
		return 5000
	case Limit10000:
		return 10000
	default:
		return 100000
	}
}

// TimeBase selects what a displayed packet timestamp is relative to.
type TimeBase int

const (
	TimeBaseFirst TimeBase = iota
	TimeBasePrevious
	TimeBaseSOF
	TimeBaseReset
	timeBaseCount
)

var timeBaseStrings = [...]string{
	TimeBaseFirst:    "Relative to the first packet",
	TimeBasePrevious: "Relative to the previous packet",
	TimeBaseSOF:      "Relative to the SOF",
	TimeBaseReset:    "Relative to the bus reset",
}

func (t TimeBase) String() string { return timeBaseStrings[t] }

// DataDisplay selects how much of a DATAx payload the renderer prints.
type DataDisplay int

const (
	DataDisplayNone DataDisplay = iota
	DataDisplayLimit16
	DataDisplayLimit64
	DataDisplayFull
	dataDisplayCount
)

var dataDisplayStrings = [...]string{
	DataDisplayNone:    "Do not display data",
	DataDisplayLimit16: "Limit to 16 bytes",
	DataDisplayLimit64: "Limit to 64 bytes",
	DataDisplayFull:    "Full",
}

func (d DataDisplay) String() string { return dataDisplayStrings[d] }

// limit returns how many of size payload bytes d displays: 0 for None,
// at most 16 or 64 for the limited modes, and size itself for Full.
func (d DataDisplay) limit(size int) int {
	switch d {
	case DataDisplayNone:
		return 0
	case DataDisplayLimit16:
		return min(size, 16)
	case DataDisplayLimit64:
		return min(size, 64)
	default:
		return size
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Fold selects whether idle SOF/IN/NAK runs are collapsed on display.
type Fold int

const (
	FoldEnabled Fold = iota
	FoldDisabled
	foldCount
)

func (f Fold) String() string {
	if f == FoldEnabled {
		return "Enabled"
	}
	return "Disabled"
}

// Settings is the full set of independently-rotated capture/display
// options. It is plain data owned by a Session, never package-level
// state; a running capture observes the snapshot taken at its start.
type Settings struct {
	Speed       Speed
	Trigger     Trigger
	Limit       Limit
	TimeBase    TimeBase
	DataDisplay DataDisplay
	Fold        Fold
}

// DefaultSettings returns the power-on defaults: Full Speed, no trigger,
// unlimited capture, SOF-relative time, full data, folding on.
func DefaultSettings() Settings {
	return Settings{
		Speed:       SpeedFull,
		Trigger:     TriggerDisabled,
		Limit:       LimitUnlimited,
		TimeBase:    TimeBaseSOF,
		DataDisplay: DataDisplayFull,
		Fold:        FoldEnabled,
	}
}

// rotate advances an enumerated setting modulo count.
func rotate(v int, count int) int {
	v++
	if v == count {
		v = 0
	}
	return v
}

// RotateSpeed advances the capture speed to its next value.
func (s *Settings) RotateSpeed() Speed {
	s.Speed = Speed(rotate(int(s.Speed), int(speedCount)))
	return s.Speed
}

// RotateTrigger advances the trigger setting to its next value.
func (s *Settings) RotateTrigger() Trigger {
	s.Trigger = Trigger(rotate(int(s.Trigger), int(triggerCount)))
	return s.Trigger
}

// RotateLimit advances the capture limit to its next value.
func (s *Settings) RotateLimit() Limit {
	s.Limit = Limit(rotate(int(s.Limit), int(limitCount)))
	return s.Limit
}

// RotateTimeBase advances the display time base to its next value.
func (s *Settings) RotateTimeBase() TimeBase {
	s.TimeBase = TimeBase(rotate(int(s.TimeBase), int(timeBaseCount)))
	return s.TimeBase
}

// RotateDataDisplay advances the data display mode to its next value.
func (s *Settings) RotateDataDisplay() DataDisplay {
	s.DataDisplay = DataDisplay(rotate(int(s.DataDisplay), int(dataDisplayCount)))
	return s.DataDisplay
}

// RotateFold advances the fold-empty-frames setting to its next value.
func (s *Settings) RotateFold() Fold {
	s.Fold = Fold(rotate(int(s.Fold), int(foldCount)))
	return s.Fold
}
