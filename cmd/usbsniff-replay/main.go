// USB 1.x bus sniffer capture pipeline - offline replay tool
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command usbsniff-replay decodes and renders a capture buffer saved by
// usbsniff-sim or dumped off a running target, off-target. It drives the
// same capture.Decoder and capture.Renderer the RP2040 firmware uses, so a
// saved capture renders byte-for-byte as it would have on the device's own
// console.
package main

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/usbarmory/usbsniffer/capture"
)

// fileMagic identifies a saved capture file (the header readBufferFile
// checks), chosen
// so a stray text file is rejected quickly rather than misdecoded.
const fileMagic = "USBS"

const fileVersion = 1

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "usbsniff-replay"})

func main() {
	input := pflag.StringP("input", "i", "", "captured buffer file (required)")
	settingsFile := pflag.StringP("settings", "c", "", "YAML file seeding display Settings")
	ndjson := pflag.String("ndjson", "", "also write one JSON object per record to this file")
	interactive := pflag.Bool("interactive", false, "after rendering once, drive the on-device command dispatcher (b/e/g/l/t/a/f/h/q) against this buffer from the keyboard")
	timeBase := pflag.String("time-base", "", "override display Settings.TimeBase: first, previous, sof, reset")
	dataDisplay := pflag.String("data", "", "override display Settings.DataDisplay: none, 16, 64, full")
	logLevel := pflag.String("log-level", "info", "log level: debug, info, warn, error")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - decode and render a saved usbsniffer capture\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if lvl, err := log.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
	}

	if *input == "" {
		pflag.Usage()
		os.Exit(2)
	}

	settings := capture.DefaultSettings()

	if *settingsFile != "" {
		if err := loadSettings(*settingsFile, &settings); err != nil {
			logger.Fatal("reading settings file", "path", *settingsFile, "err", err)
		}
	}

	if *timeBase != "" {
		tb, err := parseTimeBase(*timeBase)
		if err != nil {
			logger.Fatal("invalid --time-base", "err", err)
		}
		settings.TimeBase = tb
	}

	if *dataDisplay != "" {
		dd, err := parseDataDisplay(*dataDisplay)
		if err != nil {
			logger.Fatal("invalid --data", "err", err)
		}
		settings.DataDisplay = dd
	}

	f, err := os.Open(*input)
	if err != nil {
		logger.Fatal("opening capture file", "err", err)
	}
	defer f.Close()

	buf, info, err := readBufferFile(f)
	if err != nil {
		logger.Fatal("reading capture file", "err", err)
	}

	logger.Info("loaded capture", "path", *input, "speed", info.Speed, "records", info.Count)

	var decoder capture.Decoder
	decoder.Process(buf, &info)

	renderer := capture.NewRenderer(settings)
	renderer.Render(os.Stdout, buf, &info)

	if *ndjson != "" {
		out, err := os.Create(*ndjson)
		if err != nil {
			logger.Fatal("creating ndjson sink", "err", err)
		}
		defer out.Close()

		if err := writeNDJSON(out, buf, &info); err != nil {
			logger.Fatal("writing ndjson sink", "err", err)
		}
	}

	if *interactive {
		if err := runInteractive(buf, info, settings); err != nil {
			logger.Fatal("interactive replay", "err", err)
		}
	}
}

// readBufferFile parses a file written by usbsniff-sim's writeBufferFile:
// a small header (magic, version, speed, record count) followed by the
// capture's raw sampler-phase words.
func readBufferFile(r io.Reader) (capture.Buffer, capture.BufferInfo, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, capture.BufferInfo{}, fmt.Errorf("short header: %w", err)
	}

	if string(header[:4]) != fileMagic {
		return nil, capture.BufferInfo{}, fmt.Errorf("not a usbsniffer capture file")
	}
	if header[4] != fileVersion {
		return nil, capture.BufferInfo{}, fmt.Errorf("unsupported capture file version %d", header[4])
	}

	info := capture.BufferInfo{
		Speed: capture.Speed(header[5]),
		Count: int(binary.LittleEndian.Uint32(header[8:12])),
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, capture.BufferInfo{}, err
	}
	if len(raw)%4 != 0 {
		return nil, capture.BufferInfo{}, fmt.Errorf("capture file word data is not a multiple of 4 bytes")
	}

	buf := capture.NewBuffer()
	words := len(raw) / 4
	if words > len(buf) {
		return nil, capture.BufferInfo{}, fmt.Errorf("capture file holds %d words, larger than the %d word buffer", words, len(buf))
	}
	for i := 0; i < words; i++ {
		buf[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}

	return buf, info, nil
}

// ndjsonRecord is one decoded record's NDJSON shape, a machine-readable
// parallel to the renderer's console text.
type ndjsonRecord struct {
	TimeUs uint32 `json:"time_us"`
	PID    string `json:"pid,omitempty"`
	Size   int    `json:"size"`
	Reset  bool   `json:"reset,omitempty"`
	LSSof  bool   `json:"ls_sof,omitempty"`
	Error  bool   `json:"error,omitempty"`
	Data   string `json:"data,omitempty"`
}

func writeNDJSON(w io.Writer, buf capture.Buffer, info *capture.BufferInfo) error {
	enc := json.NewEncoder(w)

	off := 0
	for i := 0; i < info.Count; i++ {
		rec := capture.RecordAt(buf, off)
		flags := rec.Flags()
		payload := rec.Payload()

		out := ndjsonRecord{
			TimeUs: rec.Time(),
			Size:   flags.Size(),
			Reset:  flags&capture.Reset != 0,
			LSSof:  flags&capture.LSSof != 0,
			Error:  flags.HasError(),
		}

		if len(payload) >= 2 {
			out.PID = capture.PID(payload[1] & 0x0f).String()
		}
		if len(payload) > 0 {
			out.Data = fmt.Sprintf("%x", payload)
		}

		if err := enc.Encode(out); err != nil {
			return err
		}

		off += rec.WordLen()
	}

	return nil
}

// settingsFile is the YAML shape accepted by --settings, field names
// matching capture.Settings' rotation vocabulary rather than its enum
// integers so a saved config file reads sensibly by hand.
type settingsFile struct {
	Speed       string `yaml:"speed"`
	Trigger     string `yaml:"trigger"`
	Limit       string `yaml:"limit"`
	TimeBase    string `yaml:"time_base"`
	DataDisplay string `yaml:"data_display"`
	Fold        string `yaml:"fold"`
}

func loadSettings(path string, s *capture.Settings) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var sf settingsFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return err
	}

	if sf.Speed != "" {
		if sf.Speed == "low" {
			s.Speed = capture.SpeedLow
		} else {
			s.Speed = capture.SpeedFull
		}
	}
	if sf.Trigger == "enabled" {
		s.Trigger = capture.TriggerEnabled
	}
	if sf.TimeBase != "" {
		tb, err := parseTimeBase(sf.TimeBase)
		if err != nil {
			return err
		}
		s.TimeBase = tb
	}
	if sf.DataDisplay != "" {
		dd, err := parseDataDisplay(sf.DataDisplay)
		if err != nil {
			return err
		}
		s.DataDisplay = dd
	}
	if sf.Fold == "disabled" {
		s.Fold = capture.FoldDisabled
	}

	return nil
}

func parseTimeBase(s string) (capture.TimeBase, error) {
	switch s {
	case "first":
		return capture.TimeBaseFirst, nil
	case "previous":
		return capture.TimeBasePrevious, nil
	case "sof":
		return capture.TimeBaseSOF, nil
	case "reset":
		return capture.TimeBaseReset, nil
	default:
		return 0, fmt.Errorf("unknown time base %q", s)
	}
}

func parseDataDisplay(s string) (capture.DataDisplay, error) {
	switch s {
	case "none":
		return capture.DataDisplayNone, nil
	case "16":
		return capture.DataDisplayLimit16, nil
	case "64":
		return capture.DataDisplayLimit64, nil
	case "full":
		return capture.DataDisplayFull, nil
	default:
		return 0, fmt.Errorf("unknown data display %q", s)
	}
}
