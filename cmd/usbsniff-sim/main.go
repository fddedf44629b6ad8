// USB 1.x bus sniffer capture pipeline - synthetic capture generator
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command usbsniff-sim builds a capture buffer from a small scripted
// packet list, using sampler.Encode to turn each packet's bytes into the
// same raw sample words the PIO capture program would have produced, and
// optionally decodes and renders the result immediately. It exists so the
// decode/render pipeline can be exercised end-to-end without real
// hardware, and so a saved file exists for usbsniff-replay to read.
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/usbarmory/usbsniffer/capture"
	"github.com/usbarmory/usbsniffer/sampler"
)

const fileMagic = "USBS"
const fileVersion = 1

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "usbsniff-sim"})

// scriptPacket is one scripted packet's YAML shape. Not every field
// applies to every Kind; buildPayload reads only the ones it needs.
type scriptPacket struct {
	Kind string `yaml:"kind"` // sof, in, out, setup, ping, ack, nak, stall, nyet, data0, data1, data2, mdata, split, reset

	Addr  uint8  `yaml:"addr"`
	Endp  uint8  `yaml:"endp"`
	Frame uint16 `yaml:"frame"`
	Data  []byte `yaml:"data"`

	HubAddr uint8 `yaml:"hub_addr"`
	SC      bool  `yaml:"sc"`
	Port    uint8 `yaml:"port"`
	S       bool  `yaml:"s"`
	E       uint8 `yaml:"e"`
	ET      uint8 `yaml:"et"`
}

// demoScript is used when --script is not given: a bus reset, a polled IN
// endpoint that NAKs once then returns a short DATA1 payload, and a
// SETUP/DATA0/ACK control transfer, covering most of the renderer's
// per-PID formatting paths in one file.
var demoScript = []scriptPacket{
	{Kind: "reset"},
	{Kind: "sof", Frame: 100},
	{Kind: "in", Addr: 5, Endp: 1},
	{Kind: "nak"},
	{Kind: "sof", Frame: 101},
	{Kind: "in", Addr: 5, Endp: 1},
	{Kind: "data1", Data: []byte{0xde, 0xad, 0xbe, 0xef}},
	{Kind: "ack"},
	{Kind: "sof", Frame: 102},
	{Kind: "setup", Addr: 5, Endp: 0},
	{Kind: "data0", Data: []byte{0x00, 0x05, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00}},
	{Kind: "ack"},
}

func main() {
	scriptPath := pflag.StringP("script", "s", "", "YAML packet script (default: a small built-in demo capture)")
	out := pflag.StringP("out", "o", "", "write the synthesized capture to this file")
	render := pflag.Bool("render", true, "decode and render the synthesized capture to stdout")
	speed := pflag.String("speed", "full", "bus speed for the synthesized capture: low, full")
	logLevel := pflag.String("log-level", "info", "log level: debug, info, warn, error")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - synthesize a usbsniffer capture from a scripted packet list\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if lvl, err := log.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
	}

	script := demoScript
	if *scriptPath != "" {
		raw, err := os.ReadFile(*scriptPath)
		if err != nil {
			logger.Fatal("reading script", "err", err)
		}
		if err := yaml.Unmarshal(raw, &script); err != nil {
			logger.Fatal("parsing script", "err", err)
		}
	}

	fullSpeed := *speed != "low"

	buf, count := build(script, fullSpeed)
	logger.Info("synthesized capture", "packets", count, "words", len(buf))

	if *out != "" {
		if err := writeBufferFile(*out, buf, fullSpeed, count); err != nil {
			logger.Fatal("writing capture file", "err", err)
		}
	}

	if *render {
		info := capture.BufferInfo{Count: count}
		if fullSpeed {
			info.Speed = capture.SpeedFull
		} else {
			info.Speed = capture.SpeedLow
		}

		fullBuf := capture.NewBuffer()
		copy(fullBuf, buf)

		var decoder capture.Decoder
		decoder.Process(fullBuf, &info)

		renderer := capture.NewRenderer(capture.DefaultSettings())
		renderer.Render(os.Stdout, fullBuf, &info)
	}
}

// build lays out script as raw sampler-phase words: one [size, timestamp]
// header per packet followed by its sampler.Encode words, or a bare
// 0/timestamp pair for a bus reset (the zero-length raw record).
func build(script []scriptPacket, fullSpeed bool) ([]uint32, int) {
	var buf []uint32
	var clock uint32

	for _, p := range script {
		clock += 10

		if p.Kind == "reset" {
			buf = append(buf, 0, clock)
			continue
		}

		payload := buildPayload(p, fullSpeed)
		size := uint32(sampler.EncodedBitLen(payload) + 1)
		buf = append(buf, size, clock)
		buf = append(buf, sampler.Encode(payload)...)
	}

	return buf, len(script)
}

func pidByte(pid capture.PID) byte {
	return byte(pid) | (^byte(pid)&0x0f)<<4
}

func syncByte(fullSpeed bool) byte {
	if fullSpeed {
		return 0x80
	}
	return 0x81
}

// buildPayload assembles one packet's SYNC-through-CRC bytes, the same
// shape capture.Decoder would hand back as a record's payload.
func buildPayload(p scriptPacket, fullSpeed bool) []byte {
	sync := syncByte(fullSpeed)

	switch p.Kind {
	case "sof":
		return tokenPayload(sync, capture.PIDSof, p.Frame)
	case "in":
		return tokenPayload(sync, capture.PIDIn, uint16(p.Addr&0x7f)|uint16(p.Endp&0xf)<<7)
	case "out":
		return tokenPayload(sync, capture.PIDOut, uint16(p.Addr&0x7f)|uint16(p.Endp&0xf)<<7)
	case "setup":
		return tokenPayload(sync, capture.PIDSetup, uint16(p.Addr&0x7f)|uint16(p.Endp&0xf)<<7)
	case "ping":
		return tokenPayload(sync, capture.PIDPing, uint16(p.Addr&0x7f)|uint16(p.Endp&0xf)<<7)

	case "ack":
		return []byte{sync, pidByte(capture.PIDAck)}
	case "nak":
		return []byte{sync, pidByte(capture.PIDNak)}
	case "stall":
		return []byte{sync, pidByte(capture.PIDStall)}
	case "nyet":
		return []byte{sync, pidByte(capture.PIDNyet)}

	case "data0":
		return dataPayload(sync, capture.PIDData0, p.Data)
	case "data1":
		return dataPayload(sync, capture.PIDData1, p.Data)
	case "data2":
		return dataPayload(sync, capture.PIDData2, p.Data)
	case "mdata":
		return dataPayload(sync, capture.PIDMData, p.Data)

	case "split":
		return splitPayload(sync, p)

	default:
		logger.Fatal("unknown packet kind", "kind", p.Kind)
		return nil
	}
}

// tokenPayload builds a 4-byte token (OUT/IN/SOF/SETUP/PING): SYNC, PID,
// and 11 bits of data (address+endpoint, or frame number for SOF) with a
// CRC5 solved over those bits.
func tokenPayload(sync byte, pid capture.PID, data11 uint16) []byte {
	data11 &= 0x07ff
	low := byte(data11)
	last3 := byte(data11 >> 8)
	crcByte := capture.SolveCRC5([]byte{low}, last3)

	return []byte{sync, pidByte(pid), low, crcByte}
}

// splitPayload builds a 5-byte SPLIT token (HubAddr/SC/Port/S/E/ET fields).
func splitPayload(sync byte, p scriptPacket) []byte {
	byte2 := p.HubAddr & 0x7f
	if p.SC {
		byte2 |= 0x80
	}

	byte3 := p.Port & 0x7f
	if p.S {
		byte3 |= 0x80
	}

	last3 := (p.E & 1) | (p.ET&3)<<1
	byte4 := capture.SolveCRC5([]byte{byte2, byte3}, last3)

	return []byte{sync, pidByte(capture.PIDSplit), byte2, byte3, byte4}
}

// dataPayload builds a DATAx packet: SYNC, PID, data bytes, and a CRC16
// solved over the data bytes.
func dataPayload(sync byte, pid capture.PID, data []byte) []byte {
	crc := capture.SolveCRC16(data)
	out := make([]byte, 0, 2+len(data)+2)
	out = append(out, sync, pidByte(pid))
	out = append(out, data...)
	out = append(out, crc[0], crc[1])
	return out
}

func writeBufferFile(path string, words []uint32, fullSpeed bool, count int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var header [12]byte
	copy(header[:4], fileMagic)
	header[4] = fileVersion
	if fullSpeed {
		header[5] = 1
	}
	binary.LittleEndian.PutUint32(header[8:12], uint32(count))

	if _, err := f.Write(header[:]); err != nil {
		return err
	}

	raw := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(raw[i*4:], w)
	}

	_, err = f.Write(raw)
	return err
}
