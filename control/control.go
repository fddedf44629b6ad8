// USB 1.x bus sniffer capture pipeline - operator command dispatch
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package control implements the single-character command dispatcher that
// drives a capture.Session: settings rotation, help/banner text, and
// start/stop/trigger-wait semantics. The dispatcher is generalized behind
// CommandSource and io.Writer so it runs against the RP2040 inter-core
// SIO FIFO on-target (see soc/rp2040/sio) and against stdin/stdout, a
// pty, or a test buffer off-target.
package control

import (
	"fmt"
	"io"

	"github.com/usbarmory/usbsniffer/capture"
	"github.com/usbarmory/usbsniffer/sampler"
)

// CommandSource delivers pending operator command bytes, non-blocking.
// A zero return means no command is pending.
type CommandSource interface {
	Poll() byte
}

// TriggerPin reports the external trigger input's armed state: the input
// is active-low, so armed means a logic-0 sample.
type TriggerPin interface {
	Armed() bool
}

// CaptureHardware is the sampling hardware's per-capture lifecycle:
// Prepare reprograms it for the session's bus speed before any trigger
// wait, Arm starts it once sampling may begin. Both are no-ops off-target
// (a nil Hardware), where the FIFO fake needs no bring-up.
type CaptureHardware interface {
	Prepare(fullSpeed bool)
	Arm()
}

// Loop is the capture core's whole event loop as an explicit value: one
// owned Session, one command source, one text sink, and the sampling
// hardware needed to actually run a capture — no package-level globals.
type Loop struct {
	Session *capture.Session
	Cmd     CommandSource
	Console io.Writer
	Trigger TriggerPin // nil if no trigger hardware is wired (host builds)
	FIFO    sampler.FIFO
	Clock   sampler.Clock

	// Hardware, when non-nil, is reprogrammed around each capture's
	// trigger wait.
	Hardware CaptureHardware
}

// NewLoop builds a Loop over an existing session and the hardware/IO
// surfaces it drives.
func NewLoop(sess *capture.Session, cmd CommandSource, console io.Writer, trigger TriggerPin, fifo sampler.FIFO, clock sampler.Clock) *Loop {
	return &Loop{
		Session: sess,
		Cmd:     cmd,
		Console: console,
		Trigger: trigger,
		FIFO:    fifo,
		Clock:   clock,
	}
}

// Run polls Cmd forever, dispatching each pending command. It never
// returns; callers on a single cooperative core run this as their whole
// program.
func (l *Loop) Run() {
	for {
		if cmd := l.Cmd.Poll(); cmd != 0 {
			l.Dispatch(cmd)
		}
	}
}

// Dispatch handles exactly one command byte, lower-cased first (all
// input is lowercased before dispatch). Exported so tests and host tools
// can drive the dispatcher one command at a time without a polling loop.
func (l *Loop) Dispatch(cmd byte) {
	switch lower(cmd) {
	case 'h', '?':
		l.printHelp()
	case 'b':
		l.Session.Render(l.Console)
	case 's':
		l.startCapture()
	case 'p':
		// Stop only has an effect while a capture or trigger-wait is in
		// progress; both are handled inline within startCapture.
	case 'e':
		l.echo("Capture speed", l.Session.Settings.RotateSpeed().String())
	case 'g':
		l.echo("Capture trigger", l.Session.Settings.RotateTrigger().String())
	case 'l':
		l.echo("Capture limit", l.Session.Settings.RotateLimit().String())
	case 't':
		l.echo("Time display format", l.Session.Settings.RotateTimeBase().String())
	case 'a':
		l.echo("Data display format", l.Session.Settings.RotateDataDisplay().String())
	case 'f':
		l.echo("Fold empty frames", l.Session.Settings.RotateFold().String())
	}
}

// startCapture runs one full capture cycle: hardware prep, trigger wait
// (if enabled), sampler drain, decode, render.
func (l *Loop) startCapture() {
	l.Session.BeginCapture()

	if l.Hardware != nil {
		l.Hardware.Prepare(l.Session.Info.Speed == capture.SpeedFull)
	}

	if l.Session.Info.Trigger {
		fmt.Fprint(l.Console, "Waiting for a trigger\r\n")

		if !l.waitForTrigger() {
			fmt.Fprint(l.Console, "Capture stopped\r\n")
			return
		}
	}

	fmt.Fprint(l.Console, "Capture started\r\n")

	if l.Hardware != nil {
		l.Hardware.Arm()
	}

	res := sampler.Run(l.FIFO, l.Clock, l.Cmd, l.Session.Buf, l.Session.Info.Limit, capture.ReservedTailWords)

	fmt.Fprint(l.Console, "Capture stopped\r\n")

	l.Session.Decode(res.Count)
	l.Session.Render(l.Console)
}

// waitForTrigger busy-waits for either the trigger pin going armed or a
// stop command. Returns false if the wait was aborted by a stop command.
func (l *Loop) waitForTrigger() bool {
	if l.Trigger == nil {
		return true
	}

	for {
		if l.Trigger.Armed() {
			return true
		}
		if b := lower(l.Cmd.Poll()); b == 'p' {
			return false
		}
	}
}

// printHelp prints the banner, the settings block, and the commands
// block, the h/? help-and-settings-summary command.
func (l *Loop) printHelp() {
	w := l.Console

	fmt.Fprint(w, "\r\n-------------------------------------------------------------------\r\n")
	fmt.Fprint(w, "USB Sniffer (Go/TamaGo edition)\r\n")
	fmt.Fprint(w, "\r\n")
	fmt.Fprint(w, "Settings:\r\n")
	fmt.Fprintf(w, "  e - Capture speed       : %s\r\n", l.Session.Settings.Speed)
	fmt.Fprintf(w, "  g - Capture trigger     : %s\r\n", l.Session.Settings.Trigger)
	fmt.Fprintf(w, "  l - Capture limit       : %s\r\n", l.Session.Settings.Limit)
	fmt.Fprintf(w, "  t - Time display format : %s\r\n", l.Session.Settings.TimeBase)
	fmt.Fprintf(w, "  a - Data display format : %s\r\n", l.Session.Settings.DataDisplay)
	fmt.Fprintf(w, "  f - Fold empty frames   : %s\r\n", l.Session.Settings.Fold)
	fmt.Fprint(w, "\r\n")
	fmt.Fprint(w, "Commands:\r\n")
	fmt.Fprint(w, "  h - Print this help message\r\n")
	fmt.Fprint(w, "  b - Display buffer\r\n")
	fmt.Fprint(w, "  s - Start capture\r\n")
	fmt.Fprint(w, "  p - Stop capture\r\n")
	fmt.Fprint(w, "\r\n")
}

// echo prints the "<Name> changed to <value>" line after a rotation.
func (l *Loop) echo(name, value string) {
	fmt.Fprintf(l.Console, "%s changed to %s\r\n", name, value)
}

// lower folds ASCII uppercase to lowercase, everything else passed
// through unchanged.
func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// Lower exports lower for callers outside the package that need to
// case-fold a command byte before comparing it themselves (e.g. a host
// tool layering extra commands, such as "quit", on top of Dispatch's set).
func Lower(c byte) byte { return lower(c) }
