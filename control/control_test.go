// USB 1.x bus sniffer capture pipeline - operator command dispatch
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package control

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usbarmory/usbsniffer/capture"
)

// queueCmd is a CommandSource fed from a fixed slice, returning 0 (no
// command pending) once drained.
type queueCmd struct {
	cmds []byte
	i    int
}

func (q *queueCmd) Poll() byte {
	if q.i >= len(q.cmds) {
		return 0
	}
	c := q.cmds[q.i]
	q.i++
	return c
}

// fakeFIFO replays a fixed raw word sequence then reports empty forever.
type fakeFIFO struct {
	words []uint32
	i     int
}

func (f *fakeFIFO) Ready() bool { return f.i < len(f.words) }
func (f *fakeFIFO) Pop() uint32 {
	v := f.words[f.i]
	f.i++
	return v
}

type fakeClock struct{ t uint32 }

func (c *fakeClock) Now() uint32 { c.t++; return c.t }

// stopAfterDrain issues the stop command once fifo has been fully drained,
// the same shape sampler_test.go uses to let sampler.Run terminate without
// ever hitting its packet limit.
type stopAfterDrain struct{ fifo *fakeFIFO }

func (s stopAfterDrain) Poll() byte {
	if s.fifo.i >= len(s.fifo.words) {
		return 'p'
	}
	return 0
}

// armedTrigger reports armed on the Nth poll.
type armedTrigger struct{ after int }

func (a *armedTrigger) Armed() bool {
	if a.after <= 0 {
		return true
	}
	a.after--
	return false
}

func TestDispatchHelpListsSettings(t *testing.T) {
	sess := capture.NewSession(capture.DefaultSettings())
	var out bytes.Buffer
	l := NewLoop(sess, &queueCmd{}, &out, nil, nil, nil)

	l.Dispatch('h')

	text := out.String()
	require.Contains(t, text, "Commands:")
	require.Contains(t, text, "Capture speed       : Full")
	require.Contains(t, text, "s - Start capture")
}

func TestDispatchIsCaseInsensitive(t *testing.T) {
	sess := capture.NewSession(capture.DefaultSettings())
	var out bytes.Buffer
	l := NewLoop(sess, &queueCmd{}, &out, nil, nil, nil)

	l.Dispatch('E')

	require.Equal(t, capture.SpeedLow, sess.Settings.Speed)
	require.Contains(t, out.String(), "Capture speed changed to Low")
}

func TestDispatchRotateWraps(t *testing.T) {
	sess := capture.NewSession(capture.DefaultSettings())
	var out bytes.Buffer
	l := NewLoop(sess, &queueCmd{}, &out, nil, nil, nil)

	require.Equal(t, capture.SpeedFull, sess.Settings.Speed)
	l.Dispatch('e')
	require.Equal(t, capture.SpeedLow, sess.Settings.Speed)
	l.Dispatch('e')
	require.Equal(t, capture.SpeedFull, sess.Settings.Speed)
}

func TestStartCaptureEmptyBuffer(t *testing.T) {
	sess := capture.NewSession(capture.DefaultSettings())
	fifo := &fakeFIFO{}

	var out bytes.Buffer
	l := NewLoop(sess, stopAfterDrain{fifo}, &out, nil, fifo, &fakeClock{})

	l.Dispatch('s')

	text := out.String()
	require.Contains(t, text, "Capture started")
	require.Contains(t, text, "Capture stopped")
	require.Contains(t, text, "Capture buffer is empty")
}

// TestStartCaptureDecodesBusReset feeds a single raw "bus reset" record
// (raw length 0), the one record shape constructible without depending
// on the PIO word-packing internals: its control word alone (0xffffffff,
// a bit count of 0 inverted) carries the whole record.
func TestStartCaptureDecodesBusReset(t *testing.T) {
	sess := capture.NewSession(capture.DefaultSettings())
	fifo := &fakeFIFO{words: []uint32{0xffffffff}}

	var out bytes.Buffer
	l := NewLoop(sess, stopAfterDrain{fifo}, &out, nil, fifo, &fakeClock{})

	l.Dispatch('s')

	text := out.String()
	require.Contains(t, text, "--- RESET ---")
	require.Contains(t, text, "1 bus reset")
	require.Equal(t, 1, sess.Info.Resets)
}

func TestWaitForTriggerStopCommandAborts(t *testing.T) {
	sess := capture.NewSession(capture.DefaultSettings())
	sess.Settings.Trigger = capture.TriggerEnabled

	cmd := &queueCmd{cmds: []byte{'p'}}
	var out bytes.Buffer
	l := NewLoop(sess, cmd, &out, &armedTrigger{after: 1000}, nil, nil)

	l.Dispatch('s')

	require.Contains(t, out.String(), "Waiting for a trigger")
	require.Contains(t, out.String(), "Capture stopped")
	require.NotContains(t, out.String(), "Capture started")
}

func TestWaitForTriggerArmed(t *testing.T) {
	sess := capture.NewSession(capture.DefaultSettings())
	sess.Settings.Trigger = capture.TriggerEnabled

	fifo := &fakeFIFO{}
	var out bytes.Buffer
	l := NewLoop(sess, stopAfterDrain{fifo}, &out, &armedTrigger{after: 0}, fifo, &fakeClock{})

	l.Dispatch('s')

	text := out.String()
	require.Contains(t, text, "Waiting for a trigger")
	require.Contains(t, text, "Capture started")
}

func TestStopCommandIsNoOpOutsideCapture(t *testing.T) {
	sess := capture.NewSession(capture.DefaultSettings())
	var out bytes.Buffer
	l := NewLoop(sess, &queueCmd{}, &out, nil, nil, nil)

	l.Dispatch('p')

	require.Empty(t, out.String())
}
