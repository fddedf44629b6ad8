// USB 1.x bus sniffer capture pipeline - offline replay tool
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build linux

package main

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/usbarmory/usbsniffer/capture"
	"github.com/usbarmory/usbsniffer/control"
)

// stdinCmdSource adapts a byte-at-a-time stdin reader to
// control.CommandSource. Unlike the on-target source this one blocks
// inside Poll, since there is no sampler loop here for it to interleave
// with.
type stdinCmdSource struct {
	r *bufio.Reader
}

func (s *stdinCmdSource) Poll() byte {
	b, err := s.r.ReadByte()
	if err != nil {
		return 'p'
	}
	return b
}

// runInteractive puts stdin into raw single-keystroke mode and drives
// control.Loop's dispatcher against the replayed buffer: 'b' re-renders it
// under the current display Settings, e/g/l/t/a/f rotate settings exactly as
// they do on-target, 'h'/'?' prints help, and 'q' exits. 's'/'p' are accepted
// but have no effect, since this tool has no sampler hardware to drive.
func runInteractive(buf capture.Buffer, info capture.BufferInfo, settings capture.Settings) error {
	fd := int(os.Stdin.Fd())

	restore, err := setRawMode(fd)
	if err != nil {
		return fmt.Errorf("entering raw terminal mode: %w", err)
	}
	defer restore()

	sess := &capture.Session{Settings: settings, Buf: buf, Info: info}
	cmd := &stdinCmdSource{r: bufio.NewReader(os.Stdin)}
	loop := control.NewLoop(sess, cmd, os.Stdout, nil, nil, nil)

	fmt.Fprint(os.Stdout, "\r\ninteractive replay: h for help, q to quit\r\n")

	for {
		b := cmd.Poll()
		switch control.Lower(b) {
		case 'q':
			fmt.Fprint(os.Stdout, "\r\n")
			return nil
		case 's', 'p':
			fmt.Fprint(os.Stdout, "\r\nno sampler hardware attached to a replay session\r\n")
		default:
			loop.Dispatch(b)
		}
	}
}

// setRawMode switches fd to non-canonical, unechoed, single-byte-at-a-time
// input (cfmakeraw's essential fields), returning a function that
// restores the terminal's prior state.
func setRawMode(fd int) (func(), error) {
	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	raw := *saved
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG
	raw.Iflag &^= unix.IXON | unix.ICRNL
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}

	return func() {
		unix.IoctlSetTermios(fd, unix.TCSETS, saved)
	}, nil
}
