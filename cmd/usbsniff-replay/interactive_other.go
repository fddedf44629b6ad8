// USB 1.x bus sniffer capture pipeline - offline replay tool
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !linux

package main

import (
	"fmt"

	"github.com/usbarmory/usbsniffer/capture"
)

// runInteractive is only implemented for Linux, where golang.org/x/sys/unix
// exposes the TCGETS/TCSETS termios ioctls used by interactive_linux.go.
func runInteractive(buf capture.Buffer, info capture.BufferInfo, settings capture.Settings) error {
	return fmt.Errorf("--interactive is only supported on linux")
}
