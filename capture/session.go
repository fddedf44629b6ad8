// USB 1.x bus sniffer capture pipeline - capture session
// https://github.com/usbarmory/usbsniffer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package capture

import "io"

// Session owns one capture buffer and its current settings across
// repeated capture/decode/render cycles. All long-lived capture state
// hangs off a Session value; nothing in this package is package-level
// mutable state.
type Session struct {
	Settings Settings

	Buf  Buffer
	Info BufferInfo

	decoder  Decoder
	renderer Renderer
}

// NewSession builds a Session with a fresh buffer and the given initial
// settings.
func NewSession(s Settings) *Session {
	return &Session{
		Settings: s,
		Buf:      NewBuffer(),
		renderer: Renderer{Settings: s},
	}
}

// BeginCapture resets Info for a new run, snapshotting the session's
// current speed/trigger/limit settings before the drain loop starts.
func (sess *Session) BeginCapture() {
	sess.Info = BufferInfo{
		Speed:   sess.Settings.Speed,
		Trigger: sess.Settings.Trigger == TriggerEnabled,
		Limit:   sess.Settings.Limit.PacketCount(),
	}
}

// Decode rewrites the session's buffer from raw sampler output into
// processed records, given the record count the sampler reported when
// its drain loop ended.
func (sess *Session) Decode(rawCount int) {
	sess.Info.Count = rawCount
	sess.decoder.Process(sess.Buf, &sess.Info)
}

// Render writes the session's decoded buffer to w using the session's
// current display settings.
func (sess *Session) Render(w io.Writer) {
	sess.renderer.Settings = sess.Settings
	sess.renderer.Render(w, sess.Buf, &sess.Info)
}
