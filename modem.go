package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// cmdBufSize is the staging capacity for one outgoing command including
// its CR+LF terminator.
const cmdBufSize = 256

// respBufSize bounds a single response read.
const respBufSize = 255

// ErrCommandTooLong is returned when a command plus its CR+LF terminator
// does not fit the staging buffer. Nothing is written in that case.
var ErrCommandTooLong = errors.New("modem: command longer than 254 bytes")

// Modem runs the scripted command/response exchange over an open serial
// line. The transport is an io.ReadWriter so tests can substitute an
// in-memory endpoint for a real Port.
//
// Not safe for concurrent use: the serial line carries one exchange at a
// time and the Modem assumes a single caller.
type Modem struct {
	conn io.ReadWriter
	cfg  Config
	out  io.Writer
}

// New returns a Modem speaking over conn. The command/response
// transcript goes to standard output until SetOutput is called.
func New(conn io.ReadWriter, cfg Config) *Modem {
	return &Modem{
		conn: conn,
		cfg:  cfg,
		out:  os.Stdout,
	}
}

// SetOutput redirects the command/response transcript.
func (m *Modem) SetOutput(w io.Writer) {
	m.out = w
}

// SendCommand terminates cmd with a single CR+LF, writes it in one call,
// waits the configured response delay, and performs exactly one bounded
// read of up to 255 bytes. Bytes read are printed verbatim; a zero-byte
// read prints a no-response notice. The response content is never
// inspected: callers proceed regardless of what the modem answered.
//
// A write or read failure is returned (and logged) so callers can tell
// an I/O error from a timeout with no data, but the error carries no
// recovery semantics.
func (m *Modem) SendCommand(cmd string) error {
	if len(cmd)+2 > cmdBufSize {
		return ErrCommandTooLong
	}
	buf := make([]byte, 0, cmdBufSize)
	buf = append(buf, cmd...)
	buf = append(buf, '\r', '\n')

	fmt.Fprintf(m.out, "Sending command: %s\n", cmd)
	if _, err := m.conn.Write(buf); err != nil {
		log.WithError(err).WithField("cmd", cmd).Error("command write failed")
		return fmt.Errorf("write command: %w", err)
	}

	// The modem has no ready prompt; give it a moment to answer before
	// the single read.
	if d := m.cfg.Delay(); d > 0 {
		time.Sleep(d)
	}

	resp := make([]byte, respBufSize)
	n, err := m.conn.Read(resp)
	if n > 0 {
		fmt.Fprintf(m.out, "Response: %s\n", resp[:n])
	} else {
		fmt.Fprintln(m.out, "No response received")
	}
	if err != nil && err != io.EOF {
		// A timed-out read on a VMIN=0 line surfaces as io.EOF and is
		// the normal no-response path; anything else is a transport
		// failure, even when it arrived with partial data.
		log.WithError(err).WithField("cmd", cmd).Error("command read failed")
		return fmt.Errorf("read response: %w", err)
	}
	return nil
}

// Provision runs the one-shot ABP join script: network session key,
// application session key, join. Every step is sent regardless of the
// previous step's outcome; the first I/O error, if any, is returned for
// observability only.
func (m *Modem) Provision() error {
	var firstErr error
	for _, cmd := range []string{
		"mac set nwkskey " + m.cfg.Session.NwkSKey,
		"mac set appskey " + m.cfg.Session.AppSKey,
		"mac join abp",
	} {
		if err := m.SendCommand(cmd); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run transmits a confirmed uplink and opens a receive window on every
// tick until ctx is cancelled, which is the loop's only exit. I/O errors
// are logged by SendCommand and the loop keeps going: a failed exchange
// and an unanswered one are treated alike.
func (m *Modem) Run(ctx context.Context) error {
	uplink := fmt.Sprintf("mac tx cnf %d %s", m.cfg.Uplink.Port, m.cfg.Uplink.Payload)
	for {
		m.SendCommand(uplink)
		m.SendCommand("mac rx 1")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.Interval()):
		}
	}
}
