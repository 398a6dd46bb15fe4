package modem

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// PortConfig holds configuration parameters for opening a serial port.
type PortConfig struct {
	Device   string
	BaudRate int // default 9600
}

// Port is an exclusively-owned handle to a serial character device. The
// line is configured for raw operation: a modem response is read as-is,
// with no canonical processing, echo, or flow control. Reads are bounded
// by the termios timer, so a Read never blocks longer than 0.5s.
type Port struct {
	fd        int
	file      *os.File
	closeOnce sync.Once
	config    PortConfig
}

// OpenPort opens a serial device for read/write without becoming its
// controlling terminal and applies the modem line settings.
func OpenPort(cfg PortConfig) (*Port, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	fd, err := syscall.Open(cfg.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK|syscall.O_SYNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("get termios: %w", err)
	}

	configureModemLine(termios, baudToUnix(cfg.BaudRate))

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("set termios: %w", err)
	}

	// Turn back into blocking mode now that config is done; VTIME
	// bounds every read from here on.
	syscall.SetNonblock(fd, false)

	file := os.NewFile(uintptr(fd), cfg.Device)
	return &Port{
		fd:     fd,
		file:   file,
		config: cfg,
	}, nil
}

// configureModemLine mutates a termios structure into the discipline the
// modem expects: 8 data bits, no parity, one stop bit, no hardware or
// software flow control, no input byte translation (CR and NL arrive
// untouched), no canonical/echo/signal processing, no output
// post-processing, and VMIN=0 with VTIME=5 so a read returns immediately
// with whatever bytes are available, or empty after 0.5s.
func configureModemLine(t *unix.Termios, baud uint32) {
	t.Cflag &^= unix.CSIZE
	t.Cflag |= unix.CS8
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL
	t.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
	t.Lflag = 0
	t.Oflag = 0

	t.Cflag |= unix.CLOCAL | unix.CREAD
	t.Cflag &^= unix.PARENB | unix.PARODD
	t.Cflag &^= unix.CSTOPB
	t.Cflag &^= unix.CRTSCTS

	t.Cflag &^= unix.CBAUD
	t.Cflag |= baud
	t.Ispeed = baud
	t.Ospeed = baud

	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 5
}

// Read reads up to len(b) bytes from the device. A read that times out
// with no data returns (0, io.EOF), which callers treat as "no response".
func (p *Port) Read(b []byte) (int, error) {
	return p.file.Read(b)
}

// Write writes b to the device.
func (p *Port) Write(b []byte) (int, error) {
	return p.file.Write(b)
}

// Name returns the device path the port was opened with.
func (p *Port) Name() string {
	return p.config.Device
}

// Close closes the serial port.
// Safe to call multiple times; subsequent calls are no-ops.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.file.Close()
	})
	return err
}

func baudToUnix(baud int) uint32 {
	switch baud {
	case 1200:
		return unix.B1200
	case 2400:
		return unix.B2400
	case 4800:
		return unix.B4800
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	default:
		return unix.B9600 // fallback
	}
}
