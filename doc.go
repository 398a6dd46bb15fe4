// Package modem drives AT-style LoRaWAN modems (RN2483/RN2903 "mac"
// command set) attached to a Linux serial line.
//
// The package has two layers:
//   - Port: an exclusively-owned serial session configured through raw
//     termios syscalls for 9600 baud, 8 data bits, no parity, one stop
//     bit, no flow control, and bounded non-canonical reads (a read
//     returns as soon as bytes are available, or empty after 0.5s)
//   - Modem: the scripted command/response exchange: ABP session
//     provisioning (nwkskey, appskey, join) followed by a perpetual
//     confirmed-uplink / receive-window loop
//
// The exchange is deliberately fire-and-forget: every command and its
// raw response are written to the transcript writer, but the modem's
// answers are never parsed or acted upon. The uplink loop runs until
// its context is cancelled.
//
// This package does **not** support Windows.
//
// Example usage:
//
//	cfg := modem.DefaultConfig()
//	cfg.Serial.Port = "/dev/ttyUSB0"
//
//	port, err := modem.OpenPort(modem.PortConfig{Device: cfg.Serial.Port})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	m := modem.New(port, cfg)
//	if err := m.Provision(); err != nil {
//	    log.Println("provisioning:", err)
//	}
//	if err := m.Run(ctx); err != nil {
//	    log.Println("uplink loop:", err)
//	}
package modem
