package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	modem "github.com/luhtfiimanal/go-lora-modem"
)

func init() {
	log.SetLevel(log.InfoLevel)
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <device>\n", c.App.Name)
		return cli.NewExitError("exactly one serial device argument is required", 1)
	}

	cfg := modem.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := modem.LoadConfig(path)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		cfg = loaded
	}
	cfg.Serial.Port = c.Args().First()
	if c.IsSet("interval") {
		cfg.Uplink.IntervalSeconds = c.Float64("interval")
	}
	if c.IsSet("payload") {
		cfg.Uplink.Payload = c.String("payload")
	}
	if err := cfg.Validate(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	port, err := modem.OpenPort(modem.PortConfig{
		Device:   cfg.Serial.Port,
		BaudRate: cfg.Serial.BaudRate,
	})
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"device":   cfg.Serial.Port,
		"baudrate": cfg.Serial.BaudRate,
	}).Info("serial device opened, provisioning ABP session")

	m := modem.New(port, cfg)
	if err := m.Provision(); err != nil {
		log.WithError(err).Warn("provisioning exchange hit an I/O error, continuing")
	}

	log.WithFields(log.Fields{
		"payload":  cfg.Uplink.Payload,
		"interval": cfg.Interval(),
	}).Info("starting uplink loop")
	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewExitError(err.Error(), 1)
	}
	log.Info("shutting down")
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "loramodem"
	app.Usage = "drive an AT-style LoRaWAN modem over a serial device"
	app.ArgsUsage = "<device>"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "path to the YAML configuration file",
			EnvVar: "LORAMODEM_CONFIG",
		},
		cli.Float64Flag{
			Name:   "interval",
			Usage:  "seconds between uplink attempts",
			EnvVar: "LORAMODEM_INTERVAL",
		},
		cli.StringFlag{
			Name:   "payload",
			Usage:  "hex payload for confirmed uplinks",
			EnvVar: "LORAMODEM_PAYLOAD",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
