package main

import (
	"encoding/hex"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/packetify/telematics-gateway/internal/config"
	"github.com/packetify/telematics-gateway/pipeline"
	"github.com/packetify/telematics-gateway/pipeline/natspublisher"
	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/protocol/huabao"
	"github.com/packetify/telematics-gateway/protocol/manpower"
	"github.com/packetify/telematics-gateway/protocol/owntracks"
	"github.com/packetify/telematics-gateway/protocol/tr900"
	"github.com/packetify/telematics-gateway/session"
	"github.com/packetify/telematics-gateway/store/clickhouse"
	"github.com/packetify/telematics-gateway/tools/devicesim"
	"github.com/packetify/telematics-gateway/transport/httpapi"
	"github.com/packetify/telematics-gateway/transport/tcp"
	"github.com/packetify/telematics-gateway/transport/udp"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("create logger failed: %v\n", err)
	}
	defer logger.Sync()

	app := &cli.App{
		Name:  "telematics-gateway",
		Usage: "multi-protocol GPS/telematics ingestion gateway",
		Commands: []*cli.Command{
			serverCommand(logger),
			simulatorCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func serverCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "starts the protocol listeners",
		Action: func(ctx *cli.Context) error {
			return runServer(logger)
		},
	}
}

func runServer(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	directory := session.NoopDirectory{}
	registry := session.NewRegistry(directory, cfg.AutoRegisterDevices, cfg.IdleTimeout)

	publisher, err := buildPublisher(cfg, logger)
	if err != nil {
		return err
	}

	huabaoTimezone, err := session.ParseTimezone(cfg.HuabaoTimezone)
	if err != nil {
		return err
	}
	huabaoDecoder := huabao.NewDecoder("huabao", registry, cfg.HuabaoIgnoreFixTime, huabaoTimezone)
	tr900Decoder := tr900.NewDecoder(registry)
	manpowerDecoder := manpower.NewDecoder(registry)
	owntracksDecoder := owntracks.NewDecoder(registry)

	// The command dispatcher (package command) routes outbound commands to
	// a device's live connection; this binary has no admin surface to
	// trigger one yet, so it is exercised by command's own tests rather
	// than wired here.

	huabaoServer := tcp.NewServer("huabao", func() protocol.FrameDecoder { return huabao.NewFrameDecoder() },
		huabaoDecoder, publisher, logger, cfg.IdleTimeout)
	huabaoServer.SetFrameRateLimit(cfg.HuabaoFrameRate, cfg.HuabaoFrameBurst)
	tr900Server := udp.NewServer("tr900", tr900Decoder, publisher, logger)
	manpowerServer := udp.NewServer("manpower", manpowerDecoder, publisher, logger)
	owntracksServer := httpapi.NewServer("owntracks", owntracksDecoder, publisher, logger)

	if err := huabaoServer.Start(cfg.HuabaoAddr); err != nil {
		return err
	}
	if err := tr900Server.Start(cfg.TR900Addr); err != nil {
		return err
	}
	if err := manpowerServer.Start(cfg.ManPowerAddr); err != nil {
		return err
	}
	if err := owntracksServer.Start(cfg.OwnTracksAddr); err != nil {
		return err
	}

	go idleSweep(registry, cfg.IdleTimeout)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	huabaoServer.Stop()
	tr900Server.Stop()
	manpowerServer.Stop()
	owntracksServer.Stop()
	return nil
}

func simulatorCommand() *cli.Command {
	var host, deviceID string
	var interval time.Duration
	return &cli.Command{
		Name:  "simulate",
		Usage: "drives a fake Huabao tracker against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "host",
				Usage:       "huabao server address",
				Destination: &host,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "id",
				Usage:       "12 hex digit device id",
				Value:       randomDeviceIDHex(),
				Destination: &deviceID,
			},
			&cli.DurationFlag{
				Name:        "interval",
				Usage:       "time between simulated location reports",
				Value:       5 * time.Second,
				Destination: &interval,
			},
		},
		Action: func(ctx *cli.Context) error {
			device, err := devicesim.NewTrackerDevice(host, deviceID, log.Default())
			if err != nil {
				return err
			}
			if err := device.Connect(); err != nil {
				return err
			}
			go device.SendRandomReports(interval)

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			<-sigs
			device.Stop()
			return nil
		},
	}
}

func randomDeviceIDHex() string {
	id := make([]byte, 6)
	rand.New(rand.NewSource(time.Now().UnixNano())).Read(id)
	return hex.EncodeToString(id)
}

func buildPublisher(cfg *config.Config, logger *zap.Logger) (pipeline.Publisher, error) {
	if cfg.ClickHouseURL != "" {
		store, err := clickhouse.Connect(cfg.ClickHouseURL)
		if err != nil {
			return nil, err
		}
		return clickhouse.NewSink(store, logger), nil
	}
	return natspublisher.Connect(cfg.NatsURL, cfg.PositionsSubject, 1024, logger)
}

func idleSweep(registry *session.Registry, idleTimeout time.Duration) {
	if idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(idleTimeout / 2)
	defer ticker.Stop()
	for range ticker.C {
		registry.ExpireIdle(time.Now())
	}
}
