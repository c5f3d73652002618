package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heatzy-to-mqtt/adapters"
	"heatzy-to-mqtt/application"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var Flags = []cli.Flag{
	FlagLogLevel,
	FlagLogWriter,
	FlagHeatzyUsername,
	FlagHeatzyPassword,
	FlagHeatzyURL,
	FlagHeatzyTimeout,
	FlagEnableFrostProtection,
	FlagEnableOff,
	FlagIncludeAliases,
	FlagPollInterval,
	FlagAccessoryCache,
	FlagMQTTUrl,
	FlagMQTTClientID,
	FlagMQTTUsername,
	FlagMQTTPassword,
	FlagMQTTTopic,
	FlagMQTTDiscoveryPrefix,
	FlagReportInterval,
}

func main() {
	var logger zerolog.Logger

	app := cli.App{
		Name:    "heatzy-to-mqtt",
		Usage:   "expose heatzy pilote heaters as mqtt switches, one per mode",
		Version: "v0.1.0",
		Flags:   Flags,
		Before: func(ctx *cli.Context) error {
			var logWriter io.Writer
			switch ctx.String(FlagLogWriter.Name) {
			case "console":
				logWriter = zerolog.ConsoleWriter{
					Out:        os.Stderr,
					TimeFormat: time.RFC3339Nano,
				}
			case "json":
				logWriter = os.Stderr
			default:
				return fmt.Errorf("invalid log writer %q", ctx.String(FlagLogWriter.Name))
			}

			logger = zerolog.New(logWriter).With().Timestamp().
				Str("service", "heatzy-to-mqtt").
				Str("module", "main").
				Logger()

			level, err := zerolog.ParseLevel(ctx.String(FlagLogLevel.Name))
			if err != nil {
				return err
			}

			zerolog.SetGlobalLevel(level)
			adapters.SetPahoLoggers(logger.With().Str("module", "paho").Logger())

			return nil
		},
		Action: func(ctx *cli.Context) error {
			logger.Info().Msg("service starting...")

			appCtx, cancel := context.WithCancel(logger.WithContext(context.Background()))
			defer cancel()
			go func() {
				c := make(chan os.Signal, 1)
				signal.Notify(c, os.Interrupt, syscall.SIGTERM)

				<-c

				logger.Warn().Msg("interrupt signal received")
				cancel()
			}()

			heatzyClient, err := adapters.NewHeatzyClient(adapters.HeatzyClientParams{
				Username: ctx.String(FlagHeatzyUsername.Name),
				Password: ctx.String(FlagHeatzyPassword.Name),
				BaseURL:  ctx.String(FlagHeatzyURL.Name),
				Timeout:  ctx.Duration(FlagHeatzyTimeout.Name),
				Log:      logger.With().Str("module", "heatzy-client").Logger(),
			})
			if err != nil {
				return err
			}

			topic := ctx.String(FlagMQTTTopic.Name)
			availabilityTopic := fmt.Sprintf("%s/bridge/availability", topic)

			mqttClient := adapters.NewMQTTClient(adapters.MQTTClientParams{
				ClientID:          ctx.String(FlagMQTTClientID.Name),
				Username:          ctx.String(FlagMQTTUsername.Name),
				Password:          ctx.String(FlagMQTTPassword.Name),
				MQTTUrl:           ctx.String(FlagMQTTUrl.Name),
				AvailabilityTopic: availabilityTopic,
				Log:               logger.With().Str("module", "mqtt-client").Logger(),
			})

			logger.Info().Msgf("mqtt broker: %s", ctx.String(FlagMQTTUrl.Name))
			if err := mqttClient.Connect(); err != nil {
				return fmt.Errorf("connecting to mqtt: %w", err)
			}
			defer mqttClient.Disconnect()

			registry, err := adapters.NewMQTTAccessoryRegistry(adapters.MQTTAccessoryRegistryParams{
				Client:            mqttClient,
				Topic:             topic,
				DiscoveryPrefix:   ctx.String(FlagMQTTDiscoveryPrefix.Name),
				AvailabilityTopic: availabilityTopic,
				IncludeAliases:    ctx.Bool(FlagIncludeAliases.Name),
				Log:               logger.With().Str("module", "registry").Logger(),
			})
			if err != nil {
				return err
			}

			bridgeService, err := application.NewBridgeService(application.BridgeServiceParams{
				HeatzyClient:    heatzyClient,
				MQTTClient:      mqttClient,
				Registry:        registry,
				Cache:           adapters.NewFileAccessoryCache(ctx.String(FlagAccessoryCache.Name)),
				EnableAntiFrost: ctx.Bool(FlagEnableFrostProtection.Name),
				EnableOff:       ctx.Bool(FlagEnableOff.Name),
				PollInterval:    ctx.Duration(FlagPollInterval.Name),
				ReportInterval:  ctx.Duration(FlagReportInterval.Name),
				Log:             logger.With().Str("module", "bridge").Logger(),
			})
			if err != nil {
				return err
			}

			logger.Info().Msg("service started")
			err = bridgeService.Run(appCtx)
			if err != nil {
				return err
			}

			logger.Info().Msg("service terminating...")
			return nil
		},
		Authors: []*cli.Author{
			{
				Name: "heatzy-to-mqtt contributors",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Err(err).Msg("service terminated")
		os.Exit(1)
	}
}
