package main

import (
	"heatzy-to-mqtt/adapters"
	"heatzy-to-mqtt/application"

	"github.com/urfave/cli/v2"
)

var FlagLogLevel = &cli.StringFlag{
	Name:     "log-level",
	EnvVars:  []string{"LOG_LEVEL"},
	Value:    "info",
	Required: false,
}

var FlagLogWriter = &cli.StringFlag{
	Name:     "log-writer",
	Usage:    "one of: [console, json]",
	EnvVars:  []string{"LOG_WRITER"},
	Value:    "console",
	Required: false,
}

var FlagHeatzyUsername = &cli.StringFlag{
	Name:     "heatzy-username",
	Usage:    "heatzy account username",
	EnvVars:  []string{"HEATZY_USERNAME"},
	Required: true,
}

var FlagHeatzyPassword = &cli.StringFlag{
	Name:     "heatzy-password",
	Usage:    "heatzy account password",
	EnvVars:  []string{"HEATZY_PASSWORD"},
	Required: true,
}

var FlagHeatzyURL = &cli.StringFlag{
	Name:     "heatzy-url",
	Usage:    "gizwits cloud api endpoint",
	EnvVars:  []string{"HEATZY_URL"},
	Value:    adapters.HeatzyDefaultBaseURL,
	Required: false,
}

var FlagHeatzyTimeout = &cli.DurationFlag{
	Name:     "heatzy-timeout",
	Usage:    "timeout of a heatzy api request, 0 disables it",
	EnvVars:  []string{"HEATZY_TIMEOUT"},
	Value:    0,
	Required: false,
}

var FlagEnableFrostProtection = &cli.BoolFlag{
	Name:     "enable-frost-protection",
	Usage:    "expose the frost protection mode as a switch",
	EnvVars:  []string{"ENABLE_FROST_PROTECTION"},
	Required: false,
}

var FlagEnableOff = &cli.BoolFlag{
	Name:     "enable-off",
	Usage:    "expose the off mode as a switch",
	EnvVars:  []string{"ENABLE_OFF"},
	Required: false,
}

var FlagIncludeAliases = &cli.BoolFlag{
	Name:     "include-aliases",
	Usage:    "prefix switch names with the device alias",
	EnvVars:  []string{"INCLUDE_ALIASES"},
	Required: false,
}

var FlagPollInterval = &cli.DurationFlag{
	Name:     "poll-interval",
	EnvVars:  []string{"POLL_INTERVAL"},
	Value:    application.DefaultPollInterval,
	Required: false,
}

var FlagAccessoryCache = &cli.StringFlag{
	Name:     "accessory-cache",
	Usage:    "file keeping the accessories announced on mqtt",
	EnvVars:  []string{"ACCESSORY_CACHE"},
	Value:    "heatzy-accessories.yaml",
	Required: false,
}

var FlagMQTTUrl = &cli.StringFlag{
	Name:     "mqtt-url",
	Usage:    "tcp://broker:port",
	EnvVars:  []string{"MQTT_URL"},
	Required: true,
}

var FlagMQTTClientID = &cli.StringFlag{
	Name:     "mqtt-client-id",
	EnvVars:  []string{"MQTT_CLIENT_ID"},
	Value:    "heatzy-to-mqtt",
	Required: false,
}

var FlagMQTTUsername = &cli.StringFlag{
	Name:     "mqtt-username",
	EnvVars:  []string{"MQTT_USERNAME"},
	Required: false,
}

var FlagMQTTPassword = &cli.StringFlag{
	Name:     "mqtt-password",
	EnvVars:  []string{"MQTT_PASSWORD"},
	Required: false,
}

var FlagMQTTTopic = &cli.StringFlag{
	Name:     "mqtt-topic",
	EnvVars:  []string{"MQTT_TOPIC"},
	Value:    adapters.MQTTDefaultTopic,
	Required: false,
}

var FlagMQTTDiscoveryPrefix = &cli.StringFlag{
	Name:     "mqtt-discovery-prefix",
	Usage:    "home assistant discovery prefix",
	EnvVars:  []string{"MQTT_DISCOVERY_PREFIX"},
	Value:    adapters.MQTTDefaultDiscoveryPrefix,
	Required: false,
}

var FlagReportInterval = &cli.DurationFlag{
	Name:     "report-interval",
	Usage:    "interval of the mqtt publish report",
	EnvVars:  []string{"REPORT_INTERVAL"},
	Value:    application.DefaultReportInterval,
	Required: false,
}
