//    Copyright 2017 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"

	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/binkynet/SunxiPWM/model"
	"github.com/binkynet/SunxiPWM/pkg/environment"
	"github.com/binkynet/SunxiPWM/pkg/logging"
	"github.com/binkynet/SunxiPWM/pkg/server"
	"github.com/binkynet/SunxiPWM/pkg/service"
	"github.com/binkynet/SunxiPWM/pkg/service/bridge"
	"github.com/binkynet/SunxiPWM/pkg/service/mqtt"
	"github.com/binkynet/SunxiPWM/pkg/ui"
)

const (
	projectName     = "Sunxi PWM worker"
	defaultHTTPPort = 7129
	defaultSSHPort  = 7122
	recentLogLines  = 100
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

func main() {
	var levelFlag string
	var bridgeType string
	var serverHost string
	var httpPort int
	var sshPort int
	var mqttBroker string
	var mqttTopicPrefix string
	var pwmConfigs []string
	var disableOnExit bool
	sunxiConfig := bridge.DefaultSunxiConfig()

	pflag.StringVarP(&levelFlag, "level", "l", "info", "Set log level")
	pflag.StringVarP(&bridgeType, "bridge", "b", environment.BridgeTypeAuto, "Type of bridge to use (auto|sunxi|virtual)")
	pflag.StringVar(&sunxiConfig.DevMemPath, "devmem", sunxiConfig.DevMemPath, "Path of the physical memory device")
	pflag.IntVar(&sunxiConfig.GreenLedPin, "green-led-pin", sunxiConfig.GreenLedPin, "GPIO of the green status led (-1 to disable)")
	pflag.IntVar(&sunxiConfig.RedLedPin, "red-led-pin", sunxiConfig.RedLedPin, "GPIO of the red status led (-1 to disable)")
	pflag.StringVar(&serverHost, "host", "0.0.0.0", "Host address the HTTP & SSH servers will listen on")
	pflag.IntVar(&httpPort, "http-port", defaultHTTPPort, "Port the HTTP server will listen on")
	pflag.IntVar(&sshPort, "ssh-port", defaultSSHPort, "Port the SSH server will listen on (0 to disable)")
	pflag.StringVar(&mqttBroker, "mqtt-broker", "", "Address (host:port) of the MQTT broker")
	pflag.StringVar(&mqttTopicPrefix, "mqtt-topic-prefix", mqtt.DefaultTopicPrefix, "Prefix of all MQTT topics")
	pflag.StringArrayVar(&pwmConfigs, "pwm", nil, "Channel configuration applied at startup, e.g. 'ch=0,freq=50Hz,duty=7.5%'")
	pflag.BoolVar(&disableOnExit, "disable-on-exit", false, "Disable all channels on exit")
	pflag.Parse()

	level, err := zerolog.ParseLevel(levelFlag)
	if err != nil {
		Exitf("Invalid log level '%s': %v\n", levelFlag, err)
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recentLogs := logging.NewRecentLines(recentLogLines)
	mqttLogs := logging.NewMQTTWriter(ctx)
	logOutput := logging.NewMultiWriter(
		zerolog.ConsoleWriter{Out: os.Stderr},
		zerolog.ConsoleWriter{Out: recentLogs, NoColor: true},
	)
	logger := zerolog.New(logOutput).Level(level).With().Timestamp().Logger()

	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	var channels []model.ChannelConfig
	for _, s := range pwmConfigs {
		c, err := model.ParseChannelConfig(s)
		if err != nil {
			Exitf("Invalid --pwm '%s': %v\n", s, err)
		}
		channels = append(channels, c)
	}

	if bridgeType == environment.BridgeTypeAuto {
		bridgeType = environment.AutoDetectBridgeType(logger)
	}
	var br bridge.API
	switch bridgeType {
	case environment.BridgeTypeSunxi:
		br, err = bridge.NewSunxiBridge(sunxiConfig)
		if err != nil {
			Exitf("Failed to initialize Sunxi Bridge: %v\n", err)
		}
	case environment.BridgeTypeVirtual:
		br, err = bridge.NewVirtualBridge()
		if err != nil {
			Exitf("Failed to initialize Virtual Bridge: %v\n", err)
		}
	default:
		Exitf("Unknown bridge type '%s' (auto|sunxi|virtual)\n", bridgeType)
	}

	svc, err := service.NewService(service.Config{
		Channels:      channels,
		DisableOnExit: disableOnExit,
	}, service.Dependencies{
		Logger: logger,
		Bridge: br,
	})
	if err != nil {
		Exitf("Failed to initialize Service: %v\n", err)
	}

	mqttBridge := mqtt.New(mqtt.Config{
		BrokerAddress: mqttBroker,
		TopicPrefix:   mqttTopicPrefix,
	}, logger, svc)
	if mqttBroker != "" {
		logOutput.Add(mqttLogs)
		mqttLogs.SetDestination(mqttBridge.TopicPrefix()+"/log", mqttBridge)
		mqttLogs.Enable(true)
	}

	httpServer, err := server.New(server.Config{
		Host:     serverHost,
		HTTPPort: httpPort,
		SSHPort:  sshPort,
	}, logger, ui.New(svc, recentLogs), svc)
	if err != nil {
		Exitf("Failed to initialize Server: %v\n", err)
	}

	fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	logger.Info().
		Str("bridge", bridgeType).
		Int("channels", len(channels)).
		Msg("Starting")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error { return httpServer.Run(ctx) })
	g.Go(func() error { return mqttBridge.Run(ctx) })
	if err := g.Wait(); err != nil {
		Exitf("Service run failed: %v\n", err)
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
