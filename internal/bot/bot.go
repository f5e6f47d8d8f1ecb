// Package bot exposes sensor readings and host maintenance over a
// Telegram chat interface.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/homemon/internal/chart"
	"codeberg.org/mutker/homemon/internal/errors"
	"codeberg.org/mutker/homemon/internal/logger"
	"codeberg.org/mutker/homemon/internal/system"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultHours     = 24
	defaultPingCount = 5
	updateTimeout    = 30
)

type Bot struct {
	api      *tgbotapi.BotAPI
	client   APIClient
	sys      *system.Service
	allowed  map[int64]struct{}
	services []string
}

// message is one outgoing chat message, either text or a photo.
type message struct {
	text  string
	photo []byte
}

func text(format string, args ...any) message {
	return message{text: fmt.Sprintf(format, args...)}
}

func New(cfg Config, client APIClient, sys *system.Service) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrInitFailed, err)
	}

	allowed := make(map[int64]struct{}, len(cfg.AllowedChatIDs))
	for _, id := range cfg.AllowedChatIDs {
		allowed[id] = struct{}{}
	}

	return &Bot{
		api:      api,
		client:   client,
		sys:      sys,
		allowed:  allowed,
		services: cfg.Services,
	}, nil
}

// Run processes incoming updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	logger.Info().Str("username", b.api.Self.UserName).Msg("Bot connected")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			chatID := update.Message.Chat.ID
			command := update.Message.Command()
			args := strings.Fields(update.Message.CommandArguments())

			logger.Debug().Int64("chat_id", chatID).Str("command", command).Msg("Command received")

			for _, msg := range b.handleCommand(ctx, chatID, command, args) {
				b.send(chatID, msg)
			}
		}
	}
}

func (b *Bot) send(chatID int64, msg message) {
	var err error
	if msg.photo != nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "chart.png", Bytes: msg.photo})
		_, err = b.api.Send(photo)
	} else {
		_, err = b.api.Send(tgbotapi.NewMessage(chatID, msg.text))
	}
	if err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) authorized(chatID int64) bool {
	_, ok := b.allowed[chatID]
	return ok
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command string, args []string) []message {
	if !b.authorized(chatID) {
		return []message{text("You are not authorized to use this bot.")}
	}

	switch command {
	case "help", "commands":
		return []message{text(helpText)}
	case "recent":
		return b.recent(ctx)
	case "average":
		return b.average(ctx, args)
	case "graphs":
		return b.graphs(ctx, args)
	case "wifi":
		return b.wifi(ctx)
	case "scan_wifi":
		return b.scanWiFi(ctx)
	case "ping":
		return b.ping(ctx, args)
	case "ota":
		return b.ota(ctx)
	case "reboot":
		return b.reboot(ctx)
	case "shutdown":
		return b.shutdown(ctx)
	case "restart_homemon":
		return b.restartServices(ctx)
	default:
		return []message{text("Unknown command. Use /help to see available commands.")}
	}
}

func (b *Bot) recent(ctx context.Context) []message {
	sensors, err := b.client.Sensors(ctx)
	if err != nil {
		return []message{text("Error fetching data: %v", err)}
	}

	measurements, err := b.client.RecentMeasurements(ctx)
	if err != nil {
		return []message{text("Error fetching data: %v", err)}
	}
	if len(measurements) == 0 {
		return []message{text("No measurements recorded yet.")}
	}

	return []message{text("%s", formatRecent(sensors, measurements))}
}

func (b *Bot) average(ctx context.Context, args []string) []message {
	hours, err := parseHours(args)
	if err != nil {
		return []message{text("Invalid number of hours specified.")}
	}

	end := time.Now()
	start := end.Add(-time.Duration(hours) * time.Hour)

	sensors, err := b.client.Sensors(ctx)
	if err != nil {
		return []message{text("Error fetching data: %v", err)}
	}
	if len(sensors) == 0 {
		return []message{text("No sensors found in the system.")}
	}

	var rows []averageRow
	var noData []string
	for _, s := range sensors {
		stats, err := b.client.SensorStats(ctx, s.ID, start, end)
		if err != nil {
			noData = append(noData, s.Name())
			continue
		}

		measurements, err := b.client.SensorMeasurements(ctx, s.ID, start, end)
		if err != nil {
			noData = append(noData, s.Name())
			continue
		}

		rows = append(rows, averageRow{
			Name:             s.Name(),
			AvgTemperature:   stats.AverageTemperature,
			AvgHumidity:      stats.AverageHumidity,
			MeasurementCount: len(measurements),
		})
	}

	if len(rows) == 0 && len(noData) > 0 {
		return []message{text("%s", noMeasurementsMessage(hours, noData))}
	}

	return []message{text("%s", formatAverages(hours, rows, noData))}
}

func (b *Bot) graphs(ctx context.Context, args []string) []message {
	hours, err := parseHours(args)
	if err != nil {
		return []message{text("Invalid number of hours specified.")}
	}

	end := time.Now()
	start := end.Add(-time.Duration(hours) * time.Hour)

	sensors, err := b.client.Sensors(ctx)
	if err != nil {
		return []message{text("Error fetching data: %v", err)}
	}
	if len(sensors) == 0 {
		return []message{text("No sensors found in the system.")}
	}

	type metric struct {
		title  string
		unit   string
		value  func(Measurement) float64
		series []chart.Series
	}
	metrics := []metric{
		{title: "Temperature", unit: "°C", value: func(m Measurement) float64 { return m.Temperature }},
		{title: "Humidity", unit: "%", value: func(m Measurement) float64 { return float64(m.Humidity) }},
		{title: "Battery", unit: "V", value: func(m Measurement) float64 { return m.BatteryVoltage }},
	}

	var withData, noData []string
	for _, s := range sensors {
		measurements, err := b.client.SensorMeasurements(ctx, s.ID, start, end)
		if err != nil || len(measurements) == 0 {
			noData = append(noData, s.Name())
			continue
		}
		withData = append(withData, s.Name())

		for i := range metrics {
			points := make([]chart.Point, len(measurements))
			for j, m := range measurements {
				points[j] = chart.Point{Time: m.Timestamp, Value: metrics[i].value(m)}
			}
			metrics[i].series = append(metrics[i].series, chart.Series{Label: s.Name(), Points: points})
		}
	}

	if len(withData) == 0 {
		return []message{text("%s", noMeasurementsMessage(hours, noData))}
	}

	var out []message
	if len(noData) > 0 {
		out = append(out, text(
			"Note: No data available for sensor%s %s in the last %dh. Generating graphs for sensor%s %s...",
			plural(len(noData)), strings.Join(noData, ", "),
			hours,
			plural(len(withData)), strings.Join(withData, ", ")))
	}

	for _, m := range metrics {
		title := fmt.Sprintf("%s over last %dh", m.title, hours)
		png, err := chart.RenderPNG(title, fmt.Sprintf("%s (%s)", m.title, m.unit), m.series)
		if err != nil {
			return append(out, text("An unexpected error occurred while generating graphs: %v", err))
		}
		out = append(out, message{photo: png})
	}

	return out
}

func (b *Bot) wifi(ctx context.Context) []message {
	info, err := b.sys.WiFiInfo(ctx)
	if err != nil {
		if errors.CodeOf(err) == system.ErrNoWiFi {
			return []message{text("No active WiFi connection found")}
		}

		return []message{text("Error getting WiFi info: %v", err)}
	}

	return []message{text("%s", formatWiFiInfo(info))}
}

func (b *Bot) scanWiFi(ctx context.Context) []message {
	networks, err := b.sys.ScanWiFi(ctx)
	if err != nil {
		return []message{text("Error scanning WiFi networks: %v", err)}
	}

	return []message{text("%s", formatNetworks(networks))}
}

func (b *Bot) ping(ctx context.Context, args []string) []message {
	var address string
	if len(args) > 0 {
		address = args[0]
	} else {
		info, err := b.sys.WiFiInfo(ctx)
		if err != nil {
			return []message{text("Error getting WiFi info: %v", err)}
		}
		address = info.Gateway
	}

	out, err := b.sys.Ping(ctx, address, defaultPingCount)
	if err != nil {
		return []message{text("Error: %v", err)}
	}

	return []message{text("%s", out)}
}

func (b *Bot) ota(ctx context.Context) []message {
	out, err := b.sys.GitPull(ctx)
	if err != nil {
		return []message{text("Error performing git pull: %v", err)}
	}

	return []message{text("%s", out)}
}

func (b *Bot) reboot(ctx context.Context) []message {
	if err := b.sys.Reboot(ctx); err != nil {
		return []message{text("Error rebooting: %v", err)}
	}

	return []message{text("Rebooting the system...")}
}

func (b *Bot) shutdown(ctx context.Context) []message {
	if err := b.sys.Shutdown(ctx); err != nil {
		return []message{text("Error shutting down: %v", err)}
	}

	return []message{text("Shutting down the system...")}
}

func (b *Bot) restartServices(ctx context.Context) []message {
	if len(b.services) == 0 {
		return []message{text("No services configured to restart.")}
	}

	if err := b.sys.RestartServices(ctx, b.services); err != nil {
		return []message{text("Error restarting services: %v", err)}
	}

	return []message{text("Restarted: %s", strings.Join(b.services, ", "))}
}

func parseHours(args []string) (int, error) {
	if len(args) == 0 {
		return defaultHours, nil
	}

	hours, err := strconv.Atoi(args[0])
	if err != nil || hours < 1 {
		return 0, errors.New().WithMessage(errors.ErrInvalidArgument, "invalid hours")
	}

	return hours, nil
}
