package bot

import (
	"fmt"
	"strings"

	"codeberg.org/mutker/homemon/internal/system"
)

const helpText = `Available commands:
/recent - Shows latest measurements from all sensors
/average [hours] - Displays average values over specified hours (default: 24h)
/graphs [hours] - Generates sensor data graphs for specified period (default: 24h)
/wifi - Shows current WiFi connection details
/scan_wifi - Shows available WiFi networks sorted by signal strength
/ping [address] - Pings specified address or gateway
/ota - Updates code from git repository (git pull)
/reboot - Reboots the system
/shutdown - Safely shuts down the system
/restart_homemon - Restarts configured homemon services
/help, /commands - Shows this help message`

const timestampFormat = "2006.01.02  15:04:05"

func formatRecent(sensors []Sensor, measurements []RecentMeasurement) string {
	byID := make(map[int64]Sensor, len(sensors))
	for _, s := range sensors {
		byID[s.ID] = s
	}

	blocks := make([]string, 0, len(measurements))
	for _, m := range measurements {
		name := fmt.Sprintf("%d", m.SensorID)
		if s, ok := byID[m.SensorID]; ok {
			name = s.Name()
		}

		blocks = append(blocks, fmt.Sprintf(
			"%s:\nTemperature: %g°C\nHumidity: %d%%\nBattery: %gV\nLast update: %s",
			name, m.Temperature, m.Humidity, m.BatteryVoltage,
			m.Timestamp.Local().Format(timestampFormat)))
	}

	return strings.Join(blocks, "\n\n")
}

// averageRow is one sensor's aggregate for the averages reply.
type averageRow struct {
	Name             string
	AvgTemperature   float64
	AvgHumidity      float64
	MeasurementCount int
}

func formatAverages(hours int, rows []averageRow, noData []string) string {
	blocks := make([]string, 0, len(rows))
	for _, r := range rows {
		blocks = append(blocks, fmt.Sprintf(
			"%s:\nAverage Temperature: %.1f°C\nAverage Humidity: %.1f%%\nNumber of measurements: %d",
			r.Name, r.AvgTemperature, r.AvgHumidity, r.MeasurementCount))
	}

	message := fmt.Sprintf("Averages over last %dh:\n\n%s", hours, strings.Join(blocks, "\n\n"))
	if len(noData) > 0 {
		message += fmt.Sprintf("\n\nNote: No data available for sensor%s %s in this time period.",
			plural(len(noData)), strings.Join(noData, ", "))
	}

	return message
}

func noMeasurementsMessage(hours int, names []string) string {
	verb := "is"
	if len(names) > 1 {
		verb = "are"
	}

	return fmt.Sprintf(
		"No measurements found for sensor%s %s in the last %d hour%s. "+
			"Try increasing the time range or check if the sensor%s %s working properly.",
		plural(len(names)), strings.Join(names, ", "),
		hours, plural(hours),
		plural(len(names)), verb)
}

func formatWiFiInfo(info system.WiFiInfo) string {
	return fmt.Sprintf(
		"WiFi Network: %s\nSignal Strength: %s\nIP Address: %s\nNetmask: %s\nGateway: %s",
		info.SSID, info.Signal, info.IP, info.Netmask, info.Gateway)
}

func formatNetworks(networks []system.Network) string {
	if len(networks) == 0 {
		return "No WiFi networks found."
	}

	lines := []string{"Available WiFi Networks:"}
	for _, n := range networks {
		lines = append(lines, fmt.Sprintf(
			"\n📶 %s\nSignal Strength: %d%%\nSecurity: %s",
			n.SSID, n.Signal, n.Security))
	}

	return strings.Join(lines, "\n")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}

	return "s"
}
