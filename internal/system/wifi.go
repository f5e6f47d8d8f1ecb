package system

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"codeberg.org/mutker/homemon/internal/errors"
)

// WiFiInfo describes the active wireless connection.
type WiFiInfo struct {
	Device  string
	MAC     string
	SSID    string
	Signal  string
	IP      string
	Netmask string
	Gateway string
}

// Network is one access point from a scan.
type Network struct {
	SSID     string
	Signal   int
	Security string
	MAC      string
}

// WiFiInfo collects connection details from nmcli and ip.
func (s *Service) WiFiInfo(ctx context.Context) (WiFiInfo, error) {
	devices, err := s.runner.Run(ctx, "nmcli", "-t", "-f", "DEVICE,TYPE,STATE", "device")
	if err != nil {
		return WiFiInfo{}, errors.New().Wrap(ErrCommandFailed, err)
	}

	device := activeWiFiDevice(string(devices))
	if device == "" {
		return WiFiInfo{}, errors.New().New(ErrNoWiFi)
	}

	info := WiFiInfo{Device: device}

	list, err := s.runner.Run(ctx, "nmcli", "-t", "-f", "SIGNAL,SSID,IN-USE", "device", "wifi", "list")
	if err != nil {
		return WiFiInfo{}, errors.New().Wrap(ErrCommandFailed, err)
	}
	info.Signal, info.SSID = inUseNetwork(string(list))

	addr, err := s.runner.Run(ctx, "ip", "addr", "show", device)
	if err != nil {
		return WiFiInfo{}, errors.New().Wrap(ErrCommandFailed, err)
	}
	info.MAC, info.IP, info.Netmask = parseAddr(string(addr))

	routes, err := s.runner.Run(ctx, "ip", "route")
	if err != nil {
		return WiFiInfo{}, errors.New().Wrap(ErrCommandFailed, err)
	}
	info.Gateway = defaultGateway(string(routes))

	return info, nil
}

// ScanWiFi rescans and lists visible networks, strongest signal first.
func (s *Service) ScanWiFi(ctx context.Context) ([]Network, error) {
	if _, err := s.runner.Run(ctx, "nmcli", "device", "wifi", "rescan"); err != nil {
		return nil, errors.New().Wrap(ErrCommandFailed, err)
	}

	out, err := s.runner.Run(ctx, "nmcli", "-t", "-f", "SIGNAL,SSID,SECURITY,BSSID", "device", "wifi", "list")
	if err != nil {
		return nil, errors.New().Wrap(ErrCommandFailed, err)
	}

	networks := parseScan(string(out))
	sort.SliceStable(networks, func(i, j int) bool {
		return networks[i].Signal > networks[j].Signal
	})

	return networks, nil
}

func activeWiFiDevice(output string) string {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(strings.TrimSpace(line), ":")
		if len(fields) >= 3 && fields[1] == "wifi" && fields[2] == "connected" {
			return fields[0]
		}
	}

	return ""
}

func inUseNetwork(output string) (signal, ssid string) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(strings.TrimSpace(line), ":")
		if len(fields) >= 3 && fields[2] == "*" {
			return fields[0], fields[1]
		}
	}

	return "", ""
}

func parseAddr(output string) (mac, ip, netmask string) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "link/ether"):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				mac = fields[1]
			}
		case strings.HasPrefix(line, "inet "):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				if cidr := strings.SplitN(fields[1], "/", 2); len(cidr) == 2 {
					ip, netmask = cidr[0], cidr[1]
				}
			}
		}
	}

	return mac, ip, netmask
}

func defaultGateway(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "default via") {
			continue
		}
		fields := strings.Fields(line)
		for i, f := range fields {
			if f == "via" && i+1 < len(fields) {
				return fields[i+1]
			}
		}
	}

	return ""
}

// BSSID colons are escaped in nmcli terse output, so only the first
// three fields split cleanly.
func parseScan(output string) []Network {
	var networks []Network
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, ":", 4)
		if len(fields) < 4 {
			continue
		}

		signal, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		security := fields[2]
		if security == "" {
			security = "None"
		}

		networks = append(networks, Network{
			SSID:     fields[1],
			Signal:   signal,
			Security: security,
			MAC:      strings.ReplaceAll(fields[3], `\:`, ":"),
		})
	}

	return networks
}
