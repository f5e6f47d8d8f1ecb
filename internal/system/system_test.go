package system

import (
	"context"
	"strings"
	"testing"

	"codeberg.org/mutker/homemon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)

	return f.outputs[key], f.errs[key]
}

func TestPingValidAddress(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"ping -c 5 192.168.1.1": []byte("5 packets transmitted, 5 received"),
	}}
	svc := NewService(runner)

	out, err := svc.Ping(context.Background(), "192.168.1.1", 5)
	require.NoError(t, err)
	assert.Contains(t, out, "5 received")
}

func TestPingRejectsBadInput(t *testing.T) {
	svc := NewService(&fakeRunner{})

	cases := []struct {
		name    string
		address string
		count   int
		code    errors.ErrorCode
	}{
		{"empty address", "", 5, ErrInvalidAddress},
		{"shell metacharacters", "example.com; rm -rf /", 5, ErrInvalidAddress},
		{"leading dash", "-flag", 5, ErrInvalidAddress},
		{"overlong", strings.Repeat("a", 300), 5, ErrInvalidAddress},
		{"count too low", "example.com", 0, ErrInvalidCount},
		{"count too high", "example.com", 21, ErrInvalidCount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Ping(context.Background(), tc.address, tc.count)
			require.Error(t, err)
			assert.Equal(t, tc.code, errors.CodeOf(err))
		})
	}
}

func TestPingAcceptsHostnameAndIPv6(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"ping -c 1 example.com": []byte("ok"),
		"ping -c 1 ::1":         []byte("ok"),
	}}
	svc := NewService(runner)

	for _, address := range []string{"example.com", "::1"} {
		_, err := svc.Ping(context.Background(), address, 1)
		require.NoError(t, err, address)
	}
}

func TestWiFiInfo(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"nmcli -t -f DEVICE,TYPE,STATE device": []byte(
			"eth0:ethernet:unavailable\nwlan0:wifi:connected\nlo:loopback:unmanaged\n"),
		"nmcli -t -f SIGNAL,SSID,IN-USE device wifi list": []byte(
			"47:Neighbor:\n82:HomeNet:*\n"),
		"ip addr show wlan0": []byte(
			"2: wlan0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500\n" +
				"    link/ether aa:bb:cc:dd:ee:ff brd ff:ff:ff:ff:ff:ff\n" +
				"    inet 192.168.1.50/24 brd 192.168.1.255 scope global dynamic wlan0\n"),
		"ip route": []byte("default via 192.168.1.1 dev wlan0 proto dhcp metric 600\n"),
	}}
	svc := NewService(runner)

	info, err := svc.WiFiInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wlan0", info.Device)
	assert.Equal(t, "HomeNet", info.SSID)
	assert.Equal(t, "82", info.Signal)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", info.MAC)
	assert.Equal(t, "192.168.1.50", info.IP)
	assert.Equal(t, "24", info.Netmask)
	assert.Equal(t, "192.168.1.1", info.Gateway)
}

func TestWiFiInfoNoConnection(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"nmcli -t -f DEVICE,TYPE,STATE device": []byte("eth0:ethernet:connected\n"),
	}}
	svc := NewService(runner)

	_, err := svc.WiFiInfo(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrNoWiFi, errors.CodeOf(err))
}

func TestScanWiFiSortsBySignal(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"nmcli -t -f SIGNAL,SSID,SECURITY,BSSID device wifi list": []byte(
			`47:Weak:WPA2:AA\:BB\:CC\:DD\:EE\:01` + "\n" +
				`90:Strong::AA\:BB\:CC\:DD\:EE\:02` + "\n" +
				`65:Middle:WPA2 WPA3:AA\:BB\:CC\:DD\:EE\:03` + "\n"),
	}}
	svc := NewService(runner)

	networks, err := svc.ScanWiFi(context.Background())
	require.NoError(t, err)
	require.Len(t, networks, 3)
	assert.Equal(t, []string{"Strong", "Middle", "Weak"},
		[]string{networks[0].SSID, networks[1].SSID, networks[2].SSID})
	assert.Equal(t, "None", networks[0].Security)
	assert.Equal(t, "AA:BB:CC:DD:EE:02", networks[0].MAC)
	assert.Equal(t, "nmcli device wifi rescan", runner.calls[0])
}

func TestGitPullNotARepo(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string][]byte{
			"git rev-parse --git-dir": []byte("fatal: not a git repository"),
		},
		errs: map[string]error{
			"git rev-parse --git-dir": assert.AnError,
		},
	}
	svc := NewService(runner)

	_, err := svc.GitPull(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrNotGitRepo, errors.CodeOf(err))
}

func TestGitPull(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"git rev-parse --git-dir": []byte(".git"),
		"git pull":                []byte("Already up to date.\n"),
	}}
	svc := NewService(runner)

	out, err := svc.GitPull(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "Already up to date")
}

func TestRestartServices(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewService(runner)

	require.NoError(t, svc.RestartServices(context.Background(), []string{"homemon", "homemon-api"}))
	assert.Equal(t, []string{
		"sudo systemctl restart homemon",
		"sudo systemctl restart homemon-api",
	}, runner.calls)
}
