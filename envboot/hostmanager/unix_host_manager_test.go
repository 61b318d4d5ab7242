package hostmanager

import (
	"context"
	"testing"

	cm "github.com/steelcutops/envboot/envboot/commandmanager"
)

type MockCommandManager struct {
	Outputs map[string]string
	Err     error
}

func (m *MockCommandManager) getMockOutput(config cm.CommandConfig) cm.CommandResult {
	key := config.Command
	if len(config.Args) > 0 {
		key += " " + config.Args[0]
	}
	if output, exists := m.Outputs[key]; exists {
		return cm.CommandResult{STDOUT: output}
	}
	return cm.CommandResult{}
}

func (m *MockCommandManager) RunLocal(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return m.getMockOutput(config), m.Err
}

func (m *MockCommandManager) RunRemote(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return m.getMockOutput(config), m.Err
}

func (m *MockCommandManager) Run(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return m.getMockOutput(config), m.Err
}

const ubuntuRelease = `PRETTY_NAME="Ubuntu 22.04.3 LTS"
NAME="Ubuntu"
VERSION_ID="22.04"
ID=ubuntu
ID_LIKE=debian
`

func TestInfo(t *testing.T) {
	mockCmd := &MockCommandManager{
		Outputs: map[string]string{
			"hostname":            "test-hostname\n",
			"uname -r":            "6.1.0-13-amd64\n",
			"cat /etc/os-release": ubuntuRelease,
		},
	}
	hostManager := UnixHostManager{CommandManager: mockCmd}

	info, err := hostManager.Info(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if info.Hostname != "test-hostname" {
		t.Errorf("Expected hostname 'test-hostname', got: %v", info.Hostname)
	}
	if info.DistributionID != "ubuntu" || info.VersionID != "22.04" {
		t.Errorf("Unexpected distribution: %+v", info)
	}
	if !info.DebianLike() {
		t.Errorf("Expected ubuntu to be debian-like")
	}
	if info.KernelVersion != "6.1.0-13-amd64" {
		t.Errorf("Unexpected kernel version: %v", info.KernelVersion)
	}
}

func TestInfoMissingOSRelease(t *testing.T) {
	mockCmd := &MockCommandManager{
		Outputs: map[string]string{"hostname": "h\n"},
	}
	hostManager := UnixHostManager{CommandManager: mockCmd}

	if _, err := hostManager.Info(context.Background()); err == nil {
		t.Errorf("Expected an error for empty os-release")
	}
}

func TestHostname(t *testing.T) {
	mockCmd := &MockCommandManager{
		Outputs: map[string]string{
			"hostname": "test-hostname\n",
		},
	}
	hostManager := UnixHostManager{CommandManager: mockCmd}

	hostname, err := hostManager.Hostname(context.Background())
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if hostname != "test-hostname" {
		t.Errorf("Expected hostname 'test-hostname', got: %v", hostname)
	}
}

func TestDebianLike(t *testing.T) {
	tests := []struct {
		info     HostInfo
		expected bool
	}{
		{HostInfo{DistributionID: "debian"}, true},
		{HostInfo{DistributionID: "linuxmint", DistributionLike: []string{"ubuntu", "debian"}}, true},
		{HostInfo{DistributionID: "fedora"}, false},
		{HostInfo{DistributionID: "rocky", DistributionLike: []string{"rhel", "centos", "fedora"}}, false},
	}
	for _, tt := range tests {
		if got := tt.info.DebianLike(); got != tt.expected {
			t.Errorf("DebianLike(%s) = %v, want %v", tt.info.DistributionID, got, tt.expected)
		}
	}
}
