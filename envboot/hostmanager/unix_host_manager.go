package hostmanager

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	cm "github.com/steelcutops/envboot/envboot/commandmanager"
)

type UnixHostManager struct {
	CommandManager cm.CommandManager
}

// Info gathers the hostname, distribution and kernel of the host.
func (uhm *UnixHostManager) Info(ctx context.Context) (HostInfo, error) {
	hostname, err := uhm.Hostname(ctx)
	if err != nil {
		return HostInfo{}, err
	}

	kernelVersionOutput, err := uhm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "uname",
		Args:    []string{"-r"},
	})
	if err != nil {
		return HostInfo{}, err
	}

	osRelease, err := uhm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "cat",
		Args:    []string{"/etc/os-release"},
	})
	if err != nil {
		return HostInfo{}, fmt.Errorf("reading /etc/os-release: %w", err)
	}

	release, err := ParseOSRelease(osRelease.STDOUT)
	if err != nil {
		return HostInfo{}, err
	}

	return HostInfo{
		Hostname:         hostname,
		DistributionID:   release["ID"],
		DistributionLike: strings.Fields(release["ID_LIKE"]),
		VersionID:        release["VERSION_ID"],
		KernelVersion:    strings.TrimSpace(kernelVersionOutput.STDOUT),
	}, nil
}

func (uhm *UnixHostManager) Hostname(ctx context.Context) (string, error) {
	output, err := uhm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "hostname",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(output.STDOUT), nil
}

// ParseOSRelease parses the KEY=value lines of an os-release file.
func ParseOSRelease(content string) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[key] = strings.Trim(value, `"'`)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if values["ID"] == "" {
		return nil, errors.New("os-release has no ID")
	}
	return values, nil
}
