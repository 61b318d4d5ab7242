package host

import (
	"errors"
	"fmt"
	"net"
	"regexp"

	"github.com/steelcutops/envboot/envboot/commandmanager"
	"github.com/steelcutops/envboot/envboot/environmentmanager"
	"github.com/steelcutops/envboot/envboot/hostmanager"
	"github.com/steelcutops/envboot/envboot/packagemanager"
	"github.com/steelcutops/envboot/logger"
)

var hostnameRe = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?$`)

func NewHost(hostname string, options ...HostOption) (*Host, error) {
	if hostname == "" {
		return nil, errors.New("hostname is empty")
	}
	if net.ParseIP(hostname) == nil && !hostnameRe.MatchString(hostname) {
		return nil, fmt.Errorf("invalid hostname: %q", hostname)
	}

	ch := &Host{Hostname: hostname, Sudo: true}
	for _, option := range options {
		option(ch)
	}
	if ch.Logger == nil {
		ch.Logger = logger.Nop()
	}

	if ch.CommandManager == nil {
		ch.CommandManager = &commandmanager.UnixCommandManager{
			Hostname:    hostname,
			SSHClient:   ch.SSHClient,
			Logger:      ch.Logger.With("host", hostname),
			Credentials: ch.Credentials,
		}
	}

	configureDebianHost(ch)
	return ch, nil
}

func configureDebianHost(ch *Host) {
	ch.PackageManager = &packagemanager.AptPackageManager{CommandManager: ch.CommandManager, Sudo: ch.Sudo}
	ch.HostManager = &hostmanager.UnixHostManager{CommandManager: ch.CommandManager}
	ch.EnvironmentManager = &environmentmanager.UnixEnvironmentManager{CommandManager: ch.CommandManager}
}
