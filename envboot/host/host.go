package host

import (
	"github.com/steelcutops/envboot/envboot/commandmanager"
	"github.com/steelcutops/envboot/envboot/environmentmanager"
	"github.com/steelcutops/envboot/envboot/hostmanager"
	"github.com/steelcutops/envboot/envboot/packagemanager"
	"github.com/steelcutops/envboot/logger"
)

// Host bundles the managers used to bootstrap one machine.
type Host struct {
	Hostname string
	commandmanager.Credentials
	SSHClient commandmanager.SSHDialer
	Logger    logger.Logger
	// Sudo escalates system package installs.
	Sudo bool

	CommandManager     commandmanager.CommandManager
	PackageManager     packagemanager.PackageManager
	HostManager        hostmanager.HostManager
	EnvironmentManager environmentmanager.EnvironmentManager
}
