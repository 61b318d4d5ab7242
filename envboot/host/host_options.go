package host

import (
	"github.com/steelcutops/envboot/envboot/commandmanager"
	"github.com/steelcutops/envboot/logger"
)

type HostOption func(*Host)

// WithUser returns a HostOption that sets the user for a Host.
func WithUser(user string) HostOption {
	return func(host *Host) {
		host.User = user
	}
}

// WithPassword returns a HostOption that sets the password for a Host.
func WithPassword(password string) HostOption {
	return func(host *Host) {
		host.Password = password
	}
}

// WithKeyPassphrase returns a HostOption that sets the key passphrase for a Host.
func WithKeyPassphrase(keyPassphrase string) HostOption {
	return func(host *Host) {
		host.KeyPassphrase = keyPassphrase
	}
}

// WithSudoPassword returns a HostOption that sets the sudo password for a Host.
func WithSudoPassword(password string) HostOption {
	return func(host *Host) {
		host.SudoPassword = password
	}
}

// WithSudo controls whether system packages are installed through sudo.
func WithSudo(sudo bool) HostOption {
	return func(host *Host) {
		host.Sudo = sudo
	}
}

func WithSSHClient(client commandmanager.SSHDialer) HostOption {
	return func(host *Host) {
		host.SSHClient = client
	}
}

func WithLogger(log logger.Logger) HostOption {
	return func(host *Host) {
		host.Logger = log
	}
}

// WithCommandManager replaces the SSH/local command manager, mostly for tests.
func WithCommandManager(commandManager commandmanager.CommandManager) HostOption {
	return func(host *Host) {
		host.CommandManager = commandManager
	}
}
