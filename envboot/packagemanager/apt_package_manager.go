package packagemanager

import (
	"context"
	"errors"
	"strings"

	cm "github.com/steelcutops/envboot/envboot/commandmanager"
)

var ErrEmptyPackageName = errors.New("package name is empty")

type AptPackageManager struct {
	CommandManager cm.CommandManager
	// Sudo runs apt-get through sudo.
	Sudo bool
}

func (apm *AptPackageManager) Name() string {
	return "apt"
}

func (apm *AptPackageManager) Update(ctx context.Context) (cm.CommandResult, error) {
	return apm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "apt-get",
		Sudo:    apm.Sudo,
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
		Args:    []string{"update"},
	})
}

func (apm *AptPackageManager) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	if pkg == "" {
		return false, ErrEmptyPackageName
	}
	output, err := apm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "dpkg-query",
		Args:    []string{"-W", "-f=${Status}", pkg},
	})
	if err != nil {
		// dpkg-query exits 1 for unknown packages
		if cm.IsExitError(err) {
			return false, nil
		}
		return false, err
	}
	return strings.Contains(output.STDOUT, "install ok installed"), nil
}

func (apm *AptPackageManager) AddPackage(ctx context.Context, pkg string) (cm.CommandResult, error) {
	if pkg == "" {
		return cm.CommandResult{}, ErrEmptyPackageName
	}
	return apm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "apt-get",
		Sudo:    apm.Sudo,
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
		Args:    []string{"install", "-y", "-o", "Dpkg::Options::=--force-confdef", "-o", "Dpkg::Options::=--force-confold", pkg},
	})
}
