package packagemanager

import (
	"context"

	cm "github.com/steelcutops/envboot/envboot/commandmanager"
)

// PackageManager is the system-level package manager of a host.
type PackageManager interface {
	Name() string
	// Update refreshes the package index.
	Update(ctx context.Context) (cm.CommandResult, error)
	IsInstalled(ctx context.Context, pkg string) (bool, error)
	// AddPackage installs pkg. The result is returned even when the
	// command exits non-zero.
	AddPackage(ctx context.Context, pkg string) (cm.CommandResult, error)
}
