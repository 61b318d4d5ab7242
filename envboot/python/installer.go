package python

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	cm "github.com/steelcutops/envboot/envboot/commandmanager"
)

var (
	// ErrNoInstallerPackage means no system package is known to provide
	// the installer for the detected interpreter version.
	ErrNoInstallerPackage = errors.New("no installer package for interpreter version")
	ErrInvalidPackageName = errors.New("invalid package name")
)

var packageNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// InstallerPackages maps interpreter versions to the system package that
// ships their installer.
type InstallerPackages struct {
	// Legacy serves exactly version 2.7.
	Legacy string
	// Modern serves every version starting with 3.
	Modern string
}

var DefaultInstallerPackages = InstallerPackages{
	Legacy: "python-pip",
	Modern: "python3-pip",
}

// Select picks the package for version.
func (p InstallerPackages) Select(version string) (string, error) {
	var pkg string
	switch {
	case version == "2.7":
		pkg = p.Legacy
	case strings.HasPrefix(version, "3"):
		pkg = p.Modern
	}
	if pkg == "" {
		return "", fmt.Errorf("%w %q", ErrNoInstallerPackage, version)
	}
	return pkg, nil
}

// Installer is the language-level package installer, pip.
type Installer struct {
	Binary         string
	CommandManager cm.CommandManager
	// Env is passed to every install, e.g. PIP_NO_INPUT=1.
	Env []string
}

func NewInstaller(binary string, commandManager cm.CommandManager) *Installer {
	return &Installer{
		Binary:         binary,
		CommandManager: commandManager,
		Env:            []string{"PIP_NO_INPUT=1", "PIP_DISABLE_PIP_VERSION_CHECK=1"},
	}
}

func (i *Installer) Present(ctx context.Context) (bool, error) {
	return Locate(ctx, i.CommandManager, i.Binary)
}

// Install runs "<installer> install <pkg>" once. The result is returned even
// when the command exits non-zero.
func (i *Installer) Install(ctx context.Context, pkg string) (cm.CommandResult, error) {
	if !packageNameRe.MatchString(pkg) {
		return cm.CommandResult{}, fmt.Errorf("%w: %q", ErrInvalidPackageName, pkg)
	}
	return i.CommandManager.Run(ctx, cm.CommandConfig{
		Command: i.Binary,
		Args:    []string{"install", pkg},
		Env:     i.Env,
	})
}
