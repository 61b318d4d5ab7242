// Package python probes a Python interpreter and drives its package
// installer through a commandmanager.CommandManager.
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
	ErrInvalidModuleName = errors.New("invalid module name")
	ErrBadVersion        = errors.New("unrecognised interpreter version output")
)

var (
	moduleNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
	versionRe    = regexp.MustCompile(`^\d+\.\d+$`)
)

// versionScript prints major.minor on both Python 2 and 3.
const versionScript = `import sys; print("%d.%d" % sys.version_info[:2])`

// findSpecScript exits 0 when argv[1] can be located without importing it.
const findSpecScript = `import sys
try:
    from importlib.util import find_spec
except ImportError:
    from pkgutil import find_loader as find_spec
try:
    found = find_spec(sys.argv[1]) is not None
except ImportError:
    found = False
sys.exit(0 if found else 1)`

type Interpreter struct {
	Binary         string
	CommandManager cm.CommandManager
}

func NewInterpreter(binary string, commandManager cm.CommandManager) *Interpreter {
	return &Interpreter{Binary: binary, CommandManager: commandManager}
}

// Present reports whether the interpreter resolves on the host's search path.
func (i *Interpreter) Present(ctx context.Context) (bool, error) {
	return Locate(ctx, i.CommandManager, i.Binary)
}

// Version returns the interpreter's major.minor version, e.g. "3.11".
func (i *Interpreter) Version(ctx context.Context) (string, error) {
	result, err := i.CommandManager.Run(ctx, cm.CommandConfig{
		Command: i.Binary,
		Args:    []string{"-c", versionScript},
	})
	if err != nil {
		return "", fmt.Errorf("querying %s version: %w", i.Binary, err)
	}
	version := strings.TrimSpace(result.STDOUT)
	if !versionRe.MatchString(version) {
		return "", fmt.Errorf("%w: %q", ErrBadVersion, version)
	}
	return version, nil
}

// CanImport reports whether module can be located by the interpreter. The
// module is found, not executed. Only exit status 1 means not importable; any
// other failure, such as 127 for a missing interpreter, is an error.
func (i *Interpreter) CanImport(ctx context.Context, module string) (bool, error) {
	if !moduleNameRe.MatchString(module) {
		return false, fmt.Errorf("%w: %q", ErrInvalidModuleName, module)
	}
	_, err := i.CommandManager.Run(ctx, cm.CommandConfig{
		Command: i.Binary,
		Args:    []string{"-c", findSpecScript, module},
	})
	if err != nil {
		if cm.HasExitCode(err, 1) {
			return false, nil
		}
		return false, fmt.Errorf("probing module %s: %w", module, err)
	}
	return true, nil
}

// Locate reports whether binary is on the search path of the host behind
// commandManager. which exits 1 when binary is absent; other failures are
// returned as errors.
func Locate(ctx context.Context, commandManager cm.CommandManager, binary string) (bool, error) {
	if binary == "" {
		return false, errors.New("binary name is empty")
	}
	_, err := commandManager.Run(ctx, cm.CommandConfig{
		Command: "which",
		Args:    []string{binary},
	})
	if err != nil {
		if cm.HasExitCode(err, 1) {
			return false, nil
		}
		return false, fmt.Errorf("locating %s: %w", binary, err)
	}
	return true, nil
}
