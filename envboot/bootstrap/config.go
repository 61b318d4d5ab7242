package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/steelcutops/envboot/envboot/python"
)

// Requirement is a module that must be importable, and the distribution
// the installer fetches when it is not.
type Requirement struct {
	Module  string `json:"module" yaml:"module"`
	Package string `json:"package" yaml:"package"`
}

// ParseRequirement accepts "module" or "module=package".
func ParseRequirement(s string) (Requirement, error) {
	module, pkg, _ := strings.Cut(strings.TrimSpace(s), "=")
	module = strings.TrimSpace(module)
	pkg = strings.TrimSpace(pkg)
	if module == "" {
		return Requirement{}, fmt.Errorf("empty module in requirement %q", s)
	}
	if pkg == "" {
		pkg = module
	}
	return Requirement{Module: module, Package: pkg}, nil
}

// ParseRequirements splits a comma or whitespace separated list.
func ParseRequirements(s string) ([]Requirement, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	reqs := make([]Requirement, 0, len(fields))
	for _, f := range fields {
		req, err := ParseRequirement(f)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Config drives a bootstrap run. Treat it as a value: the Bootstrapper keeps
// its own copy.
type Config struct {
	Interpreter        string
	InterpreterPackage string
	Installer          string
	InstallerPackages  python.InstallerPackages
	Modules            []Requirement
	Builtins           []string
	// SkipBuiltins skips the install attempt for standard-library modules
	// that fail their probe.
	SkipBuiltins bool
	// Verify re-probes a module after installing it.
	Verify bool
	// RefreshIndex runs "apt-get update" before the first system install.
	RefreshIndex bool
}

var defaultModules = []string{
	"sys", "getopt", "os", "errno", "getpass", "json", "requests",
	"argparse", "multiprocessing", "datetime", "future",
}

var defaultBuiltins = []string{
	"sys", "getopt", "os", "errno", "getpass", "json",
	"argparse", "multiprocessing", "datetime",
}

func DefaultConfig() Config {
	modules := make([]Requirement, 0, len(defaultModules))
	for _, m := range defaultModules {
		modules = append(modules, Requirement{Module: m, Package: m})
	}
	return Config{
		Interpreter:        "python3",
		InterpreterPackage: "python3",
		Installer:          "pip3",
		InstallerPackages:  python.DefaultInstallerPackages,
		Modules:            modules,
		Builtins:           append([]string(nil), defaultBuiltins...),
		Verify:             true,
	}
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.Interpreter == "" {
		result = multierror.Append(result, errors.New("interpreter is empty"))
	}
	if c.InterpreterPackage == "" {
		result = multierror.Append(result, errors.New("interpreter package is empty"))
	}
	if c.Installer == "" {
		result = multierror.Append(result, errors.New("installer is empty"))
	}
	if len(c.Modules) == 0 {
		result = multierror.Append(result, errors.New("no modules configured"))
	}
	seen := make(map[string]bool, len(c.Modules))
	for _, req := range c.Modules {
		if req.Module == "" {
			result = multierror.Append(result, errors.New("module with empty name"))
			continue
		}
		if seen[req.Module] {
			result = multierror.Append(result, fmt.Errorf("duplicate module %q", req.Module))
		}
		seen[req.Module] = true
	}
	return result.ErrorOrNil()
}

// RequiredModules returns the modules in declared order. The slice is a copy.
func (c Config) RequiredModules() []Requirement {
	return append([]Requirement(nil), c.Modules...)
}

func (c Config) IsBuiltin(module string) bool {
	for _, b := range c.Builtins {
		if b == module {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	c.Modules = c.RequiredModules()
	c.Builtins = append([]string(nil), c.Builtins...)
	return c
}
