package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/steelcutops/envboot/envboot/hostmanager"
)

type Status string

const (
	StatusPresent   Status = "present"
	StatusInstalled Status = "installed"
	StatusMissing   Status = "missing"
	StatusBuiltin   Status = "builtin"
	StatusFailed    Status = "failed"

	// StatusUnknown means the module could not be checked at all.
	StatusUnknown Status = "unknown"
)

// OK reports whether the module is importable at the end of the run.
func (s Status) OK() bool {
	return s == StatusPresent || s == StatusInstalled
}

type ModuleResult struct {
	Module  string `json:"module" yaml:"module"`
	Package string `json:"package" yaml:"package"`
	Status  Status `json:"status" yaml:"status"`
	// Attempted is set when the installer was invoked for the module.
	Attempted bool   `json:"attempted" yaml:"attempted"`
	ExitCode  int    `json:"exitCode,omitempty" yaml:"exitCode,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ComponentResult describes the interpreter or the installer.
type ComponentResult struct {
	Binary  string `json:"binary" yaml:"binary"`
	Checked bool   `json:"checked" yaml:"checked"`
	Present bool   `json:"present" yaml:"present"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	// Package is the system package installed for the component, if any.
	Package   string `json:"package,omitempty" yaml:"package,omitempty"`
	Installed bool   `json:"installed" yaml:"installed"`
	ExitCode  int    `json:"exitCode,omitempty" yaml:"exitCode,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

type Report struct {
	Host        string                `json:"host" yaml:"host"`
	Facts       *hostmanager.HostInfo `json:"facts,omitempty" yaml:"facts,omitempty"`
	SearchPath  []string              `json:"searchPath,omitempty" yaml:"searchPath,omitempty"`
	Interpreter ComponentResult       `json:"interpreter" yaml:"interpreter"`
	Installer   ComponentResult       `json:"installer" yaml:"installer"`
	Modules     []ModuleResult        `json:"modules" yaml:"modules"`
	Errors      []string              `json:"errors,omitempty" yaml:"errors,omitempty"`
	Started     time.Time             `json:"started" yaml:"started"`
	Finished    time.Time             `json:"finished" yaml:"finished"`

	errs *multierror.Error
}

func newReport(hostname string, cfg Config) *Report {
	return &Report{
		Host:        hostname,
		Interpreter: ComponentResult{Binary: cfg.Interpreter},
		Installer:   ComponentResult{Binary: cfg.Installer},
		Started:     time.Now(),
	}
}

func (r *Report) addError(err error) {
	r.errs = multierror.Append(r.errs, err)
	r.Errors = append(r.Errors, err.Error())
}

// Err aggregates every failure of the run, or returns nil.
func (r *Report) Err() error {
	return r.errs.ErrorOrNil()
}

// Module returns the result for module, if it was processed.
func (r *Report) Module(module string) (ModuleResult, bool) {
	for _, m := range r.Modules {
		if m.Module == module {
			return m, true
		}
	}
	return ModuleResult{}, false
}

// Count returns how many modules ended with status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, m := range r.Modules {
		if m.Status == status {
			n++
		}
	}
	return n
}

// WriteReports writes reports to path as YAML for .yaml/.yml, JSON otherwise.
func WriteReports(path string, reports []*Report) error {
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err = yaml.Marshal(reports)
	default:
		b, err = json.MarshalIndent(reports, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding reports: %w", err)
	}
	return os.WriteFile(path, b, 0644)
}
