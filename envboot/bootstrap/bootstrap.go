// Package bootstrap makes sure a host has a Python interpreter and a list
// of importable modules, installing what is missing through apt and pip.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cm "github.com/steelcutops/envboot/envboot/commandmanager"
	"github.com/steelcutops/envboot/envboot/environmentmanager"
	"github.com/steelcutops/envboot/envboot/host"
	"github.com/steelcutops/envboot/envboot/hostmanager"
	"github.com/steelcutops/envboot/envboot/packagemanager"
	"github.com/steelcutops/envboot/envboot/python"
	"github.com/steelcutops/envboot/logger"
)

var (
	ErrInstallerMissing = errors.New("installer still missing after system install")
	ErrNotImportable    = errors.New("installed but still not importable")
	ErrBuiltinMissing   = errors.New("standard library module is not importable")
)

// Bootstrapper runs the checks for one host. It is not safe for concurrent
// use; create one per host.
type Bootstrapper struct {
	cfg         Config
	hostname    string
	interpreter *python.Interpreter
	installer   *python.Installer
	packages    packagemanager.PackageManager
	facts       hostmanager.HostManager
	env         environmentmanager.EnvironmentManager
	printer     *Printer
	log         logger.Logger

	report         *Report
	indexRefreshed bool
	// installerErr memoizes a failed installer bootstrap so apt is not
	// retried for every module.
	installerErr error
}

// New validates cfg and wires a Bootstrapper to h.
func New(cfg Config, h *host.Host, printer *Printer) (*Bootstrapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg = cfg.Clone()
	log := h.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Bootstrapper{
		cfg:         cfg,
		hostname:    h.Hostname,
		interpreter: python.NewInterpreter(cfg.Interpreter, h.CommandManager),
		installer:   python.NewInstaller(cfg.Installer, h.CommandManager),
		packages:    h.PackageManager,
		facts:       h.HostManager,
		env:         h.EnvironmentManager,
		printer:     printer,
		log:         log.With("host", h.Hostname),
	}, nil
}

// Run checks the interpreter and every required module, installing what is
// missing. A missing interpreter is installed and the run continues whatever
// the outcome. The returned error aggregates all failures; the report is
// always returned.
func (b *Bootstrapper) Run(ctx context.Context) (*Report, error) {
	return b.run(ctx, true)
}

// Check probes like Run but never installs anything.
func (b *Bootstrapper) Check(ctx context.Context) (*Report, error) {
	return b.run(ctx, false)
}

func (b *Bootstrapper) run(ctx context.Context, install bool) (*Report, error) {
	b.report = newReport(b.hostname, b.cfg)
	b.indexRefreshed = false
	b.installerErr = nil
	report := b.report

	b.printer.Opening(b.hostname)
	b.gatherFacts(ctx)

	b.ensureInterpreter(ctx, install)

	for _, req := range b.cfg.RequiredModules() {
		if err := ctx.Err(); err != nil {
			report.addError(err)
			report.Finished = time.Now()
			return report, report.Err()
		}
		res := b.checkModule(ctx, req, install)
		report.Modules = append(report.Modules, res)
		b.printer.Module(b.hostname, res)
	}

	b.printer.Closing(b.hostname)
	report.Finished = time.Now()
	b.log.Info("Bootstrap finished",
		"present", report.Count(StatusPresent),
		"installed", report.Count(StatusInstalled),
		"failed", report.Count(StatusFailed)+report.Count(StatusBuiltin),
		"unknown", report.Count(StatusUnknown),
		"missing", report.Count(StatusMissing),
	)
	return report, report.Err()
}

// gatherFacts records the distribution and search path. Failures are only
// logged.
func (b *Bootstrapper) gatherFacts(ctx context.Context) {
	if b.facts != nil {
		info, err := b.facts.Info(ctx)
		if err != nil {
			b.log.Warn("Could not determine host distribution", "error", err)
		} else {
			b.report.Facts = &info
			if !info.DebianLike() {
				b.log.Warn("Host is not Debian-like, apt-get installs will probably fail", "distribution", info.DistributionID)
			}
		}
	}
	if b.env != nil {
		path, err := b.env.Get(ctx, "PATH")
		if err != nil {
			b.log.Warn("Could not read PATH", "error", err)
		} else {
			b.report.SearchPath = environmentmanager.SearchPath(path)
		}
	}
}

func (b *Bootstrapper) ensureInterpreter(ctx context.Context, install bool) {
	comp := &b.report.Interpreter

	present, err := b.interpreter.Present(ctx)
	comp.Checked = true
	if err != nil {
		comp.Error = err.Error()
		b.report.addError(fmt.Errorf("checking interpreter %s: %w", b.cfg.Interpreter, err))
		return
	}
	comp.Present = present

	if !present {
		if !install {
			b.report.addError(fmt.Errorf("interpreter %s not found", b.cfg.Interpreter))
			return
		}
		b.log.Warn("Interpreter not found, installing", "interpreter", b.cfg.Interpreter, "package", b.cfg.InterpreterPackage)
		comp.Package = b.cfg.InterpreterPackage
		result, err := b.addSystemPackage(ctx, b.cfg.InterpreterPackage)
		comp.ExitCode = result.ExitCode
		if err != nil {
			comp.Error = err.Error()
			b.log.Error("Interpreter install failed, continuing", "package", b.cfg.InterpreterPackage, "error", err)
			b.report.addError(fmt.Errorf("installing interpreter package %s: %w", b.cfg.InterpreterPackage, err))
			return
		}
		comp.Installed = true
	}

	version, err := b.interpreter.Version(ctx)
	if err != nil {
		b.log.Warn("Could not determine interpreter version", "error", err)
		return
	}
	comp.Version = version
	b.log.Debug("Interpreter found", "interpreter", b.cfg.Interpreter, "version", version)
}

func (b *Bootstrapper) checkModule(ctx context.Context, req Requirement, install bool) ModuleResult {
	res := ModuleResult{Module: req.Module, Package: req.Package}
	log := b.log.With("module", req.Module)

	ok, err := b.interpreter.CanImport(ctx, req.Module)
	if err != nil {
		res.Status = StatusUnknown
		res.Error = err.Error()
		log.Warn("Module check failed", "error", err)
		b.report.addError(fmt.Errorf("module %s: %w", req.Module, err))
		return res
	}
	if ok {
		log.Debug("Module importable")
		res.Status = StatusPresent
		return res
	}

	if !install {
		res.Status = StatusMissing
		b.report.addError(fmt.Errorf("module %s: not importable", req.Module))
		return res
	}

	if b.cfg.SkipBuiltins && b.cfg.IsBuiltin(req.Module) {
		res.Status = StatusBuiltin
		res.Error = ErrBuiltinMissing.Error()
		b.report.addError(fmt.Errorf("module %s: %w", req.Module, ErrBuiltinMissing))
		return res
	}

	log.Info("Module not importable, installing", "package", req.Package)
	result, err := b.InstallModule(ctx, req)
	res.Attempted = result.Command != ""
	res.ExitCode = result.ExitCode
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		log.Error("Module install failed", "error", err, "stderr", result.STDERR)
		b.report.addError(fmt.Errorf("module %s: %w", req.Module, err))
		return res
	}

	if b.cfg.Verify {
		ok, err := b.interpreter.CanImport(ctx, req.Module)
		if err == nil && !ok {
			err = ErrNotImportable
		}
		if err != nil {
			res.Status = StatusFailed
			res.Error = err.Error()
			b.report.addError(fmt.Errorf("module %s: %w", req.Module, err))
			return res
		}
	}

	res.Status = StatusInstalled
	return res
}

// InstallModule makes sure the installer exists, then invokes it once for
// req.Package. The command result is returned whatever its exit status.
func (b *Bootstrapper) InstallModule(ctx context.Context, req Requirement) (cm.CommandResult, error) {
	if b.report == nil {
		b.report = newReport(b.hostname, b.cfg)
	}
	if err := b.EnsureInstaller(ctx); err != nil {
		return cm.CommandResult{}, fmt.Errorf("installer unavailable: %w", err)
	}
	return b.installer.Install(ctx, req.Package)
}

// EnsureInstaller installs the system package providing the installer when
// the installer binary is absent. The package is chosen from the
// interpreter version.
func (b *Bootstrapper) EnsureInstaller(ctx context.Context) error {
	if b.report == nil {
		b.report = newReport(b.hostname, b.cfg)
	}
	comp := &b.report.Installer
	if comp.Checked && comp.Present {
		return nil
	}
	if b.installerErr != nil {
		return b.installerErr
	}

	err := b.ensureInstaller(ctx, comp)
	if err != nil {
		comp.Error = err.Error()
		b.installerErr = err
	}
	return err
}

func (b *Bootstrapper) ensureInstaller(ctx context.Context, comp *ComponentResult) error {
	present, err := b.installer.Present(ctx)
	comp.Checked = true
	if err != nil {
		return err
	}
	if present {
		comp.Present = true
		return nil
	}

	version := b.report.Interpreter.Version
	if version == "" {
		version, err = b.interpreter.Version(ctx)
		if err != nil {
			return err
		}
		b.report.Interpreter.Version = version
	}

	pkg, err := b.cfg.InstallerPackages.Select(version)
	if err != nil {
		return err
	}
	comp.Package = pkg

	b.log.Warn("Installer not found, installing", "installer", b.cfg.Installer, "package", pkg, "version", version)
	result, err := b.addSystemPackage(ctx, pkg)
	comp.ExitCode = result.ExitCode
	if err != nil {
		return fmt.Errorf("installing %s: %w", pkg, err)
	}
	comp.Installed = true

	present, err = b.installer.Present(ctx)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("%w: %s", ErrInstallerMissing, b.cfg.Installer)
	}
	comp.Present = true
	return nil
}

func (b *Bootstrapper) addSystemPackage(ctx context.Context, pkg string) (cm.CommandResult, error) {
	if b.packages == nil {
		return cm.CommandResult{}, errors.New("no system package manager configured")
	}
	if b.cfg.RefreshIndex && !b.indexRefreshed {
		b.indexRefreshed = true
		if _, err := b.packages.Update(ctx); err != nil {
			b.log.Warn("Refreshing package index failed", "manager", b.packages.Name(), "error", err)
		}
	}
	b.log.Info("Installing system package", "manager", b.packages.Name(), "package", pkg)
	result, err := b.packages.AddPackage(ctx, pkg)
	if err != nil {
		b.log.Error("System package install failed", "manager", b.packages.Name(), "package", pkg, "error", err, "stderr", result.STDERR)
		if msg := lastLine(result.STDERR); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
	}
	return result, err
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
