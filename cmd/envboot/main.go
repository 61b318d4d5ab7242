package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steelcutops/envboot/envboot/bootstrap"
	"github.com/steelcutops/envboot/envboot/host"
	"github.com/steelcutops/envboot/logger"
)

type flags struct {
	ConfigPath         string
	Concurrency        int
	Debug              bool
	Hostnames          []string
	IniFilePath        string
	KeyPassPrompt      bool
	LogFileName        string
	PasswordPrompt     bool
	ReportPath         string
	SudoPasswordPrompt bool
	Username           string
}

type app struct {
	f       flags
	v       *viper.Viper
	log     logger.Logger
	logFile *os.File
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:          "envboot",
		Short:        "Make sure Python and the required modules are installed",
		Long:         "envboot checks for a Python interpreter and a list of modules and installs whatever is missing with apt-get and pip. Installing may require sudo.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != nil {
				a.logFile.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.bootstrap(cmd, true)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.f.ConfigPath, "config", "", "Path to INI config file")
	pf.BoolVar(&a.f.Debug, "debug", false, "Enable debug log level")
	pf.StringVar(&a.f.LogFileName, "log", "", "Also write logs to this file")
	pf.StringArrayVar(&a.f.Hostnames, "hostname", nil, "Hostname to bootstrap (repeatable, default localhost)")
	pf.StringVar(&a.f.IniFilePath, "ini", "", "Path to INI file with host groups")
	pf.StringVar(&a.f.Username, "username", "", "Username to use for SSH connection")
	pf.BoolVar(&a.f.PasswordPrompt, "password", false, "Prompt for an SSH password")
	pf.BoolVar(&a.f.KeyPassPrompt, "keypass", false, "Prompt for the passphrase of SSH keys")
	pf.BoolVar(&a.f.SudoPasswordPrompt, "sudo-password", false, "Prompt for the sudo password")
	pf.IntVar(&a.f.Concurrency, "concurrency", 10, "Maximum number of hosts bootstrapped at once")
	pf.StringVar(&a.f.ReportPath, "report", "", "Write per-host reports to this file (.json, .yaml)")
	bindSettings(pf, a.v)

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Check the environment and install what is missing",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.bootstrap(cmd, true)
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Check the environment without installing anything",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.bootstrap(cmd, false)
			},
		},
		&cobra.Command{
			Use:   "modules",
			Short: "Print the required modules",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := buildConfig(a.v)
				if err != nil {
					return err
				}
				printModules(cmd.OutOrStdout(), cfg)
				return nil
			},
		},
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	var out io.Writer = cmd.ErrOrStderr()
	if a.f.LogFileName != "" {
		file, err := os.OpenFile(a.f.LogFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.logFile = file
		out = io.MultiWriter(out, file)
	}
	a.log = logger.New(logger.Options{Debug: a.f.Debug, Output: out})
	if a.f.Debug {
		a.log.Debug("Debug mode enabled")
	}

	return loadSettings(a.v, a.f.ConfigPath)
}

func (a *app) bootstrap(cmd *cobra.Command, install bool) error {
	cfg, err := buildConfig(a.v)
	if err != nil {
		return err
	}

	password, keyPass, sudoPass := readPasswords(&a.f)
	options := buildHostOptions(&a.f, a.v, a.log, password, keyPass, sudoPass)
	hostGroup := initializeHosts(&a.f, a.log, options)
	if len(hostGroup.Hostnames()) == 0 {
		return fmt.Errorf("no usable hosts")
	}

	printer := bootstrap.NewPrinter(cmd.OutOrStdout())
	var (
		mu      sync.Mutex
		reports []*bootstrap.Report
	)
	err = hostGroup.Each(cmd.Context(), a.f.Concurrency, func(ctx context.Context, h *host.Host) error {
		b, err := bootstrap.New(cfg, h, printer)
		if err != nil {
			return err
		}
		var report *bootstrap.Report
		if install {
			report, err = b.Run(ctx)
		} else {
			report, err = b.Check(ctx)
		}
		mu.Lock()
		reports = append(reports, report)
		mu.Unlock()
		return err
	})
	if err != nil {
		a.log.Error("Bootstrap finished with errors", "error", err)
	}

	if a.f.ReportPath != "" {
		sort.Slice(reports, func(i, j int) bool { return reports[i].Host < reports[j].Host })
		if werr := bootstrap.WriteReports(a.f.ReportPath, reports); werr != nil {
			a.log.Error("Failed to write report", "path", a.f.ReportPath, "error", werr)
			if err == nil {
				err = werr
			}
		}
	}
	return err
}

func printModules(w io.Writer, cfg bootstrap.Config) {
	for _, req := range cfg.RequiredModules() {
		note := ""
		if cfg.IsBuiltin(req.Module) {
			note = "\t(standard library)"
		}
		fmt.Fprintf(w, "%s\t%s%s\n", req.Module, req.Package, note)
	}
}
