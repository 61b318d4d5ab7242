package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/steelcutops/envboot/envboot/bootstrap"
)

// Settings live in the [bootstrap] section of the config file, can be set
// as ENVBOOT_BOOTSTRAP_<KEY> and overridden by flags. A [packages] section
// maps module names to pip distributions.
const (
	keyInterpreter        = "bootstrap.interpreter"
	keyInterpreterPackage = "bootstrap.interpreter-package"
	keyInstaller          = "bootstrap.installer"
	keyLegacyPipPackage   = "bootstrap.legacy-installer-package"
	keyModernPipPackage   = "bootstrap.modern-installer-package"
	keyModules            = "bootstrap.modules"
	keyBuiltins           = "bootstrap.builtins"
	keySkipBuiltins       = "bootstrap.skip-builtins"
	keyVerify             = "bootstrap.verify"
	keySudo               = "bootstrap.sudo"
	keyRefreshIndex       = "bootstrap.refresh-index"
	keyPackages           = "packages"
)

func bindSettings(pf *pflag.FlagSet, v *viper.Viper) {
	def := bootstrap.DefaultConfig()

	var modules []string
	for _, req := range def.RequiredModules() {
		modules = append(modules, req.Module)
	}

	pf.String("interpreter", def.Interpreter, "Interpreter binary")
	pf.String("interpreter-package", def.InterpreterPackage, "System package installed when the interpreter is missing")
	pf.String("installer", def.Installer, "Installer binary")
	pf.String("legacy-installer-package", def.InstallerPackages.Legacy, "System package providing the installer for Python 2.7")
	pf.String("modern-installer-package", def.InstallerPackages.Modern, "System package providing the installer for Python 3")
	pf.String("modules", strings.Join(modules, ","), "Required modules, comma separated, module or module=package")
	pf.String("builtins", strings.Join(def.Builtins, ","), "Standard library modules among the required ones")
	pf.Bool("skip-builtins", def.SkipBuiltins, "Do not try to install standard library modules")
	pf.Bool("verify", def.Verify, "Probe modules again after installing them")
	pf.Bool("sudo", true, "Run apt-get through sudo")
	pf.Bool("refresh-index", def.RefreshIndex, "Run apt-get update before the first system install")

	for _, key := range []string{
		keyInterpreter, keyInterpreterPackage, keyInstaller, keyLegacyPipPackage, keyModernPipPackage,
		keyModules, keyBuiltins, keySkipBuiltins, keyVerify, keySudo, keyRefreshIndex,
	} {
		name := strings.TrimPrefix(key, "bootstrap.")
		// Lookup cannot fail for the flags defined above.
		_ = v.BindPFlag(key, pf.Lookup(name))
	}
}

func loadSettings(v *viper.Viper, configPath string) error {
	v.SetEnvPrefix("envboot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		return nil
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", configPath, err)
	}
	return nil
}

func buildConfig(v *viper.Viper) (bootstrap.Config, error) {
	cfg := bootstrap.DefaultConfig()
	cfg.Interpreter = v.GetString(keyInterpreter)
	cfg.InterpreterPackage = v.GetString(keyInterpreterPackage)
	cfg.Installer = v.GetString(keyInstaller)
	cfg.InstallerPackages.Legacy = v.GetString(keyLegacyPipPackage)
	cfg.InstallerPackages.Modern = v.GetString(keyModernPipPackage)
	cfg.SkipBuiltins = v.GetBool(keySkipBuiltins)
	cfg.Verify = v.GetBool(keyVerify)
	cfg.RefreshIndex = v.GetBool(keyRefreshIndex)

	modules, err := bootstrap.ParseRequirements(v.GetString(keyModules))
	if err != nil {
		return bootstrap.Config{}, err
	}
	overrides := v.GetStringMapString(keyPackages)
	for i, req := range modules {
		if pkg, ok := overrides[strings.ToLower(req.Module)]; ok && req.Package == req.Module {
			modules[i].Package = pkg
		}
	}
	cfg.Modules = modules
	cfg.Builtins = strings.FieldsFunc(v.GetString(keyBuiltins), func(r rune) bool {
		return r == ',' || r == ' '
	})

	if err := cfg.Validate(); err != nil {
		return bootstrap.Config{}, err
	}
	return cfg, nil
}
