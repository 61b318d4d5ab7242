package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/ini.v1"

	"github.com/steelcutops/envboot/envboot/commandmanager"
	"github.com/steelcutops/envboot/envboot/host"
	"github.com/steelcutops/envboot/envboot/hostgroup"
	"github.com/steelcutops/envboot/logger"
)

func readHostsFromFile(filePath string) (map[string][]string, error) {
	cfg, err := ini.Load(filePath)
	if err != nil {
		return nil, err
	}

	hosts := make(map[string][]string)

	for _, section := range cfg.Sections() {
		name := section.Name()
		for _, key := range section.Keys() {
			hosts[name] = append(hosts[name], key.String())
		}
	}

	return hosts, nil
}

func promptSecret(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input: %v\n", err)
		return ""
	}
	return string(b)
}

func readPasswords(f *flags) (password, keyPass, sudoPass string) {
	if f.PasswordPrompt {
		password = promptSecret("Enter the password: ")
	}
	if f.KeyPassPrompt {
		keyPass = promptSecret("Enter the key passphrase: ")
	}
	if f.SudoPasswordPrompt {
		sudoPass = promptSecret("Enter the sudo password: ")
	}
	return
}

func buildHostOptions(f *flags, v *viper.Viper, log logger.Logger, password, keyPass, sudoPass string) []host.HostOption {
	options := []host.HostOption{
		host.WithSudo(v.GetBool(keySudo)),
		host.WithLogger(log),
		host.WithSSHClient(commandmanager.RealSSHClient{}),
	}
	if f.Username != "" {
		options = append(options, host.WithUser(f.Username))
	}
	if password != "" {
		options = append(options, host.WithPassword(password))
	}
	if keyPass != "" {
		options = append(options, host.WithKeyPassphrase(keyPass))
	}
	if sudoPass != "" {
		options = append(options, host.WithSudoPassword(sudoPass))
	}
	return options
}

func addHosts(hostnames []string, hostGroup *hostgroup.HostGroup, log logger.Logger, options ...host.HostOption) {
	for _, hostname := range hostnames {
		log.Debug("Adding host", "host", hostname)
		server, err := host.NewHost(hostname, options...)
		if err != nil {
			log.Error("Failed to create new host", "host", hostname, "error", err)
			continue
		}

		hostGroup.AddHost(server)
	}
}

func initializeHosts(f *flags, log logger.Logger, options []host.HostOption) *hostgroup.HostGroup {
	hostGroup := hostgroup.NewHostGroup()

	if f.IniFilePath != "" {
		hostsMap, err := readHostsFromFile(f.IniFilePath)
		if err != nil {
			log.Error("Failed to read INI file", "error", err)
		}
		for group, hosts := range hostsMap {
			log.Debug("Adding hosts from group", "group", group)
			addHosts(hosts, hostGroup, log, options...)
		}
	}

	hostnames := f.Hostnames
	if len(hostnames) == 0 && f.IniFilePath == "" {
		hostnames = []string{"localhost"}
	}
	addHosts(hostnames, hostGroup, log, options...)

	return hostGroup
}
