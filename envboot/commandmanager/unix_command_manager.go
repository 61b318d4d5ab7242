package commandmanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/steelcutops/envboot/logger"
	"golang.org/x/crypto/ssh"
)

// Credentials holds what is needed to log in to a host and escalate on it.
type Credentials struct {
	User          string
	Password      string
	KeyPassphrase string
	SudoPassword  string
}

type SSHDialer interface {
	Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error)
}

// RealSSHClient dials hosts with golang.org/x/crypto/ssh.
type RealSSHClient struct{}

func (RealSSHClient) Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	config.Timeout = timeout
	return ssh.Dial(network, addr, config)
}

type UnixCommandManager struct {
	Hostname  string
	SSHClient SSHDialer
	Logger    logger.Logger
	Credentials
}

func (u *UnixCommandManager) log() logger.Logger {
	if u.Logger == nil {
		u.Logger = logger.Nop()
	}
	return u.Logger
}

// argv returns the full argument vector for config, including sudo and env prefixes.
func (u *UnixCommandManager) argv(config CommandConfig) []string {
	var argv []string
	if config.Sudo {
		if u.SudoPassword != "" {
			argv = append(argv, "sudo", "-S")
		} else {
			argv = append(argv, "sudo", "-n")
		}
	}
	if len(config.Env) > 0 && (config.Sudo || !u.isLocal()) {
		argv = append(argv, "env")
		argv = append(argv, config.Env...)
	}
	argv = append(argv, config.Command)
	return append(argv, config.Args...)
}

func (u *UnixCommandManager) RunLocal(ctx context.Context, config CommandConfig) (CommandResult, error) {
	start := time.Now()
	argv := u.argv(config)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if len(config.Env) > 0 && !config.Sudo {
		cmd.Env = append(os.Environ(), config.Env...)
	}
	if config.Sudo && u.SudoPassword != "" {
		cmd.Stdin = strings.NewReader(u.SudoPassword + "\n")
	}
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	u.log().Debug("Executing local command", "command", strings.Join(argv, " "))
	err := cmd.Run()

	result := CommandResult{
		Command:   strings.Join(argv, " "),
		STDOUT:    stdout.String(),
		STDERR:    stderr.String(),
		ExitCode:  getExitCode(err),
		Duration:  time.Since(start),
		Timestamp: start,
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	if sudoErr := checkSudo(result); sudoErr != nil {
		return result, sudoErr
	}

	return result, wrapExit(err)
}

func (u *UnixCommandManager) getSSHConfig() (*ssh.ClientConfig, error) {
	var authMethod ssh.AuthMethod

	if u.Password != "" {
		u.log().Debug("Using password authentication", "hostname", u.Hostname)
		authMethod = ssh.Password(u.Password)
	} else {
		u.log().Debug("Using public key authentication", "hostname", u.Hostname)
		var keyManager SSHKeyManager
		if u.KeyPassphrase != "" {
			keyManager = FileSSHKeyManager{}
		} else {
			keyManager = AgentSSHKeyManager{}
		}

		keys, err := keyManager.ReadPrivateKeys(u.KeyPassphrase)
		if err != nil {
			return nil, err
		}

		authMethod = ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			return keys, nil
		})
	}

	return &ssh.ClientConfig{
		User:            u.User,
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}, nil
}

func (u *UnixCommandManager) RunRemote(ctx context.Context, config CommandConfig) (CommandResult, error) {
	if u.SSHClient == nil {
		return CommandResult{}, errors.New("SSHClient is not initialized")
	}

	sshConfig, err := u.getSSHConfig()
	if err != nil {
		return CommandResult{}, err
	}
	dialTimeout := 15 * time.Minute
	if deadline, ok := ctx.Deadline(); ok {
		dialTimeout = time.Until(deadline)
	}

	client, err := u.SSHClient.Dial("tcp", u.Hostname+":22", sshConfig, dialTimeout)
	if err != nil {
		return CommandResult{}, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return CommandResult{}, err
	}
	defer session.Close()

	cmdStr := shellquote.Join(u.argv(config)...)
	if config.Sudo && u.SudoPassword != "" {
		session.Stdin = strings.NewReader(u.SudoPassword + "\n")
	}
	u.log().Debug("Executing remote command", "hostname", u.Hostname, "command", cmdStr)

	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmdStr)
	}()

	select {
	case err := <-done:
		result := CommandResult{
			Command:   cmdStr,
			STDOUT:    stdout.String(),
			STDERR:    stderr.String(),
			ExitCode:  getExitCode(err),
			Duration:  time.Since(start),
			Timestamp: start,
		}
		if sudoErr := checkSudo(result); sudoErr != nil {
			return result, sudoErr
		}
		return result, wrapExit(err)

	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		u.log().Error("Remote command cancelled", "hostname", u.Hostname, "command", cmdStr)
		return CommandResult{Command: cmdStr, Timestamp: start}, ctx.Err()
	}
}

func (u *UnixCommandManager) Run(ctx context.Context, config CommandConfig) (CommandResult, error) {
	if u.isLocal() {
		return u.RunLocal(ctx, config)
	}
	return u.RunRemote(ctx, config)
}

func (u *UnixCommandManager) isLocal() bool {
	return u.Hostname == "" || u.Hostname == "localhost" || u.Hostname == "127.0.0.1"
}

// ExitError signals that a command ran and exited with a non-zero status,
// as opposed to a failure to start or transport it.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// IsExitError reports whether err only signals a non-zero exit status.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// HasExitCode reports whether err is an ExitError with the given code.
func HasExitCode(err error, code int) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Code == code
}

// wrapExit normalizes the exit errors of os/exec and x/crypto/ssh.
func wrapExit(err error) error {
	var execErr *exec.ExitError
	var sshErr *ssh.ExitError
	if errors.As(err, &execErr) || errors.As(err, &sshErr) {
		return &ExitError{Code: getExitCode(err), Err: err}
	}
	return err
}

func checkSudo(result CommandResult) error {
	output := result.STDOUT + result.STDERR
	if strings.Contains(output, "incorrect password") {
		return errors.New("sudo: incorrect password provided")
	}
	if strings.Contains(output, "is not in the sudoers file") {
		return errors.New("sudo: user is not in the sudoers file")
	}
	if strings.Contains(output, "a password is required") {
		return errors.New("sudo: a password is required")
	}
	return nil
}

func getExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	var sshExitErr *ssh.ExitError
	if errors.As(err, &sshExitErr) {
		return sshExitErr.ExitStatus()
	}
	return -1
}
