package environmentmanager

import (
	"context"
	"strings"

	cm "github.com/steelcutops/envboot/envboot/commandmanager"
)

// EnvironmentManager reads the environment commands on the host run with.
type EnvironmentManager interface {
	Get(ctx context.Context, key string) (string, error)
}

type UnixEnvironmentManager struct {
	CommandManager cm.CommandManager
}

// Get returns the value of key, or "" when it is unset.
func (e *UnixEnvironmentManager) Get(ctx context.Context, key string) (string, error) {
	output, err := e.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "printenv",
		Args:    []string{key},
	})
	if err != nil {
		// printenv exits 1 for unset variables
		if cm.IsExitError(err) {
			return "", nil
		}
		return "", err
	}

	return strings.TrimSpace(output.STDOUT), nil
}

// SearchPath splits a PATH value into its directories.
func SearchPath(path string) []string {
	var dirs []string
	for _, dir := range strings.Split(path, ":") {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
