package packagemanager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cm "github.com/steelcutops/envboot/envboot/commandmanager"
)

type MockCommandManager struct {
	mock.Mock
}

func (m *MockCommandManager) Run(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	args := m.Called(config)
	return args.Get(0).(cm.CommandResult), args.Error(1)
}

func (m *MockCommandManager) RunLocal(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return m.Run(ctx, config)
}

func (m *MockCommandManager) RunRemote(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return m.Run(ctx, config)
}

func TestAptAddPackage(t *testing.T) {
	mockCmd := new(MockCommandManager)
	apt := &AptPackageManager{CommandManager: mockCmd, Sudo: true}

	mockCmd.On("Run", mock.MatchedBy(func(c cm.CommandConfig) bool {
		return c.Command == "apt-get" && c.Sudo &&
			c.Args[0] == "install" && c.Args[len(c.Args)-1] == "python3-pip" &&
			c.Env[0] == "DEBIAN_FRONTEND=noninteractive"
	})).Return(cm.CommandResult{ExitCode: 0}, nil)

	result, err := apt.AddPackage(context.Background(), "python3-pip")
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	mockCmd.AssertNumberOfCalls(t, "Run", 1)
}

func TestAptAddPackageFailureKeepsResult(t *testing.T) {
	mockCmd := new(MockCommandManager)
	apt := &AptPackageManager{CommandManager: mockCmd}

	mockCmd.On("Run", mock.Anything).Return(
		cm.CommandResult{ExitCode: 100, STDERR: "E: Unable to locate package nope"},
		&cm.ExitError{Code: 100},
	)

	result, err := apt.AddPackage(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, 100, result.ExitCode)
	assert.Contains(t, result.STDERR, "Unable to locate package")
}

func TestAptAddPackageEmptyName(t *testing.T) {
	mockCmd := new(MockCommandManager)
	apt := &AptPackageManager{CommandManager: mockCmd}

	_, err := apt.AddPackage(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPackageName)
	mockCmd.AssertNotCalled(t, "Run", mock.Anything)
}

func TestAptIsInstalled(t *testing.T) {
	query := func(pkg string) cm.CommandConfig {
		return cm.CommandConfig{Command: "dpkg-query", Args: []string{"-W", "-f=${Status}", pkg}}
	}

	mockCmd := new(MockCommandManager)
	mockCmd.On("Run", query("python3")).Return(cm.CommandResult{STDOUT: "install ok installed"}, nil)
	mockCmd.On("Run", query("python3-pip")).Return(cm.CommandResult{STDOUT: "deinstall ok config-files"}, nil)
	mockCmd.On("Run", query("missing")).Return(cm.CommandResult{ExitCode: 1}, &cm.ExitError{Code: 1})
	mockCmd.On("Run", query("broken")).Return(cm.CommandResult{}, errors.New("connection reset"))

	apt := &AptPackageManager{CommandManager: mockCmd}
	ctx := context.Background()

	installed, err := apt.IsInstalled(ctx, "python3")
	require.NoError(t, err)
	assert.True(t, installed)

	installed, err = apt.IsInstalled(ctx, "python3-pip")
	require.NoError(t, err)
	assert.False(t, installed)

	installed, err = apt.IsInstalled(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, installed)

	_, err = apt.IsInstalled(ctx, "broken")
	assert.EqualError(t, err, "connection reset")
}

func TestAptUpdate(t *testing.T) {
	mockCmd := new(MockCommandManager)
	mockCmd.On("Run", cm.CommandConfig{
		Command: "apt-get",
		Sudo:    true,
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
		Args:    []string{"update"},
	}).Return(cm.CommandResult{}, nil)

	apt := &AptPackageManager{CommandManager: mockCmd, Sudo: true}
	_, err := apt.Update(context.Background())
	require.NoError(t, err)
	mockCmd.AssertExpectations(t)
	assert.Equal(t, "apt", apt.Name())
}
