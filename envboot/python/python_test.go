package python

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cm "github.com/steelcutops/envboot/envboot/commandmanager"
	"github.com/steelcutops/envboot/envboot/commandmanager/cmtest"
)

func TestInstallerPackagesSelect(t *testing.T) {
	tests := []struct {
		version  string
		expected string
		err      error
	}{
		{version: "2.7", expected: "python-pip"},
		{version: "3.9", expected: "python3-pip"},
		{version: "3.10", expected: "python3-pip"},
		{version: "3", expected: "python3-pip"},
		{version: "2.6", err: ErrNoInstallerPackage},
		{version: "4.0", err: ErrNoInstallerPackage},
		{version: "", err: ErrNoInstallerPackage},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			pkg, err := DefaultInstallerPackages.Select(tt.version)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Empty(t, pkg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pkg)
		})
	}
}

func TestInstallerPackagesSelectEmptyMapping(t *testing.T) {
	_, err := InstallerPackages{Modern: "python3-pip"}.Select("2.7")
	assert.ErrorIs(t, err, ErrNoInstallerPackage)
}

func TestInterpreterPresent(t *testing.T) {
	fake := cmtest.New().
		On("which python3", cmtest.Response{STDOUT: "/usr/bin/python3\n"}).
		On("which python2", cmtest.Response{ExitCode: 1})

	present, err := NewInterpreter("python3", fake).Present(context.Background())
	require.NoError(t, err)
	assert.True(t, present)

	present, err = NewInterpreter("python2", fake).Present(context.Background())
	require.NoError(t, err)
	assert.False(t, present)
}

func TestLocateTransportError(t *testing.T) {
	fake := cmtest.New().On("which python3", cmtest.Response{Err: errors.New("ssh: handshake failed")})

	_, err := Locate(context.Background(), fake, "python3")
	assert.ErrorContains(t, err, "handshake failed")

	_, err = Locate(context.Background(), fake, "")
	assert.Error(t, err)
}

func TestNonZeroExitOtherThanOneIsAnError(t *testing.T) {
	tests := []struct {
		name string
		line string
		code int
		call func(ctx context.Context, fake *cmtest.Fake) (bool, error)
	}{
		{
			name: "which not installed",
			line: "which python3",
			code: 127,
			call: func(ctx context.Context, fake *cmtest.Fake) (bool, error) {
				return NewInterpreter("python3", fake).Present(ctx)
			},
		},
		{
			name: "which not executable",
			line: "which python3",
			code: 126,
			call: func(ctx context.Context, fake *cmtest.Fake) (bool, error) {
				return NewInterpreter("python3", fake).Present(ctx)
			},
		},
		{
			name: "interpreter not installed",
			line: "python3 -c " + findSpecScript + " requests",
			code: 127,
			call: func(ctx context.Context, fake *cmtest.Fake) (bool, error) {
				return NewInterpreter("python3", fake).CanImport(ctx, "requests")
			},
		},
		{
			name: "interpreter crashed",
			line: "python3 -c " + findSpecScript + " requests",
			code: 2,
			call: func(ctx context.Context, fake *cmtest.Fake) (bool, error) {
				return NewInterpreter("python3", fake).CanImport(ctx, "requests")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := cmtest.New().On(tt.line, cmtest.Response{ExitCode: tt.code, STDERR: "sh: not found"})

			ok, err := tt.call(context.Background(), fake)
			require.Error(t, err)
			assert.True(t, cm.HasExitCode(err, tt.code))
			assert.False(t, ok)
		})
	}
}

func TestInterpreterVersion(t *testing.T) {
	fake := cmtest.New().On("python3 -c "+versionScript, cmtest.Response{STDOUT: "3.11\n"})

	version, err := NewInterpreter("python3", fake).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.11", version)
}

func TestInterpreterVersionGarbage(t *testing.T) {
	fake := cmtest.New().On("python3 -c "+versionScript, cmtest.Response{STDOUT: "Python 3.11.2\n"})

	_, err := NewInterpreter("python3", fake).Version(context.Background())
	assert.ErrorIs(t, err, ErrBadVersion)
}

func TestInterpreterVersionMissingBinary(t *testing.T) {
	_, err := NewInterpreter("python3", cmtest.New()).Version(context.Background())
	assert.Error(t, err)
}

func TestInterpreterCanImport(t *testing.T) {
	fake := cmtest.New().
		On("python3 -c "+findSpecScript+" json", cmtest.Response{}).
		On("python3 -c "+findSpecScript+" requests", cmtest.Response{ExitCode: 1})
	py := NewInterpreter("python3", fake)

	ok, err := py.CanImport(context.Background(), "json")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = py.CanImport(context.Background(), "requests")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInterpreterCanImportRejectsBadNames(t *testing.T) {
	fake := cmtest.New()
	py := NewInterpreter("python3", fake)

	for _, name := range []string{"", "os; rm -rf /", "1abc", "a..b", "$(whoami)"} {
		_, err := py.CanImport(context.Background(), name)
		assert.ErrorIs(t, err, ErrInvalidModuleName, name)
	}
	assert.Empty(t, fake.Calls())
}

func TestInstallerInstall(t *testing.T) {
	fake := cmtest.New().
		On("pip3 install requests", cmtest.Response{STDOUT: "Successfully installed requests"}).
		On("pip3 install sys", cmtest.Response{ExitCode: 1, STDERR: "ERROR: No matching distribution found for sys"})
	pip := NewInstaller("pip3", fake)

	result, err := pip.Install(context.Background(), "requests")
	require.NoError(t, err)
	assert.True(t, result.Succeeded())

	result, err = pip.Install(context.Background(), "sys")
	require.Error(t, err)
	assert.Equal(t, 1, result.ExitCode)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Env, "PIP_NO_INPUT=1")
}

func TestInstallerInstallRejectsBadNames(t *testing.T) {
	fake := cmtest.New()
	_, err := NewInstaller("pip3", fake).Install(context.Background(), "-r requirements.txt")
	assert.ErrorIs(t, err, ErrInvalidPackageName)
	assert.Empty(t, fake.Calls())
}
