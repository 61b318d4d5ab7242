// Package cmtest provides a scripted CommandManager for tests.
package cmtest

import (
	"context"
	"strings"
	"sync"

	cm "github.com/steelcutops/envboot/envboot/commandmanager"
)

// Response is what the fake returns for a command line.
type Response struct {
	STDOUT   string
	STDERR   string
	ExitCode int
	// Err is returned as is when set; otherwise a non-zero ExitCode
	// yields a *commandmanager.ExitError.
	Err error
}

// Handler computes a response dynamically, e.g. to model state changes.
type Handler func(config cm.CommandConfig) Response

// Fake matches commands by their "command arg1 arg2" line. Unknown
// commands go to the fallback handler, or exit 127 without one.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]Handler
	fallback  Handler
	calls     []cm.CommandConfig
}

func New() *Fake {
	return &Fake{responses: make(map[string][]Handler)}
}

// Line renders a config the way Fake keys it.
func Line(config cm.CommandConfig) string {
	return strings.Join(append([]string{config.Command}, config.Args...), " ")
}

// On registers a fixed response. Registering the same line again queues
// the response; the last one sticks once the queue drains.
func (f *Fake) On(line string, resp Response) *Fake {
	return f.OnFunc(line, func(cm.CommandConfig) Response { return resp })
}

func (f *Fake) OnFunc(line string, h Handler) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[line] = append(f.responses[line], h)
	return f
}

// Fallback handles every command line without a registered response.
func (f *Fake) Fallback(h Handler) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = h
	return f
}

func (f *Fake) Run(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return cm.CommandResult{}, err
	}

	line := Line(config)
	f.mu.Lock()
	f.calls = append(f.calls, config)
	handlers := f.responses[line]
	var h Handler
	if len(handlers) > 0 {
		h = handlers[0]
		if len(handlers) > 1 {
			f.responses[line] = handlers[1:]
		}
	} else {
		h = f.fallback
	}
	f.mu.Unlock()

	resp := Response{STDERR: line + ": command not found", ExitCode: 127}
	if h != nil {
		resp = h(config)
	}

	result := cm.CommandResult{
		Command:  line,
		STDOUT:   resp.STDOUT,
		STDERR:   resp.STDERR,
		ExitCode: resp.ExitCode,
	}
	if resp.Err != nil {
		return result, resp.Err
	}
	if resp.ExitCode != 0 {
		return result, &cm.ExitError{Code: resp.ExitCode}
	}
	return result, nil
}

func (f *Fake) RunLocal(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return f.Run(ctx, config)
}

func (f *Fake) RunRemote(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return f.Run(ctx, config)
}

// Calls returns every config run so far.
func (f *Fake) Calls() []cm.CommandConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cm.CommandConfig(nil), f.calls...)
}

// Lines returns the command lines run so far, in order.
func (f *Fake) Lines() []string {
	var lines []string
	for _, c := range f.Calls() {
		lines = append(lines, Line(c))
	}
	return lines
}

// Count returns how many times line was run.
func (f *Fake) Count(line string) int {
	n := 0
	for _, l := range f.Lines() {
		if l == line {
			n++
		}
	}
	return n
}
