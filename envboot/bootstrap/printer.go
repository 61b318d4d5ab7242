package bootstrap

import (
	"fmt"
	"io"
	"sync"
)

// Printer writes the human-readable progress lines. It is safe to share
// between hosts bootstrapped concurrently; lines never interleave.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) printf(format string, args ...interface{}) {
	if p == nil || p.w == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Opening(host string) {
	p.printf("Checking Python environment on %s (installing may require sudo)", host)
}

func (p *Printer) Closing(host string) {
	p.printf("Python environment check complete on %s", host)
}

func (p *Printer) Module(host string, res ModuleResult) {
	prefix := ""
	if host != "localhost" {
		prefix = host + ": "
	}
	switch res.Status {
	case StatusPresent, StatusInstalled:
		p.printf("%s%s package installed", prefix, res.Module)
	case StatusMissing:
		p.printf("%s%s package missing", prefix, res.Module)
	case StatusBuiltin:
		p.printf("%s%s is a standard library module and cannot be installed", prefix, res.Module)
	case StatusUnknown:
		p.printf("%s%s package check failed: %s", prefix, res.Module, res.Error)
	default:
		p.printf("%s%s package install failed: %s", prefix, res.Module, res.Error)
	}
}
