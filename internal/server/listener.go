package server

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/hasanawais/pica/internal/core"
)

// Listener accepts host connections on a single TCP address and hands each
// one to the Control Core as a new Device.
type Listener struct {
	addr        string
	captureDir  string
	captureOn   bool
	core        *core.Core
	log         *zap.Logger
}

// New creates a Listener bound to addr (host:port). Connections are not
// accepted until Run is called.
func New(addr string, core *core.Core, log *zap.Logger, captureDir string, captureEnabled bool) *Listener {
	return &Listener{addr: addr, core: core, log: log, captureDir: captureDir, captureOn: captureEnabled}
}

// Run accepts connections until ctx is canceled or the listener fails.
func (l *Listener) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", l.addr, err)
	}
	l.log.Info("listening", zap.String("addr", l.addr))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("server: accept: %w", err)
			}
		}

		go serveConn(nc, l.core, l.log, l.captureDir, l.captureOn)
	}
}
