package system

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/julianstephens/chime/internal/cli"
	"github.com/julianstephens/chime/internal/constants"
	"github.com/julianstephens/chime/internal/daemon"
	"github.com/julianstephens/chime/internal/logger"
	"github.com/julianstephens/chime/internal/server"
)

type ServeCmd struct {
	Listen   string `help:"Listen address. Defaults to the configured address."`
	NoSecret bool   `help:"Do not require the request secret (any local process may call the API)."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	lockPath := daemon.LockfilePath(ctx.ConfigDir)
	if lock, err := daemon.Discover(lockPath); err == nil {
		return fmt.Errorf("daemon already running at %s (pid %d)", lock.Addr, lock.PID)
	} else if !errors.Is(err, daemon.ErrNotRunning) {
		logger.Warn("Replacing lockfile", "error", err)
	}

	if err := ctx.Store.Load(); err != nil {
		return err
	}
	defer ctx.Store.Close()

	player, launcher := ctx.LocalBackend()
	ctx.UseLocal(player, launcher)

	addr := c.Listen
	if addr == "" {
		addr = ctx.Config.Listen
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	lock, err := daemon.WriteLock(lockPath, ln.Addr().String())
	if err != nil {
		ln.Close()
		return err
	}
	defer func() {
		if err := daemon.RemoveLock(lockPath); err != nil {
			logger.Warn("Failed to remove lockfile", "error", err)
		}
	}()

	secret := lock.Secret
	if c.NoSecret {
		secret = ""
	}
	srv := server.New(ctx.Service, server.Options{
		Secret:       secret,
		AllowOrigins: ctx.Config.AllowOrigins,
	})

	ctx.Printf("chime daemon listening on %s (pid %d)\n", lock.Addr, lock.PID)
	err = srv.Serve(ctx.Context(), ln)

	// leave nothing playing behind
	stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeoutSeconds*time.Second)
	defer cancel()
	if stopErr := player.Stop(stopCtx); stopErr != nil {
		logger.Warn("Failed to stop playback on shutdown", "error", stopErr)
	}
	return err
}
