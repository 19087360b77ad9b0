package system

import (
	"fmt"

	"github.com/julianstephens/menuboard/internal/cli"
	"github.com/julianstephens/menuboard/internal/logger"
	"github.com/julianstephens/menuboard/internal/server"
)

// ServeCmd runs the catalog API until interrupted.
type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to MENUBOARD_ADDR."`
	Init bool   `help:"Create the server database if it does not exist."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	store, err := ctx.ServerStore()
	if err != nil {
		return err
	}
	if c.Init {
		err = store.Init()
	} else {
		err = store.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to open server database: %w", err)
	}

	addr := c.Addr
	if addr == "" {
		addr = ctx.Config.ListenAddr
	}
	logger.Info("Starting server", "addr", addr, "db", store.GetConfigPath())
	srv := server.New(store, server.WithRateLimit(ctx.Config.RateLimit, ctx.Config.RateBurst))
	return srv.ListenAndServe(ctx.Ctx, addr)
}
