package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/menuboard/internal/cli"
	"github.com/julianstephens/menuboard/internal/cli/admin"
	"github.com/julianstephens/menuboard/internal/cli/storefront"
	"github.com/julianstephens/menuboard/internal/cli/system"
	"github.com/julianstephens/menuboard/internal/config"
	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Debug   bool   `help:"Enable debug logging." env:"MENUBOARD_DEBUG"`
	API     string `name:"api" help:"Menu API base URL. Defaults to MENUBOARD_API_URL."`

	Tui        storefront.TuiCmd        `cmd:"" help:"Launch the interactive storefront." default:"1"`
	Categories storefront.CategoriesCmd `cmd:"" help:"List menu categories."`
	Menu       storefront.MenuCmd       `cmd:"" help:"Show a category's menu with ratings."`
	Rate       storefront.RateCmd       `cmd:"" help:"Rate a menu item."`
	Quota      storefront.QuotaCmd      `cmd:"" help:"Show today's remaining ratings."`

	Category struct {
		Add    admin.CategoryAddCmd    `cmd:"" help:"Add a category."`
		Rename admin.CategoryRenameCmd `cmd:"" help:"Rename a category."`
		Delete admin.CategoryDeleteCmd `cmd:"" help:"Delete a category and its items."`
	} `cmd:"" help:"Manage categories."`
	Item struct {
		Add        admin.ItemAddCmd    `cmd:"" help:"Add a menu item."`
		Edit       admin.ItemEditCmd   `cmd:"" help:"Edit a menu item."`
		Delete     admin.ItemDeleteCmd `cmd:"" help:"Delete a menu item."`
		OutOfStock admin.OutOfStockCmd `cmd:"" name:"out-of-stock" help:"List out-of-stock items."`
	} `cmd:"" help:"Manage menu items."`

	Init    system.InitCmd    `cmd:"" help:"Initialize local state."`
	Serve   system.ServeCmd   `cmd:"" help:"Run the menu API server."`
	Migrate system.MigrateCmd `cmd:"" help:"Run server database migrations."`
	Seed    system.SeedCmd    `cmd:"" help:"Load a YAML seed file into the server database."`
	Backup  struct {
		Create  system.BackupCreateCmd  `cmd:"" help:"Snapshot the SQLite server database." default:"1"`
		List    system.BackupListCmd    `cmd:"" help:"List snapshots."`
		Restore system.BackupRestoreCmd `cmd:"" help:"Restore the server database from a snapshot."`
	} `cmd:"" help:"Manage server database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the server connection string."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
	} `cmd:"" help:"Manage the server connection string in the OS keyring."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Restaurant menu storefront, admin tools and API server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load()
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.API != "" {
		cfg.APIURL = CLI.API
	}
	cfg.Debug = cfg.Debug || CLI.Debug

	configDir, err := config.ExpandHome(constants.DefaultConfigDir)
	if err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: configDir,
		Stderr:    kctx.Command() == "serve",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	appCtx := cli.NewContext(ctx, cfg)

	err = kctx.Run(appCtx)
	if cerr := appCtx.Close(); cerr != nil {
		logger.Warn("Failed to release resources", "error", cerr)
	}
	stop()
	errors.Fatal(err)
}
