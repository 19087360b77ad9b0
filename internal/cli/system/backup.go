package system

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/julianstephens/menuboard/internal/backup"
	"github.com/julianstephens/menuboard/internal/cli"
	"github.com/julianstephens/menuboard/internal/storage/sqlite"
)

func backupManager(ctx *cli.Context) (*backup.Manager, error) {
	store, err := ctx.ServerStore()
	if err != nil {
		return nil, err
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		return nil, errors.New("backups are only supported for the SQLite server database; use pg_dump for PostgreSQL")
	}
	return backup.NewManager(s.GetConfigPath()), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	m, err := backupManager(ctx)
	if err != nil {
		return err
	}
	path, err := m.Create()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Backup created: %s\n", path)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	m, err := backupManager(ctx)
	if err != nil {
		return err
	}
	list, err := m.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintf(ctx.Out, "No backups in %s\n", m.Dir())
		return nil
	}
	for _, b := range list {
		fmt.Fprintf(ctx.Out, "%s  %s  %d KB\n", b.Created.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), b.Size/1024)
	}
	return nil
}

// BackupRestoreCmd replaces the server database. Stop the server first.
type BackupRestoreCmd struct {
	File string `arg:"" help:"Backup file name or path."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	m, err := backupManager(ctx)
	if err != nil {
		return err
	}
	path := c.File
	if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
		path = filepath.Join(m.Dir(), path)
	}
	previous, err := m.Restore(path)
	if err != nil {
		return err
	}
	if previous != "" {
		fmt.Fprintf(ctx.Out, "Saved current database as %s\n", filepath.Base(previous))
	}
	fmt.Fprintf(ctx.Out, "✓ Restored %s\n", filepath.Base(path))
	return nil
}
