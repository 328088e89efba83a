package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soaringjerry/Mindful/internal/api"
	dbstore "github.com/soaringjerry/Mindful/internal/db"
)

// MigrateIfNeeded imports a legacy JSON snapshot into a fresh SQLite file.
// The snapshot is either a Snapshot object or the mobile app's bare record
// array, whose records are imported for legacyOwner. An existing SQLite file
// or a missing snapshot is a no-op.
func MigrateIfNeeded(ctx context.Context, snapshotPath, legacyOwner, sqlitePath, migrationsDir string, log *zap.Logger) (bool, error) {
	if sqlitePath == "" {
		return false, errors.New("sqlite path is required")
	}
	if _, err := os.Stat(sqlitePath); err == nil {
		return false, nil // already migrated
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("check sqlite file: %w", err)
	}

	snapshot, err := api.LoadSnapshot(snapshotPath, legacyOwner)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("load legacy snapshot: %w", err)
	}

	log.Info("first run detected, migrating legacy snapshot", zap.String("snapshot", snapshotPath), zap.String("sqlite", sqlitePath))

	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		return false, fmt.Errorf("create sqlite dir: %w", err)
	}
	sqliteDB, dst, err := dbstore.Open(sqlitePath, migrationsDir, log)
	if err != nil {
		return false, err
	}
	defer func() {
		if cerr := sqliteDB.Close(); cerr != nil {
			log.Warn("failed to close sqlite db", zap.Error(cerr))
		}
	}()

	users, records, err := copySnapshotToStore(ctx, snapshot, dst)
	if err != nil {
		return false, fmt.Errorf("copy data: %w", err)
	}
	log.Info("data migration completed", zap.Int("users", users), zap.Int("records", records))
	return true, nil
}

// copySnapshotToStore inserts each owner's records oldest first so the
// destination keeps the snapshot's newest-first order.
func copySnapshotToStore(ctx context.Context, snap *api.Snapshot, dst api.Store) (int, int, error) {
	users, records := 0, 0
	for _, u := range snap.Users {
		if u == nil {
			continue
		}
		if err := dst.AddUser(ctx, u); err != nil && !errors.Is(err, api.ErrDuplicateUser) {
			return users, records, err
		}
		users++
	}
	for owner, recs := range snap.Records {
		for i := len(recs) - 1; i >= 0; i-- {
			if err := dst.AddRecord(ctx, owner, recs[i]); err != nil {
				return users, records, fmt.Errorf("owner %s record %s: %w", owner, recs[i].ID, err)
			}
			records++
		}
	}
	return users, records, nil
}

func newMigrateCmd() *cobra.Command {
	var snapshot, owner string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import a legacy JSON snapshot into SQLite",
		Long: `Import users and records from a JSON snapshot into the configured SQLite
database. Nothing happens when the database file already exists.

Examples:
  mindful migrate --snapshot /data/mindful.json
  mindful migrate --snapshot surveyRecords.json --owner u1a2b3c4
  MINDFUL_SQLITE_PATH=/data/mindful.db mindful migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if snapshot == "" {
				snapshot = cfg.LegacySnapshot
			}
			if owner == "" {
				owner = cfg.LegacyOwner
			}
			migrated, err := MigrateIfNeeded(cmd.Context(), snapshot, owner, cfg.SQLitePath, cfg.MigrationsDir, log)
			if err != nil {
				return err
			}
			if migrated {
				fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to migrate")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "legacy JSON snapshot path (defaults to legacy_snapshot)")
	cmd.Flags().StringVar(&owner, "owner", "", "user id that receives records from a bare record array (defaults to legacy_owner)")
	return cmd
}
