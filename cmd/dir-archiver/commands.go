package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raoulx24/dir-archiver/internal/backup"
	"github.com/raoulx24/dir-archiver/internal/config"
	"github.com/raoulx24/dir-archiver/internal/fs"
	"github.com/raoulx24/dir-archiver/internal/logging"
	"github.com/raoulx24/dir-archiver/internal/snapshot"
)

const defaultConfigPath = "config.yaml"

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "dir-archiver",
		Short:        "Snapshot local data directories into timestamped backups",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the YAML config file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Take one backup now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(configPath, func(cfg *config.Config, mgr *backup.Manager, _ logging.Logger) error {
				if !mgr.RunBackup(cmd.Context()) {
					return errors.New("backup failed")
				}
				fmt.Fprintln(cmd.OutOrStdout(), mgr.LastBackupStatus())
				return nil
			})
		},
	}

	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled backups until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), configPath)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show snapshot count and schedule settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(configPath, func(cfg *config.Config, mgr *backup.Manager, _ logging.Logger) error {
				snaps, err := mgr.Snapshots()
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), cfg, snaps)
				return nil
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(configPath, func(cfg *config.Config, mgr *backup.Manager, log logging.Logger) error {
				snaps, err := mgr.Snapshots()
				if err != nil {
					return err
				}
				return printList(cmd.OutOrStdout(), snaps, log)
			})
		},
	}

	var keep int
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete all but the newest --keep snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(configPath, func(cfg *config.Config, mgr *backup.Manager, _ logging.Logger) error {
				res, err := mgr.CleanupOldBackups(cmd.Context(), keep)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, name := range res.Deleted {
					fmt.Fprintf(out, "deleted %s\n", name)
				}
				for _, f := range res.Failed {
					fmt.Fprintf(out, "failed  %s: %v\n", f.Name, f.Err)
				}
				if len(res.Failed) > 0 {
					return fmt.Errorf("%d snapshot(s) could not be deleted", len(res.Failed))
				}
				return nil
			})
		},
	}
	cleanupCmd.Flags().IntVarP(&keep, "keep", "k", 5, "number of most recent snapshots to keep")

	rootCmd.AddCommand(runCmd, daemonCmd, statusCmd, listCmd, cleanupCmd)
	return rootCmd
}

// withManager loads the config, builds the logger and a Manager, and runs fn.
func withManager(configPath string, fn func(*config.Config, *backup.Manager, logging.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, closer, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	mgr := backup.New(cfg, backup.WithLogger(log))
	defer mgr.Close()

	return fn(cfg, mgr, log)
}

func printStatus(w io.Writer, cfg *config.Config, snaps []snapshot.Info) {
	fmt.Fprintf(w, "Backups root:  %s\n", cfg.Destination.Root)
	fmt.Fprintf(w, "Snapshots:     %d\n", len(snaps))
	if len(snaps) > 0 {
		newest := snaps[0]
		fmt.Fprintf(w, "Newest:        %s (%s)\n", newest.Name, humanize.Time(newest.ModTime))
	}

	auto := "disabled"
	if cfg.Schedule.Enabled {
		auto = "enabled"
	}
	fmt.Fprintf(w, "Auto backup:   %s, every %s\n", auto, formatInterval(cfg.Schedule.Interval))
	if cfg.Retention.KeepLast > 0 {
		fmt.Fprintf(w, "Retention:     keep last %d\n", cfg.Retention.KeepLast)
	}
}

func printList(w io.Writer, snaps []snapshot.Info, log logging.Logger) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tFILES\tAGE")
	for _, s := range snaps {
		size, files, err := treeSize(s.Path)
		if err != nil {
			log.Warn("cannot size snapshot", "snapshot", s.Name, "error", err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Name, humanize.IBytes(uint64(size)), files, humanize.Time(s.ModTime))
	}
	return tw.Flush()
}

// treeSize sums the regular files below root, manifest included.
func treeSize(root string) (int64, int, error) {
	var size int64
	var files int
	err := fs.Walk(root, fs.VisitorFuncs{
		OnFile: func(_ string, info os.FileInfo) error {
			size += info.Size()
			files++
			return nil
		},
	})
	return size, files, err
}

func formatInterval(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	}
	return d.String()
}
