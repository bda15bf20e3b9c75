package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/sikuliflow/internal/project"
	"github.com/efebarandurmaz/sikuliflow/internal/snapshot"
)

func snapshotCmd(configPath, dialect *string) *cobra.Command {
	var storeDir string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Content-addressed checkpoints of a project and its scripts",
	}
	cmd.PersistentFlags().StringVar(&storeDir, "store", "", "Snapshot directory (defaults to store.dir)")

	openStore := func(a *app) (*snapshot.Store, error) {
		dir := storeDir
		if dir == "" {
			dir = a.cfg.Store.Dir
		}
		return snapshot.NewStore(dir)
	}

	var (
		description string
		tag         string
	)
	saveCmd := &cobra.Command{
		Use:   "save <project.json>",
		Short: "Checkpoint a project with its generated scripts",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			store, err := openStore(a)
			if err != nil {
				return err
			}
			s, err := project.Open(ctx, args[0], a.sessionOptions()...)
			if err != nil {
				return err
			}
			snap, err := s.Checkpoint(ctx, store, *dialect, description)
			if err != nil {
				return err
			}
			if tag != "" {
				if err := store.Tag(snap.ID, tag); err != nil {
					return err
				}
			}
			fmt.Printf("Snapshot %s (%d files, %d nodes, %d functions)\n",
				snap.ID, len(snap.FileManifest), snap.Stats.Nodes, snap.Stats.Functions)
			return nil
		}),
	}
	saveCmd.Flags().StringVarP(&description, "message", "m", "", "Snapshot description")
	saveCmd.Flags().StringVar(&tag, "tag", "", "Tag to assign")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			store, err := openStore(a)
			if err != nil {
				return err
			}
			list := store.List()
			if len(list) == 0 {
				fmt.Println("No snapshots")
				return nil
			}
			for _, s := range list {
				fmt.Printf("%-16s  %-10s  %s  %3d files  %4d nodes  %s\n",
					s.ID, s.Tag, s.CreatedAt.Format("2006-01-02 15:04:05"),
					s.FileCount, s.Stats.Nodes, s.Description)
			}
			return nil
		}),
	}

	var (
		projectPath string
		scriptsDir  string
	)
	restoreCmd := &cobra.Command{
		Use:   "restore <id|tag>",
		Short: "Restore a project file, and optionally its scripts",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			store, err := openStore(a)
			if err != nil {
				return err
			}
			s, err := project.Restore(ctx, store, args[0], a.sessionOptions()...)
			if err != nil {
				return err
			}
			if err := s.Save(ctx, projectPath); err != nil {
				return err
			}
			fmt.Printf("Restored %s to %s\n", args[0], projectPath)

			if scriptsDir != "" {
				snap, err := store.Resolve(args[0])
				if err != nil {
					return err
				}
				if err := store.Restore(snap, scriptsDir); err != nil {
					return err
				}
				fmt.Printf("Restored %d files to %s\n", len(snap.FileManifest), scriptsDir)
			}
			return nil
		}),
	}
	restoreCmd.Flags().StringVarP(&projectPath, "project", "p", "project.json", "Project file to write")
	restoreCmd.Flags().StringVar(&scriptsDir, "scripts", "", "Also write the snapshot files to this directory")

	diffCmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			store, err := openStore(a)
			if err != nil {
				return err
			}
			older, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			newer, err := store.Resolve(args[1])
			if err != nil {
				return err
			}
			fmt.Print(snapshot.FormatDiff(snapshot.Diff(older, newer)))
			return nil
		}),
	}

	tagCmd := &cobra.Command{
		Use:   "tag <id> <tag>",
		Short: "Tag a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			store, err := openStore(a)
			if err != nil {
				return err
			}
			return store.Tag(args[0], args[1])
		}),
	}

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(configPath, func(ctx context.Context, a *app, args []string) error {
			store, err := openStore(a)
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		}),
	}

	cmd.AddCommand(saveCmd, listCmd, restoreCmd, diffCmd, tagCmd, rmCmd)
	return cmd
}
