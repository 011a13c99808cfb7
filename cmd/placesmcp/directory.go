package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/placesmcp/pkg/config"
	"github.com/NERVsystems/placesmcp/pkg/directory"
)

var errReadOnlyBackend = errors.New("directory edits require the file backend")

func newDirectoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Inspect or edit the curated place allow-list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List curated place ids and their groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			refs, err := listRefs(cmd.Context(), cfg.Directory)
			if err != nil {
				return err
			}
			return printRefs(cmd.OutOrStdout(), refs)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <group> <place_id>",
		Short: "Add a place id to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := editableStore()
			if err != nil {
				return err
			}
			if err := store.Add(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", args[1], args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <group> <place_id>",
		Short: "Remove a place id from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := editableStore()
			if err != nil {
				return err
			}
			removed, err := store.Remove(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%s is not in group %s", args[1], args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", args[1], args[0])
			return nil
		},
	})

	return cmd
}

func editableStore() (*directory.FileStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Directory.Backend != config.BackendFile {
		return nil, fmt.Errorf("%w (configured: %s)", errReadOnlyBackend, cfg.Directory.Backend)
	}
	return directory.NewFileStore(cfg.Directory.File), nil
}

func listRefs(ctx context.Context, cfg config.DirectoryConfig) ([]directory.PlaceRef, error) {
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	switch s := store.(type) {
	case *directory.MemoryStore:
		return s.Refs(), nil
	case *directory.FileStore:
		return s.Refs(ctx)
	case *directory.DynamoStore:
		return s.Refs(ctx)
	default:
		return nil, fmt.Errorf("directory backend %q cannot be listed", cfg.Backend)
	}
}

func printRefs(w io.Writer, refs []directory.PlaceRef) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tPLACE ID")
	for _, ref := range refs {
		fmt.Fprintf(tw, "%s\t%s\n", ref.Group, ref.PlaceID)
	}
	return tw.Flush()
}
