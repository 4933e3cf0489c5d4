// ABOUTME: Sync commands for Charm cloud synchronization
// ABOUTME: Pushes and pulls the faculty index and dataset metadata, plus key management
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/facultymatch/internal/charm"
	"github.com/harper/facultymatch/internal/config"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Share the faculty index through Charm cloud",
		Long: `Share the faculty embedding index and dataset analysis through Charm cloud.

The index and analysis live locally in the data directory (JSON index plus
SQLite metadata). 'push' uploads them; 'pull' on another machine installs
them so matching works without re-embedding the faculty dataset. Charm
authenticates with your SSH keys.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncPushCmd())
	cmd.AddCommand(newSyncPullCmd())
	cmd.AddCommand(newSyncWipeCmd())
	cmd.AddCommand(newSyncKeysCmd())

	return cmd
}

func openCharm() (*charm.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogger(cfg.SlogLevel())
	client, err := charm.NewClient(&charm.Config{
		Host:     cfg.CharmHost,
		DBName:   cfg.CharmDBName,
		AutoSync: cfg.AutoSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return client, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and the last pushed index",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()
			out := cmd.OutOrStdout()

			id, err := client.ID()
			if err != nil {
				fmt.Fprintln(out, "Status: Not connected")
				fmt.Fprintln(out, "Run 'facultymatch sync keys' to check your SSH keys")
				return nil
			}

			fmt.Fprintln(out, "Status: Connected")
			fmt.Fprintf(out, "User ID: %s\n", id)
			fmt.Fprintf(out, "Host: %s\n", client.Host())

			manifest, err := client.RemoteManifest()
			if err != nil {
				return fmt.Errorf("failed to read remote manifest: %w", err)
			}
			if manifest == nil {
				fmt.Fprintln(out, "Remote index: none pushed yet")
				return nil
			}
			fmt.Fprintf(out, "Remote index: %s, %d rows embedded, pushed %s\n",
				manifest.Model, manifest.EmbeddedRows, formatTime(manifest.PushedAt))
			return nil
		},
	}
}

func newSyncPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the local index and dataset analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			index, err := store.IndexJSON()
			if err != nil {
				return err
			}
			metadata, err := store.MetadataJSON(cmd.Context())
			if err != nil {
				return err
			}

			client, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			manifest, err := client.Push(index, metadata)
			if err != nil {
				return fmt.Errorf("push failed: %w", err)
			}
			if err := client.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed index (%d bytes) and metadata (%d bytes)\n",
				manifest.IndexBytes, manifest.MetadataBytes)
			return nil
		},
	}
}

func newSyncPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Install the remote index and dataset analysis locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := client.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			index, err := client.PullIndex()
			if err != nil {
				return err
			}
			metadata, err := client.PullMetadata()
			if err != nil {
				return err
			}
			if index == nil && metadata == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to pull: no index has been pushed")
				return nil
			}

			_, store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			if index != nil {
				imported, err := store.ImportIndex(index)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Installed index: %d rows embedded with %s\n", imported.EmbeddedRows, imported.Model)
			}
			if metadata != nil {
				meta, err := store.ImportMetadata(cmd.Context(), metadata)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Installed dataset analysis for %s\n", meta.DatasetPath)
			}
			return nil
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe the local Charm cache",
		Long: `Completely wipe the locally cached Charm data.

WARNING: This deletes the local Charm cache. Your cloud data and the
local faculty index remain intact.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe the local Charm cache!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			client, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := client.Reset(); err != nil {
				return fmt.Errorf("failed to wipe data: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Local Charm cache wiped successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}

func newSyncKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List authorized SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			keys, err := client.GetAuthorizedKeys()
			if err != nil {
				return fmt.Errorf("failed to get authorized keys: %w", err)
			}

			if keys == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No authorized keys found")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Authorized SSH keys:")
			fmt.Fprintln(cmd.OutOrStdout(), keys)

			return nil
		},
	}
}
