package metadata

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dockhand/cmdutil"
	"dockhand/config"
	"dockhand/metadata"
)

func NewMetadataCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Read or write the host metadata slot",
	}
	cmd.AddCommand(newGetCmd(cfg))
	cmd.AddCommand(newSetCmd(cfg))
	return cmd
}

func newGetCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the metadata document as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := metadata.NewClient(cfg.Metadata)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			doc, err := store.Read(ctx)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			cmdutil.Print(string(out))

			cmdutil.Print("ssh: " + doc.SSHUser() + "@" + doc.DropletIP() + ":" + strconv.Itoa(doc.SSHPort()))
			return nil
		},
	}
}

func newSetCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set <json>",
		Short: "Replace the metadata document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := metadata.NewClient(cfg.Metadata)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := store.Write(ctx, []byte(args[0])); err != nil {
				return err
			}
			cmdutil.PrintS("Metadata updated")
			return nil
		},
	}
}
