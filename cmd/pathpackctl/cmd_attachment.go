package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cordum/pathpack/core/attach"
	"github.com/cordum/pathpack/core/hooks"
)

func newAttachmentCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attachment",
		Short: "Inspect stored archives",
	}

	var recordID, output string
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the record's attachment and optionally save its content",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := attach.NewRedisStore(opts.redisURL)
			if err != nil {
				return fmt.Errorf("connect attachment store: %w", err)
			}
			defer store.Close()

			att, err := store.Existing(cmd.Context(), hooks.FileTabID, recordID)
			if err != nil {
				return err
			}
			if att == nil {
				return fmt.Errorf("record %s has no attachment", recordID)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", att.ID)
			fmt.Fprintf(out, "Name:    %s\n", att.Name)
			fmt.Fprintf(out, "Size:    %d\n", att.SizeBytes)
			fmt.Fprintf(out, "Created: %s\n", att.CreatedAt.UTC().Format(time.RFC3339))
			if output == "" {
				return nil
			}
			content, _, err := store.Get(cmd.Context(), att.ID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(out, "Saved:   %s\n", output)
			return nil
		},
	}
	f := getCmd.Flags()
	f.StringVar(&recordID, "record", "", "record id (required)")
	f.StringVarP(&output, "output", "o", "", "write the archive to this file")
	_ = getCmd.MarkFlagRequired("record")

	cmd.AddCommand(getCmd)
	return cmd
}
