package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cordum/pathpack/core/hooks"
	"github.com/cordum/pathpack/core/records"
)

type recordPutFlags struct {
	id    string
	org   string
	name  string
	typ   string
	paths []string
}

func newRecordCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Manage packaging records",
	}

	var put recordPutFlags
	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Create or replace a record and its path descriptors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(put.typ) == "" {
				return errors.New("--type is required")
			}
			store, err := records.NewRedisStore(opts.redisURL)
			if err != nil {
				return fmt.Errorf("connect records store: %w", err)
			}
			defer store.Close()
			rec := records.Record{ID: put.id, OrganizationID: put.org, Name: put.name, Type: put.typ}
			if err := store.Put(cmd.Context(), rec, put.paths); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "record %s stored with %d descriptor(s)\n", put.id, len(put.paths))
			return nil
		},
	}
	f := putCmd.Flags()
	f.StringVar(&put.id, "id", "", "record id (required)")
	f.StringVar(&put.org, "org", "", "organization id")
	f.StringVar(&put.name, "name", "", "record name")
	f.StringVar(&put.typ, "type", hooks.TypeLocal, "record type: "+hooks.TypeLocal+" or "+hooks.TypeGitHub)
	f.StringArrayVar(&put.paths, "path", nil, "path descriptor, repeatable and kept in order")
	_ = putCmd.MarkFlagRequired("id")

	var showID string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print a record and its descriptors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := records.NewRedisStore(opts.redisURL)
			if err != nil {
				return fmt.Errorf("connect records store: %w", err)
			}
			defer store.Close()
			rec, err := store.Get(cmd.Context(), showID)
			if err != nil {
				return err
			}
			paths, err := store.PathDescriptors(cmd.Context(), showID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", rec.ID)
			fmt.Fprintf(out, "Type:    %s\n", rec.Type)
			fmt.Fprintf(out, "Org:     %s\n", rec.OrganizationID)
			fmt.Fprintf(out, "Name:    %s\n", rec.Name)
			fmt.Fprintf(out, "Paths:   (%d)\n", len(paths))
			for _, p := range paths {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return nil
		},
	}
	showCmd.Flags().StringVar(&showID, "id", "", "record id (required)")
	_ = showCmd.MarkFlagRequired("id")

	cmd.AddCommand(putCmd, showCmd)
	return cmd
}
