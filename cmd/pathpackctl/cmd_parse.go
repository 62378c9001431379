package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cordum/pathpack/core/infra/config"
	"github.com/cordum/pathpack/core/pathspec"
)

type parsedWildcard struct {
	Kind string `json:"kind"`
	Ext  string `json:"ext,omitempty"`
}

type parsedLocal struct {
	BasePath string         `json:"base_path"`
	Wildcard parsedWildcard `json:"wildcard"`
}

type parsedGitHub struct {
	Owner    string         `json:"owner"`
	Repo     string         `json:"repo"`
	Branch   string         `json:"branch"`
	Subpath  string         `json:"subpath"`
	Wildcard parsedWildcard `json:"wildcard"`
}

func newParseCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Show how a path descriptor is interpreted",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "local <descriptor>",
		Short: "Parse a local descriptor, substituting configured tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadHooksConfig(opts.configPath)
			if err != nil {
				return err
			}
			spec, err := pathspec.ParseLocal(args[0], cfg.Properties)
			if err != nil {
				return err
			}
			return printJSON(cmd, parsedLocal{BasePath: spec.BasePath, Wildcard: wildcardView(spec.Wildcard)})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "github <descriptor>",
		Short: "Parse a GitHub descriptor into owner, repo, branch and subpath",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadHooksConfig(opts.configPath)
			if err != nil {
				return err
			}
			spec, err := pathspec.ParseGitHub(args[0], pathspec.GitHubOptions{BranchNamespaces: cfg.GitHub.BranchNamespaces})
			if err != nil {
				return err
			}
			return printJSON(cmd, parsedGitHub{
				Owner:    spec.Owner,
				Repo:     spec.Repo,
				Branch:   spec.Branch,
				Subpath:  spec.Subpath,
				Wildcard: wildcardView(spec.Wildcard),
			})
		},
	})
	return cmd
}

func wildcardView(w pathspec.Wildcard) parsedWildcard {
	return parsedWildcard{Kind: w.Kind.String(), Ext: w.Ext}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
