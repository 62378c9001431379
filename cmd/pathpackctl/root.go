// pathpackctl inspects descriptors, seeds records and runs packaging hooks.
//
// Usage:
//
//	pathpackctl parse local '@source.path@/src/*.java'
//	pathpackctl parse github /owner/repo/tree/main/docs/*.md
//	pathpackctl record put --id rec-1 --type COPDEV_CI --path /srv/src
//	pathpackctl exec --record rec-1 --record rec-2 --parallel 4
//	pathpackctl submit --record rec-1
//	pathpackctl attachment get --record rec-1 -o sources.zip
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cordum/pathpack/core/infra/buildinfo"
	"github.com/cordum/pathpack/core/infra/config"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	redisURL   string
	natsURL    string
	configPath string
	locale     string
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "pathpackctl",
		Short: "Package path descriptors into record attachments",
		Long: "pathpackctl resolves a record's path descriptors into files, zips them\n" +
			"and stores the archive as the record's attachment.",
		Version:       buildinfo.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.redisURL, "redis", cfg.RedisURL, "Redis URL for records and attachments")
	pf.StringVar(&opts.natsURL, "nats", cfg.NatsURL, "NATS URL used by submit")
	pf.StringVar(&opts.configPath, "config", cfg.ConfigPath, "hooks config file")
	pf.StringVar(&opts.locale, "locale", cfg.Locale, "locale for error messages")

	root.AddCommand(newParseCmd(opts))
	root.AddCommand(newRecordCmd(opts))
	root.AddCommand(newExecCmd(opts))
	root.AddCommand(newSubmitCmd(opts))
	root.AddCommand(newAttachmentCmd(opts))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
