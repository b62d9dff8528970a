package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/codeready-toolchain/toolchain-cicd/critic-notify/cmd/flags"
	"github.com/codeready-toolchain/toolchain-cicd/critic-notify/internal/configuration"
	"github.com/codeready-toolchain/toolchain-cicd/critic-notify/internal/console"
	"github.com/codeready-toolchain/toolchain-cicd/critic-notify/internal/notifier"
	"github.com/codeready-toolchain/toolchain-cicd/critic-notify/internal/refs"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewNotifyCmd(refs.DefaultResolve).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func NewNotifyCmd(resolve refs.ResolveFunc) *cobra.Command {
	var configFile, repoPath, logFile, ref, sha string
	var debug bool
	var settings configuration.Configuration
	var cmd = &cobra.Command{
		Use:   "critic-notify --ref=<ref> [--sha=<sha>]",
		Short: "Notify a Critic system about an updated ref",
		Long: `Tells a Critic system about an updated ref of a repository it tracks branches from,
so that it updates the tracking branch immediately instead of on its next poll.
When the update was triggered for a review, waits for Critic to process it and
prints the output of its hooks.`,
		SilenceUsage: true,
		Args:         cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}
			if debug {
				opts.Level = slog.LevelDebug
			}
			handler := console.NewHandler(cmd.OutOrStdout(), opts)
			logger := slog.New(handler)
			recordEnvironment(handler, flags.Describe(cmd, "password"))
			if logFile != "" {
				defer func() {
					if err := writeTranscript(handler, logFile); err != nil {
						logger.Warn("failed to write the log file", "path", logFile, "error", err.Error())
					}
				}()
			}

			config, err := configuration.New(configFile)
			if err != nil {
				return err
			}
			override(cmd, &config, settings)
			if config.CriticURL == "" {
				logger.Error("No Critic URL set!")
				return errors.New("no Critic URL set")
			}
			if err := config.Validate(); err != nil {
				return err
			}
			logger.Debug(pretty.Sprintf("%# v", redacted(config)))

			update := refs.Resolve(cmd.Context(), logger, resolve, repoPath, ref, sha)
			options := notifier.Options{
				CriticURL:         config.CriticURL,
				RepositoryURL:     config.RepositoryURL,
				Verify:            config.Verify,
				ConnectionTimeout: config.ConnectionTimeout,
				UpdateTimeout:     config.UpdateTimeout,
			}
			if config.HasCredentials() {
				options.Username = config.Username
				options.Password = config.Password
			}
			return notifier.New(logger, options).Notify(cmd.Context(), update)
		},
	}
	cmd.Flags().StringVarP(&settings.CriticURL, "critic-url", "c", "", `the base URL ("http://<hostname>/") of the Critic system to notify`)
	cmd.Flags().StringVarP(&settings.RepositoryURL, "repository-url", "r", "", `the repository URL ("git@gitlab.com:username/repo.git") as configured as remote in Critic`)
	cmd.Flags().StringVar(&ref, "ref", "", "the git ref to update")
	flags.MustMarkRequired(cmd, "ref")
	cmd.Flags().StringVar(&sha, "sha", "", "the commit of the ref (resolved in the local repository if not set)")
	cmd.Flags().StringVarP(&settings.Username, "username", "u", "", "the Critic username")
	cmd.Flags().StringVarP(&settings.Password, "password", "p", "", "the Critic password, credentials are only sent when both username and password are set")
	cmd.Flags().BoolVar(&settings.Verify, "verify", false, "validate the certificate of the Critic system when accessed over HTTPS")
	cmd.Flags().DurationVar(&settings.ConnectionTimeout, "connection-timeout", configuration.DefaultConnectionTimeout, "timeout of the initial request")
	cmd.Flags().DurationVar(&settings.UpdateTimeout, "update-timeout", configuration.DefaultUpdateTimeout, "time to wait for a triggered update to complete")
	cmd.Flags().StringVar(&configFile, "config", "", "path to a YAML file with default settings")
	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "path to the git repository in which the ref is resolved")
	cmd.Flags().StringVar(&logFile, "log-file", "", "path to write the full log (debug included) to")
	cmd.Flags().BoolVar(&debug, "debug", false, "debug mode")
	return cmd
}

// override applies the settings given on the command line over the ones of the configuration file
func override(cmd *cobra.Command, config *configuration.Configuration, settings configuration.Configuration) {
	changed := cmd.Flags().Changed
	if changed("critic-url") {
		config.CriticURL = settings.CriticURL
	}
	if changed("repository-url") {
		config.RepositoryURL = settings.RepositoryURL
	}
	if changed("username") {
		config.Username = settings.Username
	}
	if changed("password") {
		config.Password = settings.Password
	}
	if changed("verify") {
		config.Verify = settings.Verify
	}
	if changed("connection-timeout") {
		config.ConnectionTimeout = settings.ConnectionTimeout
	}
	if changed("update-timeout") {
		config.UpdateTimeout = settings.UpdateTimeout
	}
}

func redacted(config configuration.Configuration) configuration.Configuration {
	if config.Password != "" {
		config.Password = "********"
	}
	return config
}
