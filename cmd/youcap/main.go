// Package main provides the youcap CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/youcap/youcap/internal/auth"
	"github.com/youcap/youcap/internal/config"
	"github.com/youcap/youcap/internal/debuglog"
	"github.com/youcap/youcap/internal/feed"
	"github.com/youcap/youcap/internal/index"
	"github.com/youcap/youcap/internal/player"
	"github.com/youcap/youcap/internal/storage"
	"github.com/youcap/youcap/internal/transcript"
	"github.com/youcap/youcap/internal/tui"
	"github.com/youcap/youcap/internal/youtube"
)

// Version is set at build time
var Version = "dev"

func main() {
	// A .env next to the binary is a convenient place for credentials
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deps holds the wired-up components shared by all commands.
type deps struct {
	cfg        *config.Config
	store      *storage.Store
	flow       *auth.Flow
	client     *youtube.Client
	aggregator *feed.Aggregator
	fetcher    *transcript.Fetcher
	launcher   *player.Launcher
}

func setup(configPath, dbPath string) (*deps, func(), error) {
	debuglog.Setup(debuglog.ParseLogLevel(os.Getenv("YOUCAP_LOG_LEVEL")))

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}

	store, err := storage.NewStore(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}

	flow := auth.NewFlow(cfg.API.ClientID, cfg.API.ClientSecret, store)
	client := youtube.NewClient(cfg.API.Key)
	aggregator := feed.NewAggregator(client, store)

	fetcher, err := transcript.NewFetcher(cfg.Transcript)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	d := &deps{
		cfg:        cfg,
		store:      store,
		flow:       flow,
		client:     client,
		aggregator: aggregator,
		fetcher:    fetcher,
		launcher:   player.NewLauncher(cfg),
	}

	cleanup := func() {
		store.Close()
		debuglog.Close()
	}

	return d, cleanup, nil
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		dbPath     string
	)

	rootCmd := &cobra.Command{
		Use:     "youcap",
		Short:   "A terminal YouTube client with ranked subscription feeds and transcripts",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(configPath, dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			// The transcript index is optional; the TUI works without it
			ix, err := index.Open(d.store, d.cfg.Storage.SearchIndex)
			if err != nil {
				debuglog.Warnf("main: opening search index: %v", err)
			} else {
				defer ix.Close()
			}

			app := tui.NewApp(d.cfg, tui.Deps{
				Store:      d.store,
				Flow:       d.flow,
				Client:     d.client,
				Aggregator: d.aggregator,
				Fetcher:    d.fetcher,
				Index:      ix,
				Launcher:   d.launcher,
			})

			p := tea.NewProgram(app, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	rootCmd.SetVersionTemplate("youcap version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to database file (overrides config)")

	rootCmd.AddCommand(newLoginCmd(&configPath, &dbPath))
	rootCmd.AddCommand(newLogoutCmd(&configPath, &dbPath))
	rootCmd.AddCommand(newFeedCmd(&configPath, &dbPath))
	rootCmd.AddCommand(newSearchCmd(&configPath, &dbPath))
	rootCmd.AddCommand(newChannelCmd(&configPath, &dbPath))
	rootCmd.AddCommand(newTranscriptCmd(&configPath, &dbPath))
	rootCmd.AddCommand(newPlayCmd(&configPath, &dbPath))
	rootCmd.AddCommand(newMuteCmd(&configPath, &dbPath))
	rootCmd.AddCommand(newUnmuteCmd(&configPath, &dbPath))
	rootCmd.AddCommand(newMutesCmd(&configPath, &dbPath))
	rootCmd.AddCommand(newGenerateConfigCmd())

	return rootCmd
}

func newLoginCmd(configPath, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Google via the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(*configPath, *dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			done := make(chan error, 1)
			flow := auth.NewFlow(d.cfg.API.ClientID, d.cfg.API.ClientSecret, d.store,
				auth.WithEvents(auth.Events{
					Authenticated: func() { done <- nil },
					Failed:        func(err error) { done <- err },
				}))

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			fmt.Fprintln(cmd.OutOrStdout(), "Opening browser for authorization...")
			if err := flow.StartLogin(ctx); err != nil {
				return err
			}

			select {
			case err := <-done:
				if err != nil {
					return fmt.Errorf("login failed: %w", err)
				}
			case <-ctx.Done():
				return fmt.Errorf("login timed out")
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Authenticated.")
			return nil
		},
	}
}

func newLogoutCmd(configPath, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(*configPath, *dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			d.flow.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newFeedCmd(configPath, dbPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print the ranked subscription feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(*configPath, *dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			d.flow.Restore(ctx)

			videos, err := d.aggregator.FetchSubscriptionFeed(ctx, d.flow.AccessToken())
			if err != nil {
				return err
			}

			if limit > 0 && len(videos) > limit {
				videos = videos[:limit]
			}
			for _, v := range videos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-50.50s  %-25.25s  %d views\n",
					v.ID, v.Title, v.Channel, v.ViewCount)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "limit the number of rows printed")
	return cmd
}

func newSearchCmd(configPath, dbPath *string) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search YouTube, or saved transcripts with --transcripts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(*configPath, *dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			query := strings.Join(args, " ")

			if local {
				ix, err := index.Open(d.store, d.cfg.Storage.SearchIndex)
				if err != nil {
					return fmt.Errorf("opening search index: %w", err)
				}
				defer ix.Close()

				results, err := ix.Search(query, 25)
				if err != nil {
					return err
				}
				for _, r := range results {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-50.50s  %s\n", r.VideoID, r.Title, r.Channel)
				}
				return nil
			}

			videos, err := d.client.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			for _, v := range videos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-50.50s  %s\n", v.ID, v.Title, v.Channel)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&local, "transcripts", "t", false, "search saved transcripts instead of YouTube")
	return cmd
}

func newChannelCmd(configPath, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "channel <channelID>",
		Short: "Preview a channel's uploads via its public feed (no login needed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(*configPath, *dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			videos, err := d.aggregator.ChannelUploads(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, v := range videos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-50.50s  %s\n", v.ID, v.Title, v.PublishedAt)
			}
			return nil
		},
	}
}

func newTranscriptCmd(configPath, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <videoID>",
		Short: "Fetch and print a video's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(*configPath, *dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			text, err := d.fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newPlayCmd(configPath, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play <videoID>",
		Short: "Open a video in the configured player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(*configPath, *dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			return d.launcher.Play(args[0])
		},
	}
}

func newMuteCmd(configPath, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mute <channelID> [name]",
		Short: "Hide a channel from the subscription feed",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(*configPath, *dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			name := args[0]
			if len(args) > 1 {
				name = args[1]
			}
			d.aggregator.MuteChannel(args[0], name)
			return nil
		},
	}
}

func newUnmuteCmd(configPath, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "unmute <channelID>",
		Short: "Remove a channel from the mute list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(*configPath, *dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			d.aggregator.UnmuteChannel(args[0])
			return nil
		},
	}
}

func newMutesCmd(configPath, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mutes",
		Short: "List muted channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := setup(*configPath, *dbPath)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, m := range d.aggregator.MutedChannels() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", m.ID, m.Name)
			}
			return nil
		},
	}
}

func newGenerateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-config",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, _ := os.UserHomeDir()
			configFile := filepath.Join(home, ".config", "youcap", "config.toml")

			if err := config.GenerateDefaultConfig(configFile); err != nil {
				return fmt.Errorf("generating config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", configFile)
			return nil
		},
	}
}
