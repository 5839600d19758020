package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"plate-go/internal/app"
	"plate-go/internal/config"
	"plate-go/internal/plate"
	"plate-go/internal/server"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// command identifies the CLI command being run (e.g. "session", "serve").
func newApp(ctx context.Context, command string, echo slog.Level) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	if _, err := app.LoadEnv(defaults["base_dir"]); err != nil {
		return nil, err
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(ctx, cfg, command, app.Options{EchoLevel: echo})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// shortChecksum abbreviates a checksum for listings.
func shortChecksum(sum string) string {
	return sum[:min(12, len(sum))]
}

// readPassphrase prompts on the terminal without echoing input.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "plate",
	Short:        "Personal nutrition tracker",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Set GEMINI_API_KEY in the environment or in a .env file to enable estimates.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Goals:       %d kcal, %d steps\n", cfg.Goals.DailyCalories, cfg.Goals.DailySteps)
		fmt.Printf("Water Unit:  %s\n", cfg.Hydration.Unit)
		fmt.Printf("Camera:      %s\n", cfg.Camera.Type)
		fmt.Printf("Estimator:   %s\n", cfg.Estimator.Type)
		fmt.Printf("Archive:     %s (%s)\n", cfg.Archive.Name, cfg.Archive.Type)
		fmt.Printf("Journal:     %s\n", cfg.Journal.Type)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		fmt.Printf("Server:      %s\n", cfg.Server.Address)
		return nil
	},
}

var configArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the report archive",
}

var configArchiveCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the report archive is reachable and writable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "archive-check", slog.LevelWarn)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ValidateArchive(cmd.Context()); err != nil {
			return fmt.Errorf("archive check failed: %w", err)
		}
		fmt.Printf("Archive %q is ready.\n", a.Config().Archive.Name)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage report encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "keys-init", slog.LevelWarn)
		if err != nil {
			return err
		}
		defer a.Close()

		enc := a.Encryptor()
		if enc == nil {
			return fmt.Errorf("encryption is disabled: set [encryption] type = \"age\" in the config")
		}

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := enc.Setup(pass); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}
		fmt.Println("Encryption keys created.")
		return nil
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the public key",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "keys-show", slog.LevelWarn)
		if err != nil {
			return err
		}
		defer a.Close()

		pk, ok := a.Encryptor().(interface{ PublicKey() (string, error) })
		if !ok {
			return fmt.Errorf("encryptor %q has no public key", a.Config().Encryption.Type)
		}
		key, err := pk.PublicKey()
		if err != nil {
			return err
		}
		fmt.Println(key)
		return nil
	},
}

// session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start an interactive tracking session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "session", slog.LevelWarn)
		if err != nil {
			return err
		}
		defer a.Close()

		r := &repl{tracker: a.Tracker(), reports: a.Reports(), out: os.Stdout}
		return r.run(ctx, os.Stdin)
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tracker over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "serve", slog.LevelInfo)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.Config().Server
		if addr != "" {
			cfg.Address = addr
		}
		srv := server.New(cfg, a.Tracker(), a.Reports(), a.Logger())
		return srv.Run(ctx)
	},
}

// estimate command
var estimateCmd = &cobra.Command{
	Use:   "estimate TEXT",
	Short: "Estimate nutrition for a food description without logging it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "estimate", slog.LevelWarn)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.Tracker().SubmitText(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %.0f kcal, protein %.0fg, carbs %.0fg, fat %.0fg\n",
			d.Name, d.Calories, d.Protein, d.Carbs, d.Fat)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List exported day reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "history", slog.LevelWarn)
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.Reports().History(limit)
		if err != nil {
			return err
		}

		if len(recs) == 0 {
			fmt.Println("No reports exported.")
			return nil
		}

		for _, r := range recs {
			lock := ""
			if r.Encrypted {
				lock = "  [encrypted]"
			}
			fmt.Printf("%s  %s  %5d kcal  %2d entries  %s%s\n",
				r.Date,
				r.CreatedAt.Local().Format(time.DateTime),
				r.TotalCalories,
				r.EntryCount,
				shortChecksum(r.Checksum),
				lock,
			)
		}
		return nil
	},
}

// report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Manage day reports",
}

var reportShowCmd = &cobra.Command{
	Use:   "show DATE",
	Short: "Print the latest report exported for DATE (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := time.Parse(time.DateOnly, args[0]); err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", args[0])
		}

		a, err := newApp(cmd.Context(), "report-show", slog.LevelWarn)
		if err != nil {
			return err
		}
		defer a.Close()

		var dc plate.DecryptionContext
		_, err = a.Reports().Fetch(cmd.Context(), args[0], nil, os.Stdout)
		if !errors.Is(err, plate.ErrPassphraseRequired) {
			return err
		}

		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		if dc, err = a.Unlock(pass); err != nil {
			return err
		}
		_, err = a.Reports().Fetch(cmd.Context(), args[0], dc, os.Stdout)
		return err
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configArchiveCmd)
	configArchiveCmd.AddCommand(configArchiveCheckCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)
	keysCmd.AddCommand(keysShowCmd)

	// report subcommands
	reportCmd.AddCommand(reportShowCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.address)")
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of reports to show")
	rootCmd.AddCommand(reportCmd)
}
