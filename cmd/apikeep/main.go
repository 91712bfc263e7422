package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"apikeep/internal/app"
	"apikeep/internal/config"
	"apikeep/internal/encryption"
	"apikeep/internal/snapshot"
	"apikeep/internal/store"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// newApp reads the config and wires an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "AddProvider").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	a, err := app.NewAppFromFile(defaults["config_path"], operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// formatError maps typed store errors onto terse user-facing messages.
func formatError(err error) string {
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("invalid %s: %s", ve.Field, ve.Reason)
	}
	var nfe *store.NotFoundError
	if errors.As(err, &nfe) {
		return fmt.Sprintf("no provider named %q", nfe.Alias)
	}
	var ce *store.ConflictError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return "Error: " + err.Error()
}

// promptSecret reads an API key without echo. Falls back to a plain line
// read when stdin is not a terminal (piped input in scripts and tests).
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

var rootCmd = &cobra.Command{
	Use:   "apikeep",
	Short: "Local store for API provider credentials",
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
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Store root: %s\n", cfg.StoreRoot)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Store root:  %s\n", cfg.StoreRoot)
		fmt.Printf("Log dir:     %s\n", cfg.LogDir)
		if cfg.SettingsDir != "" {
			fmt.Printf("Settings:    %s\n", cfg.SettingsDir)
		}
		fmt.Printf("Retention:   keep %d, %d days\n", cfg.Retention.KeepCount, cfg.Retention.KeepDays)
		fmt.Printf("Replica:     %s\n", cfg.Replica.Type)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the replica encryption key pair",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the replica encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return err
		}

		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return err
		}
		if enc.IsConfigured() {
			return fmt.Errorf("key pair already exists at %s", cfg.Encryption.PublicKeyPath)
		}

		passphrase, err := promptSecret("Passphrase for private key: ")
		if err != nil {
			return err
		}
		if err := enc.Setup(passphrase); err != nil {
			return err
		}
		fmt.Printf("Key pair written to %s\n", cfg.Encryption.PublicKeyPath)
		return nil
	},
}

// provider commands
var addCmd = &cobra.Command{
	Use:   "add ALIAS BASE_URL",
	Short: "Add a provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		timeout, _ := cmd.Flags().GetInt("timeout")

		a, err := newApp("AddProvider")
		if err != nil {
			return err
		}
		defer a.Close()

		if key == "" {
			key, err = promptSecret(fmt.Sprintf("API key for %s: ", args[0]))
			if err != nil {
				return err
			}
		}

		rec, err := a.Store.Add(&store.ProviderRecord{
			Alias:         args[0],
			BaseURL:       args[1],
			APIKey:        key,
			TimeoutMillis: timeout,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Added provider %s (%s)\n", rec.Alias, rec.BaseURL)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update ALIAS",
	Short: "Update a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UpdateProvider")
		if err != nil {
			return err
		}
		defer a.Close()

		var patch store.Patch
		if cmd.Flags().Changed("url") {
			u, _ := cmd.Flags().GetString("url")
			patch.BaseURL = &u
		}
		if cmd.Flags().Changed("timeout") {
			t, _ := cmd.Flags().GetInt("timeout")
			patch.TimeoutMillis = &t
		}
		if newKey, _ := cmd.Flags().GetBool("key"); newKey {
			key, err := promptSecret(fmt.Sprintf("New API key for %s: ", args[0]))
			if err != nil {
				return err
			}
			patch.APIKey = &key
		}

		if patch.BaseURL == nil && patch.TimeoutMillis == nil && patch.APIKey == nil {
			return fmt.Errorf("nothing to update: pass --url, --timeout, or --key")
		}

		rec, err := a.Store.Update(args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("Updated provider %s\n", rec.Alias)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove ALIAS",
	Short: "Remove a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RemoveProvider")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed provider %s\n", args[0])
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListProviders")
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.Store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No providers configured.")
			return nil
		}

		current, err := a.Store.GetDefault()
		if err != nil {
			return err
		}

		for _, rec := range records {
			marker := " "
			if rec.Alias == current {
				marker = "*"
			}
			fmt.Printf("%s %-20s %s\n", marker, rec.Alias, rec.BaseURL)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show ALIAS",
	Short: "Show one provider's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reveal, _ := cmd.Flags().GetBool("reveal")

		a, err := newApp("ShowProvider")
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Store.Get(args[0])
		if err != nil {
			return err
		}

		key := maskSecret(rec.APIKey)
		if reveal {
			key = rec.APIKey
		}

		fmt.Printf("Alias:        %s\n", rec.Alias)
		fmt.Printf("Base URL:     %s\n", rec.BaseURL)
		fmt.Printf("API key:      %s\n", key)
		if rec.TimeoutMillis > 0 {
			fmt.Printf("Timeout:      %d ms\n", rec.TimeoutMillis)
		}
		fmt.Printf("Created:      %s\n", rec.Created.Format("2006-01-02 15:04:05"))
		fmt.Printf("Last updated: %s\n", rec.LastUpdated.Format("2006-01-02 15:04:05"))
		if !rec.LastUsed.IsZero() {
			fmt.Printf("Last used:    %s\n", rec.LastUsed.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

var useCmd = &cobra.Command{
	Use:   "use ALIAS",
	Short: "Set the default provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SetDefault")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.SetDefault(args[0]); err != nil {
			return err
		}
		fmt.Printf("Default provider: %s\n", args[0])
		return nil
	},
}

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the default provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetDefault")
		if err != nil {
			return err
		}
		defer a.Close()

		alias, err := a.Store.GetDefault()
		if err != nil {
			return err
		}
		if alias == "" {
			fmt.Println("No default provider set.")
			return nil
		}
		fmt.Println(alias)
		return nil
	},
}

// backup commands
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage store snapshots",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create [DESCRIPTION]",
	Short: "Create a snapshot of the store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CreateSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		description := ""
		if len(args) > 0 {
			description = args[0]
		}

		snap, err := a.Snapshots.Create(description, snapshot.CreateOptions{})
		if err != nil {
			return err
		}
		fmt.Printf("Snapshot %s created (%d items, %d bytes)\n", snap.ID, len(snap.Manifest), snap.TotalSize)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		sortBy, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("ListSnapshots")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Snapshots.List(sortBy, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No snapshots recorded.")
			return nil
		}

		for _, e := range entries {
			state := "ok"
			switch {
			case !e.Exists:
				state = "missing"
			case e.Compressed:
				state = "compressed"
			}
			desc := e.Description
			if desc == "" {
				desc = "-"
			}
			fmt.Printf("%s  %s  %10d  %-10s  %s\n",
				e.ID,
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.TotalSize,
				state,
				desc,
			)
		}
		return nil
	},
}

var backupVerifyCmd = &cobra.Command{
	Use:   "verify [ID]",
	Short: "Verify snapshot integrity",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("VerifySnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		var reports []*snapshot.VerifyReport
		if len(args) == 1 {
			report, err := a.Snapshots.Verify(args[0])
			if err != nil {
				return err
			}
			reports = append(reports, report)
		} else {
			valid, invalid, all, err := a.Snapshots.VerifyAll()
			if err != nil {
				return err
			}
			reports = all
			fmt.Printf("%d valid, %d invalid\n", valid, invalid)
		}

		failed := false
		for _, report := range reports {
			if report.Valid() {
				fmt.Printf("%s: ok\n", report.ID)
				continue
			}
			failed = true
			for _, issue := range report.Issues {
				fmt.Printf("%s: %s: %s", report.ID, issue.Path, issue.Reason)
				if issue.Expected != "" {
					fmt.Printf(" (expected %s, got %s)", issue.Expected, issue.Actual)
				}
				fmt.Println()
			}
		}
		if failed {
			return fmt.Errorf("verification failed")
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore ID",
	Short: "Restore the store from a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RestoreSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		safety, err := a.Snapshots.Restore(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Restored from %s (safety snapshot: %s)\n", args[0], safety.ID)
		return nil
	},
}

var backupCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		keepCount, _ := cmd.Flags().GetInt("keep")
		keepDays, _ := cmd.Flags().GetInt("days")

		a, err := newApp("CleanSnapshots")
		if err != nil {
			return err
		}
		defer a.Close()

		if !cmd.Flags().Changed("keep") {
			keepCount = a.Config.Retention.KeepCount
		}
		if !cmd.Flags().Changed("days") {
			keepDays = a.Config.Retention.KeepDays
		}

		report, err := a.Snapshots.CleanOld(keepCount, keepDays)
		if err != nil {
			return err
		}
		for _, id := range report.Removed {
			fmt.Printf("Removed %s\n", id)
		}
		for _, f := range report.Failures {
			fmt.Printf("Failed to remove %s: %v\n", f.ID, f.Err)
		}
		if len(report.Removed) == 0 && len(report.Failures) == 0 {
			fmt.Println("Nothing to remove.")
		}
		return nil
	},
}

var backupCompressCmd = &cobra.Command{
	Use:   "compress ID",
	Short: "Pack a snapshot into a tar.gz archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CompressSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Snapshots.Compress(args[0]); err != nil {
			return err
		}
		fmt.Printf("Compressed %s\n", args[0])
		return nil
	},
}

var backupDecompressCmd = &cobra.Command{
	Use:   "decompress ID",
	Short: "Unpack a snapshot archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DecompressSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Snapshots.Decompress(args[0]); err != nil {
			return err
		}
		fmt.Printf("Decompressed %s\n", args[0])
		return nil
	},
}

var backupFetchCmd = &cobra.Command{
	Use:   "fetch ID",
	Short: "Download a snapshot archive from the replica",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("FetchSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		var dec snapshot.Decryptor
		if a.Encryptor != nil && a.Encryptor.IsConfigured() {
			passphrase, err := promptSecret("Passphrase for private key: ")
			if err != nil {
				return err
			}
			dec, err = a.Encryptor.Unlock(passphrase)
			if err != nil {
				return err
			}
		}

		if err := a.Snapshots.Fetch(args[0], dec); err != nil {
			return err
		}
		fmt.Printf("Fetched %s\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)

	addCmd.Flags().String("key", "", "API key (prompted when omitted)")
	addCmd.Flags().Int("timeout", 0, "Request timeout in milliseconds")

	updateCmd.Flags().String("url", "", "New base URL")
	updateCmd.Flags().Int("timeout", 0, "New request timeout in milliseconds")
	updateCmd.Flags().Bool("key", false, "Prompt for a new API key")

	showCmd.Flags().Bool("reveal", false, "Print the API key in plaintext")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupListCmd.Flags().String("sort", "time", "Sort order: time or size")
	backupListCmd.Flags().IntP("limit", "n", 0, "Maximum number of snapshots to show")
	backupCmd.AddCommand(backupVerifyCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupCleanCmd)
	backupCleanCmd.Flags().Int("keep", 0, "Number of most recent snapshots to keep")
	backupCleanCmd.Flags().Int("days", 0, "Remove snapshots older than this many days")
	backupCmd.AddCommand(backupCompressCmd)
	backupCmd.AddCommand(backupDecompressCmd)
	backupCmd.AddCommand(backupFetchCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(backupCmd)
}
