package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shard-go/internal/app"
	"shard-go/internal/config"
	"shard-go/internal/custody"
	"shard-go/internal/shard"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

var verbose bool

// newApp reads the config and creates a ShardApp. The caller must defer app.Close().
// kind is the ledger operation kind, or "" for read-only commands.
func newApp(ctx context.Context, kind string) (*app.ShardApp, error) {
	defaults, err := app.LoadDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewShardApp(ctx, cfg, kind, app.Options{Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "shard",
	Short: "Encrypt a file and split its key among custodians",
	Long: `shard encrypts a file with AES-256-CBC under a key derived from a password,
then splits that key into n shares so that any t of them restore the file.

Blobs carry no authentication tag: a tampered blob is only detected if it
breaks the padding or the embedded file header.`,
	SilenceUsage:  true,
	SilenceErrors: true,
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
		defaults, err := app.LoadDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults.BaseDir)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.LoadDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Restore Dir: %s\n", cfg.RestoreDir)
		fmt.Printf("Vault:       %s (%s)\n", cfg.Vault.Name, describeVault(cfg.Vault))
		fmt.Printf("Ledger:      %s\n", cfg.Database.Type)
		fmt.Printf("KDF:         %s\n", cfg.Crypto.KDF)
		return nil
	},
}

// encrypt command
var encryptCmd = &cobra.Command{
	Use:   "encrypt FILE",
	Short: "Encrypt a file and split its key into shares",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		shares, _ := cmd.Flags().GetInt("shares")
		threshold, _ := cmd.Flags().GetInt("threshold")
		fromStdin, _ := cmd.Flags().GetBool("password-stdin")

		if name == "" {
			name = defaultShareSetName(args[0])
		}

		password, err := readPassword("Password: ", !fromStdin, fromStdin)
		if err != nil {
			return err
		}
		defer clear(password)

		a, err := newApp(cmd.Context(), shard.OpEncrypt)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Encrypt(cmd.Context(), args[0], name, password, shares, threshold)
		if err != nil {
			return fmt.Errorf("encrypt failed: %w", err)
		}

		fmt.Printf("Encrypted %s (%d bytes)\n", args[0], res.PlaintextSize)
		fmt.Printf("Blob:      %s (%d bytes)\n", res.BlobName, res.BlobSize)
		fmt.Printf("Fragments: %s (%d shares, any %d restore)\n", res.FragmentsName, res.Shares, res.Threshold)
		return nil
	},
}

// decrypt command
var decryptCmd = &cobra.Command{
	Use:   "decrypt NAME.aes NAME.frg",
	Short: "Restore a file from its blob and fragment set",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out")

		a, err := newApp(cmd.Context(), shard.OpDecrypt)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Decrypt(cmd.Context(), args[0], args[1], outDir)
		if err != nil {
			return fmt.Errorf("decrypt failed: %w", err)
		}

		fmt.Printf("Restored %s (%d bytes) from %d shares\n", res.Path, res.Size, res.SharesUsed)
		return nil
	},
}

// inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect NAME.frg",
	Short: "Show what a fragment set holds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer a.Close()

		insp, err := a.Inspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		blob := "missing"
		if insp.BlobPresent {
			blob = "present"
		}
		fmt.Printf("Share set: %s\n", insp.ShareSet)
		fmt.Printf("Shares:    %d (x = %s)\n", insp.Shares, strings.Join(insp.Abscissas, ", "))
		fmt.Printf("Blob:      %s%s (%s)\n", insp.ShareSet, shard.BlobExt, blob)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")

		a, err := newApp(cmd.Context(), "")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}
		return printHistory(os.Stdout, ops, format)
	},
}

// shares command
var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "Hand shares to custodians and gather them back",
}

var sharesExportCmd = &cobra.Command{
	Use:   "export NAME.frg",
	Short: "Seal each share into its own age-encrypted file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		recipients, _ := cmd.Flags().GetStringSlice("recipient")
		recipientsFile, _ := cmd.Flags().GetString("recipients-file")
		usePassphrase, _ := cmd.Flags().GetBool("passphrase")

		sealer, err := newSealer(recipients, recipientsFile, usePassphrase)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), shard.OpExport)
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.ExportShares(cmd.Context(), args[0], sealer, dir)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		for _, f := range files {
			fmt.Println(f)
		}
		fmt.Printf("Exported %d share(s)\n", len(files))
		return nil
	},
}

var sharesCollectCmd = &cobra.Command{
	Use:   "collect FILE...",
	Short: "Open sealed shares and store them as a fragment set",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		identityFile, _ := cmd.Flags().GetString("identity")
		usePassphrase, _ := cmd.Flags().GetBool("passphrase")

		opener, err := newOpener(identityFile, usePassphrase)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), shard.OpCollect)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.CollectShares(cmd.Context(), name, args, opener)
		if err != nil {
			return fmt.Errorf("collect failed: %w", err)
		}
		fmt.Printf("Stored %s with %d share(s)\n", res.FragmentsName, res.Shares)
		return nil
	},
}

var sharesKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an age key pair for a custodian",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, recipient, err := custody.GenerateIdentity()
		if err != nil {
			return err
		}
		fmt.Printf("# public key: %s\n%s\n", recipient, identity)
		return nil
	},
}

func newSealer(recipients []string, recipientsFile string, usePassphrase bool) (shard.ShareSealer, error) {
	switch {
	case usePassphrase && (len(recipients) > 0 || recipientsFile != ""):
		return nil, fmt.Errorf("%w: --passphrase cannot be combined with recipients", shard.ErrValidation)
	case usePassphrase:
		pass, err := readPassword("Custodian passphrase: ", true, false)
		if err != nil {
			return nil, err
		}
		defer clear(pass)
		return custody.NewPassphraseSealer(string(pass), 0)
	case recipientsFile != "":
		f, err := os.Open(recipientsFile)
		if err != nil {
			return nil, fmt.Errorf("opening recipients file: %w", err)
		}
		defer f.Close()
		return custody.NewRecipientSealer(f)
	case len(recipients) > 0:
		return custody.NewRecipientSealer(strings.NewReader(strings.Join(recipients, "\n")))
	default:
		return nil, fmt.Errorf("%w: one of --recipient, --recipients-file or --passphrase is required", shard.ErrValidation)
	}
}

func newOpener(identityFile string, usePassphrase bool) (shard.ShareOpener, error) {
	switch {
	case usePassphrase && identityFile != "":
		return nil, fmt.Errorf("%w: --passphrase cannot be combined with --identity", shard.ErrValidation)
	case usePassphrase:
		pass, err := readPassword("Custodian passphrase: ", false, false)
		if err != nil {
			return nil, err
		}
		defer clear(pass)
		return custody.NewPassphraseOpener(string(pass))
	case identityFile != "":
		f, err := os.Open(identityFile)
		if err != nil {
			return nil, fmt.Errorf("opening identity file: %w", err)
		}
		defer f.Close()
		return custody.NewIdentityOpener(f)
	default:
		return nil, fmt.Errorf("%w: one of --identity or --passphrase is required", shard.ErrValidation)
	}
}

// defaultShareSetName derives a share-set name from the input file name,
// dropping its extension.
func defaultShareSetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func describeVault(v config.VaultConfig) string {
	switch v.Type {
	case "filesystem":
		return "filesystem " + v.FSVaultRoot
	case "s3":
		return "s3://" + strings.TrimSuffix(v.S3Bucket+"/"+v.S3Prefix, "/")
	default:
		return v.Type
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr as well as the log file")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// shares subcommands
	sharesCmd.AddCommand(sharesExportCmd)
	sharesExportCmd.Flags().String("dir", ".", "Directory to write sealed shares to")
	sharesExportCmd.Flags().StringSliceP("recipient", "r", nil, "age recipient (repeatable)")
	sharesExportCmd.Flags().StringP("recipients-file", "R", "", "File of age recipients, one per line")
	sharesExportCmd.Flags().Bool("passphrase", false, "Seal under a passphrase instead of recipients")
	sharesCmd.AddCommand(sharesCollectCmd)
	sharesCollectCmd.Flags().String("name", "", "Name of the fragment set to create")
	sharesCollectCmd.MarkFlagRequired("name")
	sharesCollectCmd.Flags().StringP("identity", "i", "", "File of age identities")
	sharesCollectCmd.Flags().Bool("passphrase", false, "Open shares sealed under a passphrase")
	sharesCmd.AddCommand(sharesKeygenCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(encryptCmd)
	encryptCmd.Flags().String("name", "", "Share-set name (default: file name without extension)")
	encryptCmd.Flags().IntP("shares", "n", 5, "Number of shares to create")
	encryptCmd.Flags().IntP("threshold", "t", 3, "Shares needed to restore")
	encryptCmd.Flags().Bool("password-stdin", false, "Read the password from the first line of stdin")
	rootCmd.AddCommand(decryptCmd)
	decryptCmd.Flags().StringP("out", "o", "", "Directory to restore into (default: restore_dir)")
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	historyCmd.Flags().String("format", "text", "Output format: text or yaml")
	rootCmd.AddCommand(sharesCmd)
}
