// Package main is the entry point for the E-Day ledger admin CLI.
// This tool manages candidates, voters and tallies directly against the store.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/prn-tf/eday-ledger/internal/app"
	"github.com/prn-tf/eday-ledger/internal/archive"
	"github.com/prn-tf/eday-ledger/internal/config"
	"github.com/prn-tf/eday-ledger/internal/domain"
	"github.com/prn-tf/eday-ledger/internal/logging"
	"github.com/prn-tf/eday-ledger/internal/pkg/crypto"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "version":
		fmt.Printf("E-Day Ledger Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		return

	case "help", "-h", "--help":
		printUsage()
		return

	case "keygen":
		key, err := crypto.GenerateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(key)
		return

	case "decrypt":
		if err := decryptExport(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return

	case "candidates", "users", "votes", "results", "export":
		if err := withApp(func(ctx context.Context, a *app.App) error {
			return dispatch(ctx, a, command, args)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// withApp opens the ledger from the environment and runs fn against it.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(os.Getenv("EDAY_CONFIG"))
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func dispatch(ctx context.Context, a *app.App, command string, args []string) error {
	sub := ""
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	switch command + " " + sub {
	case "candidates list", "candidates ":
		return listCandidates(ctx, a)
	case "candidates add":
		return addCandidate(ctx, a, args)
	case "candidates delete":
		return deleteCandidate(ctx, a, args)
	case "users list", "users ":
		return listUsers(ctx, a)
	case "users purge":
		if err := a.Ledger.PurgeUsers(ctx); err != nil {
			return err
		}
		fmt.Println("All registered users removed")
		return nil
	case "votes reset":
		if err := a.Ledger.ResetVotes(ctx); err != nil {
			return err
		}
		fmt.Println("All votes reset")
		return nil
	case "results ":
		return showResults(ctx, a)
	case "export ":
		return exportLedger(ctx, a)
	default:
		return fmt.Errorf("unknown subcommand %q for %s", sub, command)
	}
}

// =============================================================================
// Commands
// =============================================================================

func listCandidates(ctx context.Context, a *app.App) error {
	candidates, err := a.Ledger.ListCandidates(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Language", "Votes", "Bio"})
	for _, c := range candidates {
		table.Append([]string{
			strconv.FormatInt(c.ID, 10),
			c.Name,
			string(c.Language),
			strconv.FormatInt(c.Votes, 10),
			c.Bio,
		})
	}
	table.Render()
	return nil
}

func addCandidate(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: eday-admin candidates add <name> <language> <bio>")
	}

	language, err := domain.ParseLanguage(args[1])
	if err != nil {
		return err
	}

	candidate, err := a.Ledger.AddCandidate(ctx, args[0], language, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	fmt.Printf("Added candidate %d (%s)\n", candidate.ID, candidate.Name)
	return nil
}

func deleteCandidate(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: eday-admin candidates delete <id>")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid candidate id %q", args[0])
	}

	removed, err := a.Ledger.DeleteCandidate(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("No candidate with id %d\n", id)
		return nil
	}
	fmt.Printf("Deleted candidate %d\n", id)
	return nil
}

func listUsers(ctx context.Context, a *app.App) error {
	users, err := a.Ledger.ListUsers(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Username", "Voted"})
	for _, u := range users {
		table.Append([]string{u.Username, strconv.FormatBool(u.HasVoted)})
	}
	table.Render()
	return nil
}

func showResults(ctx context.Context, a *app.App) error {
	results, err := a.Ledger.Results(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Candidate", "Language", "Votes", "Share"})
	for _, s := range results.Standings {
		table.Append([]string{
			s.Name,
			string(s.Language),
			strconv.FormatInt(s.Votes, 10),
			fmt.Sprintf("%.1f%%", s.Share),
		})
	}
	table.SetFooter([]string{"Total", "", strconv.FormatInt(results.TotalVotes, 10), ""})
	table.Render()

	fmt.Printf("Participation: %d of %d registered voters (%.1f%%)\n",
		results.VotersVoted, results.RegisteredVoters, results.ParticipationRate)
	return nil
}

func exportLedger(ctx context.Context, a *app.App) error {
	cfg := a.Config.Archive
	if cfg.Bucket == "" {
		return archive.ErrNotConfigured
	}

	client, err := archive.NewS3Client(ctx, cfg)
	if err != nil {
		return err
	}

	exporter := archive.NewExporter(client, cfg.Bucket, cfg.Prefix, a.Logger)
	if cfg.EncryptionKey != "" {
		enc, err := crypto.NewEncryptorFromHex(cfg.EncryptionKey)
		if err != nil {
			return err
		}
		exporter.WithEncryption(enc)
	}

	key, err := exporter.Export(ctx, a.Ledger)
	if err != nil {
		return err
	}
	fmt.Printf("Exported ledger to s3://%s/%s\n", cfg.Bucket, key)
	return nil
}

// decryptExport writes the plaintext of a downloaded .enc export to stdout.
func decryptExport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: eday-admin decrypt <file>")
	}

	cfg, err := config.Load(os.Getenv("EDAY_CONFIG"))
	if err != nil {
		return err
	}
	if cfg.Archive.EncryptionKey == "" {
		return fmt.Errorf("archive.encryption_key is not set")
	}
	enc, err := crypto.NewEncryptorFromHex(cfg.Archive.EncryptionKey)
	if err != nil {
		return err
	}

	sealed, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	plain, err := enc.Open(sealed)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(plain)
	return err
}

func printUsage() {
	fmt.Println(`E-Day Ledger Admin CLI

Usage:
  eday-admin <command> [arguments]

Commands:
  candidates  Manage candidates (list, add, delete)
  users       Manage registered voters (list, purge)
  votes       Manage tallies (reset)
  results     Print the current standings
  export      Upload a JSON snapshot of the ledger to S3
  keygen      Print a new archive encryption key
  decrypt     Print the plaintext of an encrypted export file
  version     Print version information
  help        Show this help message

Examples:
  eday-admin candidates add "Thabo Mokoena" Tswana "Community organiser"
  eday-admin candidates delete 1712345678901
  eday-admin users purge
  eday-admin votes reset
  EDAY_ARCHIVE_BUCKET=eday-snapshots eday-admin export
  EDAY_ARCHIVE_ENCRYPTION_KEY=$(eday-admin keygen) eday-admin export
  eday-admin decrypt ledger-1712345678.json.enc

Configuration is read from EDAY_* environment variables, a .env file,
or the config file named by EDAY_CONFIG.`)
}
