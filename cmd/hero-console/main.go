// ABOUTME: Interactive terminal console for the Hero ledger service
// ABOUTME: Presentation glue over the session store; readline-style input with colorized output

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/hero-console/internal/amount"
	"github.com/2389/hero-console/internal/config"
	"github.com/2389/hero-console/internal/history"
	"github.com/2389/hero-console/internal/identity"
	"github.com/2389/hero-console/internal/keystore"
	"github.com/2389/hero-console/internal/ledger"
	"github.com/2389/hero-console/internal/session"
)

// Version is set by goreleaser at build time.
var version = "dev"

// getConfigPath returns the path to the console config file.
// Priority: HERO_CONFIG env var > XDG_CONFIG_HOME/hero/console.yaml > ~/.config/hero/console.yaml
func getConfigPath() string {
	if envPath := os.Getenv("HERO_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "console.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "hero", "console.yaml")
}

// getDataPath returns the path to the hero data directory.
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "hero")
}

func main() {
	host := flag.String("host", "", "Ledger host override (local hosts get trust bootstrap)")
	identityKey := flag.String("identity", "", "Path to encrypted identity key file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("hero-console %s\n", version)
		return
	}

	cfg := config.Default()
	if loaded, err := config.Load(getConfigPath()); err == nil {
		cfg = loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Ledger.Host = *host
	}
	if *identityKey != "" {
		cfg.Ledger.IdentityKey = *identityKey
	}
	if cfg.Ledger.IdentityKey == "" {
		cfg.Ledger.IdentityKey = filepath.Join(getDataPath(), "identity.json")
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(getDataPath(), "history.db")
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Resolved once here; never re-derived elsewhere.
	ep, err := config.ResolveEndpoint(cfg.Ledger.Host)
	if err != nil {
		return err
	}
	fmt.Printf("hero-console %s connected to %s (%s network)\n", version, ep.URL, ep.Network)

	store, err := session.New(ctx, ep, logger)
	if err != nil {
		return fmt.Errorf("building ledger channel: %w", err)
	}

	journal, err := history.Open(cfg.History.Path, logger)
	if err != nil {
		// The journal is convenience state; run without it.
		logger.Warn("activity journal unavailable", "error", err)
	} else {
		store.SetRecorder(journal)
		defer journal.Close()
	}

	resolver := identity.NewResolver(logger)

	// Best-effort warm-up; the console works before the first refresh lands.
	if err := store.RefreshAll(ctx); err != nil {
		logger.Warn("initial refresh failed", "error", err)
	}
	printStatus(store)
	fmt.Println("Type a command. help for commands. Ctrl+C to quit.")
	fmt.Println()

	ui := &console{
		store:    store,
		resolver: resolver,
		journal:  journal,
		keyPath:  cfg.Ledger.IdentityKey,
		stdin:    bufio.NewScanner(os.Stdin),
	}
	return ui.loop(ctx)
}

// console holds the interactive loop's collaborators.
type console struct {
	store    *session.Store
	resolver *identity.Resolver
	journal  *history.Store
	keyPath  string
	stdin    *bufio.Scanner
}

func (c *console) loop(ctx context.Context) error {
	for {
		snap := c.store.Snapshot()
		fmt.Printf("[%s]> ", snap.ActivePrincipal)

		input, err := c.readLine(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		c.dispatch(ctx, fields[0], fields[1:])
	}
}

// readLine reads one line of input without blocking signal handling.
func (c *console) readLine(ctx context.Context) (string, error) {
	inputCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		if c.stdin.Scan() {
			inputCh <- c.stdin.Text()
		} else if err := c.stdin.Err(); err != nil {
			errCh <- err
		} else {
			errCh <- io.EOF
		}
	}()

	select {
	case <-ctx.Done():
		return "", context.Canceled
	case err := <-errCh:
		return "", err
	case input := <-inputCh:
		return input, nil
	}
}

func (c *console) dispatch(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "help":
		printHelp()
	case "status", "whoami":
		printStatus(c.store)
	case "refresh":
		if err := c.store.RefreshAll(ctx); err != nil {
			printError(err)
			return
		}
		printStatus(c.store)
	case "supply":
		if err := c.store.RefreshSupply(ctx); err != nil {
			printError(err)
			return
		}
		snap := c.store.Snapshot()
		fmt.Printf("Total supply: %s %s\n", color.GreenString(snap.TotalSupply.String()), snap.Metadata.Symbol)
	case "balance":
		c.cmdBalance(ctx, args)
	case "transfer":
		c.cmdSubmit(ctx, "transfer", args)
	case "mint":
		c.cmdSubmit(ctx, "mint", args)
	case "view":
		if len(args) != 1 {
			fmt.Println("Usage: view <principal>")
			return
		}
		if err := c.store.SetDisplayedPrincipal(args[0]); err != nil {
			printError(err)
			return
		}
		fmt.Printf("Viewing as %s (signing identity unchanged)\n", color.CyanString(args[0]))
	case "login":
		c.cmdLogin(ctx)
	case "keygen":
		c.cmdKeygen()
	case "logout":
		if err := c.store.Logout(ctx); err != nil {
			printError(err)
			return
		}
		c.resolver.Clear()
		fmt.Println("Logged out; back to anonymous.")
	case "history":
		c.cmdHistory(ctx)
	default:
		fmt.Printf("Unknown command %q. help for commands.\n", cmd)
	}
}

func (c *console) cmdBalance(ctx context.Context, args []string) {
	target := c.store.Snapshot().ActivePrincipal.String()
	if len(args) == 1 {
		target = args[0]
	} else if len(args) > 1 {
		fmt.Println("Usage: balance [principal]")
		return
	}

	bal, err := c.store.Balance(ctx, target)
	if err != nil {
		printError(err)
		return
	}
	symbol := c.store.Snapshot().Metadata.Symbol
	fmt.Printf("%s holds %s %s\n", color.CyanString(target), color.GreenString(bal.String()), symbol)
}

func (c *console) cmdSubmit(ctx context.Context, op string, args []string) {
	if len(args) != 2 {
		fmt.Printf("Usage: %s <to> <amount>\n", op)
		return
	}
	amt, err := amount.Parse(args[1])
	if err != nil {
		printError(err)
		return
	}

	var res ledger.Result
	if op == "mint" {
		res, err = c.store.SubmitMint(ctx, args[0], amt)
	} else {
		res, err = c.store.SubmitTransfer(ctx, args[0], amt)
	}
	if err != nil {
		printError(err)
		return
	}
	if !res.OK {
		fmt.Printf("%s %s\n", color.RedString("Rejected:"), res.Reason)
		return
	}
	snap := c.store.Snapshot()
	fmt.Printf("%s Total supply now %s %s\n", color.GreenString("Confirmed."), snap.TotalSupply, snap.Metadata.Symbol)
}

func (c *console) cmdLogin(ctx context.Context) {
	provider := &keystore.FileProvider{
		Path: c.keyPath,
		Passphrase: func() (string, error) {
			fmt.Print("Passphrase: ")
			if !c.stdin.Scan() {
				return "", io.EOF
			}
			return c.stdin.Text(), nil
		},
	}

	id, err := c.resolver.Authenticate(ctx, provider)
	if err != nil {
		printError(err)
		return
	}
	if err := c.store.SwitchIdentity(ctx, id); err != nil {
		printError(err)
		return
	}
	fmt.Printf("Signed in as %s\n", color.CyanString(id.Principal().String()))
}

func (c *console) cmdKeygen() {
	if _, err := os.Stat(c.keyPath); err == nil {
		fmt.Printf("Refusing to overwrite existing key file %s\n", c.keyPath)
		return
	}

	fmt.Print("New passphrase: ")
	if !c.stdin.Scan() {
		return
	}
	pass := c.stdin.Text()

	id, err := identity.Generate()
	if err != nil {
		printError(err)
		return
	}
	if err := keystore.Save(c.keyPath, id, pass); err != nil {
		printError(err)
		return
	}
	fmt.Printf("Generated identity %s\nSaved to %s. Run login to use it.\n",
		color.CyanString(id.Principal().String()), c.keyPath)
}

func (c *console) cmdHistory(ctx context.Context) {
	if c.journal == nil {
		fmt.Println("Activity journal is not available.")
		return
	}
	entries, err := c.journal.Recent(ctx, 20)
	if err != nil {
		printError(err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No recorded activity.")
		return
	}
	for _, e := range entries {
		verdict := color.GreenString("ok")
		if !e.OK {
			verdict = color.RedString(e.Reason)
		}
		fmt.Printf("%s  %-8s %s -> %s  %s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Op, e.From, e.To, e.Amount, verdict)
	}
}

func printStatus(store *session.Store) {
	snap := store.Snapshot()
	if !snap.Initialized {
		fmt.Println(color.YellowString("Ledger is not provisioned yet."))
		return
	}

	fmt.Printf("Token: %s (%s, %d decimals)\n", snap.Metadata.Name, snap.Metadata.Symbol, snap.Metadata.Decimals)
	fmt.Printf("Total supply: %s\n", snap.TotalSupply)
	if snap.HasCreator {
		fmt.Printf("Creator: %s\n", snap.Creator)
	}
	fmt.Printf("Viewing as: %s\n", color.CyanString(snap.ActivePrincipal.String()))
	if snap.Authenticated {
		fmt.Printf("Signing as: %s\n", color.CyanString(snap.SigningPrincipal.String()))
	} else {
		fmt.Println("Signing as: anonymous (login to authenticate)")
	}
}

func printHelp() {
	fmt.Println(`Commands:
  status              Show token metadata, supply and identity
  refresh             Re-fetch metadata, creator and supply
  supply              Re-fetch total supply
  balance [principal] Balance of a principal (default: viewed principal)
  transfer <to> <amt> Transfer tokens to a principal
  mint <to> <amt>     Mint new tokens (creator only, enforced by the ledger)
  view <principal>    View as a principal without changing the signing identity
  login               Sign in with the encrypted identity key file
  keygen              Generate and save a new identity key file
  logout              Return to the anonymous identity
  history             Show recent submitted writes
  quit                Exit`)
}

func printError(err error) {
	fmt.Printf("%s %v\n", color.RedString("Error:"), err)
}
