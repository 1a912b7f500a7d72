// EstateHub Core - session and access tooling for the EstateHub platform.
//
// The binary wraps the session manager, access router, and data-access
// clients in a small CLI: sign in, inspect the current identity, list the
// sections a role may see, and follow the live notification feed.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "github.com/westapp/estatehub-core/migrations"

	"github.com/westapp/estatehub-core/internal/access"
	"github.com/westapp/estatehub-core/internal/auth"
	"github.com/westapp/estatehub-core/internal/identity"
	"github.com/westapp/estatehub-core/internal/infrastructure/config"
	"github.com/westapp/estatehub-core/internal/infrastructure/database"
	"github.com/westapp/estatehub-core/internal/infrastructure/logging"
	"github.com/westapp/estatehub-core/internal/notify"
)

// Version information - set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

const usage = `Usage: estatehub <command> [arguments]

Commands:
  login -email <email>         sign in (password read from stdin)
  register -name <name> -email <email> [-phone <phone>]
                               create a tenant account (password from stdin)
  logout                       sign out and revoke the token
  whoami                       show the current identity
  nav                          list navigation sections for the current role
  watch                        follow the live notification feed
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired components the subcommands work with.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	sessions *auth.Manager
	router   *access.Router
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("no command given")
	}
	command, args := args[0], args[1:]

	log := logging.Default()

	configPath := os.Getenv("ESTATEHUB_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Debug("configuration loaded", "path", configPath, "commit", commit)

	db, err := database.Open(database.Config{
		Path:        cfg.Storage.Path,
		WALMode:     cfg.Storage.WALMode,
		BusyTimeout: cfg.Storage.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	idp := identity.NewClient(cfg.Identity.BaseURL, cfg.IdentityTimeout(), log)
	sessions := auth.NewManager(auth.NewSessionStore(db.DB), idp, log)
	if err := sessions.Initialize(ctx); err != nil {
		return fmt.Errorf("initialising session manager: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   log,
		sessions: sessions,
		router:   access.NewRouter(access.DefaultNavigation()),
	}

	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "nav":
		return a.nav()
	case "watch":
		return a.watch(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	if err := a.sessions.Login(ctx, *email, password); err != nil {
		return err
	}

	identity := a.sessions.CurrentIdentity()
	fmt.Printf("Signed in as %s (%s)\n", identity.Name, identity.Role)

	if expiry, ok := auth.TokenExpiry(a.sessions.AuthToken()); ok {
		fmt.Printf("Session expires %s\n", expiry.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	profile := auth.Profile{Name: *name, Email: *email, Phone: *phone}
	if err := a.sessions.Register(ctx, profile, password); err != nil {
		return err
	}

	identity := a.sessions.CurrentIdentity()
	fmt.Printf("Registered %s as %s\n", identity.Email, identity.Role)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if !a.sessions.IsAuthenticated() {
		fmt.Println("Not signed in.")
		return nil
	}
	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func (a *app) whoami() error {
	identity := a.sessions.CurrentIdentity()
	if identity == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Printf("Name:   %s\n", identity.Name)
	fmt.Printf("Email:  %s\n", identity.Email)
	fmt.Printf("Role:   %s\n", identity.Role)
	if identity.EstateID != "" {
		fmt.Printf("Estate: %s\n", identity.EstateID)
	}
	if identity.HouseNumber != "" {
		fmt.Printf("House:  %s\n", identity.HouseNumber)
	}
	if age, ok := a.sessions.SessionAge(); ok {
		fmt.Printf("Signed in %s ago\n", age.Round(time.Second))
	}
	return nil
}

func (a *app) nav() error {
	identity := a.sessions.CurrentIdentity()
	visible := a.router.VisibleNavigation(identity)
	if len(visible) == 0 {
		fmt.Printf("No sections visible; entry point is %q.\n", a.router.ResolveEntry(identity))
		return nil
	}

	fmt.Printf("Sections for role %s:\n", identity.Role)
	for _, item := range visible {
		fmt.Printf("  %-20s %s\n", item.ID, item.Name)
	}
	fmt.Printf("Entry point: %s\n", a.router.ResolveEntry(identity))
	return nil
}

// watch follows the notification stream until interrupted. The stream
// reader and the printer run as a group so a failure in either tears the
// whole command down.
func (a *app) watch(ctx context.Context) error {
	if !a.cfg.Notifications.Enabled {
		return fmt.Errorf("notification stream is disabled in configuration")
	}
	if !a.sessions.IsAuthenticated() {
		return auth.ErrNotAuthenticated
	}

	stream := notify.NewStream(a.cfg.API.BaseURL, a.cfg.Notifications, a.sessions, a.logger)
	feed := make(chan notify.Notification, 16)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(feed)
		return stream.Run(ctx, feed)
	})
	g.Go(func() error {
		for n := range feed {
			fmt.Printf("[%s] %s: %s\n", strings.ToUpper(n.Priority), n.Title, n.Message)
		}
		return nil
	})

	fmt.Println("Watching notifications (Ctrl+C to stop)...")
	return g.Wait()
}

// readPassword reads a password from stdin. Plain line input keeps the
// command scriptable; it is not echoed back.
func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
