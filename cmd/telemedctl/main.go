package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/telemed-assistant/internal/client/videocall"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/telemed-assistant/pkg/config"
	"github.com/johnquangdev/telemed-assistant/pkg/jwt"
)

const usage = `usage: telemedctl <command> [flags]

commands:
  submit    send a video call request (caller)
  status    show a request's status
  wait      wait for the callee to answer a request
  pending   list pending requests (callee)
  accept    accept a request and open the room (callee)
  decline   decline a request (callee)
  cleanup   purge old requests
  watch     follow request events, polling when the stream is down
  token     mint a development bearer token`

type app struct {
	cfg      *config.Config
	service  *videocall.Service
	launcher *videocall.Launcher
	store    *cache.SQLStore
	logger   *zap.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "token" {
		if err := runToken(cfg, args); err != nil {
			log.Fatal(err)
		}
		return
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize client: %v", err)
	}
	defer a.store.Close()

	switch cmd {
	case "submit":
		err = a.submit(ctx, args)
	case "status":
		err = a.status(ctx, args)
	case "wait":
		err = a.wait(ctx, args, cfg.Telemed.WaitTimeout)
	case "pending":
		err = a.pending(ctx, args)
	case "accept":
		err = a.accept(ctx, args)
	case "decline":
		err = a.decline(ctx, args)
	case "cleanup":
		err = a.cleanup(ctx, args)
	case "watch":
		err = a.watch(ctx, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	storePath := os.Getenv("TELEMED_CLIENT_STORE")
	if storePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		storePath = filepath.Join(home, ".telemed", "store.db")
	}
	kv, err := cache.NewSQLiteStore(storePath)
	if err != nil {
		return nil, err
	}

	var opts []videocall.APIOption
	if token := os.Getenv("TELEMED_TOKEN"); token != "" {
		opts = append(opts, videocall.WithToken(token))
	}
	api := videocall.NewAPIClient(cfg.Telemed.APIBaseURL, opts...)

	service := videocall.NewService(api, videocall.NewOfflineMirror(kv, nil, logger), videocall.Config{
		WaitInterval: cfg.Telemed.WaitInterval,
		RoomPrefix:   cfg.Telemed.RoomPrefix,
		CalleeID:     os.Getenv("TELEMED_CALLEE_ID"),
	}, logger)

	var widget videocall.Widget = videocall.NewJitsiWidget(cfg.Telemed.JitsiDomain)
	if cfg.LiveKit.Enabled {
		widget = videocall.NewLiveKitWidget(cfg.LiveKit.URL)
	}

	return &app{
		cfg:      cfg,
		service:  service,
		launcher: videocall.NewLauncher(kv, widget, logger),
		store:    kv,
		logger:   logger,
	}, nil
}

func (a *app) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	id := fs.String("id", "", "caller id")
	name := fs.String("name", "", "caller name (required)")
	email := fs.String("email", "", "caller email")
	callee := fs.String("callee", "", "target callee id; empty means any available")
	room := fs.String("room", "", "room name; generated when empty")
	wait := fs.Bool("wait", false, "wait for the answer and open the room")
	_ = fs.Parse(args)

	var calleeID *string
	if *callee != "" {
		calleeID = callee
	}

	res, err := a.service.Submit(ctx, videocall.SubmitInput{
		Caller:   videocall.Participant{ID: *id, Name: *name, Email: *email},
		CalleeID: calleeID,
		RoomName: *room,
	})
	if err != nil {
		return err
	}
	printJSON(res)

	if !*wait {
		return nil
	}
	return a.waitAndOpen(ctx, res.RequestID, *name, a.cfg.Telemed.WaitTimeout)
}

func (a *app) wait(ctx context.Context, args []string, timeout time.Duration) error {
	fs := flag.NewFlagSet("wait", flag.ExitOnError)
	open := fs.Bool("open", false, "open the room once accepted")
	name := fs.String("name", "", "display name in the room")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("request id required")
	}
	if *open {
		return a.waitAndOpen(ctx, fs.Arg(0), *name, timeout)
	}
	res, err := a.service.WaitForResponse(ctx, fs.Arg(0), timeout)
	if err != nil {
		return err
	}
	printJSON(res)
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("request id required")
	}

	res, err := a.service.Status(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	printJSON(res)
	return nil
}

func (a *app) waitAndOpen(ctx context.Context, requestID, displayName string, timeout time.Duration) error {
	res, err := a.service.WaitForResponse(ctx, requestID, timeout)
	if err != nil {
		return err
	}
	printJSON(res)
	if res.Status != videocall.StatusAccepted {
		return nil
	}

	token := ""
	if res.Session != nil {
		token = res.Session.Token
	}
	joinURL, err := a.launcher.Launch(res.RoomName, displayName, token)
	if err != nil {
		return err
	}
	fmt.Println(joinURL)
	return nil
}

func (a *app) pending(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pending", flag.ExitOnError)
	follow := fs.Bool("follow", false, "keep polling and print changes")
	_ = fs.Parse(args)

	if !*follow {
		printJSON(a.service.PendingRequests(ctx))
		return nil
	}

	poller := videocall.NewPoller(a.service, nil, a.logger)
	poller.Start(ctx, a.cfg.Telemed.PollInterval, func(res videocall.PollResult) {
		if res.Changed() {
			printJSON(res)
		}
	})
	<-ctx.Done()
	poller.Stop()
	return ctx.Err()
}

func (a *app) accept(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("accept", flag.ExitOnError)
	id := fs.String("id", "", "callee id")
	name := fs.String("name", "", "callee name (required)")
	email := fs.String("email", "", "callee email")
	open := fs.Bool("open", true, "open the room after accepting")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("request id required")
	}

	res, err := a.service.Accept(ctx, fs.Arg(0), videocall.Participant{ID: *id, Name: *name, Email: *email})
	if err != nil {
		return err
	}
	printJSON(res)

	if !*open {
		return nil
	}
	token := ""
	if res.Session != nil {
		token = res.Session.Token
	}
	joinURL, err := a.launcher.Launch(res.RoomName, *name, token)
	if err != nil {
		return err
	}
	fmt.Println(joinURL)
	return nil
}

func (a *app) decline(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decline", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("request id required")
	}

	offline, err := a.service.Decline(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	printJSON(map[string]bool{"success": true, "offline": offline})
	return nil
}

func (a *app) cleanup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	maxAge := fs.Duration("max-age", 24*time.Hour, "purge requests older than this")
	_ = fs.Parse(args)

	removed, offline, err := a.service.Cleanup(ctx, *maxAge)
	if err != nil {
		return err
	}
	printJSON(map[string]interface{}{"success": true, "removedCount": removed, "offline": offline})
	return nil
}

func (a *app) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	_ = fs.Parse(args)

	w := videocall.NewWatcher(a.service, videocall.WatcherConfig{PollInterval: a.cfg.Telemed.PollInterval}, a.logger)
	return w.Watch(ctx,
		func(ev videocall.Event) { printJSON(ev) },
		func(res videocall.PollResult) {
			if res.Changed() {
				printJSON(res)
			}
		},
	)
}

// runToken mints a token for local testing against an AUTH_ENABLED server
func runToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	user := fs.String("user", "", "user id (required)")
	email := fs.String("email", "", "email claim")
	role := fs.String("role", "patient", "role claim: patient, doctor or admin")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	_ = fs.Parse(args)
	if *user == "" {
		return errors.New("-user is required")
	}

	token, err := jwt.NewManager(cfg.Auth.AccessSecret, cfg.Auth.Issuer).GenerateAccessToken(*user, *email, *role, *ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Println(token)
	return nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
