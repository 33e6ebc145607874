package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-iam"
	"github.com/goliatone/go-iam/internal/app"
	"github.com/goliatone/go-print"
)

const usage = `usage: iam <command> [flags]

commands:
  migrate                  apply database migrations
  register                 create a user and print its bearer
  login                    log in with email and password
  send-login-link          email a magic link
  send-verification-link   email a verification link
  verify                   verify a bearer token
  logout                   delete the session of a bearer
  logout-all               delete every session of a bearer's user
  close-account            deactivate the bearer's user
  whoami                   print the bearer's user
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type command func(ctx context.Context, a *app.App, args []string, out io.Writer) error

var commands = map[string]command{
	"migrate":                cmdMigrate,
	"register":               cmdRegister,
	"login":                  cmdLogin,
	"send-login-link":        cmdSendLoginLink,
	"send-verification-link": cmdSendVerificationLink,
	"verify":                 cmdVerify,
	"logout":                 cmdLogout,
	"logout-all":             cmdLogoutAll,
	"close-account":          cmdCloseAccount,
	"whoami":                 cmdWhoami,
}

func run(ctx context.Context, args []string, out io.Writer, opts ...app.Option) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}

	cfg, err := iam.LoadConfig()
	if err != nil {
		return err
	}

	if args[0] == "migrate" {
		cfg.AutoMigrate = false
	}

	a, err := app.Bootstrap(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd(ctx, a, args[1:], out)
}

func printJSON(out io.Writer, v any) error {
	_, err := fmt.Fprintln(out, print.MaybePrettyJSON(v))
	return err
}

func cmdMigrate(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := iam.Migrate(ctx, a.DB.DB, a.Config.DatabaseDriver); err != nil {
		return err
	}
	return printJSON(out, map[string]string{"status": "migrated", "driver": a.Config.DatabaseDriver})
}

func cmdRegister(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	var input iam.RegisterInput
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&input.Email, "email", "", "email address")
	fs.StringVar(&input.FirstName, "first-name", "", "first name")
	fs.StringVar(&input.LastName, "last-name", "", "last name")
	fs.StringVar(&input.Password, "password", "", "password, password login mode only")
	if err := fs.Parse(args); err != nil {
		return err
	}

	bearer, err := a.Service.Register(ctx, input)
	if err != nil {
		return err
	}
	return printJSON(out, bearer)
}

func cmdLogin(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	link := fs.String("token", "", "magic link token, magic link mode only")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		bearer *iam.AuthBearer
		err    error
	)
	if *link != "" {
		bearer, err = a.Service.LoginWithToken(ctx, *link)
	} else {
		bearer, err = a.Service.Login(ctx, *email, *password)
	}
	if err != nil {
		return err
	}
	return printJSON(out, bearer)
}

func cmdSendLoginLink(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("send-login-link", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.Service.SendLoginLink(ctx, *email); err != nil {
		return err
	}
	return printJSON(out, map[string]string{"status": "sent"})
}

func cmdSendVerificationLink(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("send-verification-link", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.Service.SendVerificationLink(ctx, *email); err != nil {
		return err
	}
	return printJSON(out, map[string]string{"status": "sent"})
}

func bearerFlag(name string, args []string, out io.Writer) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	raw := fs.String("token", "", "login bearer token")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *raw == "" {
		return "", errors.New("-token is required")
	}
	return *raw, nil
}

func sessionFromFlags(ctx context.Context, a *app.App, name string, args []string, out io.Writer) (*iam.SessionUser, error) {
	raw, err := bearerFlag(name, args, out)
	if err != nil {
		return nil, err
	}
	return a.Service.VerifyToken(ctx, raw)
}

func cmdVerify(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := sessionFromFlags(ctx, a, "verify", args, out)
	if err != nil {
		return err
	}
	return printJSON(out, user)
}

func cmdLogout(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := sessionFromFlags(ctx, a, "logout", args, out)
	if err != nil {
		return err
	}
	if err := a.Service.Logout(ctx, *user); err != nil {
		return err
	}
	return printJSON(out, map[string]string{"status": "logged_out", "session_id": user.SessionID})
}

func cmdLogoutAll(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := sessionFromFlags(ctx, a, "logout-all", args, out)
	if err != nil {
		return err
	}
	if err := a.Service.LogoutAll(ctx, *user); err != nil {
		return err
	}
	return printJSON(out, map[string]string{"status": "logged_out", "pid": user.PID})
}

func cmdCloseAccount(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := sessionFromFlags(ctx, a, "close-account", args, out)
	if err != nil {
		return err
	}
	if err := a.Service.CloseAccount(ctx, *user); err != nil {
		return err
	}
	return printJSON(out, map[string]string{"status": "closed", "pid": user.PID})
}

func cmdWhoami(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := sessionFromFlags(ctx, a, "whoami", args, out)
	if err != nil {
		return err
	}
	record, err := a.Service.GetUser(ctx, *user)
	if err != nil {
		return err
	}
	return printJSON(out, record.Public())
}
