// Command mint-token issues bearer tokens for callers of the standalone
// server. It signs with AUTH_JWT_SECRET and AUTH_TOKEN_TTL_MINUTES.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/spec-kit/snowsync/internal/auth"
	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := run(os.Args[1:], cfg.Auth, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, cfg config.AuthConfig, out io.Writer) error {
	var subject, system string
	ttl := cfg.TokenTTLMinutes

	flagSet := pflag.NewFlagSet("mint-token", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&subject, "subject", "", "caller name recorded in the token")
	flagSet.StringVar(&system, "system", "", "calling system: JIRA or SNOW")
	flagSet.IntVar(&ttl, "ttl-minutes", ttl, "token lifetime in minutes")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if cfg.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is not set")
	}
	if subject == "" {
		return errors.New("--subject is required")
	}
	parsed, err := domain.ParseTicketSystem(system)
	if err != nil {
		return err
	}

	token, expires, err := auth.NewTokenManager(cfg.JWTSecret, ttl).GenerateToken(subject, parsed)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintf(out, "%s\n# expires %s\n", token, expires.UTC().Format(time.RFC3339))
	return nil
}
