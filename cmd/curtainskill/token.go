package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/nerrad567/curtain-skill/internal/auth"
	"github.com/nerrad567/curtain-skill/internal/infrastructure/config"
)

// runToken mints an operator token for the ops API:
//
//	curtainskill token -subject ops -scope admin
//
// The secret and default lifetime come from the api section of the config.
func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	subject := fs.String("subject", "operator", "token subject recorded in API logs")
	scope := fs.String("scope", string(auth.ScopeRead), "token scope: read or admin")
	ttl := fs.Duration("ttl", 0, "token lifetime; defaults to api.token_ttl from config")
	if err := fs.Parse(args); err != nil {
		return err
	}
	switch auth.Scope(*scope) {
	case auth.ScopeRead, auth.ScopeAdmin:
	default:
		return fmt.Errorf("unknown scope %q, want read or admin", *scope)
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.API.JWTSecret == "" {
		return fmt.Errorf("api.jwt_secret is not configured: %w", auth.ErrNoSecret)
	}

	lifetime := *ttl
	if lifetime == 0 {
		lifetime = time.Duration(cfg.API.TokenTTL) * time.Minute
	}

	token, err := auth.GenerateToken(*subject, auth.Scope(*scope), cfg.API.JWTSecret, lifetime)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}
	fmt.Fprintln(out, token)
	return nil
}
