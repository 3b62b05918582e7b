// Command twitchctl walks the Twitch authorization code flow from the
// terminal: print the authorize URL, exchange the callback code, persist the
// minted tokens, and sanity-check the credential with a Get Users call.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/twitchkit/pkg/helix"
	"github.com/aussiebroadwan/twitchkit/pkg/slogx"
	"github.com/aussiebroadwan/twitchkit/pkg/tokenstore"
)

type config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	DatabaseFile string
	LogLevel     string
	LogFormat    string
}

func loadConfig() config {
	return config{
		ClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		ClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
		RedirectURI:  getEnvOrDefault("TWITCH_REDIRECT_URI", "http://localhost:3000/callback"),
		DatabaseFile: getEnvOrDefault("TWITCHKIT_DATABASE_FILE", "twitchkit.db"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	code := flag.String("code", "", "authorization code from the OAuth callback; omit to print the authorize URL")
	scopes := flag.String("scopes", string(helix.ScopeUserReadEmail), "space-delimited scopes to request")
	flag.Parse()

	cfg := loadConfig()
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		fmt.Fprintln(os.Stderr, "TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET must be set")
		os.Exit(1)
	}

	logger := slogx.New(slogx.Config{
		Service: "twitchctl",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	slog.SetDefault(logger)

	if err := run(cfg, *code, *scopes, logger); err != nil {
		logger.Error("twitchctl failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, code, rawScopes string, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := helix.NewClient(cfg.ClientID, cfg.ClientSecret)
	client.Logger = logger

	requested := parseScopeFlag(rawScopes)

	if code == "" {
		authURL, state, err := client.AuthorizeURL(cfg.RedirectURI, requested, "")
		if err != nil {
			return err
		}
		fmt.Println("Visit the following URL, authorize, and re-run with -code=<code>:")
		fmt.Println(authURL)
		fmt.Println("state:", state)
		return nil
	}

	store, err := tokenstore.New(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer store.Close()
	if err := store.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to migrate token store: %w", err)
	}
	client.OnTokenRefreshed = store.Hook(logger)

	session, err := client.ExchangeCode(ctx, code, cfg.RedirectURI)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}
	defer session.Close()

	users, err := client.GetUsers(ctx, session, helix.GetUsersParams{})
	if err != nil {
		return fmt.Errorf("get users failed: %w", err)
	}
	if apiErr := users.AsError(); apiErr != nil {
		return apiErr
	}
	if len(users.Data) == 0 {
		return fmt.Errorf("token is valid but resolved to no user")
	}

	me := users.Data[0]
	session.SetAccountID(me.ID)
	if err := store.Save(ctx, me.ID, session.TokenState()); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	logger.Info("authorized", "user_id", me.ID, "login", me.Login)
	fmt.Printf("Authorized as %s (%s); tokens stored in %s\n", me.Login, me.ID, cfg.DatabaseFile)
	return nil
}

func parseScopeFlag(raw string) []helix.Scope {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' })
	var scopes []helix.Scope
	for _, f := range fields {
		scopes = append(scopes, helix.Scope(f))
	}
	return scopes
}
