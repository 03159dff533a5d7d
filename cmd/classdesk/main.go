package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avilkin/classdesk/internal/guard"
	appI18n "github.com/avilkin/classdesk/internal/i18n"
	"github.com/avilkin/classdesk/internal/model"
	"github.com/avilkin/classdesk/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "classdesk",
		Short: "Command-line client for the assignment portal",
	}

	pf := root.PersistentFlags()
	pf.String("api-url", "http://localhost:4000", "Portal API base URL")
	pf.String("state-db", "classdesk.db", "SQLite file holding the persisted session")
	pf.StringP("lang", "l", "en", "Output language (en, ru)")
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")

	root.AddCommand(
		loginCmd(), registerCmd(), logoutCmd(), whoamiCmd(),
		assignmentsCmd(), submissionsCmd(), analyticsCmd(), demoCmd(),
	)
	return root
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())
	_ = v.BindPFlags(cmd.Root().PersistentFlags())

	v.SetEnvPrefix("CLASSDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("classdesk")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/classdesk")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openStore builds the state container for a command and restores any
// persisted session. The caller is responsible for Close.
func openStore(cmd *cobra.Command) (*store.Store, *viper.Viper, error) {
	v := viperForCmd(cmd)
	setupLogging(v)
	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return nil, nil, fmt.Errorf("init i18n: %w", err)
	}

	st, err := store.New(store.Config{
		APIURL:    v.GetString("api-url"),
		StatePath: v.GetString("state-db"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open state: %w", err)
	}
	st.Session.Restore()
	return st, v, nil
}

// checkAccess evaluates the access guard for a role-gated command, playing
// the part of the navigation layer. A redirect decision becomes an error
// telling the user where they were sent instead.
func checkAccess(st *store.Store, required model.Role, path string) error {
	d := guard.Decide(st.Session.Session(), required, path)
	if d.Allowed {
		return nil
	}
	if d.RedirectTo == guard.LoginPath {
		return fmt.Errorf("%s (redirected to %s)", appI18n.T("NotLoggedIn"), d.RedirectTo)
	}
	return fmt.Errorf("this view belongs to the %s role (redirected to %s)", required, d.RedirectTo)
}
