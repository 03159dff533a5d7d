package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	appI18n "github.com/avilkin/classdesk/internal/i18n"
	"github.com/avilkin/classdesk/internal/model"
	"github.com/avilkin/classdesk/internal/store"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the portal",
		RunE:  runLogin,
	}
	f := cmd.Flags()
	f.StringP("email", "e", "", "Account email (required)")
	f.StringP("password", "p", "", "Account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	st, v, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	password := v.GetString("password")
	if password == "" {
		password, err = promptPassword(cmd)
		if err != nil {
			return err
		}
	}

	if err := st.Session.Login(cmd.Context(), v.GetString("email"), password); err != nil {
		return err
	}
	sess := st.Session.Session()
	cmd.Println(appI18n.T("LoggedIn", map[string]any{
		"Name": sess.User.Name,
		"Role": sess.User.Role,
	}))
	return nil
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a portal account and sign in",
		RunE:  runRegister,
	}
	f := cmd.Flags()
	f.StringP("name", "n", "", "Display name (required)")
	f.StringP("email", "e", "", "Account email (required)")
	f.StringP("password", "p", "", "Account password (prompted when omitted)")
	f.StringP("role", "r", "", "Account role: teacher or student (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func runRegister(cmd *cobra.Command, _ []string) error {
	st, v, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	password := v.GetString("password")
	if password == "" {
		password, err = promptPassword(cmd)
		if err != nil {
			return err
		}
	}

	err = st.Session.Register(cmd.Context(), store.RegisterInput{
		Name:     v.GetString("name"),
		Email:    v.GetString("email"),
		Password: password,
		Role:     model.Role(v.GetString("role")),
	})
	if err != nil {
		return err
	}
	sess := st.Session.Session()
	cmd.Println(appI18n.T("Registered", map[string]any{
		"Name": sess.User.Name,
		"Role": sess.User.Role,
	}))
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the persisted session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			st.Session.Logout()
			cmd.Println(appI18n.T("LoggedOut"))
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			sess := st.Session.Session()
			if !sess.IsLoggedIn {
				cmd.Println(appI18n.T("NotLoggedIn"))
				return nil
			}
			cmd.Println(appI18n.T("WhoAmI", map[string]any{
				"Name":  sess.User.Name,
				"Email": sess.User.Email,
				"Role":  sess.User.Role,
			}))
			return nil
		},
	}
}

func promptPassword(cmd *cobra.Command) (string, error) {
	cmd.Print("Password: ")
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(data), nil
}
