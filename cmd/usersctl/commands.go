package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sample_app/internal/credentials"
	"github.com/Skotchmaster/sample_app/internal/db"
	"github.com/Skotchmaster/sample_app/internal/models"
	"github.com/Skotchmaster/sample_app/internal/repo"
	"github.com/Skotchmaster/sample_app/internal/service"
	"github.com/Skotchmaster/sample_app/internal/session"
)

type app struct {
	open func(ctx context.Context) (*gorm.DB, error)

	rp       *repo.GormRepo
	users    *service.UserService
	sessions *session.Manager
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	gdb, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	a.rp = &repo.GormRepo{DB: gdb}
	a.users = &service.UserService{Repo: a.rp}
	a.sessions = &session.Manager{Store: a.rp}
	return nil
}

// lookup accepts either a user id or an email address.
func (a *app) lookup(ctx context.Context, ref string) (*models.User, error) {
	var (
		u   *models.User
		err error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		u, err = a.rp.FindUserByID(ctx, id)
	} else {
		u, err = a.rp.FindUserByEmail(ctx, credentials.NormalizeEmail(ref))
	}
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", ref, err)
	}
	return u, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "usersctl",
		Short:             "Administer sample_app users",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.AddCommand(
		newCreateCmd(a),
		newAdminCmd(a),
		newRevokeCmd(a),
		newSessionsCmd(a),
		newCountCmd(a),
	)
	return root
}

func newCreateCmd(a *app) *cobra.Command {
	var name, email, password string
	var admin bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long: `Create a user with the given name, email and password.

Examples:
  usersctl create --name "Example User" --email user@example.com --password foobar
  usersctl create --name Admin --email admin@example.com --password foobar --admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			u, err := a.users.Register(ctx, service.RegisterInput{
				Name:                 name,
				Email:                email,
				Password:             password,
				PasswordConfirmation: password,
			})
			if err != nil {
				return err
			}
			if admin {
				if err := a.users.SetAdmin(ctx, u.ID, true); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s admin=%t\n", u.ID, u.Email, admin)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (at least 6 characters)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant admin rights")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAdminCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "admin <user-id|email> <true|false>",
		Short: "Grant or revoke admin rights",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flag, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid admin value %q: %w", args[1], err)
			}
			ref, err := a.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.users.SetAdmin(cmd.Context(), ref.ID, flag); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s admin=%t\n", ref.Email, flag)
			return nil
		},
	}
}

func newRevokeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-sessions <user-id|email>",
		Short: "Sign a user out everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := a.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			n, err := a.sessions.RevokeAll(cmd.Context(), ref.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d session(s) for %s\n", n, ref.Email)
			return nil
		},
	}
}

func newSessionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <user-id|email>",
		Short: "Print the number of stored sessions for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := a.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			n, err := a.rp.CountSessions(cmd.Context(), ref.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d session(s) for %s\n", n, ref.Email)
			return nil
		},
	}
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.users.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
