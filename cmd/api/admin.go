package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"portfolio/api/internal/authpw"
	"portfolio/api/internal/config"
	"portfolio/api/internal/rbac"
	"portfolio/api/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations, or roll back the latest one with --down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			db, err := store.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if down {
				name, err := store.RollbackMigration(ctx, db, cfg.MigrationsDir)
				if err != nil {
					return err
				}
				if name == "" {
					fmt.Fprintln(out, "no migrations to roll back")
					return nil
				}
				fmt.Fprintf(out, "rolled back %s\n", name)
				return nil
			}

			applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
			if err != nil {
				return err
			}
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name)
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "migrations up to date")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recently applied migration")
	return cmd
}

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}
	cmd.AddCommand(newSetPasswordCmd())
	return cmd
}

func newSetPasswordCmd() *cobra.Command {
	var name, role, password string
	cmd := &cobra.Command{
		Use:   "set-password <email>",
		Short: "Create an admin or replace its password. Reads the password from stdin when --password is empty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				password, err = readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			db, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			admin, err := authpw.NewService(store.NewPostgresStore(db)).SetPassword(ctx, args[0], name, password, rbac.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (%s) saved with role %s\n", admin.Email, admin.ID, admin.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(rbac.RoleOwner), "role: owner, editor or visitor")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	return cmd
}

func readPassword(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
