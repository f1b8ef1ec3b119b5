package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/welfarelens/internal/auth"
	"github.com/TobiSchelling/welfarelens/internal/database"
)

var (
	userOrg  string
	userRole string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage API users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := db.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users yet. Add one with: welfarelens users add")
			return nil
		}
		for _, u := range users {
			fmt.Printf("  [%d] %s <%s> %s\n", u.ID, u.Username, u.Email, u.Role)
		}
		return nil
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add [username] [email]",
	Short: "Create a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		u := &database.User{Username: args[0], Email: args[1], Role: userRole}
		if userOrg != "" {
			u.Organization = &userOrg
		}
		id, err := db.InsertUser(cmd.Context(), u)
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		fmt.Printf("Added user [%d]: %s\n", id, u.Username)
		return nil
	},
}

var usersTokenCmd = &cobra.Command{
	Use:   "token [username]",
	Short: "Issue an API bearer token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issuer, err := auth.NewIssuer(cfg.JWTSecret(), cfg.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("%w: set %s", err, cfg.Auth.SecretEnv)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := db.GetUserByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user %q not found", args[0])
		}
		token, err := issuer.Issue(u.ID, u.Username)
		if err != nil {
			return err
		}
		if err := db.TouchUserLogin(cmd.Context(), u.ID, time.Now().UTC()); err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&userOrg, "org", "", "Organization")
	usersAddCmd.Flags().StringVar(&userRole, "role", "user", "Role")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersTokenCmd)
}
