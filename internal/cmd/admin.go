package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"stashd/internal/account"
	"stashd/internal/storage"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administer accounts and roles",
}

var adminUserCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var adminRoleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage role assignments",
}

func init() {
	adminCmd.AddCommand(adminUserCmd, adminRoleCmd)
	adminUserCmd.AddCommand(userAddCmd, userInviteCmd, userListCmd, userRemoveCmd, userPasswdCmd, userRenameCmd)
	adminRoleCmd.AddCommand(roleGrantCmd, roleRevokeCmd, roleListCmd)
}

// openStore prepares and opens the storage tree for commands that touch home
// directories.
func openStore(e *env) (*storage.Store, error) {
	if err := storage.EnsureLayout(e.cfg.Storage.Root); err != nil {
		return nil, err
	}
	return storage.Open(e.cfg.Storage.Root, e.logger)
}

var userAddCmd = &cobra.Command{
	Use:   "add <email> <display name>",
	Short: "Create an account with a prompted password",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		password, err := promptPassword()
		if err != nil {
			return err
		}
		a, err := e.accounts.Create(cmd.Context(), args[0], args[1], account.WithPassword{Password: password})
		if err != nil {
			return err
		}
		store, err := openStore(e)
		if err != nil {
			return err
		}
		if err := store.EnsureHome(a.ID); err != nil {
			return err
		}
		fmt.Printf("created account %s (%s)\n", a.Email, a.ID)
		return nil
	},
}

var userInviteCmd = &cobra.Command{
	Use:   "invite <email> <display name>",
	Short: "Create an account and mail a password setup link",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		a, err := e.accounts.Create(cmd.Context(), args[0], args[1], account.WithInvite{})
		if err != nil {
			return err
		}
		store, err := openStore(e)
		if err != nil {
			return err
		}
		if err := store.EnsureHome(a.ID); err != nil {
			return err
		}
		fmt.Printf("invited %s (%s); setup link sent by mail\n", a.Email, a.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		accounts, err := e.db.ListAccounts(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EMAIL\tDISPLAY\tID\tROLES")
		for _, a := range accounts {
			roles, err := e.db.ListRolesForAccount(cmd.Context(), a.ID)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(roles))
			for _, r := range roles {
				names = append(names, r.Name)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Email, a.Display, a.ID, strings.Join(names, ","))
		}
		return w.Flush()
	},
}

var userRemoveCmd = &cobra.Command{
	Use:   "remove <email>",
	Short: "Delete an account, its sessions, and its home directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		a, err := e.accounts.Remove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		store, err := openStore(e)
		if err != nil {
			return err
		}
		if err := store.RemoveHome(a.ID); err != nil {
			return err
		}
		fmt.Printf("removed account %s\n", a.Email)
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <email>",
	Short: "Set an account's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		password, err := promptPassword()
		if err != nil {
			return err
		}
		if err := e.accounts.SetPassword(cmd.Context(), args[0], password); err != nil {
			return err
		}
		fmt.Println("password updated; all sessions invalidated")
		return nil
	},
}

var userRenameCmd = &cobra.Command{
	Use:   "rename <email> <display name>",
	Short: "Change an account's display name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		a, err := e.accounts.SetDisplay(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("renamed %s to %q\n", a.Email, a.Display)
		return nil
	},
}

var roleGrantCmd = &cobra.Command{
	Use:   "grant <email> <role>",
	Short: "Grant a role, creating the role if it does not exist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		ctx := cmd.Context()

		a, ok, err := e.db.GetAccountByEmail(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no account with email %s", args[0])
		}
		role, ok, err := e.db.GetRoleByName(ctx, args[1])
		if err != nil {
			return err
		}
		if !ok {
			id := uuid.NewString()
			if err := e.db.CreateRole(ctx, id, args[1], args[1]); err != nil {
				return err
			}
			role, _, err = e.db.GetRoleByName(ctx, args[1])
			if err != nil {
				return err
			}
		}
		if err := e.db.AssignRole(ctx, a.ID, role.ID); err != nil {
			return err
		}
		fmt.Printf("granted %s to %s\n", role.Name, a.Email)
		return nil
	},
}

var roleRevokeCmd = &cobra.Command{
	Use:   "revoke <email> <role>",
	Short: "Revoke a role from an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		ctx := cmd.Context()

		a, ok, err := e.db.GetAccountByEmail(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no account with email %s", args[0])
		}
		role, ok, err := e.db.GetRoleByName(ctx, args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no role named %s", args[1])
		}
		if err := e.db.RevokeRole(ctx, a.ID, role.ID); err != nil {
			return err
		}
		fmt.Printf("revoked %s from %s\n", role.Name, a.Email)
		return nil
	},
}

var roleListCmd = &cobra.Command{
	Use:   "list [role]",
	Short: "List roles, or the accounts holding one role",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()
		ctx := cmd.Context()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if len(args) == 1 {
			accounts, err := e.db.ListAccountsWithRole(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "EMAIL\tDISPLAY\tID")
			for _, a := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.Email, a.Display, a.ID)
			}
			return w.Flush()
		}
		roles, err := e.db.ListRoles(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "NAME\tDISPLAY\tID")
		for _, r := range roles {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Display, r.ID)
		}
		return w.Flush()
	},
}
