package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stashd/internal/account"
	"stashd/internal/session"
	"stashd/internal/storage"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initialize the database, storage tree, and first account",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if err := storage.EnsureLayout(e.cfg.Storage.Root); err != nil {
		return fmt.Errorf("prepare storage root: %w", err)
	}
	store, err := storage.Open(e.cfg.Storage.Root, e.logger)
	if err != nil {
		return err
	}

	if _, ok, err := e.db.GetRoleByName(ctx, session.RoleDirectory); err != nil {
		return err
	} else if !ok {
		if err := e.db.CreateRole(ctx, uuid.NewString(), session.RoleDirectory, "Storage access"); err != nil {
			return err
		}
	}

	existing, err := e.db.ListAccounts(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Println("setup already done: accounts exist")
		return nil
	}

	email, err := promptLine("Admin email: ")
	if err != nil {
		return err
	}
	display, err := promptLine("Display name: ")
	if err != nil {
		return err
	}
	password, err := promptPassword()
	if err != nil {
		return err
	}

	a, err := e.accounts.Create(ctx, email, display, account.WithPassword{Password: password})
	if err != nil {
		return err
	}
	role, _, err := e.db.GetRoleByName(ctx, session.RoleDirectory)
	if err != nil {
		return err
	}
	if err := e.db.AssignRole(ctx, a.ID, role.ID); err != nil {
		return err
	}
	if err := store.EnsureHome(a.ID); err != nil {
		return err
	}

	fmt.Printf("created account %s (%s)\n", a.Email, a.ID)
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads the password twice without echo.
func promptPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	fmt.Print("Repeat password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
