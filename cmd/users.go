package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/eaglesec/eagle-access/internal/config"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage registered users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered users",
	RunE:  runUsersList,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id-or-name>",
	Short: "Delete a user together with their embeddings and samples",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	users, err := repos.users.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users registered.")
		return nil
	}

	type row struct{ id, name string }
	rows := make([]row, 0, len(users))
	for id, name := range users {
		rows = append(rows, row{id: id, name: name})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	fmt.Printf("%-10s %s\n", "ID", "NAME")
	for _, r := range rows {
		fmt.Printf("%-10s %s\n", r.id, r.name)
	}
	fmt.Printf("\n%d user(s) registered\n", len(rows))
	return nil
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	identifier := args[0]
	cfg := config.Load()

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	found, err := repos.users.Delete(context.Background(), identifier)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if !found {
		return fmt.Errorf("no user matches %q", identifier)
	}

	fmt.Printf("Deleted %q\n", identifier)
	return nil
}
