package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/scribehub/scribe/internal/model"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys that authenticate against the HTTP API.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		name  string
		admin bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long: "Mint a new API key directly against the local store. This is the bootstrap path:\n" +
			"the first admin key has to come from somewhere before the HTTP issuance endpoint\n" +
			"can be used. Keys minted here are recorded as authorized by \"bootstrap\".",
		Example: `  scribe key create --name "Joe" --admin
  scribe key create --name "transcription-bot"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(name, admin)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Human-readable label for the key holder (required)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant admin privileges")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runKeyCreate(name string, admin bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	rec := &model.APIKey{
		Key:      uuid.NewString(),
		Name:     name,
		IsAdmin:  admin,
		AuthedBy: "bootstrap",
	}

	if err := st.IssueKey(cmdContext(), rec); err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Println("API key created:")
	fmt.Println()
	fmt.Printf("  Key:   %s\n", rec.Key)
	fmt.Printf("  Name:  %s\n", rec.Name)
	fmt.Printf("  Admin: %v\n", rec.IsAdmin)
	fmt.Println()
	fmt.Println("  Keys are shown in full only here and at issuance.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List issued API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyList(jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	keys, err := st.ListKeys(cmdContext())
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(keys)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys issued. Use 'scribe key create' to mint one.")
		return nil
	}

	fmt.Printf("%-38s %-24s %-6s %-20s\n", "KEY", "NAME", "ADMIN", "GRANTED")
	fmt.Printf("%-38s %-24s %-6s %-20s\n", "---", "----", "-----", "-------")
	for _, k := range keys {
		admin := "no"
		if k.IsAdmin {
			admin = "yes"
		}
		fmt.Printf("%-38s %-24s %-6s %-20s\n",
			k.Key, k.Name, admin, k.DateGranted.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <key>",
		Short: "Revoke an API key",
		Long:  "Hard-delete an API key. Revoking a key that does not exist is a no-op.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(args[0])
		},
	}

	return cmd
}

func runKeyRevoke(key string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.RevokeKey(cmdContext(), key); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	fmt.Println("Key revoked.")
	return nil
}

// cmdContext returns a background context for CLI operations.
func cmdContext() context.Context {
	return context.Background()
}
