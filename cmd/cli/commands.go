package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/moveledger/internal/adapter/http/dto"
	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/infrastructure/auth"
)

type rootOptions struct {
	baseURL string
	token   string
	timeout time.Duration
	output  string
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.baseURL, o.token, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "moveledger-cli",
		Short:         "MoveLedger CLI tool",
		Long:          `A command line interface for the MoveLedger movement ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("MOVELEDGER_URL", "http://localhost:8080"), "Base URL of the MoveLedger API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("MOVELEDGER_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format: table or json")

	movementsCmd := &cobra.Command{
		Use:     "movements",
		Aliases: []string{"mv"},
		Short:   "Movement operations",
	}
	movementsCmd.AddCommand(
		listCmd(opts),
		getCmd(opts),
		reverseCmd(opts),
		deleteCmd(opts),
		exportCmd(opts),
		importCmd(opts),
	)

	rootCmd.AddCommand(movementsCmd, tokenCmd())

	return rootCmd
}

func listCmd(opts *rootOptions) *cobra.Command {
	var movementType, clientID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List movements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			movements, err := opts.client().listMovements(cmd.Context(), movementType, clientID)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, movements)
		},
	}

	cmd.Flags().StringVar(&movementType, "type", "", "Only movements with this type tag")
	cmd.Flags().StringVar(&clientID, "client", "", "Only movements where this client is sender or recipient")
	cmd.MarkFlagsMutuallyExclusive("type", "client")

	return cmd
}

func getCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one movement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.client().getMovement(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, []dto.MovementResponse{*m})
		},
	}
}

func reverseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reverse ID",
		Short: "Reverse a movement within its reversal window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.client().reverseMovement(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, []dto.MovementResponse{*m})
		},
	}
}

func deleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a movement (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().deleteMovement(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func exportCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every movement to an archive file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := opts.client().exportMovements(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeArchiveFile(out, archive); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d movements to %s\n", len(archive.Movements), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Archive file to write")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func importCmd(opts *rootOptions) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Re-insert the movements of an archive file (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(in)
			if err != nil {
				return err
			}
			defer f.Close()

			archive, err := dto.DecodeArchive(f)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}

			n, err := opts.client().importMovements(cmd.Context(), archive)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d movements from %s\n", n, in)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Archive file to read")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		email   string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an API token with the server's JWT secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.User{
				ID:    subject,
				Email: email,
				Role:  domain.Role(role),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret")
	cmd.Flags().StringVar(&subject, "subject", "cli", "User id written to the token")
	cmd.Flags().StringVar(&email, "email", "", "Email written to the token")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "admin, operator or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}

// writeArchiveFile writes the archive next to path and renames it into
// place, so a failed export never leaves a truncated file behind.
func writeArchiveFile(path string, archive *dto.Archive) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = dto.EncodeArchive(tmp, archive); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync archive: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename archive: %w", err)
	}
	return nil
}

func render(w io.Writer, format string, movements []dto.MovementResponse) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(movements)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSENDER\tORIGIN\tDESTINATION\tAMOUNT\tBALANCE AFTER\tSTATE\tCREATED")
	for _, m := range movements {
		dest := "-"
		if m.DestinationAccount != nil {
			dest = *m.DestinationAccount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Type, m.SenderClientID, m.OriginAccount, dest,
			m.Amount.String(), m.BalanceAfter.String(), m.State, m.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
