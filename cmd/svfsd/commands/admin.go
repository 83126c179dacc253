package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittofs/internal/cli/output"
	"github.com/marmos91/dittofs/internal/cli/prompt"
	"github.com/marmos91/dittofs/pkg/apiclient"
)

// The admin command group is svfsctl folded into svfsd itself: a thin
// REST client (pkg/apiclient) talking to a running svfsd's HTTP API,
// rather than a second unused binary.

var (
	adminServerAddr string
	adminToken      string
	adminForce      bool
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administer a running svfsd instance over its HTTP API",
}

func adminClient() *apiclient.Client {
	c := apiclient.New(adminServerAddr)
	if adminToken != "" {
		c = c.WithToken(adminToken)
	}
	return c
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every resident SVF id",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := adminClient().Keys()
		if err != nil {
			return err
		}
		table := output.NewTableData("ID")
		for _, k := range keys {
			table.AddRow(k)
		}
		return output.PrintTable(os.Stdout, table)
	},
}

var adminStatCmd = &cobra.Command{
	Use:   "stat <id>",
	Short: "Show one SVF's counters, timestamps and size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := adminClient().Stat(args[0])
		if err != nil {
			return err
		}
		return output.SimpleTable(os.Stdout, [][2]string{
			{"id", st.ID},
			{"file_mod_time", fmt.Sprint(st.FileModTime)},
			{"count_write", fmt.Sprint(st.CountWrite)},
			{"count_read", fmt.Sprint(st.CountRead)},
			{"bytes_write", fmt.Sprint(st.BytesWrite)},
			{"bytes_read", fmt.Sprint(st.BytesRead)},
			{"num_blocks", fmt.Sprint(st.NumBlocks)},
			{"num_bytes", fmt.Sprint(st.NumBytes)},
			{"last_file_position", fmt.Sprint(st.LastFilePosition)},
			{"size_of", fmt.Sprint(st.SizeOf)},
		})
	},
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate size_of/num_bytes/num_blocks across every SVF",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := adminClient().TotalStats()
		if err != nil {
			return err
		}
		return output.SimpleTable(os.Stdout, [][2]string{
			{"size_of", fmt.Sprint(st.SizeOf)},
			{"num_bytes", fmt.Sprint(st.NumBytes)},
			{"num_blocks", fmt.Sprint(st.NumBlocks)},
		})
	},
}

var adminInsertCmd = &cobra.Command{
	Use:   "insert <id> [mod_time]",
	Short: "Create a new empty SVF",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var modTime float64
		if len(args) == 2 {
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("mod_time must be a number: %w", err)
			}
			modTime = v
		}
		return adminClient().Insert(args[0], modTime)
	},
}

var adminRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Destroy an SVF and release its resident blocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("remove SVF %q", args[0]), adminForce)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return adminClient().Remove(args[0])
	},
}

var adminPuntCmd = &cobra.Command{
	Use:   "punt <id> <byte-budget>",
	Short: "Evict the least-recently-touched blocks down to a byte budget",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("byte-budget must be a non-negative integer: %w", err)
		}

		id := args[0]
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("evict blocks from %q down to %d bytes", id, budget), adminForce)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		removed, err := adminClient().Punt(id, budget)
		if err != nil {
			return err
		}
		fmt.Printf("reclaimed %d bytes\n", removed)
		return nil
	},
}

var adminPuntAllCmd = &cobra.Command{
	Use:   "punt-all <byte-budget>",
	Short: "Apply punt to every resident SVF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("byte-budget must be a non-negative integer: %w", err)
		}

		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("evict blocks from every SVF down to %d bytes", budget), adminForce)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		removed, err := adminClient().PuntAll(budget)
		if err != nil {
			return err
		}
		fmt.Printf("reclaimed %d bytes\n", removed)
		return nil
	},
}

func init() {
	adminCmd.PersistentFlags().StringVar(&adminServerAddr, "server", "http://localhost:8080", "svfsd HTTP API base URL")
	adminCmd.PersistentFlags().StringVar(&adminToken, "token", "", "bearer token, if the server requires auth")
	adminCmd.PersistentFlags().BoolVarP(&adminForce, "force", "f", false, "skip the confirmation prompt")

	adminCmd.AddCommand(adminListCmd, adminStatCmd, adminStatsCmd, adminInsertCmd, adminRemoveCmd, adminPuntCmd, adminPuntAllCmd)
	rootCmd.AddCommand(adminCmd)
}
