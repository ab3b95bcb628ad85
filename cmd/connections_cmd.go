package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/wagate/internal/config"
	"github.com/nextlevelbuilder/wagate/internal/store"
	"github.com/nextlevelbuilder/wagate/internal/store/pg"
)

func connectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "View tenant connections",
	}
	cmd.AddCommand(connectionsListCmd())
	return cmd
}

func connectionsListCmd() *cobra.Command {
	var jsonOutput bool
	var companyID int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tenant connections and their session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := pg.Open(cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			cs := pg.NewConnectionStore(db)
			var conns []*store.Connection
			if companyID > 0 {
				conns, err = cs.List(context.Background(), companyID)
			} else {
				conns, err = cs.ListAll(context.Background())
			}
			if err != nil {
				return err
			}

			printConnections(conns, jsonOutput)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&companyID, "company", 0, "filter by company ID")
	return cmd
}

func printConnections(conns []*store.Connection, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.MarshalIndent(conns, "", "  ")
		fmt.Println(string(data))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMPANY\tNAME\tSTATUS\tNUMBER\tRETRIES\tUPDATED")
	for _, c := range conns {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.CompanyID, c.Name, c.Status, c.Number, c.Retries,
			c.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}
