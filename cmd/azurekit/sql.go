package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/datakraft/azurekit/pkg/sqldb"
)

func newSQLClient() (*sqldb.Client, error) {
	params, err := cfg.SQLConnectionParams()
	if err != nil {
		return nil, err
	}
	return sqldb.New(sqldb.Params{
		Server:     params.Server,
		Database:   params.Database,
		Username:   params.Username,
		Password:   params.Password,
		UseAzureAD: params.Username == "",
	}, logger)
}

func sqlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "SQL Database operations",
	}

	query := &cobra.Command{
		Use:   "query <statement>",
		Short: "Run a query and print the rows as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSQLClient()
			if err != nil {
				return err
			}
			defer client.Close()

			rows, err := client.ExecuteQuery(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}

	tables := &cobra.Command{
		Use:   "tables",
		Short: "List tables in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSQLClient()
			if err != nil {
				return err
			}
			defer client.Close()

			names, err := client.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				cmd.Println(n)
			}
			return nil
		},
	}

	cmd.AddCommand(query, tables)
	return cmd
}
