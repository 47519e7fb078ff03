package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var tenant string
	var baseURL string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the department forest to a nested JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := uuid.Parse(strings.TrimSpace(tenant))
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid --tenant: %w", err))
			}
			client, err := newDeptAPIClient(baseURL, tenantID)
			if err != nil {
				return err
			}

			list, err := client.listAll(cmd.Context())
			if err != nil {
				return err
			}
			forest, err := buildForest(list)
			if err != nil {
				return withCode(exitAPI, err)
			}

			data, err := json.MarshalIndent(forest, "", "  ")
			if err != nil {
				return withCode(exitAPI, fmt.Errorf("json marshal forest: %w", err))
			}
			data = append(data, '\n')

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return withCode(exitAPI, err)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return withCode(exitAPI, fmt.Errorf("write %s: %w", output, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d departments to %s\n", len(list), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant UUID (required)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL (defaults to configured origin)")
	cmd.Flags().StringVar(&output, "output", "-", "Output file, - for stdout")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}
