package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTreeCmd() *cobra.Command {
	var tenant string
	var baseURL string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the department forest as an indented tree",
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

			printForest(cmd.OutOrStdout(), forest, 0)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant UUID (required)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL (defaults to configured origin)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}

func printForest(w io.Writer, nodes []*treeNode, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n.Name)
		printForest(w, n.Children, depth+1)
	}
}
