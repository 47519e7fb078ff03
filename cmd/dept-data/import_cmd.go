package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var tenant string
	var baseURL string
	var input string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create departments from a nested JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := uuid.Parse(strings.TrimSpace(tenant))
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid --tenant: %w", err))
			}
			client, err := newDeptAPIClient(baseURL, tenantID)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("read %s: %w", input, err))
			}
			var forest []*treeNode
			if err := json.Unmarshal(data, &forest); err != nil {
				return withCode(exitValidation, fmt.Errorf("parse %s: %w", input, err))
			}
			if err := validateForest(forest); err != nil {
				return withCode(exitValidation, err)
			}

			created, err := importForest(cmd.Context(), client, forest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d departments\n", created)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant UUID (required)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL (defaults to configured origin)")
	cmd.Flags().StringVar(&input, "input", "", "Input file (required)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func validateForest(forest []*treeNode) error {
	for _, n := range forest {
		if n == nil {
			return fmt.Errorf("null node in input")
		}
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("node with empty name in input")
		}
		if err := validateForest(n.Children); err != nil {
			return err
		}
	}
	return nil
}

// importForest creates nodes parent-first; the API assigns intervals, so the
// file order becomes sibling order.
func importForest(ctx context.Context, client *deptAPIClient, forest []*treeNode) (int, error) {
	created := 0
	var walk func(nodes []*treeNode, parentID *string) error
	walk = func(nodes []*treeNode, parentID *string) error {
		for _, n := range nodes {
			resp, err := client.create(ctx, strings.TrimSpace(n.Name), parentID)
			if err != nil {
				return err
			}
			created++
			if err := walk(n.Children, &resp.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(forest, nil); err != nil {
		return created, err
	}
	return created, nil
}
