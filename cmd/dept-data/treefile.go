package main

import (
	"fmt"
	"sort"

	"github.com/iota-uz/orgtree/modules/department/presentation/controllers/dtos"
)

// treeNode is the nested interchange form used by export and import files.
type treeNode struct {
	Name     string      `json:"name"`
	Children []*treeNode `json:"children,omitempty"`
}

// buildForest reconstructs the nested form from the API's flat listing.
func buildForest(list []dtos.DepartmentResponse) ([]*treeNode, error) {
	nodes := make(map[string]*treeNode, len(list))
	for _, d := range list {
		nodes[d.ID] = &treeNode{Name: d.Name}
	}

	// Children attach in left-index order so the file round-trips stably.
	sorted := make([]dtos.DepartmentResponse, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].RootID != sorted[j].RootID {
			return sorted[i].RootID < sorted[j].RootID
		}
		return sorted[i].LeftIndex < sorted[j].LeftIndex
	})

	var forest []*treeNode
	for _, d := range sorted {
		node := nodes[d.ID]
		if d.ParentID == nil {
			forest = append(forest, node)
			continue
		}
		parent, ok := nodes[*d.ParentID]
		if !ok {
			return nil, fmt.Errorf("department %q references unknown parent %s", d.Name, *d.ParentID)
		}
		parent.Children = append(parent.Children, node)
	}
	return forest, nil
}

func countNodes(forest []*treeNode) int {
	total := 0
	for _, n := range forest {
		total += 1 + countNodes(n.Children)
	}
	return total
}
