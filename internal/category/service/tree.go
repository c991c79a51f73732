package service

import (
	"sort"

	"github.com/smallbiznis/narzo/internal/category/domain"
)

// BuildTree nests categories under their parents. Categories whose parent is
// missing are promoted to roots. Every level is ordered by sort_order, then
// by name.
func BuildTree(items []domain.Category) []*domain.Node {
	nodes := make(map[string]*domain.Node, len(items))
	for _, c := range items {
		nodes[c.ID] = &domain.Node{Category: c, Children: []*domain.Node{}}
	}

	roots := make([]*domain.Node, 0)
	for _, c := range items {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*domain.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return less(nodes[i].Category, nodes[j].Category)
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

func sortCategories(items []domain.Category) {
	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
}

func less(a, b domain.Category) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	return a.NameID < b.NameID
}
