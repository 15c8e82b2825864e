// Package dom computes structural paths of elements relative to an ancestor
// and the longest common prefix across such paths. The common prefixes are
// what suggest a stable selector for the gallery's image-comment units.
package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// PathSeparator joins the tag tokens of an element path
const PathSeparator = " > "

// ElementPath walks from node up through parent links and returns the tag
// tokens in ancestor-to-node order, excluding the ancestor itself. A tag with
// more than one same-tag sibling under its parent is disambiguated with its
// 1-based occurrence index, e.g. "span(2)". The result is empty when node or
// ancestor is nil, when node is the ancestor, or when a non-element node is
// encountered before the ancestor is reached.
func ElementPath(node, ancestor *html.Node) string {
	if node == nil || ancestor == nil {
		return ""
	}

	var tokens []string
	current := node
	for current != nil && current != ancestor {
		if current.Type != html.ElementNode {
			return ""
		}

		parent := current.Parent
		if parent == nil {
			break
		}

		token := current.Data
		if idx, total := siblingIndex(current, parent); total > 1 {
			token = fmt.Sprintf("%s(%d)", token, idx)
		}
		tokens = append([]string{token}, tokens...)
		current = parent
	}

	return strings.Join(tokens, PathSeparator)
}

// siblingIndex returns node's 1-based position among parent's element
// children sharing its tag, and how many such siblings exist.
func siblingIndex(node, parent *html.Node) (int, int) {
	index, total := 0, 0
	for child := parent.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode || child.Data != node.Data {
			continue
		}
		total++
		if child == node {
			index = total
		}
	}
	return index, total
}

// CommonPrefix returns the longest initial token subsequence shared by all
// given paths. Empty paths are ignored; an empty set yields an empty result.
// The prefix is truncated at the first position where paths disagree or the
// shortest path ends.
func CommonPrefix(paths []string) string {
	var split [][]string
	for _, p := range paths {
		if p != "" {
			split = append(split, strings.Split(p, PathSeparator))
		}
	}
	if len(split) == 0 {
		return ""
	}

	minLen := len(split[0])
	for _, tokens := range split[1:] {
		if len(tokens) < minLen {
			minLen = len(tokens)
		}
	}

	var prefix []string
	for i := 0; i < minLen; i++ {
		token := split[0][i]
		agreed := true
		for _, tokens := range split[1:] {
			if tokens[i] != token {
				agreed = false
				break
			}
		}
		if !agreed {
			break
		}
		prefix = append(prefix, token)
	}

	return strings.Join(prefix, PathSeparator)
}
