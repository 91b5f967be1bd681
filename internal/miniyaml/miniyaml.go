// Package miniyaml parses the tab-indented key/value documents used by the
// game for replay metadata and account-service responses. The format is not
// YAML: nesting is expressed with leading tabs, values follow the first
// colon, and there are no sequences or quoting rules.
package miniyaml

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

type Node struct {
	Key      string
	Value    string
	Children []*Node
}

// Child returns the first direct child with the given key, or nil.
func (n *Node) Child(key string) *Node {
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// Get returns the value of the first direct child with the given key, or "".
func (n *Node) Get(key string) string {
	if c := n.Child(key); c != nil {
		return c.Value
	}
	return ""
}

// Parse reads a document into a forest of root nodes.
func Parse(data []byte) ([]*Node, error) {
	var roots []*Node
	// stack[d] is the most recent node at depth d
	var stack []*Node

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		depth := 0
		for depth < len(line) && line[depth] == '\t' {
			depth++
		}
		if depth > len(stack) {
			return nil, fmt.Errorf("miniyaml: line %d: indent jumps from %d to %d", lineNo, len(stack), depth)
		}

		key, value, _ := strings.Cut(line[depth:], ":")
		node := &Node{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)}

		if depth == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[depth-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack[:depth], node)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("miniyaml: %w", err)
	}
	return roots, nil
}

// Root returns the first root node with the given key, or nil.
func Root(nodes []*Node, key string) *Node {
	for _, n := range nodes {
		if n.Key == key {
			return n
		}
	}
	return nil
}
