// Command recipes manages a coding-recipe knowledge base and serves it to
// MCP clients.
package main

import "github.com/mesh-intelligence/recipes/internal/cli"

func main() {
	cli.Execute()
}
