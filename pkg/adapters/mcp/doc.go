// Package mcp exposes the composition engine as a Model Context Protocol server, so
// agents can drive key-by-key composition and read the mnemonic table.
package mcp
