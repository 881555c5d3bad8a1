package main

import (
	"context"

	"github.com/spf13/cobra"

	"livingcanon/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, p.cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close(ctx)
	}

	eng, err := p.buildEngine(ctx, db, nil)
	if err != nil {
		return err
	}

	server := mcp.NewServer(eng, db, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
