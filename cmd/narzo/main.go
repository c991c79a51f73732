package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/narzo/internal/clock"
	"github.com/smallbiznis/narzo/internal/config"
	"github.com/smallbiznis/narzo/internal/migration"
	"github.com/smallbiznis/narzo/internal/observability"
	"github.com/smallbiznis/narzo/internal/server"
	"github.com/smallbiznis/narzo/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// schema first, then the HTTP surface
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
