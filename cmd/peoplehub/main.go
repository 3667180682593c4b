package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/migration"
	"github.com/smallbiznis/peoplehub/internal/observability"
	"github.com/smallbiznis/peoplehub/internal/server"
	"github.com/smallbiznis/peoplehub/pkg/db"
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

		// Schema must exist before the enforcer and bootstrap touch it.
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
