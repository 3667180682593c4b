package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/peoplehub/internal/audit"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/observability"
	"github.com/smallbiznis/peoplehub/internal/recruitment"
	"github.com/smallbiznis/peoplehub/internal/salary"
	"github.com/smallbiznis/peoplehub/internal/scheduler"
	"github.com/smallbiznis/peoplehub/pkg/db"
	"github.com/smallbiznis/peoplehub/pkg/lock"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,

		// Domain services required by the expiry sweep
		audit.Module,
		salary.Module,
		recruitment.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

// RegisterSnowflake uses a node id distinct from the API process.
func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
