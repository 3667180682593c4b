package letter

import (
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/letter/convert"
	"github.com/smallbiznis/peoplehub/internal/letter/render"
	"github.com/smallbiznis/peoplehub/internal/letter/repository"
	"github.com/smallbiznis/peoplehub/internal/letter/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("letter.service",
	fx.Provide(repository.Provide),
	fx.Provide(newOffice),
	fx.Provide(convert.NewHTML),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
)

func newOffice(cfg config.Config, log *zap.Logger) *convert.Office {
	return convert.NewOffice(cfg.Letters.ConverterBinary, cfg.Letters.ConverterTimeout, log)
}
