package recruitment

import (
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	"github.com/smallbiznis/peoplehub/internal/recruitment/repository"
	"github.com/smallbiznis/peoplehub/internal/recruitment/service"
	store "github.com/smallbiznis/peoplehub/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("recruitment.service",
	fx.Provide(repository.Provide),
	fx.Provide(store.ProvideStore[recruitmentdomain.StatusHistory]),
	fx.Provide(store.ProvideStore[recruitmentdomain.Interview]),
	fx.Provide(service.NewService),
)
