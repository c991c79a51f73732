package post

import (
	"github.com/smallbiznis/narzo/internal/post/repository"
	"github.com/smallbiznis/narzo/internal/post/service"
	"go.uber.org/fx"
)

var Module = fx.Module("post.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
