package pipeline

import (
	"github.com/foxseedlab/meetsync/internal/config"
	"github.com/foxseedlab/meetsync/internal/pipeline"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (pipeline.Sender, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPSender(c.PipelineWebhookURL), nil
	})
}
