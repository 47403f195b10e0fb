package service

import (
	"fmt"
	"time"
	// 精简镜像中没有时区数据库
	_ "time/tzdata"

	"github.com/mautops/notary-gin/internal/config"
	"github.com/mautops/notary-gin/internal/engine"
)

// NewEngineOptions 由配置构造引擎参数
func NewEngineOptions(cfg config.EngineConfig) (engine.Options, error) {
	opts := engine.DefaultOptions()
	if cfg.DateLayout != "" {
		opts.DateLayout = cfg.DateLayout
	}
	if cfg.DateTimeLayout != "" {
		opts.DateTimeLayout = cfg.DateTimeLayout
	}
	if cfg.ContractNumberPlaceholder != "" {
		opts.ContractNumberPlaceholder = cfg.ContractNumberPlaceholder
	}
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return engine.Options{}, fmt.Errorf("invalid engine timezone %q: %w", cfg.Timezone, err)
		}
		opts.Location = loc
	}
	return opts, nil
}
