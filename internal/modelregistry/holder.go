package modelregistry

import (
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/lpt/internal/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Holder serves the current catalog and swaps it when models.yml changes.
type Holder struct {
	current atomic.Pointer[catalog]
	log     *zap.Logger
}

func NewHolder(cfg config.Config, log *zap.Logger) (*Holder, error) {
	log = log.Named("modelregistry")
	holder := &Holder{log: log}

	defaults, err := DefaultModels()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yml")
	if path := strings.TrimSpace(cfg.Models.Path); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("models")
		v.AddConfigPath("/etc/lpt") // System config
		v.AddConfigPath(".")        // Current directory (dev mode)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		c, err := newCatalog(defaults)
		if err != nil {
			return nil, err
		}
		holder.current.Store(c)
		log.Info("using built-in model catalog", zap.Int("models", len(defaults)))
		return holder, nil
	}

	c, err := loadCatalog(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(c)
	log.Info("model catalog loaded",
		zap.String("path", filepath.Clean(v.ConfigFileUsed())),
		zap.Int("models", len(c.ordered)),
	)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := loadCatalog(v)
		if err != nil {
			log.Warn("model catalog reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("model catalog reloaded", zap.String("file", e.Name), zap.Int("models", len(updated.ordered)))
	})

	return holder, nil
}

func loadCatalog(v *viper.Viper) (*catalog, error) {
	var doc document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, err
	}
	return newCatalog(doc.Models)
}

func (h *Holder) Lookup(id int) (Model, bool) {
	m, ok := h.current.Load().byID[id]
	return m, ok
}

func (h *Holder) List() []Summary {
	return append([]Summary(nil), h.current.Load().ordered...)
}
