package migration

import (
	"strings"

	"github.com/smallbiznis/lpt/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(run),
)

func run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	log = log.Named("migration")
	switch strings.ToLower(cfg.DBType) {
	case "postgres", "postgresql", "":
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
	default:
		if err := AutoMigrate(conn); err != nil {
			return err
		}
	}
	log.Info("schema ready", zap.String("db_type", cfg.DBType))
	return nil
}
