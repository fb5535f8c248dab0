package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/apiserver/handler"
	"github.com/cg-dump/datasrv/internal/auth/jwt"
	"github.com/cg-dump/datasrv/internal/common/config"
	"github.com/cg-dump/datasrv/internal/dataset"
	"github.com/cg-dump/datasrv/internal/platform"
	"github.com/cg-dump/datasrv/internal/schema"
	"github.com/cg-dump/datasrv/pkg/logger"
	"github.com/cg-dump/datasrv/pkg/metrics"
	"github.com/cg-dump/datasrv/pkg/version"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of datasrv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("datasrv version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "datasrv",
		Short: "Dataset lifecycle server",
		Long:  `datasrv manages tenant-scoped, versioned dataset drafts and published snapshots`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfgFile := configPath
	if cfgFile == "" {
		cfgFile = "datasrv.yaml"
	}
	cfg, cfgPath, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting datasrv",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	store, err := database.NewDBStore(zapLogger, &cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	jwtService, err := jwt.NewService(jwt.Config(cfg.JWT))
	if err != nil {
		zapLogger.Fatal("failed to initialize JWT service", zap.Error(err))
	}

	platformSvc := platform.NewService(store, zapLogger)
	datasetSvc := dataset.NewService(store, zapLogger)

	ctx := context.Background()
	if err := platformSvc.BootstrapSuperAdmin(ctx, cfg.SuperAdmin); err != nil {
		zapLogger.Fatal("failed to bootstrap super admin", zap.Error(err))
	}
	if err := platformSvc.SeedTemplate(ctx, &schema.FMBTemplateV1); err != nil {
		zapLogger.Fatal("failed to seed template", zap.Error(err))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
	}

	h := handler.NewHandler(store, jwtService, datasetSvc, platformSvc, m, zapLogger)
	router := handler.Router(h, cfg)

	addr := fmt.Sprintf(":%d", cfg.Port)
	zapLogger.Info("listening", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("server exited", zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
