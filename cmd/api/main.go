package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/database/postgres"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/integrator/ga4/ga4client"
	"github.com/vfg2006/analytics-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/analytics-dashboard-api/internal/api"
	"github.com/vfg2006/analytics-dashboard-api/internal/config"
	"github.com/vfg2006/analytics-dashboard-api/internal/scheduler"
	"github.com/vfg2006/analytics-dashboard-api/internal/usecases/authenticating"
	"github.com/vfg2006/analytics-dashboard-api/internal/usecases/client"
	"github.com/vfg2006/analytics-dashboard-api/internal/usecases/reporting"
)

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	clientRepo := repository.NewClientRepository(pgConn)
	dailyMetricRepo := repository.NewDailyMetricRepository(pgConn)
	syncLogRepo := repository.NewSyncLogRepository(pgConn)
	userRepo := repository.NewUserRepository(pgConn)

	authenticator := authenticating.NewService(userRepo, cfg)

	// O modo de credencial é resolvido uma única vez, na inicialização
	credentials, err := ga4client.NewCredentialProvider(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao configurar credenciais do GA4")
	}

	ga4Client := ga4client.NewClient(cfg, credentials)
	ga4Integrator := ga4.New(cfg, ga4Client)

	dailyMetricsSyncService := scheduler.NewDailyMetricsSyncService(
		clientRepo,
		dailyMetricRepo,
		syncLogRepo,
		ga4Integrator,
		cfg,
	)

	clientService := client.NewService(clientRepo, ga4Integrator, dailyMetricsSyncService, cfg)
	reportingService := reporting.NewService(clientRepo, dailyMetricRepo, syncLogRepo, ga4Integrator)

	// Inicia o agendador em background
	if err := dailyMetricsSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de sincronização de métricas diárias")
	} else {
		logrus.Info("Agendador de sincronização de métricas diárias iniciado com sucesso")
	}

	server, err := api.New(
		cfg,
		authenticator,
		clientService,
		reportingService,
		dailyMetricsSyncService,
	)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}
