package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App              App              `mapstructure:",squash"`
	Server           Server           `mapstructure:",squash"`
	Database         Database         `mapstructure:",squash"`
	Analytics        Analytics        `mapstructure:",squash"`
	Auth             Auth             `mapstructure:",squash"`
	DailyMetricsSync DailyMetricsSync `mapstructure:",squash"`
	SecretKey        string           `mapstructure:"secret_key"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

// Analytics guarda a configuração de acesso à API de dados do Google Analytics (GA4).
// CredentialsMode define como o token de acesso é obtido: "static" (token
// explícito), "refresh_token" (fluxo OAuth com renovação automática) ou
// "metadata" (identidade ambiente da plataforma, via metadata server).
// O modo é resolvido uma única vez na inicialização, nunca por chamada.
type Analytics struct {
	BaseURL         string `mapstructure:"ga4_base_url"`
	TokenURL        string `mapstructure:"ga4_token_url"`
	CredentialsMode string `mapstructure:"ga4_credentials_mode"`
	AccessToken     string `mapstructure:"ga4_access_token"`
	ClientID        string `mapstructure:"ga4_client_id"`
	ClientSecret    string `mapstructure:"ga4_client_secret"`
	RefreshToken    string `mapstructure:"ga4_refresh_token"`
	TimeoutSeconds  int    `mapstructure:"ga4_timeout_seconds"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Auth struct {
	Secret string `mapstructure:"auth_secret"`
}

type DailyMetricsSync struct {
	CronSchedule               string `mapstructure:"daily_metrics_sync_cron"`
	RequestDelayMillis         int    `mapstructure:"daily_metrics_sync_request_delay_millis"`
	BackfillRequestDelayMillis int    `mapstructure:"daily_metrics_sync_backfill_delay_millis"`
	InitialBackfillDays        int    `mapstructure:"daily_metrics_sync_initial_backfill_days"`
	Enabled                    bool   `mapstructure:"daily_metrics_sync_enabled"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/analytics")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("GA4_BASE_URL", "https://analyticsdata.googleapis.com/v1beta")
	viper.SetDefault("GA4_TOKEN_URL", "https://oauth2.googleapis.com/token")
	viper.SetDefault("GA4_CREDENTIALS_MODE", "static")
	viper.SetDefault("GA4_ACCESS_TOKEN", "your_access_token") // ONLY LOCAL
	viper.SetDefault("GA4_CLIENT_ID", "")
	viper.SetDefault("GA4_CLIENT_SECRET", "")
	viper.SetDefault("GA4_REFRESH_TOKEN", "")
	viper.SetDefault("GA4_TIMEOUT_SECONDS", 30)

	viper.SetDefault("SECRET_KEY", "your_secret_key")
	viper.SetDefault("AUTH_SECRET", "your_auth_secret")

	// Defaults para a sincronização diária de métricas
	viper.SetDefault("DAILY_METRICS_SYNC_CRON", "0 3 * * *")           // Todos os dias às 3h da manhã
	viper.SetDefault("DAILY_METRICS_SYNC_REQUEST_DELAY_MILLIS", 500)   // 500ms entre clientes
	viper.SetDefault("DAILY_METRICS_SYNC_BACKFILL_DELAY_MILLIS", 2000) // Backfill é mais denso em chamadas
	viper.SetDefault("DAILY_METRICS_SYNC_INITIAL_BACKFILL_DAYS", 30)   // Histórico inicial de um novo cliente
	viper.SetDefault("DAILY_METRICS_SYNC_ENABLED", false)

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	// Configurar valores padrão
	SetDefaults()

	// Configurar o Viper
	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv() // Isso permite que o Viper leia variáveis de ambiente

	// Tentar ler o arquivo .env com o Viper (opcional, já que usamos godotenv)
	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	// Tentar várias localizações possíveis para o arquivo .env
	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../.env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		err := godotenv.Load(location)
		if err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
