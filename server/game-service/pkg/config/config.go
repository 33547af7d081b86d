package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/logging"
	"github.com/alainledesmablanco-dev/interestelar2/pkg/physics"
)

type Config struct {
	Server ServerConfig   `mapstructure:"server"`
	Room   RoomConfig     `mapstructure:"room"`
	MQ     MQConfig       `mapstructure:"mq"`
	Redis  RedisConfig    `mapstructure:"redis"`
	JWT    JWTConfig      `mapstructure:"jwt"`
	Game   physics.Tuning `mapstructure:"game"`
	Log    logging.Config `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	GrpcPort     int    `mapstructure:"grpc_port"`
	TickRate     int    `mapstructure:"tick_rate"`
	SnapshotRate int    `mapstructure:"snapshot_rate"`
	StatsAddr    string `mapstructure:"stats_addr"`
}

type RoomConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	CodeLength    int           `mapstructure:"code_length"`
}

type MQConfig struct {
	Url       string `mapstructure:"url"`
	QueueName string `mapstructure:"queue_name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

var AppConfig *Config

func InitConfig() {
	// .env is optional; values there only seed the environment.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.grpc_port", 50053)
	viper.SetDefault("server.tick_rate", 20)
	viper.SetDefault("server.snapshot_rate", 20)
	viper.SetDefault("room.idle_ttl", time.Hour)
	viper.SetDefault("room.sweep_interval", 5*time.Minute)
	viper.SetDefault("room.code_length", 6)
	viper.SetDefault("mq.queue_name", "room_results")
	viper.SetDefault("jwt.secret", "dev-secret")
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config: %v", err)
	}
	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
	AppConfig.Game = AppConfig.Game.WithDefaults()
}
