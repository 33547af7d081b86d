package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/logging"
)

type Config struct {
	Server ServerConfig   `mapstructure:"server"`
	MySQL  MySQLConfig    `mapstructure:"mysql"`
	JWT    JWTConfig      `mapstructure:"jwt"`
	MQ     MQConfig       `mapstructure:"mq"`
	Log    logging.Config `mapstructure:"log"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// DSN 构建: username:password@tcp(host:port)/database?charset=utf8mb4&parseTime=True&loc=Local
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

type JWTConfig struct {
	Secret         string `mapstructure:"secret"`
	ExpireDuration string `mapstructure:"expire_duration"`
}

// TTL parses ExpireDuration, falling back to seven days.
func (c JWTConfig) TTL() time.Duration {
	d, err := time.ParseDuration(c.ExpireDuration)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

type MQConfig struct {
	Url       string `mapstructure:"url"`
	QueueName string `mapstructure:"queue_name"`
}

var AppConfig *Config

func InitConfig() {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 50051)
	viper.SetDefault("mysql.host", "127.0.0.1")
	viper.SetDefault("mysql.port", 3306)
	viper.SetDefault("jwt.secret", "dev-secret")
	viper.SetDefault("jwt.expire_duration", "168h")
	viper.SetDefault("mq.queue_name", "room_results")
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config: %v", err)
	}
	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}
