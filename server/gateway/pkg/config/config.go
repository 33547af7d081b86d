package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/logging"
)

type Config struct {
	Server ServerConfig   `mapstructure:"server"`
	RPC    RPCConfig      `mapstructure:"rpc"`
	JWT    JWTConfig      `mapstructure:"jwt"`
	Log    logging.Config `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type RPCConfig struct {
	UserServiceAddr string `mapstructure:"user_service_addr"`
	GameServiceAddr string `mapstructure:"game_service_addr"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

var AppConfig *Config

func InitConfig() {
	_ = godotenv.Load()

	viper.SetConfigName("config") // 配置文件名称(无扩展名)
	viper.SetConfigType("yaml")   // 如果配置文件的名称中没有扩展名，则需要配置此项
	viper.AddConfigPath(".")      // 查找配置文件所在的路径
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("rpc.user_service_addr", "127.0.0.1:50051")
	viper.SetDefault("rpc.game_service_addr", "127.0.0.1:50053")
	viper.SetDefault("jwt.secret", "dev-secret")
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct: %v", err)
	}
}
