package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string `yaml:"log-level" env-default:"info"`
	HTTPPort          string `yaml:"http-port" env-default:"9090"`
	SocketPort        string `yaml:"socket-port" env-default:"8080"`
	Redis             Redis  `yaml:"redis"`
	SQLiteStoragePath string `yaml:"sqlite-storage-path" env-default:"domino.db"`
	Domino            Domino `yaml:"domino"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

type Domino struct {
	TurnSeconds         int `yaml:"turn-seconds" env-default:"7"`
	ForfeitGraceSeconds int `yaml:"forfeit-grace-seconds" env-default:"30"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Domino) TurnDuration() time.Duration {
	return time.Duration(that.TurnSeconds) * time.Second
}

func (that *Domino) ForfeitGrace() time.Duration {
	return time.Duration(that.ForfeitGraceSeconds) * time.Second
}
