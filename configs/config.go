package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type RPCConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"apiKey"`
}

type IngesterConfig struct {
	FlushThresholdBytes int `mapstructure:"flushThresholdBytes"`
}

type BadgerConfig struct {
	Path string `mapstructure:"path"`
}

type MemoryConfig struct{}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Key             string `mapstructure:"key"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
}

type CheckpointConfig struct {
	Badger *BadgerConfig `mapstructure:"badger"`
	S3     *S3Config     `mapstructure:"s3"`
	Memory *MemoryConfig `mapstructure:"memory"`
}

type LocalSinkConfig struct {
	Dir string `mapstructure:"dir"`
}

type SinkConfig struct {
	Local  *LocalSinkConfig `mapstructure:"local"`
	S3     *S3Config        `mapstructure:"s3"`
	Memory *MemoryConfig    `mapstructure:"memory"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type Config struct {
	RPC        RPCConfig        `mapstructure:"rpc"`
	Log        LogConfig        `mapstructure:"log"`
	Ingester   IngesterConfig   `mapstructure:"ingester"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

var Cfg Config

func LoadConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")

		// config file is optional, flags and env vars may carry everything
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading config file, %s", err)
			}
		}
	}

	// sets e.g. RPC_URL to rpc.url
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}

	return nil
}
