// Copyright api7.ai
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package config

import (
	"strings"

	loggkg "github.com/api7/gopkg/pkg/log"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "RXC"

var (
	// Config is the configuration loaded by Init.
	Config *config
)

// Init loads the config file into Config. An empty configFile searches for
// config.yaml under ./config and the working directory, and a missing file
// there just leaves the defaults in place.
func Init(configFile string, logger *loggkg.Logger) error {
	c, err := Load(configFile)
	if err != nil {
		logger.Errorw("Config file load failed", zap.Error(err))
		return err
	}
	logger.Infow("Config file load successful",
		zap.String("path", configFile),
		zap.String("log_level", c.Log.Level),
		zap.Int("reset_threshold", c.Sort.ResetThreshold),
		zap.Stringer("optimisations", c.Sort.Optimisations()),
	)
	Config = c
	return nil
}

// Load reads and validates a config without touching Config.
func Load(configFile string) (*config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("config")
		v.AddConfigPath(".")
	}
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	c := &config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("sort.reset_threshold", 0)
	v.SetDefault("sort.ignore_refresh_moves", false)
	v.SetDefault("sort.assume_stable_positions", false)
	v.SetDefault("sort.order", OrderAsc)
	v.SetDefault("sort.by", ByValue)
}
