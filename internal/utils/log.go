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

package utils

import (
	loggkg "github.com/api7/gopkg/pkg/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log     *zap.Logger
	bootLog *loggkg.Logger
)

// GetBootLogger returns the logger used while the configuration, and with
// it the log level, is still unknown.
func GetBootLogger() *loggkg.Logger {
	if bootLog == nil {
		logger, err := loggkg.NewLogger(loggkg.WithLogLevel("warn"))
		if err != nil {
			panic(err)
		}
		bootLog = logger
	}
	return bootLog
}

func GetLogger() *zap.Logger {
	if log == nil {
		log = initLogger()
	}
	return log
}

// SetLogger replaces the logger returned by GetLogger.
func SetLogger(logger *zap.Logger) {
	log = logger
}

// NewLogger builds a production logger at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}
