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
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"

	"github.com/api7/rxcache/sorting"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"

	ByValue = "value"
	ByKey   = "key"
)

type logConfig struct {
	Level string `mapstructure:"level"`
}

type sortConfig struct {
	ResetThreshold        int    `mapstructure:"reset_threshold"`
	IgnoreRefreshMoves    bool   `mapstructure:"ignore_refresh_moves"`
	AssumeStablePositions bool   `mapstructure:"assume_stable_positions"`
	Order                 string `mapstructure:"order"`
	By                    string `mapstructure:"by"`
}

type config struct {
	Log  logConfig  `mapstructure:"log"`
	Sort sortConfig `mapstructure:"sort"`
}

// Optimisations maps the flags to sorting options.
func (s sortConfig) Optimisations() sorting.SortOptimisations {
	var o sorting.SortOptimisations
	if s.AssumeStablePositions {
		o |= sorting.AssumeStablePositions
	}
	if s.IgnoreRefreshMoves {
		o |= sorting.IgnoreRefreshMoves
	}
	return o
}

func (c *config) validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	if c.Sort.ResetThreshold < 0 {
		return errors.Errorf("sort.reset_threshold must not be negative, got %d", c.Sort.ResetThreshold)
	}
	switch c.Sort.Order {
	case OrderAsc, OrderDesc:
	default:
		return errors.Errorf("sort.order must be %q or %q, got %q", OrderAsc, OrderDesc, c.Sort.Order)
	}
	switch c.Sort.By {
	case ByValue, ByKey:
	default:
		return errors.Errorf("sort.by must be %q or %q, got %q", ByValue, ByKey, c.Sort.By)
	}
	return nil
}
