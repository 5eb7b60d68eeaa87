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

package sorting

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricNamespace = "rxcache"
	metricSubsystem = "sorter"
)

type metrics struct {
	batches    *prometheus.CounterVec
	changes    *prometheus.CounterVec
	suppressed prometheus.Counter
}

// newMetrics creates the sorter collectors and registers them to reg. Sorters
// sharing a registry share the collectors. A nil reg leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: metricSubsystem,
			Name:      "batches_total",
			Help:      "Number of sorted change sets emitted, by sort reason",
		}, []string{"sort_reason"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: metricSubsystem,
			Name:      "changes_total",
			Help:      "Number of positioned changes emitted, by change reason",
		}, []string{"reason"}),
		suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: metricSubsystem,
			Name:      "suppressed_total",
			Help:      "Number of inputs that produced nothing to emit",
		}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.batches, err = registerCounterVec(reg, m.batches); err != nil {
		return nil, err
	}
	if m.changes, err = registerCounterVec(reg, m.changes); err != nil {
		return nil, err
	}
	if err = reg.Register(m.suppressed); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.suppressed = are.ExistingCollector.(prometheus.Counter)
	}
	return m, nil
}

func registerCounterVec(reg prometheus.Registerer, cv *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(cv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		return are.ExistingCollector.(*prometheus.CounterVec), nil
	}
	return cv, nil
}
