/*
Copyright © 2022 API7.ai

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/api7/rxcache/cache"
	"github.com/api7/rxcache/changeset"
	"github.com/api7/rxcache/internal/config"
	"github.com/api7/rxcache/internal/utils"
	"github.com/api7/rxcache/sorting"
	"github.com/api7/rxcache/stream"
)

const (
	opPut      = "put"
	opRemove   = "remove"
	opRefresh  = "refresh"
	opMutate   = "mutate"
	opClear    = "clear"
	opComparer = "comparer"
	opResort   = "resort"
)

// entry is the value type replay scripts work with. Entries are held by
// pointer so that mutate can change them in place.
type entry struct {
	Key   string
	Label string
	Score int
}

func (e *entry) String() string {
	if e.Label == "" {
		return fmt.Sprintf("%d", e.Score)
	}
	return fmt.Sprintf("%s:%d", e.Label, e.Score)
}

type step struct {
	Op    string   `yaml:"op"`
	Key   string   `yaml:"key"`
	Keys  []string `yaml:"keys"`
	Score int      `yaml:"score"`
	Label string   `yaml:"label"`
	Order string   `yaml:"order"`
	By    string   `yaml:"by"`
}

type script struct {
	// PendingComparer starts the sorter without a comparer, data is held
	// back until the first comparer step.
	PendingComparer bool   `yaml:"pending_comparer"`
	Steps           []step `yaml:"steps"`
}

func newReplayCommand() *cobra.Command {
	var dump, metrics bool
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Apply the steps of a script and print every sorted change set.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadScript(args[0])
			if err != nil {
				return err
			}
			r, err := newReplayer(s, cmd.OutOrStdout(), dump)
			if err != nil {
				return err
			}
			if err := r.run(s.Steps); err != nil {
				return err
			}
			if metrics {
				return r.printMetrics()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the sorted items after every emission")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print the sorter counters after the replay")
	return cmd
}

func loadScript(path string) (*script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read script")
	}
	var s script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse script")
	}
	for i, st := range s.Steps {
		switch st.Op {
		case opPut, opMutate:
			if st.Key == "" {
				return nil, errors.Errorf("step %d: %s needs a key", i+1, st.Op)
			}
		case opRemove, opRefresh, opClear, opComparer, opResort:
		default:
			return nil, errors.Errorf("step %d: unknown op %q", i+1, st.Op)
		}
	}
	return &s, nil
}

type replayer struct {
	source   *stream.Source[string, *entry]
	sorter   *sorting.Sorter[string, *entry]
	registry *prometheus.Registry
	out      io.Writer
	dump     bool
	logger   *zap.Logger
}

func newReplayer(s *script, out io.Writer, dump bool) (*replayer, error) {
	logger := utils.GetLogger()
	var comparer *sorting.KeyValueComparer[string, *entry]
	if !s.PendingComparer {
		c, err := newComparer("", "")
		if err != nil {
			return nil, err
		}
		comparer = c
	}
	registry := prometheus.NewRegistry()
	sorter, err := sorting.NewSorter(comparer, &sorting.Options{
		Logger:         logger,
		Optimisations:  config.Config.Sort.Optimisations(),
		ResetThreshold: config.Config.Sort.ResetThreshold,
		Prom:           registry,
	})
	if err != nil {
		return nil, err
	}
	return &replayer{
		source:   stream.NewSource[string, *entry](logger),
		sorter:   sorter,
		registry: registry,
		out:      out,
		dump:     dump,
		logger:   logger,
	}, nil
}

// newComparer falls back to the configured order and field for empty
// arguments.
func newComparer(order, by string) (*sorting.KeyValueComparer[string, *entry], error) {
	if order == "" {
		order = config.Config.Sort.Order
	}
	if by == "" {
		by = config.Config.Sort.By
	}

	var c sorting.Comparer[*entry]
	switch by {
	case config.ByValue:
		c = sorting.Ascending(func(e *entry) int { return e.Score })
	case config.ByKey:
		c = sorting.Ascending(func(e *entry) string { return e.Key })
	default:
		return nil, errors.Errorf("unknown sort field %q", by)
	}
	switch order {
	case config.OrderAsc:
	case config.OrderDesc:
		c = c.Reverse()
	default:
		return nil, errors.Errorf("unknown sort order %q", order)
	}
	return sorting.NewKeyValueComparer[string](c), nil
}

func (r *replayer) run(steps []step) error {
	for i, st := range steps {
		result, err := r.apply(st)
		if err != nil {
			return errors.Wrapf(err, "step %d (%s)", i+1, st.Op)
		}
		r.print(i+1, st, result)
	}
	return nil
}

func (r *replayer) apply(st step) (*sorting.SortedChangeSet[string, *entry], error) {
	var changes *changeset.ChangeSet[string, *entry]
	switch st.Op {
	case opPut:
		changes = r.source.Edit(func(u *cache.Updater[string, *entry]) {
			u.AddOrUpdate(&entry{Key: st.Key, Label: st.Label, Score: st.Score}, st.Key)
		})
	case opRemove:
		changes = r.source.Edit(func(u *cache.Updater[string, *entry]) {
			u.Remove(st.keys()...)
		})
	case opRefresh:
		changes = r.source.Edit(func(u *cache.Updater[string, *entry]) {
			u.Refresh(st.keys()...)
		})
	case opClear:
		changes = r.source.Edit(func(u *cache.Updater[string, *entry]) {
			u.Clear()
		})
	case opMutate:
		e, ok := r.source.Lookup(st.Key).Value()
		if !ok {
			return nil, errors.Errorf("key %s is missing", st.Key)
		}
		// in place, the sorted view only notices on refresh or resort
		e.Score = st.Score
		if st.Label != "" {
			e.Label = st.Label
		}
		r.logger.Debug("entry mutated in place",
			zap.String("key", st.Key),
			zap.Int("score", st.Score),
		)
		return nil, nil
	case opComparer:
		c, err := newComparer(st.Order, st.By)
		if err != nil {
			return nil, err
		}
		return r.sorter.ChangeComparer(c)
	case opResort:
		return r.sorter.Resort()
	}
	return r.sorter.Sort(changes)
}

func (st step) keys() []string {
	if st.Key != "" {
		return append([]string{st.Key}, st.Keys...)
	}
	return st.Keys
}

func (r *replayer) print(n int, st step, result *sorting.SortedChangeSet[string, *entry]) {
	label := st.Op
	if st.Key != "" {
		label += " " + st.Key
	}
	if result == nil {
		fmt.Fprintf(r.out, "#%d %s: -\n", n, label)
		return
	}
	fmt.Fprintf(r.out, "#%d %s: %s %s\n", n, label, result.SortReason(), result.ChangeSet)
	if r.dump {
		fmt.Fprint(r.out, spew.Sdump(result.SortedItems()))
	}
}

// printMetrics writes every counter sample as name{labels} value.
func (r *replayer) printMetrics() error {
	families, err := r.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			fmt.Fprintf(r.out, "%s %g\n", name, m.GetCounter().GetValue())
		}
	}
	return nil
}
