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
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/api7/rxcache/internal/config"
	"github.com/api7/rxcache/internal/utils"
)

// NewRootCommand builds the rxcache command tree.
func NewRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "rxcache",
		Short:         "Replay change streams through a change aware cache and its sorted view.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// initialize configuration
			if err := config.Init(configFile, utils.GetBootLogger()); err != nil {
				return err
			}
			logger, err := utils.NewLogger(config.Config.Log.Level)
			if err != nil {
				return err
			}
			utils.SetLogger(logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// declare flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.AddCommand(newReplayCommand())
	return rootCmd
}

// Execute bootstrap root command.
func Execute() {
	err := NewRootCommand().Execute()
	_ = utils.GetLogger().Sync()
	if err != nil {
		utils.GetLogger().Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
