/***************************************************************
 *
 * Copyright (C) 2026, LaunchpadHQ, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you
 * may not use this file except in compliance with the License.  You may
 * obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 ***************************************************************/

package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/launchpadhq/assetgate/config"
)

var (
	rootCmd = &cobra.Command{
		Use:   "assetgate",
		Short: "Resolve and proxy provider-hosted assets",
		Long: `assetgate resolves client-supplied references to files stored on the
upstream CDN provider, working around the provider's historical addressing
inconsistencies and listing lag, and proxies the winning URL back to the
caller.`,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if err := config.InitConfig(); err != nil {
		log.Fatalln("Failed to initialize configuration:", err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(serveCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logs")
	if err := viper.BindPFlag("Debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(err)
	}

	serveCmd.Flags().Uint16P("port", "p", 0, "Set the port at which the web server should be accessible")
	if err := viper.BindPFlag(config.ServerPort, serveCmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
}
