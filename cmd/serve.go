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
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/launchpadhq/assetgate/proxy"
	"github.com/launchpadhq/assetgate/web_ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Launch the asset resolution proxy",
	RunE:  serveMain,
}

func serveMain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := web_ui.GetEngine()
	if err != nil {
		return err
	}
	handler := proxy.NewHandler()
	defer handler.Close()
	handler.RegisterAPI(engine)

	egrp, egrpCtx := errgroup.WithContext(ctx)
	egrp.Go(func() error {
		return web_ui.RunEngine(egrpCtx, engine)
	})

	err = egrp.Wait()
	if err != nil {
		log.Errorln("Fatal error occurred that led to the shutdown of the process:", err)
		return err
	}
	log.Infoln("Asset gateway safely exited")
	return nil
}
