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

package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Viper keys understood by the asset gateway. Defaults are seeded by
// InitConfig; every key can be overridden via an assetgate.yaml file or an
// ASSETGATE_-prefixed environment variable (dots become underscores).
const (
	ServerAddress = "Server.Address"
	ServerPort    = "Server.Port"

	LoggingLevel = "Logging.Level"

	// Provider.Token is the opaque credential blob handed to us by the
	// deployment environment; credentials.Resolve knows its encodings.
	ProviderToken         = "Provider.Token"
	ProviderLegacySecret  = "Provider.LegacySecret"
	ProviderLegacyAppId   = "Provider.LegacyAppId"
	ProviderApiBase       = "Provider.ApiBase"
	ProviderAppHostSuffix = "Provider.AppHostSuffix"
	ProviderPublicHosts   = "Provider.PublicHosts"
	ProviderHostMarkers   = "Provider.HostMarkers"

	ProxyCatalogTTL      = "Proxy.CatalogTTL"
	ProxyFormatTTL       = "Proxy.FormatTTL"
	ProxyTombstoneTTL    = "Proxy.TombstoneTTL"
	ProxyProbeTimeout    = "Proxy.ProbeTimeout"
	ProxyRequestTimeout  = "Proxy.RequestTimeout"
	ProxyMinPlausibleLen = "Proxy.MinPlausibleIDLength"
)

// InitConfig seeds defaults, wires environment overrides, and reads an
// optional config file. Safe to call more than once (viper is idempotent
// about defaults), which the unit tests rely on after viper.Reset().
func InitConfig() error {
	viper.SetDefault(ServerAddress, "0.0.0.0")
	viper.SetDefault(ServerPort, 8475)

	viper.SetDefault(LoggingLevel, "info")

	viper.SetDefault(ProviderToken, "")
	viper.SetDefault(ProviderLegacySecret, "")
	viper.SetDefault(ProviderLegacyAppId, "oq854trbes")
	viper.SetDefault(ProviderApiBase, "https://api.uploadthing.com")
	viper.SetDefault(ProviderAppHostSuffix, "ufs.sh")
	viper.SetDefault(ProviderPublicHosts, []string{"uploadthing.com", "utfs.io"})
	viper.SetDefault(ProviderHostMarkers, []string{"ufs.sh", "uploadthing", "utfs.io"})

	viper.SetDefault(ProxyCatalogTTL, 5*time.Minute)
	viper.SetDefault(ProxyFormatTTL, 5*time.Minute)
	viper.SetDefault(ProxyTombstoneTTL, 24*time.Hour)
	viper.SetDefault(ProxyProbeTimeout, 3*time.Second)
	viper.SetDefault(ProxyRequestTimeout, 30*time.Second)
	viper.SetDefault(ProxyMinPlausibleLen, 10)

	viper.SetEnvPrefix("ASSETGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The original deployment exported the provider credential under these
	// names; keep them working so a cutover needs no secret changes.
	_ = viper.BindEnv(ProviderToken, "ASSETGATE_PROVIDER_TOKEN", "UPLOADTHING_TOKEN")
	_ = viper.BindEnv(ProviderLegacySecret, "ASSETGATE_PROVIDER_LEGACYSECRET", "UPLOADTHING_SECRET")
	_ = viper.BindEnv(ProviderLegacyAppId, "ASSETGATE_PROVIDER_LEGACYAPPID", "UPLOADTHING_APP_ID")

	viper.SetConfigName("assetgate")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/assetgate")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "failed to read config file")
		}
	}

	return SetLogging()
}

// SetLogging applies the configured logrus level. The Debug flag wins over
// Logging.Level.
func SetLogging() error {
	if viper.GetBool("Debug") {
		log.SetLevel(log.DebugLevel)
		return nil
	}
	levelStr := viper.GetString(LoggingLevel)
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", levelStr)
	}
	log.SetLevel(level)
	return nil
}
