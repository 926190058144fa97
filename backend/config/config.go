// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    Server
	Database  Database
	Redis     Redis
	JWT       JWT
	Lifecycle Lifecycle
}

type Server struct {
	Port string
}

type Database struct {
	URL string
}

type Redis struct {
	Addr string
}

type JWT struct {
	Secret string
	Issuer string
}

// Lifecycle carries the timing knobs of the disappearance engine.
type Lifecycle struct {
	// ActivityWindow bounds how long a presence lease stays live after its
	// last renewal.
	ActivityWindow time.Duration
	// HeartbeatInterval is the recommended client renewal period, half the
	// activity window so one missed heartbeat never expires a lease.
	HeartbeatInterval time.Duration
	// SweepPeriod is the periodic full-sweep cadence; it also caps how long
	// a failed triggered sweep stays unrepaired.
	SweepPeriod time.Duration
	// DebounceDelay coalesces rapid view/presence triggers per conversation.
	DebounceDelay time.Duration
	// LeaveSweepDelay runs after a conversation exit, long enough for a
	// straggler heartbeat to land before presence is checked.
	LeaveSweepDelay time.Duration
	// DeletionLogTTL bounds the fallback deletion log per conversation.
	DeletionLogTTL time.Duration
}

// Load reads an optional config/vanish.yaml and lets VANISH_* environment
// variables override every key.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8081")
	v.SetDefault("database.url", "postgres://localhost/vanish?sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "vanish")
	v.SetDefault("lifecycle.activitywindow", 30*time.Second)
	v.SetDefault("lifecycle.heartbeatinterval", 15*time.Second)
	v.SetDefault("lifecycle.sweepperiod", 30*time.Second)
	v.SetDefault("lifecycle.debouncedelay", 2*time.Second)
	v.SetDefault("lifecycle.leavesweepdelay", 10*time.Second)
	v.SetDefault("lifecycle.deletionlogttl", 10*time.Minute)

	v.SetConfigName("vanish")
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No file is fine, defaults plus env carry a deployment.
	}

	v.SetEnvPrefix("VANISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
