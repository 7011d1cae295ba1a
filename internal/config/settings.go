package config

import (
	"github.com/spf13/viper"

	"github.com/koban-io/koban/internal/common"
)

// Storage backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Settings is the resolved application configuration.
type Settings struct {
	DataDir  string
	Backend  string
	AMQPURL  string
	Exchange string
}

// FromViper reads the settings out of the global viper instance, applying
// defaults for anything unset.
func FromViper() (Settings, error) {
	s := Settings{
		DataDir:  ExpandPath(viper.GetString("data.dir")),
		Backend:  viper.GetString("data.backend"),
		AMQPURL:  viper.GetString("sync.amqp_url"),
		Exchange: viper.GetString("sync.exchange"),
	}
	if s.DataDir == "" {
		s.DataDir = DefaultDataDir()
	}
	if s.Backend == "" {
		s.Backend = BackendFile
	}
	if s.Exchange == "" {
		s.Exchange = "koban.state"
	}
	if s.Backend != BackendFile && s.Backend != BackendSQLite {
		return Settings{}, common.ErrInvalidConfig
	}
	return s, nil
}
