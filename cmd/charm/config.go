package main

import (
	"errors"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	charmerrors "github.com/wippyai/charm/errors"
	"github.com/wippyai/charm/printer"
)

// initConfig layers configuration: flags, then CHARM_* environment
// variables (CLASSPATH also sets classpath), then the config file.
func (a *app) initConfig() error {
	v := a.v
	v.SetEnvPrefix("charm")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("classpath", "CHARM_CLASSPATH", "CLASSPATH"); err != nil {
		return err
	}

	explicit := v.GetString("config")
	if explicit != "" {
		path, err := homedir.Expand(explicit)
		if err != nil {
			return charmerrors.Wrap(charmerrors.PhaseLoad, charmerrors.KindInvalidInput, err, "config path")
		}
		v.SetConfigFile(path)
	} else {
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".charm")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return charmerrors.Wrap(charmerrors.PhaseLoad, charmerrors.KindInvalidInput, err, "read config")
		}
	}
	return nil
}

func (a *app) style() (printer.Style, error) {
	return printer.ParseStyle(a.v.GetString("style"))
}
