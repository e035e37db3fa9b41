package ssorefresh

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/common-fate/clio"
	"github.com/urfave/cli/v2"

	"github.com/common-fate/ssorefresh/internal/build"
	"github.com/common-fate/ssorefresh/pkg/cfaws"
	"github.com/common-fate/ssorefresh/pkg/config"
)

var SettingsCommand = cli.Command{
	Name:        "settings",
	Usage:       "Manage " + build.BinaryName() + " settings",
	Subcommands: []*cli.Command{&PrintCommand, &SetCommand},
	Action:      PrintCommand.Action,
}

var PrintCommand = cli.Command{
	Name:  "print",
	Usage: "List settings",
	Action: func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path, err := config.ConfigFilePath()
		if err != nil {
			return err
		}
		cacheDir, err := ssoCacheDir(c, cfg)
		if err != nil {
			return err
		}
		printSettings(os.Stderr, path, cfg, cacheDir)
		return nil
	},
}

func printSettings(w io.Writer, path string, cfg *config.Config, cacheDir string) {
	defaultRegion := cfg.DefaultRegion
	if defaultRegion == "" {
		defaultRegion = cfaws.DefaultRegion
	}
	data := [][]string{
		{"config file", path},
		{"DefaultRegion", defaultRegion},
		{"SSOCacheDir", cacheDir},
		{"LoginCommand", shellescape.QuoteCommand(cfg.Login())},
		{"SettleDelay", cfg.SettleDelay},
	}

	table := newTable(w)
	table.SetHeader([]string{"SETTING", "VALUE"})
	table.SetRowLine(true)
	table.AppendBulk(data)
	table.Render()
}

var SetCommand = cli.Command{
	Name:      "set",
	Usage:     "Set a value in settings",
	ArgsUsage: "<setting> <value>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("expected a setting and a value, e.g. '%s settings set SettleDelay 5s'", build.BinaryName())
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		name, value := c.Args().Get(0), c.Args().Get(1)
		if err := setField(cfg, name, value); err != nil {
			return err
		}
		if err := validate(cfg); err != nil {
			return err
		}

		clio.Infof("Updating the value of %s to %v", name, value)
		if err := cfg.Save(); err != nil {
			return err
		}
		clio.Success("Config updated successfully")
		return nil
	},
}

// fieldOptions maps the name of each string or string slice field of the config to its value.
func fieldOptions(cfg *config.Config) map[string]reflect.Value {
	configType := reflect.TypeOf(cfg).Elem()
	configValue := reflect.ValueOf(cfg).Elem()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < configType.NumField(); i++ {
		f := configType.Field(i)
		switch {
		case f.Type.Kind() == reflect.String:
			fieldMap[f.Name] = configValue.Field(i)
		case f.Type.Kind() == reflect.Slice && f.Type.Elem().Kind() == reflect.String:
			fieldMap[f.Name] = configValue.Field(i)
		}
	}
	return fieldMap
}

// setField sets a config field by name. String slices are split on whitespace.
func setField(cfg *config.Config, name string, value string) error {
	fields := fieldOptions(cfg)
	field, ok := fields[name]
	if !ok {
		names := make([]string, 0, len(fields))
		for k := range fields {
			names = append(names, k)
		}
		sort.Strings(names)
		return fmt.Errorf("%s is not a valid setting, valid settings are: %s", name, strings.Join(names, ", "))
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Slice:
		field.Set(reflect.ValueOf(strings.Fields(value)))
	}
	return nil
}

func validate(cfg *config.Config) error {
	if _, err := cfg.SettleDelayDuration(); err != nil {
		return err
	}
	if cfg.DefaultRegion != "" {
		if _, err := cfaws.ExpandRegion(cfg.DefaultRegion); err != nil {
			return err
		}
	}
	return nil
}
