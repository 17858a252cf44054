package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/otterbrix/pgchurn/internal/utils"
)

const (
	outputFlag = "output"
	forceFlag  = "force"

	writeConfigTo = "./config.yaml"
)

func initConfigCMD() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate example config yaml file and save it to " + writeConfigTo,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString(outputFlag)
			force, _ := cmd.Flags().GetBool(forceFlag)
			if err := writeExampleConfig(out, force); err != nil {
				return err
			}
			printInfo("Wrote example config to: %s\n", out)
			return nil
		},
	}
	cmd.Flags().String(outputFlag, writeConfigTo, "Where to write the example config")
	cmd.Flags().Bool(forceFlag, false, "Overwrite an existing file")
	return cmd
}

// exampleConfig renders the defaults of every run flag as YAML, in flag
// order. The starting offset is left out since it comes from the
// environment.
func exampleConfig(fs *pflag.FlagSet) ([]byte, error) {
	settings := yaml.MapSlice{}
	fs.SortFlags = false
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == utils.StartIDKey {
			return
		}
		settings = append(settings, yaml.MapItem{Key: f.Name, Value: typedDefault(f)})
	})
	return yaml.Marshal(settings)
}

// typedDefault keeps numbers and booleans unquoted; everything else, such as
// durations, stays in its flag string form.
func typedDefault(f *pflag.Flag) interface{} {
	switch f.Value.Type() {
	case "bool":
		if b, err := strconv.ParseBool(f.DefValue); err == nil {
			return b
		}
	case "int", "int64", "uint64":
		if n, err := strconv.ParseInt(f.DefValue, 10, 64); err == nil {
			return n
		}
	case "float64":
		if x, err := strconv.ParseFloat(f.DefValue, 64); err == nil {
			return x
		}
	}
	return f.DefValue
}

func writeExampleConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists; use --%s to overwrite it", path, forceFlag)
	}
	b, err := exampleConfig(runCmdFlags())
	if err != nil {
		return errors.Wrap(err, "could not convert example config to yaml")
	}
	if err := ioutil.WriteFile(path, b, 0644); err != nil {
		return errors.Wrapf(err, "could not write sample config to file %s", path)
	}
	return nil
}
