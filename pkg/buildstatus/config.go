package buildstatus

import (
	"errors"
	"io"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type configYaml struct {
	File string `yaml:"file" default:"."`

	MaxRebuilds *int    `yaml:"maxRebuilds"`
	FailureLine *string `yaml:"failureLine"`

	OnSuccess            string `yaml:"onSuccess" default:"good"`
	OnFailure            string `yaml:"onFailure" default:"bad"`
	OnDependencyFailure  string `yaml:"onDependencyFailure" default:"skip"`
	OnFailureWithoutLine string `yaml:"onFailureWithoutLine" default:"skip"`
	OnResourceLimit      string `yaml:"onResourceLimit" default:"skip"`
}

// Config holds everything a status query needs to know. It is constructed once and passed down unchanged.
type Config struct {
	File string // The definition file targets get instantiated in

	MaxRebuilds *int    // How many builds a query may attempt, or nil if unlimited
	FailureLine *string // A line the build log has to contain for a failed build to count as a failure, or nil if any failure counts

	Actions ActionTable // The action to take for each classification
}

// DefaultConfig returns the config used if nothing else was specified
func DefaultConfig() Config {
	return Config{
		File:    ".",
		Actions: DefaultActionTable,
	}
}

// GetConfigFromYaml reads in a status query config in yaml format from a reader.
// Fields missing in the yaml are set to the values of [DefaultConfig].
func GetConfigFromYaml(r io.Reader) (Config, error) {
	var config configYaml

	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := defaults.Set(&config); err != nil {
		return Config{}, err
	}

	actions := ActionTable{}
	for _, field := range []struct {
		name   string
		action *Action
	}{
		{config.OnSuccess, &actions.OnSuccess},
		{config.OnFailure, &actions.OnFailure},
		{config.OnDependencyFailure, &actions.OnDependencyFailure},
		{config.OnFailureWithoutLine, &actions.OnFailureWithoutLine},
		{config.OnResourceLimit, &actions.OnResourceLimit},
	} {
		action, err := ParseAction(field.name)
		if err != nil {
			return Config{}, err
		}
		*field.action = action
	}

	return Config{
		File: config.File,

		MaxRebuilds: config.MaxRebuilds,
		FailureLine: config.FailureLine,

		Actions: actions,
	}, nil
}
