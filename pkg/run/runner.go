/*
   AdvUID - NFC tag UID emulation controller
   Copyright (c) 2023, Alexander Vollschwitz

   This file is part of AdvUID.

   AdvUID is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   AdvUID is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with AdvUID. If not, see <http://www.gnu.org/licenses/>.
*/

package run

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that can be used instead
// of command line flags, e.g. ADVUID_ADDRESS for --address.
const EnvPrefix = "ADVUID"

// DefaultAddress is where the daemon's control API listens by default.
const DefaultAddress = "localhost:8888"

// ConfigName is the base name of the optional config file, searched for in
// the working and home directory.
const ConfigName = ".advuid"

const runnerHelpEpilogue = `- Settings can also be made via environment variables. The variable name is the
  flag name in capital letters, prefixed with ADVUID_, and with dashes replaced
  by underscores, e.g. ADVUID_ADDRESS for --address. A config file named
  .advuid.yaml in the working or home directory is read as well. Flags take
  precedence over environment, environment over config file.

`

// NewRunner creates a runner for a command. exec is called after settings
// are parsed.
func NewRunner(use, short, long, example, epilogue string,
	exec func() error) *Runner {

	r := &Runner{
		Command: cobra.Command{
			Use:           use,
			Short:         short,
			Long:          long,
			Example:       example,
			SilenceUsage:  true,
			SilenceErrors: true,
		},
		exec:     exec,
		viper:    viper.New(),
		required: map[string]bool{},
	}

	if epilogue != "" {
		r.SetUsageTemplate(r.UsageTemplate() + "\nNotes:\n" + epilogue)
	}

	r.RunE = func(cmd *cobra.Command, args []string) error {
		if err := r.readConfig(); err != nil {
			return err
		}
		if err := r.setupLogging(); err != nil {
			return err
		}
		defer r.closeLog()
		if f := r.viper.ConfigFileUsed(); f != "" {
			log.Debugf("using config file %s", f)
		}
		return r.exec()
	}

	r.viper.SetEnvPrefix(EnvPrefix)
	r.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	r.viper.AutomaticEnv()
	r.viper.SetConfigName(ConfigName)
	r.viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		r.viper.AddConfigPath(home)
	}

	r.AddSetting(&r.logLevel, "log-level", "", "", "info",
		"log level (trace, debug, info, warn, error)", false)
	r.AddSetting(&r.logFormat, "log-format", "", "", "text",
		"log format (text, json)", false)
	r.AddSetting(&r.logTarget, "log-file", "", "", nil,
		"write log to this file instead of stderr", false)

	return r
}

// Runner is the base of all commands. It handles settings from flags,
// environment, and config file, sets up logging, and talks to the daemon's
// control API.
type Runner struct {
	cobra.Command
	//
	Address string
	//
	exec     func() error
	viper    *viper.Viper
	required map[string]bool
	// bound before the runner gets copied, so only read via viper
	logLevel  string
	logFormat string
	logTarget string
	logFile   *os.File
}

// AddBaseSettings adds the settings every command talking to the daemon
// needs.
func (r *Runner) AddBaseSettings() {
	r.AddSetting(&r.Address, "address", "a", "", DefaultAddress,
		"listen address and port of daemon's API server", false)
}

// AddSetting adds a flag for the setting referenced by ref. If env is not
// empty, the setting is also bound to that environment variable, in addition
// to the prefixed flag name. A nil dflt means the zero value.
func (r *Runner) AddSetting(ref interface{}, name, short, env string,
	dflt interface{}, usage string, required bool) {

	flags := r.Flags()

	switch v := ref.(type) {

	case *string:
		d := ""
		if dflt != nil {
			d = dflt.(string)
		}
		flags.StringVarP(v, name, short, d, usage)

	case *int:
		d := 0
		if dflt != nil {
			d = dflt.(int)
		}
		flags.IntVarP(v, name, short, d, usage)

	case *bool:
		d := false
		if dflt != nil {
			d = dflt.(bool)
		}
		flags.BoolVarP(v, name, short, d, usage)

	case *time.Duration:
		var d time.Duration
		if dflt != nil {
			d = dflt.(time.Duration)
		}
		flags.DurationVarP(v, name, short, d, usage)

	default:
		log.Fatalf("unsupported setting type for '%s': %T", name, ref)
	}

	if err := r.viper.BindPFlag(name, flags.Lookup(name)); err != nil {
		log.Fatalf("cannot bind setting '%s': %v", name, err)
	}
	if env != "" {
		if err := r.viper.BindEnv(name, env); err != nil {
			log.Fatalf("cannot bind setting '%s' to %s: %v", name, env, err)
		}
	}

	if required {
		r.required[name] = true
	}
}

// ParseSettings fills in settings not given on the command line from
// environment and config file, and checks that required settings are there.
func (r *Runner) ParseSettings() error {

	var missing []string

	r.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && r.viper.IsSet(f.Name) {
			val := r.viper.GetString(f.Name)
			if err := f.Value.Set(val); err != nil {
				log.Warnf("ignoring invalid value '%s' for %s: %v", val, f.Name, err)
			} else {
				f.Changed = true
			}
		}
		if r.required[f.Name] && !f.Changed {
			missing = append(missing, "--"+f.Name)
		}
	})

	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	return nil
}

// IsSet reports whether a setting was given, on the command line or through
// environment or config file. Only valid after ParseSettings.
func (r *Runner) IsSet(name string) bool {
	f := r.Flags().Lookup(name)
	return f != nil && f.Changed
}

// readConfig reads the config file, if there is one.
func (r *Runner) readConfig() error {
	if err := r.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("cannot read config file: %v", err)
		}
	}
	return nil
}

//
func (r *Runner) setupLogging() error {

	level, err := log.ParseLevel(r.viper.GetString("log-level"))
	if err != nil {
		return err
	}
	log.SetLevel(level)

	switch format := r.viper.GetString("log-format"); format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format: %s", format)
	}

	if file := r.viper.GetString("log-file"); file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %v", err)
		}
		r.logFile = f
		log.SetOutput(f)
	}

	return nil
}

// LogsToFile reports whether log output goes to a file.
func (r *Runner) LogsToFile() bool {
	return r.viper.GetString("log-file") != ""
}

//
func (r *Runner) closeLog() {
	if r.logFile != nil {
		log.SetOutput(os.Stderr)
		r.logFile.Close()
		r.logFile = nil
	}
}

// apiCall sends a request to the daemon's control API. The returned body
// needs to be closed by the caller. Responses other than 2xx are turned into
// errors carrying the response message.
func (r *Runner) apiCall(method, path string, json bool,
	body io.Reader) (io.ReadCloser, error) {

	req, err := http.NewRequest(method,
		fmt.Sprintf("http://%s%s", r.Address, path), body)
	if err != nil {
		return nil, err
	}

	if json {
		req.Header.Set("Accept", "application/json")
	}

	log.WithFields(log.Fields{"method": method, "path": path}).Debug("API call")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	return resp.Body, nil
}

// GetUserConfirmation asks the user a yes/no question on the terminal.
func GetUserConfirmation(prompt string) bool {

	fmt.Printf("%s [y/N]: ", prompt)

	in := bufio.NewReader(os.Stdin)
	answer, err := in.ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
