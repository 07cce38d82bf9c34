package check

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mitchellh/cli"
	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/migtest/cmd"
	"github.com/yusufsyaifudin/migtest/pkg/checks"
	"github.com/yusufsyaifudin/migtest/pkg/logger"
	"github.com/yusufsyaifudin/migtest/pkg/runner"
)

type Cmd struct {
	flags      *flag.FlagSet
	out        io.Writer
	appName    string
	appVersion string
	configFile string
	jsonOutput bool
}

func NewCmd(appName, appVersion string) func() (cli.Command, error) {
	return func() (cli.Command, error) {
		c := &Cmd{
			flags:      &flag.FlagSet{},
			out:        os.Stdout,
			appName:    appName,
			appVersion: appVersion,
		}
		err := c.init()
		return c, err
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd("", "")

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet("check", flag.ContinueOnError)
	c.flags.StringVar(&c.configFile, "config", "config.yml",
		"Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml",
		"Alias for config file to load")
	c.flags.BoolVar(&c.jsonOutput, "json", false,
		"Print result as json")
	return nil
}

// SetOutput changes where the check result is printed, default to stdout.
func (c *Cmd) SetOutput(w io.Writer) {
	c.out = w
}

func (c *Cmd) Help() string {
	return `Usage: migtest check [-c config.yml] [-json]

  Run every built-in migration check against the configured database:
  single head revision, upgrade to head, up-down consistency and roundtrip.
  Exit with non zero status when any check fails.`
}

func (c *Cmd) Synopsis() string {
	return `Run built-in migration checks`
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		log.Printf("error parsing config argument: %s", err)
		return cmd.ExitErr
	}

	env, err := cmd.Setup(c.configFile)
	if err != nil {
		log.Println(err)
		return cmd.ExitErr
	}

	defer env.Close()

	ctx := env.Ctx
	logger.Info(ctx, "~ running migration checks", logger.KV("app", c.appName), logger.KV("version", c.appVersion))

	var results []checks.Result
	err = runner.Run(ctx, env.Runner, func(ctx context.Context, r *runner.Runner) error {
		results = checks.RunAll(ctx, r)
		return nil
	})
	if err != nil {
		logger.Error(ctx, "~ error running migration checks", logger.KV("error", err))
		return cmd.ExitErr
	}

	if err = c.print(results); err != nil {
		logger.Error(ctx, "~ error print check result", logger.KV("error", err))
		return cmd.ExitErr
	}

	if len(checks.Failed(results)) > 0 {
		return cmd.ExitErr
	}

	return cmd.ExitSuccess
}

func (c *Cmd) print(results []checks.Result) error {
	if c.jsonOutput {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, result := range results {
		var err error
		if result.Error != "" {
			_, err = fmt.Fprintf(c.out, "FAIL %s: %s\n", result.Name, result.Error)
		} else {
			_, err = fmt.Fprintf(c.out, "PASS %s\n", result.Name)
		}

		if err != nil {
			return err
		}
	}

	return nil
}
