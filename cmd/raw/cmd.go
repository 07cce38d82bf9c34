package raw

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/migtest/cmd"
	"github.com/yusufsyaifudin/migtest/pkg/command"
	"github.com/yusufsyaifudin/migtest/pkg/logger"
	"github.com/yusufsyaifudin/migtest/pkg/runner"
)

type Cmd struct {
	flags      *flag.FlagSet
	out        io.Writer
	configFile string
}

func NewCmd() func() (cli.Command, error) {
	return func() (cli.Command, error) {
		c := &Cmd{
			out: os.Stdout,
		}

		c.flags = flag.NewFlagSet("raw", flag.ContinueOnError)
		c.flags.StringVar(&c.configFile, "config", "config.yml", "Config file to load")
		c.flags.StringVar(&c.configFile, "c", "config.yml", "Alias for config file to load")
		return c, nil
	}
}

var _ cli.Command = (*Cmd)(nil)

func (c *Cmd) SetOutput(w io.Writer) {
	c.out = w
}

func (c *Cmd) Help() string {
	return `Usage: migtest raw [-c config.yml] <command> [args...]

  Run one migration command directly, without any data seeding:

    upgrade <target>      target is a revision, head, heads or +N
    downgrade <target>    target is a revision, base or -N
    history
    heads
    current
    revision <message>    prints the revision that would be created, writes nothing`
}

func (c *Cmd) Synopsis() string {
	return `Run a raw migration command`
}

func (c *Cmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		log.Printf("error parsing config argument: %s", err)
		return cmd.ExitErr
	}

	if c.flags.NArg() < 1 {
		log.Println("missing command name")
		return cli.RunResultHelp
	}

	migCmd, err := command.ParseCommand(c.flags.Arg(0), c.flags.Args()[1:]...)
	if err != nil {
		log.Println(err)
		return cmd.ExitErr
	}

	env, err := cmd.Setup(c.configFile)
	if err != nil {
		log.Println(err)
		return cmd.ExitErr
	}

	defer env.Close()

	var out interface{}
	err = runner.Run(env.Ctx, env.Runner, func(ctx context.Context, r *runner.Runner) error {
		// revision goes through the runner so nothing is written to disk
		if rev, ok := migCmd.(command.Revision); ok {
			var directives command.Directives
			rev.Options.Hook = func(_ context.Context, _ command.RevisionContext, d *command.Directives) (command.HookResult, error) {
				directives = *d
				return command.Continue, nil
			}

			if _, err := r.GenerateRevision(ctx, rev.Options); err != nil {
				return err
			}

			out = directives
			return nil
		}

		out, err = r.RawCommand(ctx, migCmd)
		return err
	})
	if err != nil {
		logger.Error(env.Ctx, "~ error running migration command", logger.KV("command", migCmd.Name()), logger.KV("error", err))
		return cmd.ExitErr
	}

	if err = c.print(out); err != nil {
		logger.Error(env.Ctx, "~ error print command result", logger.KV("error", err))
		return cmd.ExitErr
	}

	return cmd.ExitSuccess
}

func (c *Cmd) print(out interface{}) error {
	switch v := out.(type) {
	case nil:
		return nil
	case []string:
		_, err := fmt.Fprintln(c.out, strings.Join(v, "\n"))
		return err
	default:
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
