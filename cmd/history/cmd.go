package history

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
	"github.com/yusufsyaifudin/migtest/pkg/logger"
	"github.com/yusufsyaifudin/migtest/pkg/runner"
)

// Entry is one revision in json output.
type Entry struct {
	Revision string `json:"revision"`
	Parent   string `json:"parent"`
	Current  bool   `json:"current,omitempty"`
}

type Cmd struct {
	flags      *flag.FlagSet
	out        io.Writer
	configFile string
	jsonOutput bool
}

func NewCmd() func() (cli.Command, error) {
	return func() (cli.Command, error) {
		c := &Cmd{
			out: os.Stdout,
		}

		c.flags = flag.NewFlagSet("history", flag.ContinueOnError)
		c.flags.StringVar(&c.configFile, "config", "config.yml", "Config file to load")
		c.flags.StringVar(&c.configFile, "c", "config.yml", "Alias for config file to load")
		c.flags.BoolVar(&c.jsonOutput, "json", false, "Print history as json")
		return c, nil
	}
}

var _ cli.Command = (*Cmd)(nil)

func (c *Cmd) SetOutput(w io.Writer) {
	c.out = w
}

func (c *Cmd) Help() string {
	return `Usage: migtest history [-c config.yml] [-json]

  Print migration history from the newest revision, marking the current one.`
}

func (c *Cmd) Synopsis() string {
	return `Print migration history`
}

func (c *Cmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		log.Printf("error parsing config argument: %s", err)
		return cmd.ExitErr
	}

	env, err := cmd.Setup(c.configFile)
	if err != nil {
		log.Println(err)
		return cmd.ExitErr
	}

	defer env.Close()

	var entries []Entry
	err = runner.Run(env.Ctx, env.Runner, func(ctx context.Context, r *runner.Runner) error {
		entries, err = read(ctx, r)
		return err
	})
	if err != nil {
		logger.Error(env.Ctx, "~ error read migration history", logger.KV("error", err))
		return cmd.ExitErr
	}

	if err = c.print(entries); err != nil {
		logger.Error(env.Ctx, "~ error print history", logger.KV("error", err))
		return cmd.ExitErr
	}

	return cmd.ExitSuccess
}

// read returns entries newest first.
func read(ctx context.Context, r *runner.Runner) ([]Entry, error) {
	h, err := r.History(ctx)
	if err != nil {
		return nil, err
	}

	current, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}

	revisions := h.Revisions()
	entries := make([]Entry, 0, len(revisions))
	for i := len(revisions) - 1; i >= 0; i-- {
		parent, err := h.PreviousRevision(revisions[i])
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{
			Revision: revisions[i],
			Parent:   parent,
			Current:  revisions[i] == current,
		})
	}

	return entries, nil
}

func (c *Cmd) print(entries []Entry) error {
	if c.jsonOutput {
		return json.NewEncoder(c.out).Encode(entries)
	}

	for _, entry := range entries {
		line := fmt.Sprintf("%s -> %s", entry.Revision, entry.Parent)
		if entry.Current {
			line += " (current)"
		}

		if _, err := fmt.Fprintln(c.out, line); err != nil {
			return err
		}
	}

	return nil
}
