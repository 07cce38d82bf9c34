package main

import (
	"log"
	"os"

	"github.com/mitchellh/cli"
	"github.com/yusufsyaifudin/migtest/cmd/check"
	"github.com/yusufsyaifudin/migtest/cmd/history"
	"github.com/yusufsyaifudin/migtest/cmd/raw"
)

func main() {
	const appName, appVersion = "migtest", "1.0.0"

	checkCmd := check.NewCmd(appName, appVersion)

	c := cli.NewCLI(appName, appVersion)
	c.Args = os.Args[1:]
	c.Autocomplete = true
	c.Commands = map[string]cli.CommandFactory{
		"":        checkCmd, // default command if no subcommand defined
		"check":   checkCmd,
		"history": history.NewCmd(),
		"raw":     raw.NewCmd(),
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}
