package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

type command interface {
	Name() string
	Help() string
	Run() error
	Register(*flag.FlagSet)
}

type cli struct {
	args   []string
	out    io.Writer
	errOut io.Writer
}

func (c *cli) run() int {
	cmdName, args := parseArgs(c.args)
	if cmdName == "" {
		c.printUsage()
		return errorExitCode
	}

	for _, cmd := range commands(c.out) {
		if cmd.Name() != cmdName {
			continue
		}
		flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		flags.SetOutput(c.errOut)
		cmd.Register(flags)
		if err := flags.Parse(args); err != nil {
			return errorExitCode
		}
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(c.errOut, "Command failed: %v\n", err)
			return errorExitCode
		}
		return successExitCode
	}

	fmt.Fprintf(c.errOut, "Unknown command: %s\n\n", cmdName)
	c.printUsage()
	return errorExitCode
}

const (
	successExitCode = 0
	errorExitCode   = 1
)

func commands(out io.Writer) []command {
	return []command{
		&playCommand{out: out},
		&bounceCommand{out: out},
		&listCommand{out: out},
		&analyzeCommand{out: out},
	}
}

func main() {
	c := cli{
		args:   os.Args,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	os.Exit(c.run())
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func (c *cli) printUsage() {
	fmt.Fprintln(c.errOut, "Bzzt is a live-configurable synthesizer")
	fmt.Fprintln(c.errOut)
	fmt.Fprintln(c.errOut, "Usage: bzzt <command> [flags]")
	fmt.Fprintln(c.errOut)
	fmt.Fprintln(c.errOut, "Commands:")
	for _, cmd := range commands(c.out) {
		fmt.Fprintf(c.errOut, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}
