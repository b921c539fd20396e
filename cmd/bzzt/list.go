package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dudk/bzzt/config"
	"github.com/dudk/bzzt/generator/builtin"
)

type listCommand struct {
	out    io.Writer
	config string
}

func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show available generator types"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.config, "config", "", "also compile generators listed in this configuration file")
}

func (cmd *listCommand) Run() error {
	r := builtin.NewRegistry()
	defer r.Close()
	if cmd.config != "" {
		f, err := config.Read(cmd.config)
		if err != nil {
			return err
		}
		plan, err := config.Prepare(f, r)
		if err != nil {
			return err
		}
		if err := plan.Register(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(cmd.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINPUTS\tOUTPUTS\tSTATE")
	for _, h := range r.Handles() {
		t, _ := r.Type(h)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", t.ID, t.Inputs, t.Outputs, t.Size)
	}
	return w.Flush()
}
