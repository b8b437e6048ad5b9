package main

import (
	"fmt"
	"os"

	cli "github.com/spf13/pflag"

	"nathan/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket of the daemon")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: nathan-ctl [--socket path] trigger|reset\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	cmd := ipc.CmdTrigger
	if cli.NArg() > 0 {
		cmd = cli.Arg(0)
	}
	if cmd != ipc.CmdTrigger && cmd != ipc.CmdReset {
		cli.Usage()
		os.Exit(2)
	}

	if err := ipc.SendCommand(*socket, cmd); err != nil {
		fmt.Println("nathan not running:", err)
		os.Exit(1)
	}
}
