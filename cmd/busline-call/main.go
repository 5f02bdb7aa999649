// Command busline-call is a small command-line client over the dbus
// connection engine: it can call a method, list bus names, and watch
// signals matching a rule, mirroring the kind of thin CLI shim the
// example pack builds over its own daemon client packages.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/busline/dbus"
	"github.com/busline/dbus/wire"
	"github.com/urfave/cli"
)

func dial(c *cli.Context) (*dbus.Connection, error) {
	if addr := c.GlobalString("address"); addr != "" {
		return dbus.New(addr), nil
	}
	if c.GlobalBool("system") {
		return dbus.System(), nil
	}
	return dbus.Session()
}

func callCommand(c *cli.Context) error {
	args := c.Args()
	if len(args) < 3 {
		return cli.NewExitError("usage: busline-call call <destination> <path> <interface.member> [json-arg...]", 1)
	}
	conn, err := dial(c)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer conn.Close()

	destination := args[0]
	path := wire.ObjectPath(args[1])
	ifaceMember := args[2]
	dot := strings.LastIndex(ifaceMember, ".")
	if dot < 0 {
		return cli.NewExitError("expected interface.Member, got "+ifaceMember, 1)
	}
	iface, member := ifaceMember[:dot], ifaceMember[dot+1:]

	var body []interface{}
	for _, raw := range args[3:] {
		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		body = append(body, v)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := conn.CallMethodRaw(ctx, destination, path, iface, member, body)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	for _, v := range results {
		fmt.Println(v)
	}
	return nil
}

func namesCommand(c *cli.Context) error {
	conn, err := dial(c)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer conn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	names, err := conn.ListNames(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	conn, err := dial(c)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer conn.Close()

	rule := dbus.MatchRule{
		Interface: c.String("interface"),
		Member:    c.String("member"),
		Sender:    c.String("sender"),
		Path:      wire.ObjectPath(c.String("path")),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	sub, err := conn.SubscribeSignals(ctx, rule)
	cancel()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer conn.Unsubscribe(sub)

	for sig := range sub.Signals() {
		fmt.Printf("%s: %s.%s %v\n", sig.Path, sig.Interface, sig.Member, sig.Body)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "busline-call"
	app.Usage = "call methods, list names, and watch signals on a D-Bus message bus"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "address", Usage: "explicit bus address, overriding --system and the session-bus default"},
		cli.BoolFlag{Name: "system", Usage: "connect to the system bus instead of the session bus"},
	}
	app.Commands = []cli.Command{
		{
			Name:      "call",
			Usage:     "call <destination> <path> <interface.member> [json-arg...]",
			ArgsUsage: "<destination> <path> <interface.member> [json-arg...]",
			Action:    callCommand,
		},
		{
			Name:   "names",
			Usage:  "list the names currently registered on the bus",
			Action: namesCommand,
		},
		{
			Name:  "watch",
			Usage: "watch signals matching a rule until interrupted",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "interface"},
				cli.StringFlag{Name: "member"},
				cli.StringFlag{Name: "sender"},
				cli.StringFlag{Name: "path"},
			},
			Action: watchCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
