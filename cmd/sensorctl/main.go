// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

// Command sensorctl sends one command to a running sensorpipe.
//
// Usage:
//
//	sensorctl stop <sensor_id>
//	sensorctl start <sensor_id> <sensor_type>
//	sensorctl status
//	sensorctl shutdown
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"code.hybscloud.com/sensorq"
	"code.hybscloud.com/sensorq/internal/config"
	"code.hybscloud.com/sensorq/internal/control"
	"code.hybscloud.com/sensorq/internal/fifo"
)

func main() {
	note := flag.String("m", "", "note attached to the command")
	timeout := flag.Duration("timeout", 5*time.Second, "how long to wait for the control pipe")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"usage: %s [flags] stop <id> | start <id> <type> | status | shutdown\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd, err := parse(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	cmd.Message = *note

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := send(ctx, cfg.FIFO.ControlPath, &cmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parse(args []string) (control.Command, error) {
	if len(args) == 0 {
		return control.Command{}, errors.New("missing command")
	}
	op, err := control.ParseOp(args[0])
	if err != nil {
		return control.Command{}, err
	}
	cmd := control.Command{Op: op}

	want := map[control.Op]int{control.OpStop: 2, control.OpStart: 3, control.OpStatus: 1, control.OpShutdown: 1}[op]
	if len(args) != want {
		return control.Command{}, fmt.Errorf("%s takes %d argument(s)", op, want-1)
	}
	if want >= 2 {
		if cmd.SensorID, err = strconv.Atoi(args[1]); err != nil {
			return control.Command{}, fmt.Errorf("invalid sensor_id %q", args[1])
		}
	}
	if want == 3 {
		if cmd.Kind, err = sensorq.ParseKind(args[2]); err != nil {
			return control.Command{}, err
		}
	}
	return cmd, nil
}

func send(ctx context.Context, path string, cmd *control.Command) error {
	w, err := fifo.OpenWriter(ctx, path, fifo.Retry{Attempts: 1 << 20, Interval: 100 * time.Millisecond})
	if err != nil {
		return err
	}
	defer w.Close()
	return control.WriteCommand(w, cmd)
}
