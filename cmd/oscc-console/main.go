// Command oscc-console is an interactive operator console for the OSCC
// protocol engine.
//
// It opens a CAN channel to the OSCC modules and exposes the engine
// operations as shell commands: enable/disable the actuation gate,
// publish brake, throttle and steering commands, and watch module
// reports arrive.
//
// Usage:
//
//	oscc-console [flags]
//
// Flags:
//
//	-config string  Configuration file path (YAML)
//	-channel int    CAN channel ID (overrides config, default 0)
//	-trace string   Protocol trace file path (overrides config)
//	-verbose        Echo protocol events to the console via slog
//
// Examples:
//
//	# Talk to the modules on can0, tracing all traffic
//	oscc-console -channel 0 -trace /tmp/drive.olog
//
//	# Use a config file
//	oscc-console -config /etc/oscc/console.yaml
package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/oscc-protocol/oscc-go/pkg/log"
	"github.com/oscc-protocol/oscc-go/pkg/oscc"
	"github.com/oscc-protocol/oscc-go/pkg/wire"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path (YAML)")
		channel    = flag.Int("channel", -1, "CAN channel ID (overrides config)")
		tracePath  = flag.String("trace", "", "Protocol trace file path (overrides config)")
		verbose    = flag.Bool("verbose", false, "Echo protocol events to the console")
	)
	flag.Parse()

	cfg := oscc.DefaultConfig()
	if *configPath != "" {
		loaded, err := oscc.LoadConfig(*configPath)
		if err != nil {
			stdlog.Fatalf("config: %v", err)
		}
		cfg = loaded
	}
	if *channel >= 0 {
		cfg.Channel = *channel
	}
	if *tracePath != "" {
		cfg.LogPath = *tracePath
	}

	console, err := newConsole(cfg, *verbose)
	if err != nil {
		stdlog.Fatalf("console: %v", err)
	}
	defer console.close()

	console.run()
}

// console wires the engine to a readline shell.
type console struct {
	engine *oscc.Engine
	rl     *readline.Instance
	trace  *log.FileLogger

	watching bool
}

func newConsole(cfg oscc.Config, verbose bool) (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "oscc> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &console{rl: rl}

	var loggers []log.Logger
	if cfg.LogPath != "" {
		trace, err := log.NewFileLogger(cfg.LogPath)
		if err != nil {
			rl.Close()
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		c.trace = trace
		loggers = append(loggers, trace)
	}
	if verbose {
		// Route slog through the readline stdout so events don't mangle
		// the prompt.
		handler := slog.NewTextHandler(rl.Stdout(), &slog.HandlerOptions{Level: slog.LevelDebug})
		loggers = append(loggers, log.NewSlogAdapter(slog.New(handler)))
	}
	switch len(loggers) {
	case 0:
		cfg.Logger = nil
	case 1:
		cfg.Logger = loggers[0]
	default:
		cfg.Logger = log.NewMultiLogger(loggers...)
	}

	c.engine = oscc.New(cfg)
	return c, nil
}

func (c *console) close() {
	if c.engine.IsOpen() {
		_ = c.engine.Close()
	}
	if c.trace != nil {
		_ = c.trace.Close()
	}
	c.rl.Close()
}

// run is the interactive command loop.
func (c *console) run() {
	c.printHelp()

	for {
		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "open":
			c.report(c.engine.Open())

		case "close":
			c.report(c.engine.Close())

		case "enable":
			c.report(c.engine.Enable())

		case "disable":
			c.report(c.engine.Disable())

		case "brake":
			c.publish(args, c.engine.PublishBrakePosition)

		case "pressure":
			c.publish(args, c.engine.PublishBrakePressure)

		case "throttle":
			c.publish(args, c.engine.PublishThrottlePosition)

		case "steer":
			c.publish(args, c.engine.PublishSteeringAngle)

		case "torque":
			c.publish(args, c.engine.PublishSteeringTorque)

		case "watch":
			c.cmdWatch()

		case "status":
			c.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

// publish parses a single magnitude argument and invokes one of the
// engine's publish operations.
func (c *console) publish(args []string, fn func(float64) error) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: <command> <value>")
		return
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Bad value %q: %v\n", args[0], err)
		return
	}
	c.report(fn(v))
}

// cmdWatch subscribes to every report kind and prints arrivals.
// Callbacks run on the receive goroutine; they only write through the
// readline-coordinated stdout.
func (c *console) cmdWatch() {
	if c.watching {
		fmt.Fprintln(c.rl.Stdout(), "Already watching")
		return
	}
	out := c.rl.Stdout()

	_ = c.engine.SubscribeToBrakeReports(func(r wire.BrakeReport) {
		fmt.Fprintf(out, "[brake]    position=%.3f enabled=%v override=%v dtcs=0x%04X\n",
			r.Position, r.Enabled, r.OperatorOverride, r.DTCs)
	})
	_ = c.engine.SubscribeToThrottleReports(func(r wire.ThrottleReport) {
		fmt.Fprintf(out, "[throttle] position=%.3f enabled=%v override=%v dtcs=0x%04X\n",
			r.Position, r.Enabled, r.OperatorOverride, r.DTCs)
	})
	_ = c.engine.SubscribeToSteeringReports(func(r wire.SteeringReport) {
		fmt.Fprintf(out, "[steering] angle=%.3f enabled=%v override=%v dtcs=0x%04X\n",
			r.Angle, r.Enabled, r.OperatorOverride, r.DTCs)
	})
	_ = c.engine.SubscribeToFaultReports(func(r wire.FaultReport) {
		fmt.Fprintf(out, "[FAULT]    origin=%s dtcs=0x%04X\n", r.Origin, r.DTCs)
	})
	_ = c.engine.SubscribeToOBDMessages(func(id uint32, data []byte) {
		fmt.Fprintf(out, "[obd]      id=0x%03X data=%X\n", id, data)
	})

	c.watching = true
	fmt.Fprintln(out, "Watching reports (subscriptions clear on close)")
}

func (c *console) cmdStatus() {
	out := c.rl.Stdout()
	fmt.Fprintf(out, "Open:    %v\n", c.engine.IsOpen())
	fmt.Fprintf(out, "Enabled: %v\n", c.engine.IsEnabled())
	if session := c.engine.Session(); session != "" {
		fmt.Fprintf(out, "Session: %s\n", session)
	}
}

func (c *console) report(err error) {
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "OK")
}

func (c *console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
OSCC Console Commands:
  Channel:
    open               - Open the CAN channel
    close              - Close the CAN channel
    status             - Show engine state

  Actuation (gated by enable):
    enable             - Arm the safety gate (broadcast enable)
    disable            - Disarm the safety gate (broadcast disable, fail-safe)
    brake <0..1>       - Publish brake pedal position
    pressure <0..1>    - Publish brake pressure
    throttle <0..1>    - Publish throttle pedal position
    steer <-1..1>      - Publish steering wheel angle
    torque <-1..1>     - Publish steering wheel torque

  Reports:
    watch              - Print module reports and OBD traffic as they arrive

  help, exit`)
}
