package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog"
	"github.com/sanity-io/litter"

	"twipi/host/robot"
	"twipi/host/serial"
)

// config is read from the environment.
type config struct {
	Port          string `env:"TWIPI_PORT" envDefault:"/dev/ttyUSB0"`
	Baud          int    `env:"TWIPI_BAUD" envDefault:"115200"`
	ReadTimeoutMS int    `env:"TWIPI_READ_TIMEOUT_MS" envDefault:"100"`
	LogLevel      string `env:"TWIPI_LOG_LEVEL" envDefault:"info"`
	QuietMS       int    `env:"TWIPI_QUIET_MS" envDefault:"300"`
}

func main() {
	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	sc := serial.DefaultConfig(cfg.Port)
	sc.Baud = cfg.Baud
	sc.ReadTimeout = cfg.ReadTimeoutMS

	client, err := robot.Open(sc, log)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.Port).Msg("failed to connect")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := client.Run(ctx); err != nil {
			log.Error().Err(err).Msg("robot connection lost")
		}
	}()

	quiet := time.Duration(cfg.QuietMS) * time.Millisecond
	shell := ishell.New()
	shell.Println("Twipi host shell, connected to " + cfg.Port)

	for _, name := range []string{"version", "scan", "led", "motor", "switches", "report"} {
		name := name // per-iteration copy (go 1.21 loop semantics)
		shell.AddCmd(&ishell.Cmd{
			Name: name,
			Help: "run '" + name + "' on the robot",
			Func: func(c *ishell.Context) {
				line := strings.Join(append([]string{name}, c.Args...), " ")
				events, err := client.Exec(ctx, line, quiet)
				if err != nil {
					c.Err(err)
					return
				}
				for _, ev := range events {
					printEvent(c, ev)
				}
			},
		})
	}

	shell.AddCmd(&ishell.Cmd{
		Name: "robot-help",
		Help: "list the robot's console commands",
		Func: func(c *ishell.Context) {
			events, err := client.Exec(ctx, "help", quiet)
			if err != nil {
				c.Err(err)
				return
			}
			for _, ev := range events {
				c.Println("  " + ev.Message)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "dump",
		Help: "run a command and dump the decoded events",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Println("usage: dump <command> [args...]")
				return
			}
			events, err := client.Exec(ctx, strings.Join(c.Args, " "), quiet)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(litter.Sdump(events))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "tail",
		Help: "print every robot log line for n seconds (default 10)",
		Func: func(c *ishell.Context) {
			secs := 10
			if len(c.Args) > 0 {
				fmt.Sscanf(c.Args[0], "%d", &secs)
			}
			deadline := time.After(time.Duration(secs) * time.Second)
			for {
				select {
				case ev, ok := <-client.Events():
					if !ok {
						return
					}
					printEvent(c, ev)
				case <-deadline:
					return
				}
			}
		},
	})

	shell.Run()
	cancel()
	client.Close()
}

func printEvent(c *ishell.Context, ev robot.Event) {
	if ev.Level == zerolog.NoLevel {
		c.Println(ev.Raw)
		return
	}
	line := fmt.Sprintf("%-5s %-10s %s", ev.Level, ev.Component, ev.Message)
	for k, v := range ev.Fields {
		if k == "cmd" {
			continue
		}
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	if ev.Error != "" {
		line += " error=" + ev.Error
	}
	c.Println(line)
}
