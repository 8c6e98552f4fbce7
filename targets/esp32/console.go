//go:build esp32

package main

import (
	"machine"
	"time"

	"twipi/core"
)

const maxLineLength = 128

// consoleReaderLoop collects bytes from the UART into lines and hands each
// complete line to lines.
func consoleReaderLoop(uart *machine.UART, lines chan<- string) {
	// Recover from panics to prevent a firmware crash
	defer func() {
		if r := recover(); r != nil {
			time.Sleep(100 * time.Millisecond)
			go consoleReaderLoop(uart, lines)
		}
	}()

	buf := make([]byte, 0, maxLineLength)
	for {
		if uart.Buffered() == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		b, err := uart.ReadByte()
		if err != nil {
			continue
		}
		switch b {
		case '\r', '\n':
			if len(buf) > 0 {
				lines <- string(buf)
				buf = buf[:0]
			}
		default:
			if len(buf) < maxLineLength {
				buf = append(buf, b)
			}
		}
	}
}

// pumpConsole runs at most one queued line without blocking the main loop.
func pumpConsole(c *core.Console, lines <-chan string) {
	select {
	case line := <-lines:
		_ = c.Exec(line)
	default:
	}
}
