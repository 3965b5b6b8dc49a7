package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// ============================================================================
// dogputer-ctl - Command-line IPC Client
// ============================================================================
// This tool sends commands to the dogputer daemon via its Unix socket.
//
// Usage:
//   dogputer-ctl show ball
//   dogputer-ctl channel next
//   dogputer-ctl channel prev
//   dogputer-ctl pause
//   dogputer-ctl exit
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/dogputer.sock)
// ============================================================================

// CommandEnvelope wraps commands for JSON (duplicated from the daemon for
// a standalone binary)
type CommandEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func printUsage() {
	fmt.Println("Usage: dogputer-ctl [-socket PATH] COMMAND")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  show NAME       select the named content action")
	fmt.Println("  channel next    next video channel")
	fmt.Println("  channel prev    previous video channel")
	fmt.Println("  pause           toggle pause")
	fmt.Println("  exit            shut the daemon down")
}

func main() {
	socketPath := "/tmp/dogputer.sock"

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "error: -socket requires an argument")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	env, err := buildEnvelope(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		printUsage()
		os.Exit(1)
	}

	if err := send(socketPath, env); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildEnvelope(args []string) (CommandEnvelope, error) {
	switch args[0] {
	case "show":
		if len(args) < 2 {
			return CommandEnvelope{}, fmt.Errorf("show requires an action name")
		}
		data, err := json.Marshal(map[string]string{"name": args[1]})
		if err != nil {
			return CommandEnvelope{}, err
		}
		return CommandEnvelope{Type: "show_content", Data: data}, nil

	case "channel":
		if len(args) < 2 {
			return CommandEnvelope{}, fmt.Errorf("channel requires next or prev")
		}
		direction := 0
		switch args[1] {
		case "next":
			direction = 1
		case "prev", "previous":
			direction = -1
		default:
			return CommandEnvelope{}, fmt.Errorf("channel requires next or prev")
		}
		data, err := json.Marshal(map[string]int{"direction": direction, "target": -1})
		if err != nil {
			return CommandEnvelope{}, err
		}
		return CommandEnvelope{Type: "video_channel", Data: data}, nil

	case "pause":
		return CommandEnvelope{Type: "toggle_pause"}, nil

	case "exit":
		return CommandEnvelope{Type: "exit"}, nil
	}

	return CommandEnvelope{}, fmt.Errorf("unknown command %q", args[0])
}

func send(socketPath string, env CommandEnvelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w (is dogputer running?)", err)
	}
	defer conn.Close()

	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("send command: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return fmt.Errorf("no response from daemon")
	}

	var resp IPCResponse
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("daemon rejected command: %s", resp.Error)
	}

	fmt.Println("ok")
	return nil
}
