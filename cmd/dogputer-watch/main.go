package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// dogputer-watch - State Feed Listener
// ============================================================================
// Connects to the daemon's state websocket and prints every frame. Handy
// while wiring up a button box: press a button, watch the state change.
//
// Usage:
//   dogputer-watch
//   dogputer-watch -ws ws://dogputer.local:8080/ws/state
// ============================================================================

// stateFrame mirrors the feed's wire envelope (duplicated for a
// standalone binary)
type stateFrame struct {
	Type string    `json:"type"`
	Ts   time.Time `json:"ts"`
	Data struct {
		Kind    string `json:"kind"`
		Content string `json:"content,omitempty"`
		Channel int    `json:"channel"`
		Paused  bool   `json:"paused"`
	} `json:"data"`
}

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:8080/ws/state", "dogputer state feed URL")
		raw   = flag.Bool("raw", false, "print raw JSON frames instead of the summary line")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	frames := make(chan []byte, 16)
	go func() {
		defer close(frames)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read failed: %v", err)
				return
			}
			if messageType == websocket.TextMessage {
				frames <- message
			}
		}
	}()

	for {
		select {
		case <-sigc:
			log.Println("shutting down")
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message, ok := <-frames:
			if !ok {
				return
			}
			printFrame(message, *raw)
		}
	}
}

func printFrame(message []byte, raw bool) {
	if raw {
		fmt.Printf("%s\n", message)
		return
	}

	var frame stateFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		fmt.Printf("%s\n", message)
		return
	}

	paused := ""
	if frame.Data.Paused {
		paused = " [paused]"
	}
	fmt.Printf("%s  %-15s channel=%d content=%q%s\n",
		frame.Ts.Format("15:04:05.000"), frame.Type, frame.Data.Channel, frame.Data.Content, paused)
}
