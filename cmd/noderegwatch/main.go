// Command noderegwatch connects to a running noderegd and prints every
// registry change it publishes, one line per message.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// eventName matches the event noderegd emits every message on.
const eventName = "comms"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, outW io.Writer, args []string) error {
	flagSet := flag.NewFlagSet("noderegwatch", flag.ContinueOnError)
	flagSet.SetOutput(outW)
	serverFlag := flagSet.String("server", "http://localhost:1880", "Base URL of the noderegd server.")
	topicFlag := flagSet.String("topic", "", "Only print messages whose topic starts with this prefix.")
	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	opts := socket.DefaultOptions()
	opts.SetTransports(types.NewSet(transports.WebSocket))
	manager := socket.NewManager(*serverFlag, opts)
	client := manager.Socket("/", opts)
	defer client.Disconnect()

	var mu sync.Mutex
	printer := &printer{out: outW, prefix: *topicFlag}

	client.On(types.EventName("connect"), func(...any) {
		slog.Info("Connected.", "server", *serverFlag, "sid", client.Id())
	})
	client.On(types.EventName("connect_error"), func(errs ...any) {
		slog.Warn("Connection failed, retrying.", "server", *serverFlag, "error", errs)
	})
	client.On(types.EventName("disconnect"), func(reason ...any) {
		slog.Info("Disconnected.", "reason", reason)
	})
	client.On(types.EventName(eventName), func(msgs ...any) {
		mu.Lock()
		defer mu.Unlock()
		for _, m := range msgs {
			if err := printer.print(m); err != nil {
				slog.Warn("Failed to print message.", "error", err)
			}
		}
	})

	client.Connect()
	<-ctx.Done()
	return nil
}

type printer struct {
	out    io.Writer
	prefix string
}

// print writes msg as "topic data". msg is the decoded {topic, data}
// envelope.
func (p *printer) print(msg any) error {
	envelope, ok := msg.(map[string]any)
	if !ok {
		return fmt.Errorf("unexpected message type %T", msg)
	}
	topic, _ := envelope["topic"].(string)
	if !strings.HasPrefix(topic, p.prefix) {
		return nil
	}
	data, err := json.Marshal(envelope["data"])
	if err != nil {
		return fmt.Errorf("failed to encode data for topic %s: %w", topic, err)
	}
	_, err = fmt.Fprintf(p.out, "%s %s\n", topic, data)
	return err
}
