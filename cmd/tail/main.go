// Command tail prints the push events of one user and, with -with, the
// resulting conversation view.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"PingUp/client"
	"PingUp/logger"
	"PingUp/service/chat"
	"PingUp/tools/security"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL = flag.String("url", "http://localhost:4000", "server base url")
		userID  = flag.String("user", "", "user id to tail")
		token   = flag.String("token", os.Getenv("PINGUP_TOKEN"), "bearer token")
		secret  = flag.String("secret", "", "sign a token locally with this JWT secret instead of -token")
		with    = flag.String("with", "", "keep a conversation view with this user")
		level   = flag.String("log", "warn", "log level")
	)
	flag.Parse()
	logger.SetLevel(*level)
	defer logger.Sync()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		return 2
	}
	if *token == "" && *secret != "" {
		tok, _, err := security.Generate(security.DefaultOptions([]byte(*secret)), *userID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "sign token:", err)
			return 2
		}
		*token = tok
	}
	if *token == "" {
		fmt.Fprintln(os.Stderr, "-token or -secret is required")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var view *client.Conversation
	if *with != "" {
		view = client.NewConversation(*userID, *with)
	}

	s := client.NewStream(client.StreamConfig{BaseURL: *baseURL, UserID: *userID, Token: *token})
	err := s.Run(ctx, func(evt chat.Event) {
		printEvent(evt)
		if view != nil && view.Apply(evt) {
			fmt.Printf("  view: %d message(s)\n", view.Len())
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "stream:", err)
		return 1
	}
	return 0
}

func printEvent(evt chat.Event) {
	switch evt.Type {
	case chat.EventConnected:
		fmt.Printf("%-11s channel=%s\n", evt.Type, evt.ChannelID)
	case chat.EventNewMessage:
		m := evt.Message
		if m == nil {
			return
		}
		body := m.Text
		if m.MediaURL != "" {
			body = m.MediaURL
		}
		fmt.Printf("%-11s %s %s -> %s: %s\n", evt.Type, m.CreatedAt.Format("15:04:05"), m.FromUserID, m.ToUserID, body)
	case chat.EventSeen:
		fmt.Printf("%-11s by=%s ids=%v\n", evt.Type, evt.FromUserID, evt.MessageIDs)
	case chat.EventDelete:
		fmt.Printf("%-11s id=%s by=%s\n", evt.Type, evt.MessageID, evt.FromUserID)
	default:
		fmt.Printf("%-11s\n", evt.Type)
	}
}
