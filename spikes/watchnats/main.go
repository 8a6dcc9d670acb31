package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/nsyszr/toybroker/pkg/events"
)

// Prints every broker event published on NATS.
func main() {
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	if _, err := nc.Subscribe(events.SubjectAll, func(m *nats.Msg) {
		fmt.Printf("subject: %s, message: %s\n", m.Subject, string(m.Data))
	}); err != nil {
		log.Fatal(err)
	}

	quitCh := make(chan os.Signal, 1)
	signal.Notify(quitCh, os.Interrupt)
	<-quitCh
}
