package main

import (
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"geocoin.ai/internal/logging"
	"geocoin.ai/internal/protocol"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "client name")
		every = flag.Duration("every", 500*time.Millisecond, "delay between commands")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "walk seed")
		level = flag.String("log_level", "info", "log level")
	)
	flag.Parse()

	logger := logging.New(*level, "text").WithField("component", "bot")
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Name:            *name,
		MaxQueue:        64,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	msgs := make(chan []byte, 64)
	go func() {
		defer close(msgs)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msgs <- msg
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	st := newWalker()
	rng := rand.New(rand.NewSource(*seed))
	for {
		select {
		case <-stop:
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("connection closed")
				return
			}
			st.handle(msg, logger)
		case <-ticker.C:
			if !st.ready {
				continue
			}
			if err := conn.WriteJSON(st.next(rng)); err != nil {
				logger.WithError(err).Error("send")
				return
			}
		}
	}
}

// walker mirrors just enough of the game to pick coins up while wandering.
type walker struct {
	ready     bool
	cell      protocol.Cell
	caches    map[protocol.Cell]int
	inventory int
}

func newWalker() *walker {
	return &walker{caches: map[protocol.Cell]int{}}
}

func (w *walker) handle(msg []byte, logger logrus.FieldLogger) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var m protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		w.ready = true
		w.inventory = len(m.Inventory)
		w.caches = map[protocol.Cell]int{}
		for _, st := range m.Cells {
			if st.Cache != nil {
				w.caches[st.Cell] = len(st.Cache.Items)
			}
		}
		logger.WithFields(logrus.Fields{"client_id": m.ClientID, "cells": len(m.Cells)}).Info("WELCOME")

	case protocol.TypeEvents:
		var m protocol.EventsMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		w.apply(m.Events)

	case protocol.TypeError:
		var m protocol.ErrorMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return
		}
		logger.WithField("code", m.Code).Debug(m.Message)
	}
}

func (w *walker) apply(events []protocol.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case "CELL_SHOW", "CACHE_UPDATE":
			if ev.Cache != nil && len(ev.Cache.Items) > 0 {
				w.caches[ev.Cell] = len(ev.Cache.Items)
			} else {
				delete(w.caches, ev.Cell)
			}
		case "CELL_HIDE":
			delete(w.caches, ev.Cell)
		case "INVENTORY_UPDATE":
			w.inventory = len(ev.Inventory)
		case "PLAYER_MOVE":
			w.cell = ev.Cell
		}
	}
}

var directions = []string{"N", "S", "E", "W"}

// next collects from the current cell when it has coins, otherwise takes a
// random step.
func (w *walker) next(rng *rand.Rand) protocol.CommandMsg {
	if w.caches[w.cell] > 0 {
		c := w.cell
		return protocol.CommandMsg{
			Type:            protocol.TypeInteract,
			ProtocolVersion: protocol.Version,
			Cell:            &c,
			Index:           0,
			Action:          "collect",
		}
	}
	return protocol.CommandMsg{
		Type:            protocol.TypeMove,
		ProtocolVersion: protocol.Version,
		Direction:       directions[rng.Intn(len(directions))],
	}
}
