// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package elgas

import (
	"context"
	"strings"

	"github.com/looplab/fsm"
)

// StateIdle is the session state between exchanges
const StateIdle = "idle"

// sessionServices are the services with a request/response exchange
var sessionServices = []Service{
	ServiceReadValues,
	ServiceReadDeviceTime,
	ServiceWriteDeviceTime,
	ServiceReadScadaParameters,
	ServiceReadArchives,
	ServiceReadArchivesByDate,
}

// AwaitingState names the state entered after a request for svc
func AwaitingState(svc Service) string {
	return "awaiting_" + strings.ToLower(svc.String()) + "_response"
}

func requestEvent(svc Service) string {
	return "request_" + strings.ToLower(svc.String())
}

func responseEvent(svc Service) string {
	return "response_" + strings.ToLower(svc.String())
}

// Session pairs each request with its response. From idle a request moves
// to the matching awaiting state; only the matching response moves back.
type Session struct {
	machine *fsm.FSM
	logger  Logger
}

// NewSession returns a session in StateIdle
func NewSession(logger Logger) *Session {
	if logger == nil {
		logger = NopLogger()
	}
	events := make(fsm.Events, 0, 2*len(sessionServices))
	for _, svc := range sessionServices {
		events = append(events,
			fsm.EventDesc{Name: requestEvent(svc), Src: []string{StateIdle}, Dst: AwaitingState(svc)},
			fsm.EventDesc{Name: responseEvent(svc), Src: []string{AwaitingState(svc)}, Dst: StateIdle},
		)
	}

	s := &Session{logger: logger}
	s.machine = fsm.NewFSM(StateIdle, events, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			s.logger.Debug("session transition", "event", e.Event, "from", e.Src, "to", e.Dst)
		},
	})
	return s
}

// State is the current state name
func (s *Session) State() string {
	return s.machine.Current()
}

// Idle reports whether a new request may be sent
func (s *Session) Idle() bool {
	return s.machine.Current() == StateIdle
}

// Request records that a request for svc was sent
func (s *Session) Request(svc Service) error {
	return s.fire(requestEvent(svc))
}

// Response records that a response for svc arrived
func (s *Session) Response(svc Service) error {
	return s.fire(responseEvent(svc))
}

// Reset abandons any outstanding exchange, for example after a transport
// timeout, so the next request can be sent
func (s *Session) Reset() {
	if !s.Idle() {
		s.logger.Warn("session reset", "state", s.machine.Current())
	}
	s.machine.SetState(StateIdle)
}

func (s *Session) fire(event string) error {
	if !s.machine.Can(event) {
		return &ProtocolError{State: s.machine.Current(), Event: event}
	}
	return s.machine.Event(context.Background(), event)
}
