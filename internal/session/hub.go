// SPDX-License-Identifier: MIT
package session

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mixengine/internal/config"
	"mixengine/internal/crowd"
	"mixengine/internal/log"
	"mixengine/internal/transport"
)

// availableFeatures is advertised to every client in initial_state.
var availableFeatures = []string{
	string(MsgTypeAnalyzeTrack),
	string(MsgTypeSeparateStems),
	string(MsgTypeMixSuggestion),
	string(MsgTypeHarmonicMix),
	string(MsgTypeVoiceCommand),
	string(MsgTypeCrowdFeedback),
	string(MsgTypeInvalidateTrack),
}

// client is one connected WebSocket peer. The send channel is drained by
// a dedicated writer goroutine; a full channel drops the message so one
// slow client never stalls a broadcast.
type client struct {
	id   string
	conn *websocket.Conn
	send chan Message
}

// Server terminates the WebSocket protocol and fans broadcasts out to
// all connected clients plus any configured mirror transports.
type Server struct {
	cfg     config.ServerConfig
	coord   *Coordinator
	mirrors []transport.Transport

	upgrader websocket.Upgrader
	httpSrv  *http.Server

	mu      sync.Mutex
	clients map[string]*client

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates a Server around the coordinator. Mirrors receive a
// copy of every broadcast and are closed with the server.
func NewServer(cfg config.ServerConfig, coord *Coordinator, mirrors ...transport.Transport) *Server {
	return &Server{
		cfg:     cfg,
		coord:   coord,
		mirrors: mirrors,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks belong to the upstream dashboard layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
		done:    make(chan struct{}),
	}
}

// Start begins serving the WebSocket endpoint and the drift ticker.
// Serving errors after startup are logged, not returned.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWebSocket)
	s.httpSrv = &http.Server{Addr: s.cfg.Addr, Handler: mux}

	go func() {
		log.Infof("session: listening on %s", s.cfg.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("session: server error: %v", err)
		}
	}()

	s.wg.Add(1)
	go s.driftLoop()
}

// driftLoop applies the periodic crowd drift tick and broadcasts the
// resulting metrics until the server closes.
func (s *Server) driftLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.DriftInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics := s.coord.Crowd().Drift()
			s.broadcastPayload(MsgTypeCrowdMetrics, metrics)
		case <-s.done:
			return
		}
	}
}

// HandleWebSocket upgrades the connection and runs its read loop.
// Exported so tests can mount it on an httptest server.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("session: upgrade failed: %v", err)
		return
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, s.cfg.SendQueueSize),
	}

	s.mu.Lock()
	s.clients[cl.id] = cl
	total := len(s.clients)
	s.mu.Unlock()
	log.Infof("session: client %s connected (%d total)", cl.id, total)

	s.wg.Add(1)
	go s.writePump(cl)

	s.sendPayload(cl, MsgTypeInitialState, InitialStatePayload{
		CrowdMetrics:      s.coord.Crowd().Snapshot(),
		AvailableFeatures: availableFeatures,
	})

	s.readPump(cl)
}

// readPump decodes inbound envelopes until the connection drops, then
// unregisters the client.
func (s *Server) readPump(cl *client) {
	defer s.unregister(cl)

	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.replyError(cl, "malformed message envelope")
			continue
		}
		s.dispatch(cl, msg)
	}
}

// writePump drains the client's send channel onto the wire. Exits when
// unregister closes the channel or a write fails.
func (s *Server) writePump(cl *client) {
	defer s.wg.Done()
	for msg := range cl.send {
		if err := cl.conn.WriteJSON(msg); err != nil {
			log.Debugf("session: write to %s failed: %v", cl.id, err)
			return
		}
	}
}

// unregister removes the client and closes its send channel. Holding the
// lock while closing keeps sendTo and broadcast from writing to a closed
// channel.
func (s *Server) unregister(cl *client) {
	s.mu.Lock()
	if _, ok := s.clients[cl.id]; ok {
		delete(s.clients, cl.id)
		close(cl.send)
	}
	total := len(s.clients)
	s.mu.Unlock()

	cl.conn.Close()
	log.Infof("session: client %s disconnected (%d total)", cl.id, total)
}

// dispatch routes one inbound message to the coordinator and queues the
// response. Request-scoped failures become error envelopes; nothing here
// is fatal to the connection.
func (s *Server) dispatch(cl *client, msg Message) {
	switch msg.Type {
	case MsgTypeAnalyzeTrack:
		var req AnalyzeTrackRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.TrackID == "" {
			s.replyError(cl, "analyze_track requires trackId and samples")
			return
		}
		desc, _ := s.coord.AnalyzeTrack(req.TrackID, req.Samples)
		// Analysis completion is shared state: every client sees it.
		s.broadcastPayload(MsgTypeTrackAnalyzed, TrackAnalyzedPayload{TrackID: req.TrackID, Analysis: desc})

	case MsgTypeSeparateStems:
		var req SeparateStemsRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.TrackID == "" {
			s.replyError(cl, "separate_stems requires trackId and samples")
			return
		}
		set, _ := s.coord.SeparateStems(req.TrackID, req.Samples)
		// Stem payloads are large; only the requester gets them.
		s.sendPayload(cl, MsgTypeStemsSeparated, StemsSeparatedPayload{TrackID: req.TrackID, Stems: set})

	case MsgTypeMixSuggestion:
		var req MixSuggestionRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.replyError(cl, "malformed request_mix_suggestion payload")
			return
		}
		suggestions := s.coord.SuggestMixes(req.CurrentTrack, req.AvailableTracks)
		s.sendPayload(cl, MsgTypeMixSuggestions, MixSuggestionsPayload{
			CurrentTrack: req.CurrentTrack,
			Suggestions:  suggestions,
		})

	case MsgTypeHarmonicMix:
		var req HarmonicMixRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.replyError(cl, "malformed harmonic_mix payload")
			return
		}
		params, err := s.coord.HarmonicMix(req.FromTrack, req.ToTrack)
		if err != nil {
			s.replyError(cl, err.Error())
			return
		}
		s.sendPayload(cl, MsgTypeHarmonicMixReady, HarmonicMixReadyPayload{
			FromTrack:  req.FromTrack,
			ToTrack:    req.ToTrack,
			Parameters: params,
		})

	case MsgTypeVoiceCommand:
		var req VoiceCommandRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.replyError(cl, "malformed voice_command payload")
			return
		}
		s.sendPayload(cl, MsgTypeVoiceResponse, s.coord.VoiceCommand(req.Command))

	case MsgTypeCrowdFeedback:
		var fb crowd.Feedback
		if err := json.Unmarshal(msg.Data, &fb); err != nil {
			s.replyError(cl, "malformed crowd_feedback payload")
			return
		}
		metrics := s.coord.Crowd().Apply(fb)
		s.broadcastPayload(MsgTypeCrowdMetrics, metrics)

	case MsgTypeInvalidateTrack:
		var req InvalidateRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.TrackID == "" {
			s.replyError(cl, "invalidate requires trackId")
			return
		}
		s.coord.Invalidate(req.TrackID)

	default:
		s.replyError(cl, "unsupported message type: "+string(msg.Type))
	}
}

func (s *Server) replyError(cl *client, text string) {
	s.sendPayload(cl, MsgTypeError, ErrorPayload{Message: text})
}

// sendPayload queues a message for one client, dropping it if the client
// is gone or its queue is full.
func (s *Server) sendPayload(cl *client, t MessageType, payload any) {
	msg, err := newMessage(t, payload)
	if err != nil {
		log.Errorf("session: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[cl.id]; !ok {
		return
	}
	select {
	case cl.send <- msg:
	default:
		log.Warnf("session: dropping %s for slow client %s", t, cl.id)
	}
}

// broadcastPayload queues a message for every client and mirrors it to
// the side transports. Failure on one path never affects the others.
func (s *Server) broadcastPayload(t MessageType, payload any) {
	msg, err := newMessage(t, payload)
	if err != nil {
		log.Errorf("session: %v", err)
		return
	}

	for _, m := range s.mirrors {
		if err := m.Send(msg); err != nil {
			log.Warnf("session: mirror send failed: %v", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cl := range s.clients {
		select {
		case cl.send <- msg:
		default:
			log.Warnf("session: dropping %s for slow client %s", t, cl.id)
		}
	}
}

// Close stops the drift loop, shuts the HTTP server down, disconnects
// all clients and closes the mirrors. Safe to call more than once.
func (s *Server) Close() error {
	s.stopOnce.Do(func() {
		close(s.done)

		if s.httpSrv != nil {
			s.httpSrv.Close()
		}

		s.mu.Lock()
		for id, cl := range s.clients {
			delete(s.clients, id)
			close(cl.send)
			cl.conn.Close()
		}
		s.mu.Unlock()

		for _, m := range s.mirrors {
			if err := m.Close(); err != nil {
				log.Warnf("session: mirror close failed: %v", err)
			}
		}
		s.wg.Wait()
	})
	return nil
}
