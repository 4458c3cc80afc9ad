package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// historyLimit caps the per-player transcript forwarded upstream.
const historyLimit = 50

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Provider produces a coach reply for a player's instruction given the
// transcript collected so far.
type Provider interface {
	Respond(ctx context.Context, player string, history []string, msg string) (string, error)
}

// HTTPProvider forwards instructions to an upstream coach that speaks the
// same {name, msg} -> {state} protocol as the relay.
type HTTPProvider struct {
	URL    string
	Client *http.Client
}

// Respond posts the instruction, prefixed by the transcript, upstream.
func (p *HTTPProvider) Respond(ctx context.Context, player string, history []string, msg string) (string, error) {
	prompt := msg
	if len(history) > 0 {
		prompt = strings.Join(history, "\n") + "\n" + msg
	}
	body, err := json.Marshal(Instruction{Name: player, Msg: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal upstream request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	var r Reply
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("decode upstream reply: %w", err)
	}
	return r.State, nil
}

// peer is one registered feed connection.
type peer struct {
	id   string
	name string
	conn *websocket.Conn
	send chan []byte
}

// Relay is the coaching server: an HTTP endpoint that forwards instructions
// to a Provider, and a websocket hub that fans each player's updates out to
// every other player.
type Relay struct {
	provider    Provider
	allowOrigin string
	logger      *zap.Logger

	mu       sync.RWMutex
	peers    map[string]*peer // by player name
	history  map[string][]string
	shutdown chan struct{}
	closed   sync.Once
}

// NewRelay creates a relay using provider for coach replies.
func NewRelay(provider Provider, allowOrigin string, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		provider:    provider,
		allowOrigin: allowOrigin,
		logger:      logger.Named("coach_relay"),
		peers:       make(map[string]*peer),
		history:     make(map[string][]string),
		shutdown:    make(chan struct{}),
	}
}

// Router returns the HTTP routes.
func (r *Relay) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/provider/response", r.handleCoachRequest).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/ws", r.handleConn).Methods(http.MethodGet)
	router.HandleFunc("/healthz", r.handleHealth).Methods(http.MethodGet)
	router.Use(r.cors)
	return router
}

// Serve runs the relay on addr until ctx is cancelled.
func (r *Relay) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.logger.Info("Relay listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		r.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close disconnects every peer.
func (r *Relay) Close() {
	r.closed.Do(func() {
		close(r.shutdown)
		r.mu.Lock()
		for name, p := range r.peers {
			close(p.send)
			delete(r.peers, name)
		}
		r.mu.Unlock()
	})
}

// Players returns the names of connected players.
func (r *Relay) Players() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.peers))
	for name := range r.peers {
		out = append(out, name)
	}
	return out
}

// History returns a copy of a player's transcript.
func (r *Relay) History(player string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.history[player]...)
}

func (r *Relay) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", r.allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Relay) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"players": len(r.Players())})
}

func (r *Relay) handleCoachRequest(w http.ResponseWriter, req *http.Request) {
	requestID := req.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := r.logger.With(zap.String("request_id", requestID))

	body, err := io.ReadAll(io.LimitReader(req.Body, maxMessageSize))
	if err != nil || len(body) == 0 {
		log.Warn("Empty or unreadable body", zap.Error(err))
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}
	var in Instruction
	if err := json.Unmarshal(body, &in); err != nil {
		log.Warn("Malformed instruction", zap.Error(err))
		http.Error(w, "malformed instruction", http.StatusBadRequest)
		return
	}
	if in.Name == "" || strings.TrimSpace(in.Msg) == "" {
		http.Error(w, "name and msg are required", http.StatusBadRequest)
		return
	}

	history := r.History(in.Name)
	r.appendHistory(in.Name, in.Msg)

	state, err := r.provider.Respond(req.Context(), in.Name, history, in.Msg)
	if err != nil {
		log.Error("Provider failed", zap.String("player", in.Name), zap.Error(err))
		http.Error(w, "coach unavailable", http.StatusBadGateway)
		return
	}
	r.appendHistory(in.Name, state)
	log.Info("Coach reply", zap.String("player", in.Name), zap.Int("history", len(history)))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	_ = json.NewEncoder(w).Encode(Reply{State: state})
}

func (r *Relay) appendHistory(player, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := append(r.history[player], line)
	if len(h) > historyLimit {
		h = h[len(h)-historyLimit:]
	}
	r.history[player] = h
}

// handleConn upgrades the request. The first frame must be a PlayerUpdate
// carrying the player's name.
func (r *Relay) handleConn(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("Upgrade failed", zap.Error(err))
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(writeWait))
	var hello PlayerUpdate
	if err := conn.ReadJSON(&hello); err != nil || hello.Name == "" {
		r.logger.Warn("Bad registration frame", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "registration required"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	p := &peer{id: uuid.NewString(), name: hello.Name, conn: conn, send: make(chan []byte, outboxSize)}
	if !r.register(p) {
		conn.Close()
		return
	}
	go r.writePump(p)
	go r.readPump(p)
}

func (r *Relay) register(p *peer) bool {
	select {
	case <-r.shutdown:
		return false
	default:
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.peers[p.name]; ok {
		close(old.send)
	}
	r.peers[p.name] = p
	r.logger.Info("Player connected", zap.String("player", p.name), zap.String("conn_id", p.id))
	return true
}

func (r *Relay) unregister(p *peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.peers[p.name]; ok && cur == p {
		delete(r.peers, p.name)
		close(p.send)
		r.logger.Info("Player disconnected", zap.String("player", p.name), zap.String("conn_id", p.id))
	}
}

// broadcast sends payload to every player except the writer. A slow peer's
// frame is dropped rather than stalling the others.
func (r *Relay) broadcast(from string, env Envelope) {
	msg := env.Serialized()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, p := range r.peers {
		if name == from {
			continue
		}
		select {
		case p.send <- msg:
		default:
			r.logger.Warn("Peer send buffer full, dropping", zap.String("player", name))
		}
	}
}

func (r *Relay) readPump(p *peer) {
	defer func() {
		r.unregister(p)
		p.conn.Close()
	}()
	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var u PlayerUpdate
		if err := p.conn.ReadJSON(&u); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.logger.Warn("Peer read error", zap.String("player", p.name), zap.Error(err))
			}
			return
		}
		u.Name = p.name
		data, err := json.Marshal(u)
		if err != nil {
			return
		}
		if u.PlayerData.Prompt != "" {
			r.appendHistory(p.name, u.PlayerData.Prompt)
		}
		r.broadcast(p.name, Envelope{Type: TypeGame, Payload: string(data)})
	}
}

func (r *Relay) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
