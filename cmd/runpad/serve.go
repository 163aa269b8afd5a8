package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caffeineduck/runpad/analysis"
	"github.com/caffeineduck/runpad/executor"
	"github.com/caffeineduck/runpad/language"
	"github.com/caffeineduck/runpad/orchestrator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for code execution",
	Long: `Start an HTTP server that runs programs for remote clients.

Endpoints:
  POST   /run        Run a program with batched stdin
  GET    /ws         WebSocket session; input is requested as prompts appear
  GET    /languages  Supported languages
  GET    /health     Health check`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringSlice("precompile", nil, "Interpreters to compile before serving (repeatable)")
	rootCmd.AddCommand(serveCmd)
}

const requestIDHeader = "X-Request-Id"

type runRequest struct {
	Language string `json:"language"`
	Filename string `json:"filename,omitempty"`
	Source   string `json:"source"`
	Stdin    string `json:"stdin,omitempty"`
}

type runResponse struct {
	Output     string `json:"output"`
	Failed     bool   `json:"failed"`
	EntryPoint string `json:"entry_point,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// server exposes the orchestrator over HTTP. Every /run request gets its
// own orchestrator with no way to ask for input; /ws connections get one
// whose prompts are forwarded to the client.
type server struct {
	registry *language.Registry
	exec     orchestrator.Dispatcher
	log      *zap.Logger
	timeout  time.Duration
	upgrader websocket.Upgrader
}

func newServer(registry *language.Registry, exec orchestrator.Dispatcher, log *zap.Logger, timeout time.Duration) *server {
	return &server{
		registry: registry,
		exec:     exec,
		log:      log,
		timeout:  timeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), s.accessLog(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/languages", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.registry.All())
	})
	r.POST("/run", s.handleRun)
	r.GET("/ws", s.handleSocket)
	return r
}

// requestID tags each request with an ID, taken from X-Request-Id when
// the client sent one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func (s *server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *server) handleRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if req.Source == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "source required"})
		return
	}
	desc, err := s.registry.Resolve(req.Language, req.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	o := orchestrator.New(s.exec, orchestrator.Decline,
		orchestrator.WithLogger(s.log.With(zap.String("request_id", c.GetString("request_id")))),
		orchestrator.WithTimeout(s.timeout))
	res, err := o.RunOnce(c.Request.Context(), desc, req.Source, req.Stdin)
	if err != nil {
		c.JSON(statusFor(err), errorResponse{Error: orchestrator.FormatFailure(err)})
		return
	}
	c.JSON(http.StatusOK, newRunResponse(res))
}

func newRunResponse(res executor.Result) runResponse {
	return runResponse{
		Output:     res.Output,
		Failed:     res.Failed,
		EntryPoint: res.EntryPoint,
		DurationMs: res.Duration.Milliseconds(),
	}
}

func statusFor(err error) int {
	var analysisErr *analysis.Error
	var dispatchErr *executor.DispatchError
	switch {
	case errors.Is(err, orchestrator.ErrRunInProgress):
		return http.StatusConflict
	case errors.As(err, &analysisErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &dispatchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Socket messages. Clients send "run", "input", "cancel" (answer the
// pending prompt with nothing) and "abort" (stop the run). The server
// sends "state", "input_request", "result" and "error".
type socketMessage struct {
	Type string `json:"type"`

	Language string `json:"language,omitempty"`
	Filename string `json:"filename,omitempty"`
	Source   string `json:"source,omitempty"`
	Stdin    string `json:"stdin,omitempty"`
	Value    string `json:"value,omitempty"`

	State  string       `json:"state,omitempty"`
	Prompt string       `json:"prompt,omitempty"`
	Result *runResponse `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// socketSession is one WebSocket connection and its orchestrator.
type socketSession struct {
	conn  *websocket.Conn
	log   *zap.Logger
	input *orchestrator.InputChannel
	orch  *orchestrator.Orchestrator

	writeMu sync.Mutex

	mu        sync.Mutex
	active    bool
	pending   *orchestrator.PendingInput
	cancelRun context.CancelFunc
}

func (s *server) handleSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ss := &socketSession{
		conn:  conn,
		log:   s.log.With(zap.String("request_id", c.GetString("request_id"))),
		input: orchestrator.NewInputChannel(),
	}
	ss.orch = orchestrator.New(s.exec, ss.input,
		orchestrator.WithLogger(ss.log),
		orchestrator.WithTimeout(s.timeout),
		orchestrator.WithObserver(func(_ string, _, to orchestrator.State) {
			ss.send(socketMessage{Type: "state", State: string(to)})
		}))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ss.forwardPrompts(ctx)
	}()

	for {
		var msg socketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ss.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "run":
			desc, err := s.registry.Resolve(msg.Language, msg.Filename)
			if err != nil {
				ss.send(socketMessage{Type: "error", Error: err.Error()})
				continue
			}
			runCtx, ok := ss.begin(ctx)
			if !ok {
				ss.send(socketMessage{Type: "error", Error: orchestrator.ErrRunInProgress.Error()})
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				ss.run(runCtx, desc, msg.Source, msg.Stdin)
			}()
		case "input":
			ss.answer(func(p *orchestrator.PendingInput) { p.Resolve(msg.Value) })
		case "cancel":
			ss.answer((*orchestrator.PendingInput).Cancel)
		case "abort":
			ss.mu.Lock()
			if ss.cancelRun != nil {
				ss.cancelRun()
			}
			ss.mu.Unlock()
		default:
			ss.send(socketMessage{Type: "error", Error: "unknown message type " + msg.Type})
		}
	}
}

// begin claims the session for one run and returns its context. Only the
// claiming run may register or clear cancelRun.
func (ss *socketSession) begin(parent context.Context) (context.Context, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.active {
		return nil, false
	}
	ctx, cancel := context.WithCancel(parent)
	ss.active = true
	ss.cancelRun = cancel
	return ctx, true
}

func (ss *socketSession) finish() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.cancelRun != nil {
		ss.cancelRun()
	}
	ss.active = false
	ss.cancelRun = nil
	ss.pending = nil
}

func (ss *socketSession) run(ctx context.Context, desc language.Descriptor, source, stdin string) {
	res, err := ss.orch.RunOnce(ctx, desc, source, stdin)
	ss.finish()

	if err != nil {
		ss.send(socketMessage{Type: "error", Error: orchestrator.FormatFailure(err)})
		return
	}
	resp := newRunResponse(res)
	ss.send(socketMessage{Type: "result", Result: &resp})
}

// forwardPrompts relays input requests to the client until ctx is done.
func (ss *socketSession) forwardPrompts(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-ss.input.Requests():
			ss.mu.Lock()
			ss.pending = p
			ss.mu.Unlock()
			ss.send(socketMessage{Type: "input_request", Prompt: p.Prompt})
		}
	}
}

func (ss *socketSession) answer(fn func(*orchestrator.PendingInput)) {
	ss.mu.Lock()
	p := ss.pending
	ss.pending = nil
	ss.mu.Unlock()
	if p == nil {
		ss.send(socketMessage{Type: "error", Error: "no input requested"})
		return
	}
	fn(p)
}

func (ss *socketSession) send(msg socketMessage) {
	ss.writeMu.Lock()
	defer ss.writeMu.Unlock()
	if err := ss.conn.WriteJSON(msg); err != nil {
		ss.log.Debug("websocket write failed", zap.Error(err))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	precompile, _ := cmd.Flags().GetStringSlice("precompile")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, id := range precompile {
		if err := a.exec.Warm(cmd.Context(), id); err != nil {
			return err
		}
	}
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	gin.SetMode(gin.ReleaseMode)
	srv := newServer(a.registry, a.exec, a.log, a.cfg.RunTimeout)

	a.log.Info("server listening", zap.String("addr", addr))
	httpSrv := &http.Server{Addr: addr, Handler: srv.routes()}
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
