package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/danielgatis/go-headless-console/internal/log"
	"github.com/danielgatis/go-headless-console/internal/session"
)

var webCmd = &cobra.Command{
	Use:   "web [-- command [args...]]",
	Short: "Serve the console over a websocket",
	Long: `Serve one console per websocket connection at /ws. Binary messages carry
terminal input; text messages carry control messages such as
{"type":"resize","rows":24,"cols":80}. The screen is sent back as ANSI
frames, ready for a browser terminal such as xterm.js.

Example:
  headless-console web --addr :8080 --static ./public -- sh`,
	RunE: runWeb,
}

func init() {
	rootCmd.AddCommand(webCmd)
	webCmd.Flags().String("addr", "", "address to listen on (overrides web.addr)")
	webCmd.Flags().String("static", "", "directory served at / (overrides web.static)")
	_ = v.BindPFlag("web.addr", webCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("web.static", webCmd.Flags().Lookup("static"))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type controlMessage struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

func runWeb(_ *cobra.Command, args []string) error {
	mux := http.NewServeMux()
	if cfg.Web.Static != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.Web.Static)))
	}
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, args)
	})

	srv := &http.Server{Addr: cfg.Web.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info(log.CatSession, "web server listening", "addr", cfg.Web.Addr)
	fmt.Fprintf(os.Stderr, "websocket endpoint: ws://localhost%s/ws\n", cfg.Web.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

// wsWriter sends each write as one binary message.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, command []string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorErr(log.CatSession, "websocket upgrade failed", err)
		return
	}
	defer conn.Close()

	out := &wsWriter{conn: conn}
	opts := []session.Option{session.WithClipboardProvider(session.NewOSC52Clipboard(out))}
	if len(command) > 0 {
		opts = append(opts, session.WithCommand(command...))
	}

	s, err := session.New(cfg, opts...)
	if err != nil {
		log.ErrorErr(log.CatSession, "failed to create session", err, "remote", r.RemoteAddr)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("error: "+err.Error()))
		return
	}
	defer s.Close()
	log.Info(log.CatSession, "websocket session started", "session", s.ID, "remote", r.RemoteAddr)

	attachRenderer(s, out)
	if err := s.Start(r.Context()); err != nil {
		log.ErrorErr(log.CatSession, "failed to start session", err, "session", s.ID)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("error: "+err.Error()))
		return
	}

	// Each binary message reaches the decoder in one read, which keeps
	// escape sequences together.
	pr, pw := io.Pipe()
	defer pw.Close()
	go readKeys(s, pr)

	go func() {
		<-s.Done()
		_ = conn.Close()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.ErrorErr(log.CatSession, "websocket read failed", err, "session", s.ID)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			var msg controlMessage
			if err := json.Unmarshal(data, &msg); err == nil && msg.Type == "resize" {
				s.Resize(msg.Rows, msg.Cols)
			}
		case websocket.BinaryMessage:
			if _, err := pw.Write(data); err != nil {
				return
			}
		}
	}
}
