package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gliderlabs/ssh"
	"github.com/spf13/cobra"
	gossh "golang.org/x/crypto/ssh"

	"github.com/danielgatis/go-headless-console/internal/keyinput"
	"github.com/danielgatis/go-headless-console/internal/log"
	"github.com/danielgatis/go-headless-console/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve [-- command [args...]]",
	Short: "Serve the console over SSH",
	Long: `Serve one console per SSH session. Every session gets its own child
process when a command is given. Clipboard writes reach the client as OSC 52.

Example:
  headless-console serve --addr :2222 -- python3 -i -q
  ssh -p 2222 localhost`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "address to listen on (overrides ssh.addr)")
	serveCmd.Flags().String("host-key", "", "PEM host key (overrides ssh.host_key)")
	_ = v.BindPFlag("ssh.addr", serveCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("ssh.host_key", serveCmd.Flags().Lookup("host-key"))
}

func runServe(_ *cobra.Command, args []string) error {
	signer, err := hostSigner(cfg.SSH.HostKey)
	if err != nil {
		return err
	}

	srv := &ssh.Server{
		Addr:        cfg.SSH.Addr,
		Handler:     func(sess ssh.Session) { handleSSH(sess, args) },
		HostSigners: []ssh.Signer{signer},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info(log.CatSSH, "listening", "addr", cfg.SSH.Addr)
	fmt.Fprintf(os.Stderr, "listening on %s\n", cfg.SSH.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return fmt.Errorf("ssh server: %w", err)
	}
	return nil
}

// hostSigner loads the host key at path, or generates one for this run.
func hostSigner(path string) (gossh.Signer, error) {
	if path == "" {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating host key: %w", err)
		}
		log.Warn(log.CatSSH, "using an ephemeral host key")
		return gossh.NewSignerFromKey(priv)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host key %s: %w", path, err)
	}
	signer, err := gossh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse host key: %w", err)
	}
	return signer, nil
}

// syncWriter serializes writes from the renderer and the clipboard.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func handleSSH(sess ssh.Session, command []string) {
	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		fmt.Fprintln(sess, "headless-console needs a terminal: connect with ssh -t")
		_ = sess.Exit(1)
		return
	}

	out := &syncWriter{w: sess}
	opts := []session.Option{
		session.WithSize(ptyReq.Window.Height, ptyReq.Window.Width),
		session.WithClipboardProvider(session.NewOSC52Clipboard(out)),
	}
	if len(command) > 0 {
		opts = append(opts, session.WithCommand(command...))
	}

	s, err := session.New(cfg, opts...)
	if err != nil {
		log.ErrorErr(log.CatSSH, "failed to create session", err, "remote", sess.RemoteAddr().String())
		fmt.Fprintf(sess, "error: %v\r\n", err)
		_ = sess.Exit(1)
		return
	}
	defer s.Close()
	log.Info(log.CatSSH, "session started", "session", s.ID, "user", sess.User(), "remote", sess.RemoteAddr().String())

	attachRenderer(s, out)

	go func() {
		for win := range winCh {
			s.Resize(win.Height, win.Width)
		}
	}()

	if err := s.Start(sess.Context()); err != nil {
		log.ErrorErr(log.CatSSH, "failed to start session", err, "session", s.ID)
		fmt.Fprintf(sess, "error: %v\r\n", err)
		_ = sess.Exit(1)
		return
	}

	go readKeys(s, sess)

	<-s.Done()
	_, _ = out.Write([]byte("\x1b[0m\r\n"))
	code := 0
	if s.Err() != nil {
		code = 1
	}
	_ = sess.Exit(code)
	log.Info(log.CatSSH, "session ended", "session", s.ID)
}

// attachRenderer repaints w each time the console goes idle.
func attachRenderer(s *session.Session, w io.Writer) {
	var (
		mu sync.Mutex
		r  session.Renderer
	)
	t := s.Console().Terminal()
	paint := func() {
		mu.Lock()
		defer mu.Unlock()
		if frame := r.Frame(t); frame != nil {
			if _, err := w.Write(frame); err != nil {
				log.ErrorErr(log.CatSession, "failed to write frame", err, "session", s.ID)
			}
		}
	}
	s.Console().OnIdle(paint)
	s.Console().OnResize(func(int, int) {
		mu.Lock()
		r.Invalidate()
		mu.Unlock()
	})
}

// readKeys feeds decoded input to the console until the stream ends.
func readKeys(s *session.Session, r io.Reader) {
	d := keyinput.NewDecoder(r)
	for {
		ev, err := d.ReadKey()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug(log.CatSession, "input closed", "session", s.ID, "error", err)
			}
			s.Close()
			return
		}
		s.Console().Key(ev)
	}
}
