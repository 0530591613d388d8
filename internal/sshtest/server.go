// Package sshtest provides an in-process SSH server for tests.
//
// The server accepts public key authentication for one generated client
// key, answers "exec" requests through a caller-supplied handler, serves
// the "sftp" subsystem from the local filesystem and forwards
// direct-streamlocal channels to local unix sockets.
package sshtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Result is what a handled command writes back to the client.
type Result struct {
	Stdout string
	Stderr string
	Status int
}

// ExecHandler is called for every "exec" request with the command line.
// It may be called concurrently.
type ExecHandler func(cmd string) Result

// Server is an SSH server listening on localhost.
type Server struct {
	cfg      *ssh.ServerConfig
	listener net.Listener
	handler  ExecHandler
	hostKey  ssh.PublicKey
	clientPK ed25519.PrivateKey

	mu       sync.Mutex
	commands []string
	users    []string
}

// NewServer starts a server on a random localhost port.
func NewServer(handler ExecHandler) (*Server, error) {
	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating host key: %w", err)
	}
	clientPub, clientPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating client key: %w", err)
	}

	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	if err != nil {
		return nil, fmt.Errorf("creating host signer: %w", err)
	}
	authorized, err := ssh.NewPublicKey(clientPub)
	if err != nil {
		return nil, fmt.Errorf("creating client public key: %w", err)
	}

	s := &Server{
		handler:  handler,
		hostKey:  hostSigner.PublicKey(),
		clientPK: clientPriv,
	}

	s.cfg = &ssh.ServerConfig{
		PublicKeyCallback: func(c ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if subtle.ConstantTimeCompare(key.Marshal(), authorized.Marshal()) == 1 {
				s.mu.Lock()
				s.users = append(s.users, c.User())
				s.mu.Unlock()
				return &ssh.Permissions{}, nil
			}
			return nil, fmt.Errorf("unknown public key for %q", c.User())
		},
	}
	s.cfg.AddHostKey(hostSigner)

	ls, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s.listener = ls

	go s.serve()

	return s, nil
}

// Close stops listening for connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Host returns the address the server listens on, without the port.
func (s *Server) Host() string {
	return s.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the port the server listens on.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Commands returns every command line received so far, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Users returns the login user of every authenticated connection.
func (s *Server) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.users...)
}

// WriteClientKey writes the accepted client private key into dir and
// returns its path.
func (s *Server) WriteClientKey(dir string) (string, error) {
	block, err := ssh.MarshalPrivateKey(s.clientPK, "")
	if err != nil {
		return "", fmt.Errorf("marshaling client key: %w", err)
	}
	path := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// WriteKnownHosts writes a known_hosts file trusting the server's host key
// under name and returns its path.
func (s *Server) WriteKnownHosts(dir, name string) (string, error) {
	addr := net.JoinHostPort(name, strconv.Itoa(s.Port()))
	line := knownhosts.Line([]string{addr}, s.hostKey)
	path := filepath.Join(dir, "known_hosts")
	if err := os.WriteFile(path, []byte(line+"\n"), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go func() {
			if err := s.handleConn(conn); err != nil {
				log.Print("sshtest: ", err)
			}
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) error {
	sConn, chans, reqs, err := ssh.NewServerConn(conn, s.cfg)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	defer sConn.Close()

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		switch newChan.ChannelType() {
		case "session":
			ch, chReqs, err := newChan.Accept()
			if err != nil {
				return fmt.Errorf("accepting channel: %w", err)
			}
			go s.handleChannel(ch, chReqs)
		case "direct-streamlocal@openssh.com":
			go forwardUnix(newChan)
		default:
			_ = newChan.Reject(ssh.UnknownChannelType, newChan.ChannelType()+" unsupported")
		}
	}
	return nil
}

// forwardUnix connects a direct-streamlocal channel to the local unix
// socket it names.
func forwardUnix(newChan ssh.NewChannel) {
	var payload struct {
		SocketPath string
		Reserved0  string
		Reserved1  uint32
	}
	if err := ssh.Unmarshal(newChan.ExtraData(), &payload); err != nil {
		_ = newChan.Reject(ssh.ConnectionFailed, "malformed streamlocal request")
		return
	}

	conn, err := net.Dial("unix", payload.SocketPath)
	if err != nil {
		_ = newChan.Reject(ssh.ConnectionFailed, err.Error())
		return
	}
	defer conn.Close()

	ch, reqs, err := newChan.Accept()
	if err != nil {
		return
	}
	defer ch.Close()
	go ssh.DiscardRequests(reqs)

	done := make(chan struct{}, 2)
	go func() {
		_, _ = io.Copy(ch, conn)
		_ = ch.CloseWrite()
		done <- struct{}{}
	}()
	go func() {
		_, _ = io.Copy(conn, ch)
		if uc, ok := conn.(*net.UnixConn); ok {
			_ = uc.CloseWrite()
		}
		done <- struct{}{}
	}()
	<-done
	<-done
}

func (s *Server) handleChannel(ch ssh.Channel, reqs <-chan *ssh.Request) {
	defer ch.Close()

	for req := range reqs {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)
			s.exec(ch, payload.Command)
			return
		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)
			server, err := sftp.NewServer(ch)
			if err != nil {
				return
			}
			if err := server.Serve(); err != nil && err != io.EOF {
				log.Print("sshtest: sftp: ", err)
			}
			return
		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
}

func (s *Server) exec(ch ssh.Channel, cmd string) {
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()

	var res Result
	if s.handler != nil {
		res = s.handler(cmd)
	}

	_, _ = io.WriteString(ch, res.Stdout)
	_, _ = io.WriteString(ch.Stderr(), res.Stderr)
	_ = ch.CloseWrite()

	status := struct{ Status uint32 }{uint32(res.Status)}
	_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(&status))
}
