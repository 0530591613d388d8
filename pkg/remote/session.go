package remote

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/whitebox/internal/metrics"
)

// Identity is the SSH identity a session connects with.
type Identity struct {
	// Host is the target controller; commands go here unless another host is named.
	Host string

	// User is the remote login user.
	User string

	// KeyPath is the path to the private key used for authentication.
	KeyPath string
}

// Validate reports the first missing field as a *ConfigError.
func (id Identity) Validate() error {
	switch {
	case id.KeyPath == "":
		return errConfigMissing("target_private_key_path")
	case id.User == "":
		return errConfigMissing("target_ssh_user")
	case id.Host == "":
		return errConfigMissing("target_controller")
	}
	return nil
}

// Session runs commands on remote hosts under a chain of prefix layers.
//
// A Session is an immutable value: With, Sudo and Container return a new
// Session and leave the receiver untouched, so a scope can never leak its
// layers to the caller, whatever happens inside it.
type Session struct {
	id        Identity
	transport Transport
	chain     Chain
	logger    *slog.Logger
	name      string
	secrets   []string
}

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithLogger sets a custom logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClientName sets the label used for the session in logs and metrics.
func WithClientName(name string) Option {
	return func(s *Session) {
		if name != "" {
			s.name = name
		}
	}
}

// NewSession validates id and returns a session with the plain shell chain.
func NewSession(id Identity, transport Transport, opts ...Option) (*Session, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, errors.New("transport is required")
	}

	s := &Session{
		id:        id,
		transport: transport,
		logger:    slog.Default(),
		name:      "session",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Identity returns the identity the session connects with.
func (s *Session) Identity() Identity {
	return s.id
}

// Chain returns the session's layer chain.
func (s *Session) Chain() Chain {
	return s.chain
}

// Name returns the session's client label.
func (s *Session) Name() string {
	return s.name
}

// With returns a copy of the session whose commands are additionally
// wrapped by l, nested inside the layers already present.
func (s *Session) With(l Layer) *Session {
	c := s.clone()
	c.chain = s.chain.With(l)
	return c
}

// Sudo returns a copy of the session running commands through sudo.
// An empty user means the remote default privileged account.
func (s *Session) Sudo(user string) *Session {
	return s.With(SudoLayer(user))
}

// Container returns a copy of the session running commands inside the
// named container, as user when one is given.
func (s *Session) Container(name, user string) *Session {
	return s.With(ContainerLayer(name, user))
}

// Scoped calls fn with a copy of the session wrapped by l.
func (s *Session) Scoped(l Layer, fn func(*Session) error) error {
	return fn(s.With(l))
}

// Named returns a copy of the session labelled name.
func (s *Session) Named(name string) *Session {
	c := s.clone()
	c.name = name
	return c
}

// Redacting returns a copy of the session that masks every secret in the
// commands it logs. Masking applies before the command is wrapped, so a
// secret is hidden whatever quoting the layers add. The commands sent to
// the host are unchanged.
func (s *Session) Redacting(secrets ...string) *Session {
	c := s.clone()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		// Longest form first so the quoted variant is masked whole.
		if q := Quote(secret); q != secret {
			c.secrets = append(c.secrets, q)
		}
		c.secrets = append(c.secrets, secret)
	}
	return c
}

// Command returns the exact string Execute sends for cmd.
func (s *Session) Command(cmd string) string {
	return s.chain.Wrap(cmd)
}

// Execute runs cmd on host and returns its standard output untrimmed.
// An empty host means the identity's host. Every call opens a connection,
// runs one remote process and closes the connection again.
//
// Failures are *RemoteExecutionError values from the transport, returned
// as is.
func (s *Session) Execute(ctx context.Context, host, cmd string) (string, error) {
	if host == "" {
		host = s.id.Host
	}
	wrapped := s.Command(cmd)

	s.logger.Debug("executing remote command",
		slog.String("client", s.name),
		slog.String("host", host),
		slog.String("chain", s.chain.String()),
		slog.Int("depth", s.chain.Depth()),
		slog.String("prefix", string(s.chain.Prefix())),
		slog.String("command", s.Command(s.redact(cmd))),
	)

	start := time.Now()
	out, err := s.run(ctx, host, wrapped)
	metrics.ObserveCommand(s.name, err, time.Since(start))

	if err != nil {
		s.logger.Debug("remote command failed",
			slog.String("client", s.name),
			slog.String("host", host),
			slog.String("error", s.redact(err.Error())),
		)
		return "", err
	}

	s.logger.Debug("remote command completed",
		slog.String("client", s.name),
		slog.String("host", host),
		slog.Int("stdout_len", len(out)),
	)

	return out, nil
}

func (s *Session) run(ctx context.Context, host, command string) (string, error) {
	conn, err := s.transport.Connect(ctx, host, s.id)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	return conn.Run(ctx, command)
}

func (s *Session) clone() *Session {
	c := *s
	c.secrets = append([]string(nil), s.secrets...)
	return &c
}

func (s *Session) redact(text string) string {
	for _, secret := range s.secrets {
		text = strings.ReplaceAll(text, secret, "****")
	}
	return text
}
