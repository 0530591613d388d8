package whitebox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"gitlab.bluewillows.net/root/whitebox/pkg/remote"
	"gitlab.bluewillows.net/root/whitebox/pkg/sshutil"
)

// Discovery strategy names, as used in configuration and metrics.
const (
	StrategyIntrospect = "introspect"
	StrategyConfigFile = "config-file"
	StrategySFTP       = "sftp"
	StrategyStatic     = "static"
)

// Discoverer finds the raw database connection URL of the compute service.
type Discoverer interface {
	Discover(ctx context.Context) (string, error)
}

func strategyOf(d Discoverer) string {
	if s, ok := d.(interface{ Strategy() string }); ok {
		return s.Strategy()
	}
	return "custom"
}

// StaticDiscoverer returns a connection URL known in advance, skipping
// discovery on the controller.
type StaticDiscoverer string

// Strategy implements the strategy label.
func (d StaticDiscoverer) Strategy() string { return StrategyStatic }

// Discover returns the URL unchanged.
func (d StaticDiscoverer) Discover(context.Context) (string, error) {
	return string(d), nil
}

// IntrospectionDiscoverer asks the API service's own configuration module
// for the connection, so every override the service sees is applied.
type IntrospectionDiscoverer struct {
	Session    *remote.Session
	Topology   Topology
	Python     string
	ConfigPath string
}

// Strategy implements the strategy label.
func (d *IntrospectionDiscoverer) Strategy() string { return StrategyIntrospect }

// Discover runs the introspection script in the API context on the
// controller.
func (d *IntrospectionDiscoverer) Discover(ctx context.Context) (string, error) {
	python := orDefault(d.Python, DefaultPython)
	script := introspectionScript(orDefault(d.ConfigPath, DefaultNovaConfig))

	return d.Topology.APIContext(d.Session).Execute(ctx, "", python+" -c "+remote.Quote(script))
}

func introspectionScript(configPath string) string {
	return "import nova.conf;\n" +
		"nova.conf.CONF(['--config-file', " + pyString(configPath) + "]);\n" +
		"print(nova.conf.CONF.database.connection)"
}

// pyString renders s as a Python string literal.
func pyString(s string) string {
	if !strings.ContainsAny(s, "'\\\n") {
		return "'" + s + "'"
	}
	return strconv.Quote(s)
}

// FileReader reads a file on the controller.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// ConfigFileDiscoverer reads [database] connection from nova.conf.
type ConfigFileDiscoverer struct {
	Reader FileReader
	Path   string
}

// Strategy implements the strategy label.
func (d *ConfigFileDiscoverer) Strategy() string {
	if _, ok := d.Reader.(*SFTPFileReader); ok {
		return StrategySFTP
	}
	return StrategyConfigFile
}

// Discover implements Discoverer.
func (d *ConfigFileDiscoverer) Discover(ctx context.Context) (string, error) {
	path := orDefault(d.Path, DefaultNovaConfig)

	data, err := d.Reader.ReadFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	return connectionFromConfig(data)
}

// connectionFromConfig extracts [database] connection from an oslo.config
// style INI document.
func connectionFromConfig(data []byte) (string, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		return "", &remote.ParseError{Kind: "nova configuration", Err: err}
	}

	section, err := cfg.GetSection("database")
	if err != nil {
		return "", &remote.ParseError{Kind: "nova configuration", Err: errors.New("no [database] section")}
	}

	key, err := section.GetKey("connection")
	if err != nil {
		return "", &remote.ParseError{Kind: "nova configuration", Err: errors.New("no connection in [database]")}
	}

	// Value, not String: String expands %(name)s references.
	conn := strings.TrimSpace(key.Value())
	if conn == "" {
		return "", &remote.ParseError{Kind: "nova configuration", Err: errors.New("empty connection in [database]")}
	}

	return conn, nil
}

// ContextFileReader reads files with cat in the API context, so it sees
// the file as the API service does, container mounts included.
type ContextFileReader struct {
	Session  *remote.Session
	Topology Topology
}

// ReadFile implements FileReader.
func (r *ContextFileReader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	out, err := r.Topology.APIContext(r.Session).Execute(ctx, "", "cat "+remote.Quote(path))
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Dialer opens an SSH client connection. *remote.SSHTransport implements it.
type Dialer interface {
	Dial(ctx context.Context, host string, id remote.Identity) (*sshutil.Client, error)
}

// SFTPFileReader reads files over SFTP as the login user, from the host
// filesystem rather than a container's.
type SFTPFileReader struct {
	Dialer   Dialer
	Identity remote.Identity

	// Host defaults to the identity's host.
	Host   string
	Logger *slog.Logger
}

// ReadFile implements FileReader.
func (r *SFTPFileReader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	host := orDefault(r.Host, r.Identity.Host)

	client, err := r.Dialer.Dial(ctx, host, r.Identity)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	var opts []sshutil.SFTPOption
	if r.Logger != nil {
		opts = append(opts, sshutil.WithSFTPLogger(r.Logger))
	}

	fs := sshutil.NewSFTPFileSystem(client, opts...)
	if err := fs.Connect(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = fs.Close() }()

	return fs.ReadFile(path)
}
