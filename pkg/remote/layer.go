package remote

import "strings"

// Layer is one prefix command: how to invoke a shell one level further in.
// A command wrapped by a layer is appended to it as a single quoted token.
type Layer string

// ShellLayer runs the command as the login user with no privilege change.
// It is used when a chain has no layers.
const ShellLayer Layer = "/bin/bash -c"

// SudoLayer runs the command through sudo, as user when one is given and as
// the remote default privileged account otherwise.
func SudoLayer(user string) Layer {
	return join("sudo", userArg(user), string(ShellLayer))
}

// ContainerLayer runs the command inside the named container on the host.
// The optional user is passed to docker exec.
func ContainerLayer(name, user string) Layer {
	return join("sudo docker exec", userArg(user), "-i", Quote(name), string(ShellLayer))
}

func userArg(user string) string {
	if user == "" {
		return ""
	}
	return "-u " + Quote(user)
}

func join(parts ...string) Layer {
	var fields []string
	for _, p := range parts {
		if p != "" {
			fields = append(fields, p)
		}
	}
	return Layer(strings.Join(fields, " "))
}

// Chain is an immutable list of layers, outermost first.
// The zero value is the plain shell.
type Chain struct {
	layers []Layer
}

// With returns a new chain with l nested inside every existing layer.
func (c Chain) With(l Layer) Chain {
	layers := make([]Layer, len(c.layers), len(c.layers)+1)
	copy(layers, c.layers)
	return Chain{layers: append(layers, l)}
}

// Depth returns the number of layers in the chain.
func (c Chain) Depth() int {
	return len(c.layers)
}

// Prefix returns the innermost prefix command, the one a command is
// appended to directly.
func (c Chain) Prefix() Layer {
	if len(c.layers) == 0 {
		return ShellLayer
	}
	return c.layers[len(c.layers)-1]
}

// Wrap returns cmd wrapped by every layer. Each layer receives everything
// inside it as one quoted token, so the innermost shell sees cmd verbatim.
func (c Chain) Wrap(cmd string) string {
	if len(c.layers) == 0 {
		return string(ShellLayer) + " " + Quote(cmd)
	}
	s := cmd
	for i := len(c.layers) - 1; i >= 0; i-- {
		s = string(c.layers[i]) + " " + Quote(s)
	}
	return s
}

// String returns the layers joined with " | " for logging.
func (c Chain) String() string {
	if len(c.layers) == 0 {
		return string(ShellLayer)
	}
	parts := make([]string, len(c.layers))
	for i, l := range c.layers {
		parts[i] = string(l)
	}
	return strings.Join(parts, " | ")
}
