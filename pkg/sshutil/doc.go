// Package sshutil provides the SSH/SFTP client utilities whitebox runs its
// remote commands over.
//
// # Overview
//
// The package provides three main components:
//
//   - [Client]: Manages one SSH connection with keepalive
//   - [SSHCommandRunner]: Runs commands over SSH exec and reports exit status
//   - [SFTPFileSystem]: Implements [FileSystem] over SFTP
//
// # Basic Usage
//
//	config := &sshutil.Config{
//		Host:    "controller-0",
//		User:    "heat-admin",
//		KeyFile: "/home/stack/.ssh/id_rsa",
//	}
//
//	client, err := sshutil.NewClient(config)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//
//	runner := sshutil.NewSSHCommandRunner(client)
//	result, err := runner.RunWithOutput(ctx, "hostname")
//
// # Host Resolution
//
// When SSHConfigFile is set, Host may be an alias from an OpenSSH client
// config; its HostName and Port entries are applied before dialing. A
// [Resolver] passed with [WithResolver] then maps the host name to the
// address that is dialed, while host keys are still checked against the
// name.
//
// # Security Considerations
//
// Host keys are verified against KnownHostsFile when one is configured.
// Without it verification is disabled, which is only acceptable against
// trusted lab controllers; set StrictHostKeyChecking to refuse that mode.
package sshutil
