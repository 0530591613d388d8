// Package whitebox provides clients that inspect an OpenStack deployment
// from the inside: the hypervisor's view of a guest, the compute database
// and the management CLI.
//
// Every client runs its commands through a remote.Session. Where the
// command has to run depends on the deployment topology: services either
// run in named containers or directly on the host. Topology picks the
// execution context for each logical service.
//
// # Usage
//
//	session, err := remote.NewSession(identity, remote.NewSSHTransport(settings))
//	if err != nil {
//	    return err
//	}
//
//	topo := whitebox.DefaultTopology(true)
//	xml, err := whitebox.NewHypervisorInspector(session, topo, "compute-0").
//	    DumpXML(ctx, "instance-0001")
//
//	db, err := whitebox.NewDatabaseClient(ctx, session, topo)
//	if err != nil {
//	    return err
//	}
//	out, err := db.ExecuteCommand(ctx, "select uuid from instances")
package whitebox
