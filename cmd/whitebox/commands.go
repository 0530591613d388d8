package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newDumpXMLCmd(c *cli) *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "dumpxml DOMAIN",
		Short: "Print the libvirt XML of a domain",
		Example: `  whitebox dumpxml --host compute-0 instance-00000001
  whitebox --dry-run dumpxml instance-00000001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}

			xml, err := a.clients.Hypervisor(host).DumpXML(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(c.out, xml)
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "compute host (default: the controller)")

	return cmd
}

func newDomainsCmd(c *cli) *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List the libvirt domains on a host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}

			names, err := a.clients.Hypervisor(host).Domains(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(c.out, name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "compute host (default: the controller)")

	return cmd
}

func newSQLCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "sql QUERY",
		Short:   "Run SQL against the compute database",
		Example: `  whitebox sql "select uuid, host from instances where deleted=0"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}

			db, err := a.clients.Database(cmd.Context())
			if err != nil {
				return err
			}
			out, err := db.ExecuteCommand(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(c.out, out)
			return nil
		},
	}
}

func newManageCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "manage SUBCOMMAND [ARGS...]",
		Short:   "Run a nova-manage sub-command",
		Example: `  whitebox manage cell_v2 list_cells --verbose`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}

			out, err := a.clients.Management().Run(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprint(c.out, out)
			return nil
		},
	}
	// Flags after the sub-command belong to nova-manage.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newDiscoverCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Discover the compute database connection",
		Long: `Discover the compute database connection the way sql does and print
it with the password masked, after the shard rewrite.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}

			db, err := a.clients.Database(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, db.Parameters().String())
			return nil
		},
	}
}

func newContainersCmd(c *cli) *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "containers [NAME...]",
		Short: "Show the containers on a host",
		Long: `Without arguments, list every container on the host. With names,
inspect those containers and report their health and uptime.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}

			d, err := a.docker(cmd.Context(), host)
			if err != nil {
				return err
			}
			defer func() { _ = d.Close() }()

			now := time.Now()
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)

			if len(args) == 0 {
				statuses, err := d.List(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "NAME\tSTATE\tCREATED\tIMAGE")
				for _, s := range statuses {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.State, orDash(s.Age(now)), s.Image)
				}
				return w.Flush()
			}

			fmt.Fprintln(w, "NAME\tSTATE\tHEALTH\tUPTIME\tIMAGE")
			for _, name := range args {
				s, err := d.Inspect(cmd.Context(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Name, s.State, orDash(s.Health), orDash(s.Uptime(now)), s.Image)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "host (default: the controller)")

	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
