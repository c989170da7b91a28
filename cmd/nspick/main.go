// Command `nspick` inspects the host's Unix resolver configuration.
//
// It parses /etc/resolv.conf and the /etc/resolver override directory (or
// any other paths configured in ~/.nspick/config.yaml) and reports which DNS
// servers would be queried for a hostname. It never performs DNS queries
// itself.
//
// Usage:
//
//	nspick servers <hostname>  - Show the servers selected for a hostname
//	nspick check               - Report whether any name servers are configured
//	nspick version             - Show version information
//
// Examples:
//
//	nspick servers host.corp.internal
//	nspick servers --rotate example.com
//	nspick check
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/nspick/internal/buildinfo"
	"github.com/lc/nspick/internal/config"
	"github.com/lc/nspick/internal/log"
	"github.com/lc/nspick/internal/nameservers"
	"github.com/lc/nspick/internal/resolvconf"
)

func main() {
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var (
		confPath    string
		overrideDir string
		rotate      bool
	)

	root := &cobra.Command{
		Use:   "nspick",
		Short: "Inspect which DNS servers the host's resolver configuration selects",
		Long: `nspick reads Unix resolver configuration (/etc/resolv.conf plus the
/etc/resolver override directory) and reports which DNS servers would be
queried for a given hostname. It performs no network I/O.`,
	}
	root.PersistentFlags().StringVar(&confPath, "conf", cfg.Resolver.ConfPath, "primary resolv.conf-format file")
	root.PersistentFlags().StringVar(&overrideDir, "resolver-dir", cfg.Resolver.OverrideDir, "directory of per-domain override files")

	newProvider := func() (*resolvconf.UnixProvider, error) {
		opts := []resolvconf.Opt{}
		if rotate {
			opts = append(opts, resolvconf.WithBuildSource(nameservers.Rotating))
		}
		return resolvconf.NewFromDir(confPath, overrideDir, opts...)
	}

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
		},
	}

	// ---- servers command ----
	serversCmd := &cobra.Command{
		Use:   "servers <hostname>",
		Short: "Show the DNS servers selected for a hostname",
		Long: `Show the DNS servers the configured files select for a hostname,
in the order a resolver would try them. The hostname is matched against the
configured domain overrides from most to least specific before falling back
to the default servers.`,
		Example: "nspick servers host.corp.internal",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			hostname := args[0]
			prov, err := newProvider()
			if err != nil {
				return err
			}

			stream, ok := prov.ServersFor(hostname)
			if !ok {
				color.Yellow("No name servers configured for %s.", hostname)
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"#", "Server"})
			table.SetHeaderColor(
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
			)
			table.SetBorder(false)
			table.SetColumnColor(
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
				tablewriter.Colors{tablewriter.FgGreenColor},
			)

			// The stream cycles forever; one pass over the distinct
			// addresses is what the user wants to see.
			for i := 0; i < stream.Size(); i++ {
				addr, ok := stream.Next()
				if !ok {
					break
				}
				table.Append([]string{fmt.Sprintf("%d", i+1), addr.String()})
			}

			color.New(color.Bold).Printf("NAME SERVERS FOR %s:\n", hostname)
			table.Render()
			return nil
		},
	}
	serversCmd.Flags().BoolVar(&rotate, "rotate", false, "round-robin the first server across invocations instead of shuffling")

	// ---- check command ----
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether the resolver configuration selects any servers",
		Long: `Check parses the configured files and reports whether they yield any
name servers at all. A host with only comments in resolv.conf and an empty
override directory has nothing to offer a resolver.`,
		Example: "nspick check",
		RunE: func(_ *cobra.Command, _ []string) error {
			prov, err := newProvider()
			if err != nil {
				return err
			}
			if prov.MayOverrideNameServers() {
				color.Green("✓ resolver configuration provides name servers")
				return nil
			}
			color.Yellow("resolver configuration provides no name servers")
			return nil
		},
	}

	root.AddCommand(serversCmd, checkCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
