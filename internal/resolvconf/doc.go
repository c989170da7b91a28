// Package resolvconf reads Unix-style resolver configuration and answers
// which DNS servers should be queried for a hostname.
//
// Two file formats feed it: the primary /etc/resolv.conf format, which lists
// the default name servers and may carry per-domain overrides via the domain
// directive, and the /etc/resolver directory convention, where each file is
// named after the domain it overrides.
//
// # Directives
//
//	nameserver <ip>        add a server; <ip> may carry an explicit port as
//	                       <ip>.<port> or <ip>:<port>
//	domain <name>          commit accumulated servers under the previous
//	                       domain, then switch to <name>
//	port <port>            port applied to subsequent nameserver lines
//	                       without an explicit one
//	sortlist ...           recognized but not supported
//
// Lines starting with '#' or ';' are comments; unknown directives are
// ignored so newer configuration files still parse.
//
// # Basic Usage
//
// Build a provider from the conventional paths and query it:
//
//	prov, err := resolvconf.NewFromDir("/etc/resolv.conf", "/etc/resolver")
//	if err != nil {
//		log.Fatal(err)
//	}
//	stream, ok := prov.ServersFor("host.corp.internal")
//	if ok {
//		addr, _ := stream.Next()
//		// query addr ...
//	}
//
// Or use the best-effort bootstrap, which never fails:
//
//	prov := resolvconf.ParseSilently()
//
// # Conflict Resolution
//
// When the same domain is configured twice, the first entry wins and the
// later one is dropped with a debug diagnostic. Override-directory entries
// are parsed before the primary file, so they take priority.
//
// # Query Semantics
//
// ServersFor walks from the hostname as given down through its parent
// domains: "a.b.example.com" checks "a.b.example.com", "b.example.com",
// then "example.com". A hostname without a dot past its first character
// goes straight to the default servers.
//
// # Concurrency
//
// Construction is sequential and the built provider is immutable, so any
// number of goroutines may query it without synchronization.
package resolvconf
