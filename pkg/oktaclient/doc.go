// Package oktaclient provides the primary entry point for constructing an
// Okta API client that implements the okta.Client interface.
//
// It validates the org URL, selects the credential and wires the token
// provider, rate limiter, retry executor and HTTP transport behind the
// resource interfaces defined in the okta package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/mcp-okta-support/okta-go/pkg/okta"
//	  "github.com/mcp-okta-support/okta-go/pkg/oktaclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // With an API token:
//	  cli, err := oktaclient.New(ctx, &okta.Config{
//	    OrgURL:   "https://acme.okta.com",
//	    APIToken: "00abc...", // sent as "SSWS <token>"
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with OAuth2 client credentials. TokenURL defaults to the org
//	  // authorization server, <org>/oauth2/v1/token.
//	  cli, err = oktaclient.New(ctx, &okta.Config{
//	    OrgURL:       "https://acme.okta.com",
//	    ClientID:     "0oa...",
//	    ClientSecret: "secret",
//	    Scopes:       []string{"okta.users.manage"},
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  user, err := cli.Users().Get(ctx, "ada@example.com")
//	  if err != nil { log.Fatal(err) }
//	  _ = user
//	}
//
// # Org URL
//
// The org URL must use https and belong to okta.com, oktapreview.com or
// okta-emea.com. Set Config.AllowCustomDomain for custom domains and local
// test servers.
//
// # Helpers
//
// NewWithToken and NewWithClientCredentials wrap New with the matching
// configuration.
package oktaclient
