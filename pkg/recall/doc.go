// Package recall provides types, interfaces, and helpers for working with
// Recall records held by the hosted backend's entity API.
//
// # Overview
//
// The package defines the semi-structured Record type, the Collection
// returned by a list call, the Selection used to filter a collection, the
// UpdatePayload sent on a partial update, and the Client interface that the
// concrete implementation in recallclient satisfies. Most consumers import
// recallclient to construct a client and then work with the types here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/contamio/recallctl/pkg/recall"
//	  "github.com/contamio/recallctl/pkg/recallclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := recallclient.New(ctx, &recall.Config{APIKey: "secret"})
//	  if err != nil { log.Fatal(err) }
//
//	  records, err := cli.List(ctx)
//	  if err != nil { log.Fatal(err) }
//
//	  eu := recall.Filter(records, recall.Selection{recall.FieldRegion: {"EU"}})
//	  _ = eu
//	}
//
// # Filtering
//
// Filter keeps the rows whose value for every constrained column is one of
// the accepted values. Columns with no accepted values impose no constraint,
// so an empty Selection returns the collection unchanged.
//
// # Errors
//
// Non-2xx responses are reported as *RemoteAPIError, bodies of the wrong
// shape as *MalformedResponseError, and missing required configuration as
// *ConfigurationError. Helpers such as IsNotFound and IsUnauthorized branch
// on common cases.
//
// # Caching
//
// Cache backends (memory, NATS JetStream KV, none) and the CacheManager with
// hit and miss statistics are used by the interactive session to memoize
// reads for the life of the session.
package recall
