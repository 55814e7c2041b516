// Package recallclient provides the primary entry point for constructing a
// Recall entity API client that implements the recall.Client interface.
//
// It resolves defaults (base URL, API key header, timeout, user agent) and
// rejects a configuration without an API key before any request is made.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//	  "os"
//
//	  "github.com/contamio/recallctl/pkg/recall"
//	  "github.com/contamio/recallctl/pkg/recallclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := recallclient.New(ctx, &recall.Config{
//	    APIKey: os.Getenv("BASE44_API_KEY"),
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  record, err := cli.Get(ctx, "6812ab...")
//	  if err != nil { log.Fatal(err) }
//
//	  _, err = cli.Update(ctx, record.ID(), recall.NewUpdatePayload(recall.StatusClosed, "Parts replaced"))
//	  if err != nil { log.Fatal(err) }
//	}
//
// Clients returned by New also implement recall.MetricsProvider.
package recallclient
