// Package qstash is a client for the Upstash QStash message delivery
// service.
//
// A Client publishes messages to HTTP endpoints and manages the resources
// that drive delivery: schedules, queues, URL groups and signing keys.
// Every request goes through a retrying transport that resends requests
// whose network round trip fails, waiting between attempts according to a
// deterministic exponential backoff.
//
//	client := qstash.New(os.Getenv("QSTASH_TOKEN"))
//
//	res, err := client.Message.PublishJSON(ctx, &qstash.PublishJSONRequest{
//		PublishRequest: qstash.PublishRequest{
//			URL: "https://example.com/api/webhook",
//			DeliveryOptions: qstash.DeliveryOptions{
//				Delay: 3 * time.Second,
//			},
//		},
//		Payload: map[string]string{"hello": "world"},
//	})
//
// Deliveries made by QStash are signed. Use the receiver package to
// verify them.
package qstash
