// Package redis exposes Redis pub/sub channels and keyspace scans as
// sequences.
//
// Subscribe yields one published message per pull; the subscription is
// opened on the first pull and closed with the sequence. Scan walks the
// keyspace with SCAN, fetching the next cursor page only when the previous
// page has been consumed.
//
//	client, err := redis.New(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	msgs := client.Subscribe("orders")
//	defer msgs.Close()
//	for msg, err := range msgs.All(ctx) { ... }
package redis
