// Package resilience retries the acquisition of stream transports.
//
// Only acquisition is retried. Once a reader is acquired, a read failure
// ends the sequence as usual; retrying mid-stream would silently repeat or
// lose elements.
//
//	t := resilience.RetryTransport(redisSubscription, resilience.DefaultRetryConfig())
//	msgs := stream.From(t)
package resilience
