// Package kafka adapts Kafka topics to sequences.
//
// Messages and FromFetcher turn a consumer into an unbounded, lazily
// connected sequence of records; Produce drains a sequence into a writer in
// batches built with seq.Batch.
//
// With a consumer group, a record is committed only when the next record is
// pulled, so a record the consumer never finished with is redelivered.
//
// # Configuration
//
//	kafka:
//	  enabled: true
//	  brokers: ["localhost:9092"]
//	  group_id: "seqcat"
//	  topic: "events"
package kafka
