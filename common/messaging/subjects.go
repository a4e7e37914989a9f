package messaging

// Subject constants for the FlowSight message bus.
// Follow the pattern: {domain}.{action}.{resource}
const (
	// SubjectPushRecordsStored carries one message per record persisted by
	// the push service. The payload is the StoredRecordEvent envelope
	// (key, device, canonical record).
	SubjectPushRecordsStored = "push.records.stored"
)

// Queue group names for load-balanced consumers.
// Workers in the same queue group share messages (each message processed once).
const (
	QueuePushConsumers = "push-consumers" // Pool of downstream record processors
)
