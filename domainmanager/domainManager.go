package domainmanager

import "context"

const RecordTypeA = "A"

// Record is one resource record set as published by the provider.
// Name keeps the provider's trailing dot.
type Record struct {
	Name   string
	Type   string
	TTL    int64
	Values []string
}

type Change struct {
	Name  string
	Type  string
	TTL   int64
	Value string
}

type DomainManager interface {
	// ListRecords returns the record sets of a zone in provider order. The
	// bool reports whether the provider truncated the listing.
	ListRecords(ctx context.Context, zoneID string, startName string, startType string) ([]*Record, bool, error)
	UpsertRecords(ctx context.Context, zoneID string, changes []*Change) error
	GetName() string
}
