package dyndns

import (
	"context"
	"errors"

	"github.com/deinstapel/dyndns/domainmanager"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeDomainManager serves a fixed zone and applies upserts to it, so a
// second reconcile sees the first one's writes.
type fakeDomainManager struct {
	records   []*domainmanager.Record
	truncated bool
	listErr   error
	upsertErr error
	panicMsg  string

	listCalls     int
	upsertCalls   [][]*domainmanager.Change
	lastZoneID    string
	lastStartName string
	lastStartType string
	lastDeadline  bool
}

func (f *fakeDomainManager) ListRecords(ctx context.Context, zoneID string, startName string, startType string) ([]*domainmanager.Record, bool, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.listCalls++
	f.lastZoneID = zoneID
	f.lastStartName, f.lastStartType = startName, startType
	_, f.lastDeadline = ctx.Deadline()
	if f.listErr != nil {
		return nil, false, f.listErr
	}
	return f.records, f.truncated, nil
}

func (f *fakeDomainManager) UpsertRecords(_ context.Context, zoneID string, changes []*domainmanager.Change) error {
	f.upsertCalls = append(f.upsertCalls, changes)
	if f.upsertErr != nil {
		return f.upsertErr
	}

	for _, change := range changes {
		name := change.Name + "."
		replaced := false
		for _, record := range f.records {
			if record.Name == name && record.Type == change.Type {
				record.Values = []string{change.Value}
				replaced = true
				break
			}
		}
		if !replaced {
			f.records = append(f.records, &domainmanager.Record{
				Name:   name,
				Type:   change.Type,
				TTL:    change.TTL,
				Values: []string{change.Value},
			})
		}
	}
	return nil
}

func (f *fakeDomainManager) GetName() string {
	return "fake"
}

func fixtureZone() *fakeDomainManager {
	return &fakeDomainManager{
		records: []*domainmanager.Record{
			{Name: "foo.bar.", Type: "A", TTL: 300, Values: []string{"123.134.84.62"}},
			{Name: "boom.bang.", Type: "A", TTL: 300, Values: []string{"231.134.85.63"}},
		},
	}
}

// blockingDomainManager waits for the deadline of the call it blocks on.
type blockingDomainManager struct {
	blockList bool
	upserts   int
}

func (b *blockingDomainManager) ListRecords(ctx context.Context, _ string, _ string, _ string) ([]*domainmanager.Record, bool, error) {
	if b.blockList {
		<-ctx.Done()
		return nil, false, ctx.Err()
	}
	return nil, false, nil
}

func (b *blockingDomainManager) UpsertRecords(ctx context.Context, _ string, _ []*domainmanager.Change) error {
	b.upserts++
	<-ctx.Done()
	return ctx.Err()
}

func (b *blockingDomainManager) GetName() string {
	return "blocking"
}

type fakeSecretStore struct {
	secrets map[string]string
	err     error
	calls   int
}

func (f *fakeSecretStore) GetSecret(_ context.Context, id string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	secret, ok := f.secrets[id]
	if !ok {
		return "", errors.New("secret not found: " + id)
	}
	return secret, nil
}

func testLogger() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}
