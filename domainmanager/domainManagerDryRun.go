package domainmanager

import (
	"context"

	"github.com/sirupsen/logrus"
)

type DomainManagerDryRun struct {
	isDryRun      bool
	domainManager DomainManager
	logger        *logrus.Entry
}

func (dM *DomainManagerDryRun) ListRecords(ctx context.Context, zoneID string, startName string, startType string) ([]*Record, bool, error) {
	return dM.domainManager.ListRecords(ctx, zoneID, startName, startType)
}

func (dM *DomainManagerDryRun) UpsertRecords(ctx context.Context, zoneID string, changes []*Change) error {
	if dM.isDryRun {
		for _, change := range changes {
			dM.logger.
				WithField("zone", zoneID).
				WithField("name", change.Name).
				WithField("value", change.Value).
				Info("Skipping UpsertRecords, because dry run is enabled")
		}
		return nil
	}
	return dM.domainManager.UpsertRecords(ctx, zoneID, changes)
}

func (dM *DomainManagerDryRun) GetName() string {
	return dM.domainManager.GetName()
}

func WrapIntoDryRunProtector(domainManager DomainManager, dryRun bool) *DomainManagerDryRun {
	return &DomainManagerDryRun{
		isDryRun:      dryRun,
		domainManager: domainManager,
		logger:        logrus.WithField("domain-manager", "dry-run-protect"),
	}
}
