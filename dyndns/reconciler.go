package dyndns

import (
	"context"
	"strings"
	"time"

	"github.com/deinstapel/dyndns/domainmanager"
	"github.com/sirupsen/logrus"
)

const (
	RecordTTL      = 300
	DefaultTimeout = 5 * time.Second

	MessageUpdated    = "Success: DNS record was updated"
	MessageNotUpdated = "Success: DNS record matched and was not updated"
)

type ReconcilerConfig struct {
	HostedZoneID string
	TTL          int64
	Timeout      time.Duration
}

// DNSRecord is the published state of one requested domain. Found is false
// when the zone has no A record for it.
type DNSRecord struct {
	Domain    string
	CurrentIP string
	Found     bool
}

type ChangeRequest struct {
	Domain   string
	TargetIP string
}

type ReconcileResult struct {
	Updated bool
	Message string
	Changes []ChangeRequest
}

type RecordState int

const (
	Missing RecordState = iota
	Stale
	Current
)

func (s RecordState) String() string {
	switch s {
	case Missing:
		return "missing"
	case Stale:
		return "stale"
	case Current:
		return "current"
	default:
		return "unknown"
	}
}

func classify(record DNSRecord, desiredIP string) RecordState {
	if !record.Found {
		return Missing
	}
	if record.CurrentIP != desiredIP {
		return Stale
	}
	return Current
}

type Reconciler struct {
	config        ReconcilerConfig
	domainManager domainmanager.DomainManager
	logger        *logrus.Entry
}

// findRecords picks, per domain, the first A record named domain + "." in
// provider order. Further records with the same name are logged and ignored.
func (r *Reconciler) findRecords(domains []string, records []*domainmanager.Record) []DNSRecord {
	dnsRecords := make([]DNSRecord, 0, len(domains))

	for _, domain := range domains {
		l := r.logger.WithField("domain", domain)
		recordName := domain + "."
		dnsRecord := DNSRecord{Domain: domain}
		matches := 0

		for _, record := range records {
			if record.Type != domainmanager.RecordTypeA || record.Name != recordName {
				continue
			}

			matches++
			if matches > 1 {
				continue
			}

			// Alias records carry no values and count as absent.
			if len(record.Values) > 0 {
				dnsRecord.CurrentIP = record.Values[0]
				dnsRecord.Found = true
			}
		}

		if matches > 1 {
			l.WithField("matches", matches).Warn("Zone has more than one A record with this name, using the first one")
		}
		if !dnsRecord.Found {
			l.Info("Could not find IP address for domain")
		}

		dnsRecords = append(dnsRecords, dnsRecord)
	}

	return dnsRecords
}

func (r *Reconciler) diff(dnsRecords []DNSRecord, desiredIP string) []ChangeRequest {
	changes := make([]ChangeRequest, 0)
	seen := map[string]bool{}

	for _, dnsRecord := range dnsRecords {
		if seen[dnsRecord.Domain] {
			continue
		}
		seen[dnsRecord.Domain] = true

		state := classify(dnsRecord, desiredIP)
		l := r.logger.
			WithField("domain", dnsRecord.Domain).
			WithField("state", state.String())

		if state == Current {
			l.Info("DNS record matched and will not be updated")
			continue
		}

		l.WithField("ip", desiredIP).Info("DNS record will be updated")
		changes = append(changes, ChangeRequest{Domain: dnsRecord.Domain, TargetIP: desiredIP})
	}

	return changes
}

// zoneOrderKey reverses the labels of name, which is the order Route53 lists
// record sets in.
func zoneOrderKey(name string) string {
	labels := strings.Split(strings.ToLower(strings.TrimSuffix(name, ".")), ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, ".")
}

// startRecordName is the requested domain listed first by the provider, so a
// single page starts at the requested records instead of the zone apex.
func startRecordName(domains []string) string {
	start := ""
	for _, domain := range domains {
		if start == "" || zoneOrderKey(domain) < zoneOrderKey(start) {
			start = domain
		}
	}
	return start
}

// Reconcile upserts the A records of domains that are missing or point
// elsewhere than desiredIP, all in one batch. It lists the zone exactly once
// and writes at most once.
func (r *Reconciler) Reconcile(ctx context.Context, domains []string, desiredIP string) (*ReconcileResult, error) {
	listCtx, cancelList := context.WithTimeout(ctx, r.config.Timeout)
	defer cancelList()

	startName := startRecordName(domains)
	records, truncated, err := r.domainManager.ListRecords(listCtx, r.config.HostedZoneID, startName, domainmanager.RecordTypeA)
	if err != nil {
		return nil, &ProviderError{Op: "list records", Err: err}
	}
	if truncated {
		r.logger.
			WithField("records", len(records)).
			WithField("start", startName).
			Warn("Record listing was truncated, domains on later pages are treated as missing")
	}

	changes := r.diff(r.findRecords(domains, records), desiredIP)

	if len(changes) == 0 {
		return &ReconcileResult{Updated: false, Message: MessageNotUpdated, Changes: changes}, nil
	}

	batch := make([]*domainmanager.Change, 0, len(changes))
	for _, change := range changes {
		batch = append(batch, &domainmanager.Change{
			Name:  change.Domain,
			Type:  domainmanager.RecordTypeA,
			TTL:   r.config.TTL,
			Value: change.TargetIP,
		})
	}

	upsertCtx, cancelUpsert := context.WithTimeout(ctx, r.config.Timeout)
	defer cancelUpsert()

	if err := r.domainManager.UpsertRecords(upsertCtx, r.config.HostedZoneID, batch); err != nil {
		return nil, &ProviderError{Op: "upsert records", Err: err}
	}

	r.logger.WithField("changes", len(changes)).Info("DNS record was updated")

	return &ReconcileResult{Updated: true, Message: MessageUpdated, Changes: changes}, nil
}

func CreateReconciler(logger *logrus.Entry, config ReconcilerConfig, domainManager domainmanager.DomainManager) *Reconciler {
	if config.TTL == 0 {
		config.TTL = RecordTTL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Reconciler{
		config:        config,
		domainManager: domainManager,
		logger:        logger.WithField("module", "reconciler"),
	}
}
