package domainmanager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/route53"
	"github.com/aws/aws-sdk-go/service/route53/route53iface"
	"github.com/sirupsen/logrus"
)

type Route53DomainManager struct {
	route53Api route53iface.Route53API
	logger     *logrus.Entry
}

// Route53 escapes '*' in names as \052 but keeps the trailing dot.
func unescapeRoute53Name(s string) string {
	return strings.ReplaceAll(s, "\\052", "*")
}

func (domainManager *Route53DomainManager) ListRecords(ctx context.Context, zoneID string, startName string, startType string) ([]*Record, bool, error) {
	if zoneID == "" {
		return nil, false, errors.New("hosted zone id is empty")
	}

	input := &route53.ListResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
	}

	// Route53 rejects a start type without a start name.
	if startName != "" {
		input.StartRecordName = aws.String(startName)
		if startType != "" {
			input.StartRecordType = aws.String(startType)
		}
	}

	output, err := domainManager.route53Api.ListResourceRecordSetsWithContext(ctx, input)
	if err != nil {
		return nil, false, fmt.Errorf("listing record sets of zone %s: %w", zoneID, err)
	}

	records := make([]*Record, 0, len(output.ResourceRecordSets))

	for _, resourceRecordSet := range output.ResourceRecordSets {
		values := make([]string, 0, len(resourceRecordSet.ResourceRecords))

		for _, resourceRecord := range resourceRecordSet.ResourceRecords {
			values = append(values, aws.StringValue(resourceRecord.Value))
		}

		records = append(records, &Record{
			Name:   unescapeRoute53Name(aws.StringValue(resourceRecordSet.Name)),
			Type:   aws.StringValue(resourceRecordSet.Type),
			TTL:    aws.Int64Value(resourceRecordSet.TTL),
			Values: values,
		})
	}

	truncated := aws.BoolValue(output.IsTruncated)
	domainManager.logger.
		WithField("zone", zoneID).
		WithField("records", len(records)).
		WithField("truncated", truncated).
		Debug("Listed record sets")

	return records, truncated, nil
}

func (domainManager *Route53DomainManager) UpsertRecords(ctx context.Context, zoneID string, changes []*Change) error {
	if len(changes) == 0 {
		return nil
	}

	route53Changes := make([]*route53.Change, 0, len(changes))

	for _, change := range changes {
		route53Changes = append(route53Changes, &route53.Change{
			Action: aws.String(route53.ChangeActionUpsert),
			ResourceRecordSet: &route53.ResourceRecordSet{
				ResourceRecords: []*route53.ResourceRecord{
					{Value: aws.String(change.Value)},
				},
				Name: aws.String(change.Name),
				Type: aws.String(change.Type),
				TTL:  aws.Int64(change.TTL),
			},
		})
	}

	batchRequest := &route53.ChangeResourceRecordSetsInput{
		ChangeBatch: &route53.ChangeBatch{
			Changes: route53Changes,
			Comment: aws.String("Managed by dyndns"),
		},
		HostedZoneId: aws.String(zoneID),
	}

	output, err := domainManager.route53Api.ChangeResourceRecordSetsWithContext(ctx, batchRequest)
	if err != nil {
		return fmt.Errorf("changing record sets of zone %s: %w", zoneID, err)
	}

	l := domainManager.logger.WithField("zone", zoneID).WithField("changes", len(changes))
	if output.ChangeInfo != nil {
		l = l.WithField("changeId", aws.StringValue(output.ChangeInfo.Id))
	}
	l.Info("Submitted change batch")

	return nil
}

func (_ *Route53DomainManager) GetName() string {
	return "route53"
}

func CreateRoute53DomainManager(route53Api route53iface.Route53API) *Route53DomainManager {
	return &Route53DomainManager{
		route53Api: route53Api,
		logger:     logrus.WithField("domain-manager", "route53"),
	}
}

// CreateRoute53DomainManagerFromSession builds the Route53 client from an AWS
// session, the credentials come from the default provider chain.
func CreateRoute53DomainManagerFromSession(sess client.ConfigProvider) *Route53DomainManager {
	return CreateRoute53DomainManager(route53.New(sess))
}
