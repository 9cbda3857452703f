package runtime

import (
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

type proposalCreated struct {
	ProposalID string `mapstructure:"proposalId"`
}

type contractDeployed struct {
	Address string `mapstructure:"address"`
}

// proposalIDFromLogs returns the first non-empty string proposalId field.
func proposalIDFromLogs(logs []domain.Log) string {
	for _, l := range logs {
		var ev proposalCreated
		if err := mapstructure.Decode(l.Fields, &ev); err != nil {
			continue
		}
		if ev.ProposalID != "" {
			return ev.ProposalID
		}
	}
	return ""
}

// addressFromLogs returns the first non-empty string address field.
func addressFromLogs(logs []domain.Log) string {
	for _, l := range logs {
		var ev contractDeployed
		if err := mapstructure.Decode(l.Fields, &ev); err != nil {
			continue
		}
		if ev.Address != "" {
			return ev.Address
		}
	}
	return ""
}
