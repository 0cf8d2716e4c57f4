package service

import "errors"

var (
	// ErrCampaignNotScheduled is returned by the manual trigger when the
	// campaign is not in scheduled status, including when it already reached
	// a terminal status.
	ErrCampaignNotScheduled = errors.New("campaign is not in scheduled status")

	// ErrCampaignNotClaimable is returned when another dispatch already
	// claimed the campaign, so this attempt must not send anything.
	ErrCampaignNotClaimable = errors.New("campaign already claimed for sending")
)
