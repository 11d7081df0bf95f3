package repository

import "errors"

var (
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrGenerationNotFound   = errors.New("generation log not found")
)
