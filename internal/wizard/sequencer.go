package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/onegreenvn/campaign-builder-backend/internal/canvas"
	"github.com/onegreenvn/campaign-builder-backend/internal/extraction"
	"github.com/onegreenvn/campaign-builder-backend/internal/gateway"
	"github.com/onegreenvn/campaign-builder-backend/internal/metrics"
)

var (
	ErrInvalidTransition  = errors.New("wizard: transition not allowed from the current stage")
	ErrGenerationInFlight = errors.New("wizard: a generation request is already in flight")
	ErrStaleTicket        = errors.New("wizard: response arrived for a stage that was left")
)

// Dispatcher sends a payload to the generation webhook.
type Dispatcher interface {
	Dispatch(ctx context.Context, p gateway.Payload) (gateway.Result, error)
}

// Ticket identifies one generation request. A ticket is only honoured while
// the sequencer is still at the epoch it was issued in.
type Ticket struct {
	Epoch         uint64
	CorrelationID string
	Payload       gateway.Payload
}

// Outcome describes what a generation response did to the wizard.
type Outcome struct {
	Stage    Stage  `json:"stage"`
	AssetURL string `json:"assetUrl,omitempty"`
	// Delivered is true when the webhook accepted the campaign.
	Delivered bool `json:"delivered"`
}

// Sequencer is the wizard state machine of one editing session. Like the
// graph store it expects a single writer.
type Sequencer struct {
	stage   Stage
	bundle  Bundle
	epoch   uint64
	pending *Ticket
	// awaiting is the correlation id of an accepted request whose asset may
	// still arrive asynchronously.
	awaiting string

	live    extraction.LiveSource
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*Sequencer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) {
		s.now = now
	}
}

// WithMetrics records stage transitions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sequencer) {
		s.metrics = m
	}
}

// NewSequencer starts a wizard at the editing stage. live is used to
// refresh records when the review stage is entered; nil skips the refresh.
func NewSequencer(live extraction.LiveSource, opts ...Option) *Sequencer {
	s := &Sequencer{
		stage:  StageEditing,
		bundle: EmptyBundle(),
		live:   live,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sequencer) Stage() Stage {
	return s.stage
}

// Bundle returns a copy of the accumulated bundle.
func (s *Sequencer) Bundle() Bundle {
	return s.bundle.Clone()
}

// Epoch changes on every stage change.
func (s *Sequencer) Epoch() uint64 {
	return s.epoch
}

// InFlight reports whether a generation request is outstanding.
func (s *Sequencer) InFlight() bool {
	return s.pending != nil
}

func (s *Sequencer) moveTo(next Stage) {
	s.record(s.stage, next, "ok")
	s.stage = next
	s.epoch++
	s.pending = nil
	s.awaiting = ""
}

func (s *Sequencer) record(from, to Stage, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.StageTransitions.WithLabelValues(string(from), string(to), outcome).Inc()
}

// Next leaves the canvas: g is extracted into a new bundle, and the bundle
// must survive a handoff round trip before the media stage opens. Media
// choices and live records of an earlier pass are discarded.
func (s *Sequencer) Next(g canvas.CampaignGraph) error {
	if s.stage != StageEditing {
		return fmt.Errorf("%w: next from %s", ErrInvalidTransition, s.stage)
	}
	summary, err := extraction.Extract(g)
	if err != nil {
		s.record(StageEditing, StageSelectingMedia, "failed")
		return fmt.Errorf("failed to extract campaign: %w", err)
	}

	// Later stages are derived from this extraction, so they start over.
	g = g.Clone()
	next := Bundle{
		Nodes:                  g.Nodes,
		Edges:                  g.Edges,
		SelectedOrganizationID: g.SelectedOrganizationID,
		CompanyInfo:            summary.CompanyInfo,
		Personas:               summary.Personas,
		Products:               summary.Products,
		Content:                summary.Content,
	}

	if err := roundTrip(next); err != nil {
		s.record(StageEditing, StageSelectingMedia, "failed")
		return fmt.Errorf("bundle failed self-check: %w", err)
	}
	s.bundle = next
	s.moveTo(StageSelectingMedia)
	return nil
}

// SelectMedia records the media selection and opens the review stage with
// records refreshed from the tenant's data store.
func (s *Sequencer) SelectMedia(ctx context.Context, channelIDs, specIDs []string) error {
	if s.stage != StageSelectingMedia {
		return fmt.Errorf("%w: select media from %s", ErrInvalidTransition, s.stage)
	}
	media, specs, err := ResolveMedia(channelIDs, specIDs)
	if err != nil {
		s.record(StageSelectingMedia, StageDeveloping, "rejected")
		return err
	}

	next := s.bundle.Clone()
	next.SelectedMedia = media
	next.SelectedSpecs = specs
	next.Rehydrated = nil

	if s.live != nil && next.SelectedOrganizationID != "" {
		fresh, err := extraction.Rehydrate(ctx, s.live, next.SelectedOrganizationID, next.Summary())
		if err != nil {
			s.record(StageSelectingMedia, StageDeveloping, "failed")
			return fmt.Errorf("failed to refresh campaign records: %w", err)
		}
		next.Rehydrated = &fresh
	}

	s.bundle = next
	s.moveTo(StageDeveloping)
	return nil
}

// BeginGeneration stamps the bundle and issues a ticket for one webhook
// call. Only one ticket may be outstanding.
func (s *Sequencer) BeginGeneration() (Ticket, error) {
	if s.stage != StageDeveloping {
		return Ticket{}, fmt.Errorf("%w: generate from %s", ErrInvalidTransition, s.stage)
	}
	if s.pending != nil {
		return Ticket{}, ErrGenerationInFlight
	}

	now := s.now()
	s.bundle.SubmittedAt = &now
	s.bundle.CorrelationID = uuid.NewString()
	s.bundle.GeneratedAssetURL = ""
	s.awaiting = ""

	t := Ticket{
		Epoch:         s.epoch,
		CorrelationID: s.bundle.CorrelationID,
		Payload:       BuildPayload(s.bundle, now),
	}
	s.pending = &t
	return t, nil
}

// CompleteGeneration applies the webhook answer for t. Answers for tickets
// that are no longer current are discarded with ErrStaleTicket. A dispatch
// error leaves the wizard at the review stage with the bundle intact.
func (s *Sequencer) CompleteGeneration(t Ticket, res gateway.Result, dispatchErr error) (Outcome, error) {
	if s.pending == nil || s.pending.CorrelationID != t.CorrelationID || t.Epoch != s.epoch {
		logrus.WithFields(logrus.Fields{
			"operation":      "complete_generation",
			"correlation_id": t.CorrelationID,
			"ticket_epoch":   t.Epoch,
			"current_epoch":  s.epoch,
		}).Info("Discarding generation response for a stage that was left")
		return Outcome{Stage: s.stage}, ErrStaleTicket
	}
	s.pending = nil

	if dispatchErr != nil {
		s.record(StageDeveloping, StageResult, "failed")
		return Outcome{Stage: s.stage}, dispatchErr
	}
	if !res.HasAsset() {
		s.awaiting = t.CorrelationID
		s.record(StageDeveloping, StageResult, "no_asset")
		return Outcome{Stage: s.stage, Delivered: true}, nil
	}

	s.bundle.GeneratedAssetURL = res.AssetURL
	s.moveTo(StageResult)
	return Outcome{Stage: s.stage, AssetURL: res.AssetURL, Delivered: true}, nil
}

// DeliverAsset applies an asset that arrived after the webhook call
// returned. It reports whether the asset was applied.
func (s *Sequencer) DeliverAsset(correlationID, assetURL string) bool {
	if s.stage != StageDeveloping || s.awaiting == "" || s.awaiting != correlationID || assetURL == "" {
		return false
	}
	s.bundle.GeneratedAssetURL = assetURL
	s.moveTo(StageResult)
	return true
}

// Generate runs BeginGeneration, the dispatch and CompleteGeneration in one
// call.
func (s *Sequencer) Generate(ctx context.Context, d Dispatcher) (Outcome, error) {
	t, err := s.BeginGeneration()
	if err != nil {
		return Outcome{Stage: s.stage}, err
	}
	res, err := d.Dispatch(ctx, t.Payload)
	return s.CompleteGeneration(t, res, err)
}

// Back returns to the previous stage. The bundle is kept as is and any
// outstanding ticket is invalidated.
func (s *Sequencer) Back() error {
	prev, ok := previous[s.stage]
	if !ok {
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.stage)
	}
	s.moveTo(prev)
	return nil
}

// Handoff returns the encoded bundle of the current stage.
func (s *Sequencer) Handoff() (string, error) {
	return EncodeHandoff(s.bundle)
}

// Resume restores a wizard at stage with bundle b, for sessions reopened
// from a handoff string.
func (s *Sequencer) Resume(stage Stage, b Bundle) error {
	if _, ok := previous[stage]; !ok && stage != StageEditing {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, stage)
	}
	s.bundle = b.Clone()
	s.moveTo(stage)
	return nil
}
