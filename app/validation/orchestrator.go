package validation

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/apperror"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/factory"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/reference"
	"golang.org/x/sync/errgroup"
)

// Candidate is an already shape-validated write request.
type Candidate struct {
	OwnerID         int64
	TierID          int64
	LevelID         int64
	AddonIDs        []int64
	PaymentMethodID int64
}

var labels = map[reference.Kind]string{
	reference.KindUser:             "user",
	reference.KindSubscriptionType: "subscription type",
	reference.KindLevel:            "plan level",
	reference.KindAddon:            "plan add-on",
	reference.KindPaymentMethod:    "payment method",
}

type Option func(*Orchestrator)

// WithParallelChecks runs tier, level, add-ons and payment concurrently once the
// owner is confirmed. Error precedence stays owner > tier > level > add-ons > payment.
func WithParallelChecks(enabled bool) Option {
	return func(o *Orchestrator) {
		o.parallel = enabled
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = metrics
	}
}

type Orchestrator struct {
	checker  reference.Checker
	parallel bool
	metrics  *Metrics
	logger   logrus.FieldLogger
}

func NewOrchestrator(checker reference.Checker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		checker: checker,
		logger:  factory.NewModuleLogger("validation-orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate accepts the candidate or returns the first blocking violation.
func (o *Orchestrator) Validate(ctx context.Context, c Candidate) error {
	var err error
	if o.parallel {
		err = o.validateParallel(ctx, c)
	} else {
		err = o.validateSequential(ctx, c)
	}

	o.metrics.ObserveValidation(err)
	if err != nil {
		o.logger.WithField("owner_id", c.OwnerID).
			WithField("kind", string(apperror.KindOf(err))).
			WithError(err).
			Debug("Subscription references rejected")
	}
	return err
}

func (o *Orchestrator) validateSequential(ctx context.Context, c Candidate) error {
	if err := o.requireExists(ctx, reference.KindUser, c.OwnerID); err != nil {
		return err
	}
	if err := o.requireExists(ctx, reference.KindSubscriptionType, c.TierID); err != nil {
		return err
	}
	if err := o.requireExists(ctx, reference.KindLevel, c.LevelID); err != nil {
		return err
	}
	if err := o.checkAddons(ctx, c.AddonIDs); err != nil {
		return err
	}
	return o.requireExists(ctx, reference.KindPaymentMethod, c.PaymentMethodID)
}

func (o *Orchestrator) validateParallel(ctx context.Context, c Candidate) error {
	if err := o.requireExists(ctx, reference.KindUser, c.OwnerID); err != nil {
		return err
	}

	// No shared cancellation: a lower-precedence failure must not cut short a
	// higher-precedence check.
	var tierErr, levelErr, addonErr, paymentErr error
	var g errgroup.Group
	g.Go(func() error {
		tierErr = o.requireExists(ctx, reference.KindSubscriptionType, c.TierID)
		return nil
	})
	g.Go(func() error {
		levelErr = o.requireExists(ctx, reference.KindLevel, c.LevelID)
		return nil
	})
	g.Go(func() error {
		addonErr = o.checkAddons(ctx, c.AddonIDs)
		return nil
	})
	g.Go(func() error {
		paymentErr = o.requireExists(ctx, reference.KindPaymentMethod, c.PaymentMethodID)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{tierErr, levelErr, addonErr, paymentErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) requireExists(ctx context.Context, kind reference.Kind, id int64) error {
	result := o.checker.CheckExists(ctx, kind, id)
	label := labels[kind]

	switch result.Outcome {
	case reference.OutcomeFound:
		return nil
	case reference.OutcomeNotFound:
		return apperror.NotFound("%s with id %d not found", label, id)
	case reference.OutcomeTimedOut:
		return apperror.Wrap(apperror.KindRequestTimeout, result.Err, "%s lookup for id %d timed out", label, id)
	default:
		return apperror.Wrap(apperror.KindTransport, result.Err, "%s lookup for id %d failed", label, id)
	}
}

func (o *Orchestrator) checkAddons(ctx context.Context, ids []int64) error {
	if id, invalid := o.firstInvalidAddon(ctx, ids); invalid {
		return apperror.PreconditionFailed("%s with id %d not found", labels[reference.KindAddon], id)
	}
	return nil
}

// firstInvalidAddon stops probing at the first add-on that is not confirmed,
// whatever the reason.
func (o *Orchestrator) firstInvalidAddon(ctx context.Context, ids []int64) (int64, bool) {
	for _, id := range ids {
		if !o.checker.CheckExists(ctx, reference.KindAddon, id).Found() {
			return id, true
		}
	}
	return 0, false
}
