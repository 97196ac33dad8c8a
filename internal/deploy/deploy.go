package deploy

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"branch-deployer/internal/kube"
	"branch-deployer/internal/manifest"
	"branch-deployer/internal/metrics"
)

// Deployer upserts the deployment, service and ingress of a branch.
type Deployer struct {
	client  *kube.Client
	flavor  manifest.Flavor
	opts    manifest.Options
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func New(client *kube.Client, flavor manifest.Flavor, opts manifest.Options, logger *slog.Logger, recorder *metrics.Recorder) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{
		client:  client,
		flavor:  flavor,
		opts:    opts,
		logger:  logger,
		metrics: recorder,
	}
}

// Deploy runs the three upserts concurrently and waits for all of them.
// The outcomes are always complete and ordered deployment, service, ingress.
// A non-nil error is the first failure that never reached the API server.
func (d *Deployer) Deploy(ctx context.Context, b manifest.BranchContext) ([3]kube.Outcome, error) {
	var outcomes [3]kube.Outcome
	steps := d.steps(b)

	var g errgroup.Group
	for i, step := range steps {
		g.Go(func() error {
			outcome, err := step(ctx)
			outcomes[i] = outcome
			d.record(b, outcome, err)
			return err
		})
	}
	err := g.Wait()

	return outcomes, err
}

type upsertStep func(ctx context.Context) (kube.Outcome, error)

func (d *Deployer) steps(b manifest.BranchContext) [3]upsertStep {
	ns := b.Namespace
	service := manifest.BuildService(b, d.opts)

	if d.flavor == manifest.FlavorStable {
		deployment := manifest.BuildAppsDeployment(b, d.opts)
		ingress := manifest.BuildNetworkingIngress(b, d.opts)
		return [3]upsertStep{
			func(ctx context.Context) (kube.Outcome, error) {
				return d.client.ApplyAppsDeployment(ctx, ns, deployment)
			},
			func(ctx context.Context) (kube.Outcome, error) {
				return d.client.ApplyService(ctx, ns, service)
			},
			func(ctx context.Context) (kube.Outcome, error) {
				return d.client.ApplyNetworkingIngress(ctx, ns, ingress)
			},
		}
	}

	deployment := manifest.BuildDeployment(b, d.opts)
	ingress := manifest.BuildIngress(b, d.opts)
	return [3]upsertStep{
		func(ctx context.Context) (kube.Outcome, error) {
			return d.client.ApplyExtensionsDeployment(ctx, ns, deployment)
		},
		func(ctx context.Context) (kube.Outcome, error) {
			return d.client.ApplyService(ctx, ns, service)
		},
		func(ctx context.Context) (kube.Outcome, error) {
			return d.client.ApplyExtensionsIngress(ctx, ns, ingress)
		},
	}
}

func (d *Deployer) record(b manifest.BranchContext, outcome kube.Outcome, err error) {
	logger := d.logger.With(
		"kind", outcome.Kind,
		"name", outcome.Name,
		"namespace", b.Namespace,
		"branch", b.BranchName,
	)
	if err != nil {
		logger.Error("upsert failed without api response", "error", err)
		d.metrics.ObserveUpsert(outcome.Kind, "fatal")
		return
	}

	switch outcome.Status {
	case kube.StatusError:
		logger.Error("upsert failed", "status", outcome.Status, "detail", outcome.Detail)
	default:
		logger.Info("upsert finished", "status", outcome.Status)
	}
	d.metrics.ObserveUpsert(outcome.Kind, string(outcome.Status))
}
