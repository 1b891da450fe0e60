package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/feral-file/anky-indexer/internal/logger"
)

// TemporalOrchestrator starts workflows; it is the subset of client.Client the API and worker use
//
//go:generate mockgen -source=orchestrator.go -destination=../../mocks/temporal_orchestrator.go -package=mocks -mock_names=TemporalOrchestrator=MockTemporalOrchestrator
type TemporalOrchestrator interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// ClientConfig holds the connection settings of the Temporal frontend
type ClientConfig struct {
	HostPort  string
	Namespace string
	Identity  string
}

// Dial connects to Temporal with the global logger attached
func Dial(ctx context.Context, cfg ClientConfig) (client.Client, error) {
	c, err := client.DialContext(ctx, client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Identity:  cfg.Identity,
		Logger:    NewLogger(logger.Named("temporal")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial temporal at %s: %w", cfg.HostPort, err)
	}

	return c, nil
}
