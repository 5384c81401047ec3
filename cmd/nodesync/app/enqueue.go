package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/nodesync/internal/app/storage"
	"github.com/stacklok/nodesync/internal/config"
	"github.com/stacklok/nodesync/internal/job"
	"github.com/stacklok/nodesync/internal/queue"
	"github.com/stacklok/nodesync/internal/service"
	nodesync "github.com/stacklok/nodesync/internal/sync"
)

func newEnqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Create a sync job and publish it to the queue",
		Long: `Create a sync job for a cluster and publish its message to the job stream.
With --republish the message of an existing job is published again instead.

Examples:
  # Discover new nodes of a cluster
  nodesync enqueue --config config.yaml --cluster 3f1c... --type create-nodes

  # Set the status of two nodes
  nodesync enqueue --config config.yaml --cluster 3f1c... --type update-node-statuses \
    --payload '{"node_ids":[1,2],"status":"posted"}'

  # Redeliver a job
  nodesync enqueue --config config.yaml --republish 9b2e...`,
		RunE: runEnqueue,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().String("cluster", "", "UUID of the cluster to sync")
	cmd.Flags().String("type", string(job.TypeUpdateNodes), "Job type (create-nodes, update-nodes, update-node-statuses)")
	cmd.Flags().String("job-uuid", "", "UUID of the new job (generated when empty)")
	cmd.Flags().String("payload", "", "JSON payload of the job")
	cmd.Flags().String("republish", "", "UUID of an existing job to publish again")

	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	cmd.MarkFlagsMutuallyExclusive("republish", "cluster")
	cmd.MarkFlagsOneRequired("republish", "cluster")
	return cmd
}

func runEnqueue(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Queue == nil {
		return fmt.Errorf("queue configuration is required")
	}

	factory, err := storage.NewStorageFactory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create storage factory: %w", err)
	}
	defer factory.Cleanup()

	client, err := queue.NewClient(ctx, cfg.Queue)
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close queue client", "error", err)
		}
	}()

	e := &enqueuer{factory: factory, producer: queue.NewProducer(client, 0)}

	var j *job.Job
	if republish, _ := flags.GetString("republish"); republish != "" {
		j, err = e.republish(ctx, republish)
	} else {
		req := enqueueRequest{}
		req.cluster, _ = flags.GetString("cluster")
		req.jobUUID, _ = flags.GetString("job-uuid")
		req.payload, _ = flags.GetString("payload")
		jobType, _ := flags.GetString("type")
		req.jobType = job.Type(jobType)
		j, err = e.create(ctx, req)
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

type enqueueRequest struct {
	cluster string
	jobType job.Type
	jobUUID string
	payload string
}

// enqueuer creates or republishes jobs against one storage backend and stream.
type enqueuer struct {
	factory  storage.Factory
	producer service.Publisher
}

func (e *enqueuer) create(ctx context.Context, req enqueueRequest) (*job.Job, error) {
	ledger, err := e.factory.CreateJobLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create job ledger: %w", err)
	}
	clusters, err := e.factory.CreateClusterStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster store: %w", err)
	}

	// Jobs are only published here, never run, so no dispatcher is needed.
	svc := service.New(ledger, clusters, nil, service.WithPublisher(e.producer))

	opts := []service.Option[service.CreateJobOptions]{
		service.WithClusterUUID(req.cluster),
		service.WithJobType(req.jobType),
	}
	if req.jobUUID != "" {
		opts = append(opts, service.WithJobUUID(req.jobUUID))
	}
	if req.payload != "" {
		opts = append(opts, service.WithPayload(json.RawMessage(req.payload)))
	}

	j, err := svc.CreateJob(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}
	return j, nil
}

func (e *enqueuer) republish(ctx context.Context, jobUUID string) (*job.Job, error) {
	ledger, err := e.factory.CreateJobLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create job ledger: %w", err)
	}

	j, err := ledger.GetByUUID(ctx, jobUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", jobUUID, err)
	}
	if j.Status.IsTerminal() {
		slog.Warn("Republishing a finished job, workers will skip it", "job", j.UUID, "status", j.Status)
	}

	id, err := e.producer.Publish(ctx, nodesync.Message{
		JobUUID:    j.UUID,
		Type:       string(j.Type),
		TargetID:   j.TargetID,
		TargetType: j.TargetType,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Job republished", "job", j.UUID, "entry", id)
	return j, nil
}
