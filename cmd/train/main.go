package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"training-job-runner/api/rest/routes"
	"training-job-runner/config"
	cerror "training-job-runner/core/errors"
	"training-job-runner/core/models"
	"training-job-runner/core/monitoring"
	"training-job-runner/core/repository"
	"training-job-runner/core/runner"
	"training-job-runner/core/spec"
	"training-job-runner/providers/aws"
	"training-job-runner/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	ExitCodeExecuteFailed = 1
	ExitCodeInvalidConfig = 2
	ExitCodeCancelled     = 130
)

const (
	FlagModelDir      = "model-dir"
	FlagCheckpointDir = "checkpoint-dir"
	FlagTrainingDir   = "training-dir"
	FlagConfig        = "config"
	FlagJobName       = "job-name"
	FlagLogLevel      = "log-level"
	FlagStatusAddr    = "status-addr"
	FlagArtifactS3URI = "artifact-s3-uri"
)

// ExitError carries the process exit code for err
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

type options struct {
	overrides     config.Overrides
	specPath      string
	jobName       string
	logLevel      string
	statusAddr    string
	artifactS3URI string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd(runnerOpts ...runner.Option) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "train",
		Short:         "Run a training job",
		Long:          "Run a training job: list the training channel, run the epoch loop and write the model artifact to the model directory",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, runnerOpts...)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.overrides.ModelDir, FlagModelDir, "", "model output directory (default $"+config.EnvModelDir+")")
	flags.StringVar(&o.overrides.CheckpointDir, FlagCheckpointDir, "", "checkpoint directory, accepted but unused (default "+models.DefaultCheckpointDir+")")
	flags.StringVar(&o.overrides.TrainingDir, FlagTrainingDir, "", "training data directory (default $"+config.EnvTrainChannel+")")
	flags.StringVarP(&o.specPath, FlagConfig, "c", "", "YAML job spec file")
	flags.StringVar(&o.jobName, FlagJobName, "", "job name")
	flags.StringVar(&o.logLevel, FlagLogLevel, "", "log level (default $LOG_LEVEL or info)")
	flags.StringVar(&o.statusAddr, FlagStatusAddr, "", "serve job status on this address (default $STATUS_ADDR)")
	flags.StringVar(&o.artifactS3URI, FlagArtifactS3URI, "", "export the model artifact to s3://bucket/prefix (default $ARTIFACT_S3_URI)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitCodeInvalidConfig, Err: err}
	})
	return cmd
}

func run(ctx context.Context, o *options, runnerOpts ...runner.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()
	cfg.LogLevel = firstNonEmpty(o.logLevel, cfg.LogLevel)
	cfg.StatusAddr = firstNonEmpty(o.statusAddr, cfg.StatusAddr)
	cfg.ArtifactS3URI = firstNonEmpty(o.artifactS3URI, cfg.ArtifactS3URI)

	if err := initLogger(cfg.LogLevel); err != nil {
		return &ExitError{Code: ExitCodeInvalidConfig, Err: err}
	}

	var jobSpec *spec.JobSpec
	if o.specPath != "" {
		var err error
		if jobSpec, err = spec.LoadJobSpec(o.specPath); err != nil {
			return err
		}
	}

	jobCfg, err := config.Resolve(o.overrides, cfg, jobSpec)
	if err != nil {
		return err
	}

	job := &models.Job{
		ID:     uuid.NewString(),
		Name:   o.jobName,
		Config: jobCfg,
		Status: models.JobStatusPending,
	}
	if jobSpec != nil {
		job.Name = firstNonEmpty(job.Name, jobSpec.Job.Name)
		job.Hyperparameters = jobSpec.Job.Hyperparameters
	}
	job.Name = firstNonEmpty(job.Name, "training-job")

	log.Info("args",
		zap.String("jobID", job.ID),
		zap.String("modelDir", jobCfg.ModelDir),
		zap.String("checkpointDir", jobCfg.CheckpointDir),
		zap.String("trainingDir", jobCfg.TrainingDir))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitor := monitoring.NewJobMonitor(*job)
	if cfg.StatusAddr != "" {
		server := startStatusServer(cfg.StatusAddr, monitor)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn("status server shutdown failed", zap.Error(err))
			}
		}()
	}

	opts := []runner.Option{runner.WithObserver(monitor)}
	var ledger *repository.Ledger
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		ledger = repository.NewLedger(db)
		opts = append(opts, runner.WithRecorder(ledger))
		log.Info("job ledger enabled", zap.String("jobID", job.ID))
	}
	opts = append(opts, runnerOpts...)

	res, err := runner.NewRunner(opts...).Run(ctx, job)
	if err != nil {
		return err
	}
	monitor.SetArtifactURI(res.ArtifactPath)

	if cfg.ArtifactS3URI != "" {
		client, err := aws.NewClient(ctx, cfg.AWSRegion, cfg.ArtifactS3URI)
		if err != nil {
			return err
		}
		var recorder storage.ArtifactRecorder
		if ledger != nil {
			recorder = ledger
		}
		uri, err := storage.NewArtifactManager(client, recorder).Publish(ctx, job, res.ArtifactPath)
		if err != nil {
			return err
		}
		monitor.SetArtifactURI(uri)
	}
	return nil
}

func startStatusServer(addr string, monitor *monitoring.JobMonitor) *http.Server {
	r := mux.NewRouter()
	routes.SetupRoutes(r, monitor)

	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("starting status server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("status server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return server
}

func initLogger(level string) error {
	lg, props, err := log.InitLogger(&log.Config{Level: strings.ToLower(level)})
	if err != nil {
		return cerror.Annotate(err, "init logger")
	}
	log.ReplaceGlobals(lg, props)
	return nil
}

func exitCodeFor(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return 0
	case stderrors.As(err, &exitErr):
		return exitErr.Code
	case cerror.IsCancelled(err):
		return ExitCodeCancelled
	case cerror.Is(err, cerror.ErrConfigurationMissing), cerror.Is(err, cerror.ErrInvalidJobSpec):
		return ExitCodeInvalidConfig
	default:
		return ExitCodeExecuteFailed
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
