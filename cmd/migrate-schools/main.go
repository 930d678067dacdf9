// Command migrate-schools loads an exported schools JSON file into the
// schools table.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"flightmatch/internal/config"
	"flightmatch/internal/db"
	"flightmatch/internal/logging"
	"flightmatch/internal/schools"
)

var (
	file    string
	table   string
	region  string
	dryRun  bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:          "migrate-schools",
	Short:        "Load a schools JSON export into DynamoDB",
	Long:         "Reads a JSON array of school objects from a local path or s3://bucket/key, reshapes each into a school record, and batch-writes them to the schools table.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&file, "file", "f", "", "schools JSON file (local path or s3://bucket/key)")
	rootCmd.Flags().StringVarP(&table, "table", "t", "", "destination table (defaults to TABLE_NAME)")
	rootCmd.Flags().StringVar(&region, "region", "", "AWS region (defaults to AWS_REGION)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "transform records without writing")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every transformed record")
	_ = rootCmd.MarkFlagRequired("file")
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if table != "" {
		cfg.TableName = table
	}
	if region != "" {
		cfg.Region = region
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := logging.NewWithIdentity(logging.Identity{
		RequestID:    uuid.NewString(),
		FunctionName: "migrate-schools",
	}, logging.NewConsoleSink(os.Stderr, level))
	log.AddContextBatch(logging.Fields{"table": cfg.TableName, "dryRun": dryRun})

	awsCfg, err := db.LoadAWSConfig(ctx, cfg.Region)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	clients := db.NewClients(awsCfg)

	data, err := readSource(ctx, clients.S3, file)
	if err != nil {
		return err
	}
	records, err := schools.SplitSource(data)
	if err != nil {
		return err
	}
	log.Info("Loaded source file", logging.Fields{"file": file, "records": len(records)})

	store := schools.NewStore(clients.Dynamo, cfg.TableName, cfg.StateIndex)
	summary, err := schools.Migrate(ctx, store, records, log, schools.MigrateOptions{DryRun: dryRun})
	if err != nil {
		log.Error("Migration aborted", err, logging.Fields{
			"successful": summary.Successful,
			"failed":     summary.Failed,
			"total":      summary.Total,
		})
		return err
	}

	log.Info("Migration complete", logging.Fields{
		"successful": summary.Successful,
		"failed":     summary.Failed,
		"total":      summary.Total,
	})
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d schools failed", summary.Failed, summary.Total)
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
