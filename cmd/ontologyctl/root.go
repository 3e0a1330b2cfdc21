package main

import (
	"context"
	"encoding/json"
	"fmt"

	querybus "ontology-backend/application/queries/bus"
	queryhandlers "ontology-backend/application/queries/handlers"
	"ontology-backend/infrastructure/config"
	"ontology-backend/infrastructure/di"
	"ontology-backend/pkg/utils"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configFile string
	seedFile   string
	verbose    bool
}

type queryBusKey struct{}

// newRootCmd builds the ontologyctl command tree.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "ontologyctl",
		Short: "Inspect the ontology from the command line",
		Long: `ontologyctl reads the ontology tables, or a local seed file, and prints
the graph, its layout, collection counts and the health report as JSON.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			qb, err := opts.queryBus(cmd.Context())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), queryBusKey{}, qb))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&opts.seedFile, "seed", "", "read from a YAML or JSON seed file instead of DynamoDB")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log repository access to stderr")

	root.AddCommand(
		newHealthCmd(),
		newLayoutCmd(),
		newNodesCmd(),
		newCountsCmd(),
		newTablesCmd(),
	)
	return root
}

func (o *rootOptions) queryBus(ctx context.Context) (*querybus.QueryBus, error) {
	cfg, err := config.LoadFrom(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.seedFile != "" {
		cfg.SeedFile = o.seedFile
	}
	cfg.EnableMetrics = false

	logger := zap.NewNop()
	if o.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}

	var client *awsdynamodb.Client
	if cfg.SeedFile == "" {
		awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client = di.ProvideDynamoDBClient(awsCfg, cfg)
	}

	repo, err := di.ProvideRepository(client, nil, cfg, logger)
	if err != nil {
		return nil, err
	}

	qb := querybus.NewQueryBus()
	if err := queryhandlers.Register(qb, repo, di.ProvideLayoutOptions(cfg), utils.SystemClock(), logger); err != nil {
		return nil, err
	}
	return qb, nil
}

func queryBusFrom(cmd *cobra.Command) *querybus.QueryBus {
	qb, _ := cmd.Context().Value(queryBusKey{}).(*querybus.QueryBus)
	return qb
}

func ask(cmd *cobra.Command, q querybus.Query) (interface{}, error) {
	qb := queryBusFrom(cmd)
	if qb == nil {
		return nil, fmt.Errorf("query bus not initialized")
	}
	return qb.Ask(cmd.Context(), q)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
