// The resolver binary serves Item operations as an AWS Lambda function.
// The gateway invokes it with a resolved field name and an already-parsed
// argument record; everything else lives in the dispatch and store packages.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/itemstore/dispatch"
	"github.com/jacentio/itemstore/store"
)

// resolverEvent is the direct Lambda resolver payload: the field being
// resolved plus its arguments.
type resolverEvent struct {
	Field     string         `json:"field"`
	Arguments map[string]any `json:"arguments"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := LoadConfig()

	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), optFns...)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	s := store.New(dynamodb.NewFromConfig(awsCfg), store.Config{
		TableName:         cfg.TableName,
		SerialNumberIndex: cfg.SerialNumberIndex,
	})
	d := dispatch.New(s, logger)

	lambda.Start(func(ctx context.Context, event resolverEvent) (dispatch.Result, error) {
		return d.Handle(ctx, event.Field, event.Arguments), nil
	})
}
