// Command groomer-reconciler is a Lambda function subscribed to the groomer
// table's stream. It advances latest pointers left behind by interrupted saves.
//
// Environment:
//
//	GROOMER_TABLE       groomer table name (default "Groomer")
//	STRICT_VERSIONING   "true" to condition pointer rewrites
//	SETTLE              minimum snapshot age before a check, e.g. "5s"
//	LOG_LEVEL           debug|info|warn|error (default info)
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/suds/store"
	"github.com/jacentio/suds/stream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))

	awsCfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("load aws config", "error", err)
		os.Exit(1)
	}

	cfg := store.DefaultConfig()
	cfg.Location = time.UTC
	cfg.Logger = logger
	if v := os.Getenv("GROOMER_TABLE"); v != "" {
		cfg.GroomerTable = v
	}
	if v, err := strconv.ParseBool(os.Getenv("STRICT_VERSIONING")); err == nil {
		cfg.StrictVersioning = v
	}

	backend := store.NewDynamoBackend(dynamodb.NewFromConfig(awsCfg))
	handler := stream.NewHandler(store.NewGroomerStore(backend, cfg), logger)
	if v := os.Getenv("SETTLE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Error("parse SETTLE", "value", v, "error", err)
			os.Exit(1)
		}
		handler = handler.WithSettle(d)
	}

	logger.Info("starting groomer reconciler",
		"groomerTable", cfg.GroomerTable,
		"strictVersioning", cfg.StrictVersioning,
	)
	lambda.Start(handler.HandleGroomerVersions)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
