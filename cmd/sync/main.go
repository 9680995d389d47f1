// Package main is the cloverbridge entry point. It runs one sync cycle per
// scheduled event on AWS Lambda, or as a command-line tool elsewhere.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// lambdaRuntimeEnv is set by the Lambda runtime in every function environment.
const lambdaRuntimeEnv = "AWS_LAMBDA_RUNTIME_API"

func main() {
	if os.Getenv(lambdaRuntimeEnv) != "" {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		startLambda(logger)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(context.Background(), os.Args[1:], os.Stdout, logger); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
