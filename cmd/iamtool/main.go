// Package main is iamtool, an operator CLI for OCI IAM identity domains. It
// lists domains and users, migrates user names and work/recovery emails from
// one suffix to another through SCIM bulk requests, and tears down a domain
// (deactivate its apps, deactivate it, wait for INACTIVE, delete).
//
// Every action appends per-resource outcomes to an audit file in the system
// temp directory (_iamtool_{action}_{date}.csv or .jsonl).
//
// Example usage:
//
//	iamtool -action migrateemail -domain Default -oldsuffix old.example.com -newsuffix new.example.com
//
// Version information is embedded from the VERSION file at compile time using go:embed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"iamtool/internal/common/logger"
	"iamtool/internal/common/ratelimit"
	"iamtool/internal/common/security"
	"iamtool/internal/common/version"
	"iamtool/internal/idcs"
	"iamtool/internal/oci"
	"iamtool/internal/prompt"
)

func main() {
	// -completion is handled before anything else so only the script is printed.
	for i, arg := range os.Args {
		if arg == "-completion" && i+1 < len(os.Args) {
			script, err := completionScript(os.Args[i+1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(exitConfig)
			}
			fmt.Print(script)
			os.Exit(exitOK)
		}
	}

	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// setupSignalHandling returns a context cancelled on SIGINT or SIGTERM.
func setupSignalHandling() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n\nReceived interrupt signal. Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// initializeAudit opens the per-action audit file. Failure is logged and the
// run continues without an audit trail.
func initializeAudit(config *Config, slogger *slog.Logger) logger.Logger {
	format, err := logger.ParseLogFormat(config.LogFormat)
	if err == nil {
		var audit logger.Logger
		audit, err = logger.NewLogger(format, "", "iamtool", config.Action)
		if err == nil {
			return audit
		}
	}
	logger.LogWarn(slogger, "Could not initialize audit logging", "error", err)
	return logger.NopLogger{}
}

// logConfiguration prints the effective configuration with credentials masked.
func logConfiguration(config *Config) {
	v := config.VerboseMode
	logger.LogVerbose(v, "Action: %s", config.Action)
	logger.LogVerbose(v, "Tenancy: %s", security.MaskOCID(config.TenancyOCID))
	logger.LogVerbose(v, "User: %s", security.MaskOCID(config.UserOCID))
	logger.LogVerbose(v, "Region: %s", config.Region)
	logger.LogVerbose(v, "Key file: %s", config.KeyFile)
	if config.ClientID != "" {
		logger.LogVerbose(v, "Client ID: %s", security.MaskClientID(config.ClientID))
		logger.LogVerbose(v, "Client secret: %s", security.MaskSecret(config.ClientSecret))
	}
	if config.Domain != "" {
		logger.LogVerbose(v, "Domain: %s", config.Domain)
	}
	logger.LogVerbose(v, "Batch size: %d, rate limit: %s", config.BatchSize, ratelimit.New(config.RateLimit))
}

// run parses configuration, wires the clients and executes the action. It
// returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, cancel := setupSignalHandling()
	defer cancel()

	config, err := parseConfig(args, nil, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfig
	}

	if config.ShowVersion {
		fmt.Fprintf(stdout, "iamtool - Identity Domain Operator Tool - Version %s\n", version.Get())
		return exitOK
	}

	if err := validateConfiguration(config); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "Run with -help for usage.\n")
		return exitConfig
	}

	slogger := logger.SetupLogger(config.VerboseMode, config.LogLevel)
	logger.LogInfo(slogger, "Application starting", "version", version.Get(), "action", config.Action)

	logConfiguration(config)

	identityClient, err := oci.NewIdentityClient(oci.Credentials{
		TenancyOCID:   config.TenancyOCID,
		UserOCID:      config.UserOCID,
		Fingerprint:   config.Fingerprint,
		KeyFile:       config.KeyFile,
		KeyPassphrase: config.KeyPassphrase,
		Region:        config.Region,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfig
	}

	audit := initializeAudit(config, slogger)
	defer audit.Close()

	a := &app{
		config:   config,
		logger:   slogger,
		audit:    audit,
		out:      stdout,
		prompter: prompt.New(stdin, stdout),
		identity: identityClient,
		issuer:   idcs.NewTokenIssuer(nil),
		limiter:  ratelimit.New(config.RateLimit),
	}

	if a.limiter.Enabled() {
		logger.LogInfo(slogger, "Rate limiting enabled", "limit", a.limiter.String())
	}

	status, err := executeAction(ctx, a)
	code := exitCode(status, err)
	if err != nil {
		logger.LogError(slogger, "Action failed", "action", config.Action, "status", status.String(), "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	logger.LogInfo(slogger, "Application finished", "status", status.String(), "exitCode", code)
	return code
}
