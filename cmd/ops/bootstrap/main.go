// Package main implements the bootstrap CLI for Subtrack deployments.
//
// The tool walks an operator through populating AWS SSM Parameter Store with
// the secrets the API resolves at startup (database URL, Stripe credentials).
// It is run once per environment before the first deployment.
//
// Usage:
//
//	go run ./cmd/ops/bootstrap --env=dev
//	go run ./cmd/ops/bootstrap --env=prod --profile=subtrack-prod --region=eu-west-1
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var validEnvironments = map[string]bool{
	"dev":     true,
	"staging": true,
	"prod":    true,
}

func main() {
	envFlag := flag.String("env", "", "Target environment (dev/staging/prod) [required]")
	profileFlag := flag.String("profile", "", "AWS CLI profile (default: default credential chain)")
	regionFlag := flag.String("region", "eu-west-1", "AWS region")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Subtrack Bootstrap Tool\n\n")
		fmt.Fprintf(os.Stderr, "Populates AWS SSM Parameter Store with the secrets required\n")
		fmt.Fprintf(os.Stderr, "by the Subtrack API before the first deployment.\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  bootstrap --env=dev [--profile=NAME] [--region=REGION]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *envFlag == "" {
		fmt.Fprintf(os.Stderr, "error: --env is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	if !validEnvironments[*envFlag] {
		fmt.Fprintf(os.Stderr, "error: invalid environment %q (must be dev, staging, or prod)\n", *envFlag)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session, err := initializeSession(ctx, *envFlag, *profileFlag, *regionFlag, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	if session.Environment == "prod" && !confirmProduction(session, os.Stdin) {
		fmt.Fprintln(os.Stderr, "Aborted. No changes were made.")
		os.Exit(0)
	}

	printBanner(session)

	store := NewParameterStore(ssm.NewFromConfig(session.AWSConfig), session.Environment)
	if err := runBootstrap(ctx, store, Manifest(), os.Stdin, os.Stderr); err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	logger.Info("bootstrap completed successfully",
		"env", session.Environment,
		"account", session.AccountID,
		"region", session.AWSRegion,
	)
}

// Session holds the verified AWS identity and configuration for the run.
type Session struct {
	Environment string
	AWSProfile  string
	AWSRegion   string
	AccountID   string
	CallerARN   string
	AWSConfig   aws.Config
}

// initializeSession loads the AWS SDK configuration and verifies the active
// identity via STS GetCallerIdentity before any writes happen.
func initializeSession(ctx context.Context, env, profile, region string, logger *slog.Logger) (*Session, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	identityCtx, identityCancel := context.WithTimeout(ctx, 10*time.Second)
	defer identityCancel()

	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(identityCtx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("verifying AWS identity (STS GetCallerIdentity): %w\n"+
			"  Check that your AWS credentials are configured correctly.\n"+
			"  Profile: %q, Region: %q", err, profile, region)
	}

	session := &Session{
		Environment: env,
		AWSProfile:  profile,
		AWSRegion:   region,
		AccountID:   aws.ToString(identity.Account),
		CallerARN:   aws.ToString(identity.Arn),
		AWSConfig:   cfg,
	}

	logger.Info("AWS identity verified",
		"account_id", session.AccountID,
		"arn", session.CallerARN,
		"region", region,
	)

	return session, nil
}

// confirmProduction requires the operator to type "yes" before touching
// production parameters.
func confirmProduction(s *Session, in io.Reader) bool {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "============================================================")
	fmt.Fprintln(os.Stderr, "  WARNING: You are targeting the PRODUCTION environment")
	fmt.Fprintln(os.Stderr, "============================================================")
	fmt.Fprintf(os.Stderr, "  Account: %s\n", s.AccountID)
	fmt.Fprintf(os.Stderr, "  Region:  %s\n", s.AWSRegion)
	fmt.Fprintf(os.Stderr, "  ARN:     %s\n", s.CallerARN)
	fmt.Fprintln(os.Stderr, "============================================================")
	fmt.Fprintln(os.Stderr)
	fmt.Fprint(os.Stderr, "Type 'yes' to continue: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(scanner.Text()), "yes")
}

func printBanner(s *Session) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "------------------------------------------------------------")
	fmt.Fprintln(os.Stderr, "  Subtrack Bootstrap")
	fmt.Fprintln(os.Stderr, "------------------------------------------------------------")
	fmt.Fprintf(os.Stderr, "  Environment:  %s\n", s.Environment)
	fmt.Fprintf(os.Stderr, "  AWS Account:  %s\n", s.AccountID)
	fmt.Fprintf(os.Stderr, "  AWS Region:   %s\n", s.AWSRegion)
	fmt.Fprintf(os.Stderr, "  Identity:     %s\n", s.CallerARN)
	if s.AWSProfile != "" {
		fmt.Fprintf(os.Stderr, "  Profile:      %s\n", s.AWSProfile)
	}
	fmt.Fprintf(os.Stderr, "  SSM Prefix:   /%s/subtrack/\n", s.Environment)
	fmt.Fprintln(os.Stderr, "------------------------------------------------------------")
	fmt.Fprintln(os.Stderr)
}

// runBootstrap prompts the operator for each manifest parameter and writes
// the collected values to SSM. Optional parameters may be skipped with an
// empty line; required ones are re-prompted.
func runBootstrap(ctx context.Context, store *ParameterStore, manifest []Parameter, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for _, param := range manifest {
		value, err := promptValue(scanner, param, out)
		if err != nil {
			return err
		}
		if value == "" {
			fmt.Fprintf(out, "  skipped %s\n\n", param.Name)
			continue
		}

		if err := store.Put(ctx, param, value); err != nil {
			return fmt.Errorf("writing %s: %w", param.Name, err)
		}
		fmt.Fprintf(out, "  wrote %s\n\n", store.Path(param))
	}

	return nil
}

// promptValue reads the value for one parameter. Returns an empty string when
// an optional parameter is skipped.
func promptValue(scanner *bufio.Scanner, param Parameter, out io.Writer) (string, error) {
	for {
		fmt.Fprintf(out, "%s\n", param.Prompt)
		if param.Optional {
			fmt.Fprintf(out, "%s (optional, press Enter to skip): ", param.Name)
		} else {
			fmt.Fprintf(out, "%s: ", param.Name)
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("reading input: %w", err)
			}
			return "", fmt.Errorf("input closed while reading %s", param.Name)
		}

		value := strings.TrimSpace(scanner.Text())
		if value == "" && !param.Optional {
			fmt.Fprintf(out, "  %s is required\n", param.Name)
			continue
		}
		return value, nil
	}
}
