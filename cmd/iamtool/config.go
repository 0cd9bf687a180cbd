package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/caarlos0/env/v11"

	"iamtool/internal/common/logger"
	"iamtool/internal/common/validation"
	"iamtool/internal/workflow"
)

// Config holds all iamtool configuration.
type Config struct {
	// Core configuration
	ShowVersion bool
	Action      string `env:"IAMACTION"`

	// OCI API key (control plane)
	TenancyOCID   string `env:"TENANCY_OCID"`
	UserOCID      string `env:"USER_OCID"`
	Fingerprint   string `env:"KEY_FINGERPRINT"`
	KeyFile       string `env:"KEY_FILE_PATH"`
	KeyPassphrase string `env:"KEY_PASSPHRASE"`
	Region        string `env:"OCI_REGION"`

	// Confidential application (identity domain REST API)
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`

	// Target selection
	Domain    string `env:"IAMDOMAIN"`
	OldSuffix string `env:"IAMOLDSUFFIX"`
	NewSuffix string `env:"IAMNEWSUFFIX"`

	// Behaviour
	BatchSize        int     `env:"IAMBATCHSIZE"`
	RateLimit        float64 `env:"IAMRATELIMIT"` // requests per second, 0 = unlimited
	DryRun           bool
	IncludeUnchanged bool
	Confirm          bool

	// Runtime configuration
	VerboseMode bool
	LogLevel    string `env:"IAMLOGLEVEL"`
	LogFormat   string `env:"IAMLOGFORMAT"` // audit file format: csv, json
}

// Action constants
const (
	ActionListDomains  = "listdomains"
	ActionListUsers    = "listusers"
	ActionMigrateEmail = "migrateemail"
	ActionDeleteDomain = "deletedomain"
)

var validActions = []string{ActionListDomains, ActionListUsers, ActionMigrateEmail, ActionDeleteDomain}

// ConfigError marks a configuration or usage problem.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BatchSize: workflow.DefaultBatchSize,
		LogLevel:  "INFO",
		LogFormat: "csv",
	}
}

// parseConfig applies defaults, then the environment, then flags in args.
// A nil environ reads the process environment.
func parseConfig(args []string, environ map[string]string, usageOut io.Writer) (*Config, error) {
	config := NewConfig()
	if err := env.ParseWithOptions(config, env.Options{Environment: environ}); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("invalid environment: %w", err)}
	}

	fs := flag.NewFlagSet("iamtool", flag.ContinueOnError)
	fs.SetOutput(usageOut)
	fs.Usage = func() { printUsage(fs) }

	// Flag defaults are the environment-derived values, so a flag given on
	// the command line wins and an absent one keeps the environment.
	fs.BoolVar(&config.ShowVersion, "version", false, "Show version information")
	fs.StringVar(&config.Action, "action", config.Action, "Action to perform: "+strings.Join(validActions, ", ")+" (env: IAMACTION)")
	fs.StringVar(&config.TenancyOCID, "tenancy", config.TenancyOCID, "Tenancy OCID (env: TENANCY_OCID)")
	fs.StringVar(&config.UserOCID, "user", config.UserOCID, "API key user OCID (env: USER_OCID)")
	fs.StringVar(&config.Fingerprint, "fingerprint", config.Fingerprint, "API key fingerprint (env: KEY_FINGERPRINT)")
	fs.StringVar(&config.KeyFile, "keyfile", config.KeyFile, "API signing key, PEM or PKCS#12 .p12/.pfx (env: KEY_FILE_PATH)")
	fs.StringVar(&config.KeyPassphrase, "keypass", config.KeyPassphrase, "API signing key passphrase (env: KEY_PASSPHRASE)")
	fs.StringVar(&config.Region, "region", config.Region, "OCI region, e.g. us-ashburn-1 (env: OCI_REGION)")
	fs.StringVar(&config.ClientID, "clientid", config.ClientID, "Confidential application client ID (env: CLIENT_ID)")
	fs.StringVar(&config.ClientSecret, "secret", config.ClientSecret, "Confidential application client secret (env: CLIENT_SECRET)")
	fs.StringVar(&config.Domain, "domain", config.Domain, "Identity domain display name or OCID; prompts when empty (env: IAMDOMAIN)")
	fs.StringVar(&config.OldSuffix, "oldsuffix", config.OldSuffix, "Email suffix to replace, also the listusers filter (env: IAMOLDSUFFIX)")
	fs.StringVar(&config.NewSuffix, "newsuffix", config.NewSuffix, "Replacement email suffix (env: IAMNEWSUFFIX)")
	fs.IntVar(&config.BatchSize, "batchsize", config.BatchSize, "Maximum operations per bulk request (env: IAMBATCHSIZE)")
	fs.Float64Var(&config.RateLimit, "ratelimit", config.RateLimit, "Maximum REST requests per second, 0 = unlimited (env: IAMRATELIMIT)")
	fs.BoolVar(&config.DryRun, "dryrun", false, "Print the bulk requests instead of sending them")
	fs.BoolVar(&config.IncludeUnchanged, "includeunchanged", false, "Patch users whose userName lacks the old suffix verbatim")
	fs.BoolVar(&config.Confirm, "confirm", false, "Skip the typed confirmation before deleting a domain")
	fs.BoolVar(&config.VerboseMode, "verbose", false, "Enable verbose output")
	fs.StringVar(&config.LogLevel, "loglevel", config.LogLevel, "Logging level: DEBUG, INFO, WARN, ERROR (env: IAMLOGLEVEL)")
	fs.StringVar(&config.LogFormat, "logformat", config.LogFormat, "Audit file format: csv, json (env: IAMLOGFORMAT)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, &ConfigError{Err: err}
	}
	if fs.NArg() > 0 {
		return nil, &ConfigError{Err: fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}
	return config, nil
}

func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "Identity domain operator tool\n\n")
	fmt.Fprintf(out, "Usage: iamtool -action <action> [options]\n\n")
	fmt.Fprintf(out, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(out, "\nActions:\n")
	fmt.Fprintf(out, "  listdomains   - List identity domains in every compartment\n")
	fmt.Fprintf(out, "  listusers     - List users whose userName contains -oldsuffix\n")
	fmt.Fprintf(out, "  migrateemail  - Replace -oldsuffix with -newsuffix in userName and work/recovery emails\n")
	fmt.Fprintf(out, "  deletedomain  - Deactivate all apps, deactivate and delete a domain\n\n")
	fmt.Fprintf(out, "Examples:\n")
	fmt.Fprintf(out, "  iamtool -action listdomains\n")
	fmt.Fprintf(out, "  iamtool -action migrateemail -domain Default -oldsuffix old.example.com -newsuffix new.example.com -dryrun\n")
	fmt.Fprintf(out, "  iamtool -action deletedomain -domain ocid1.domain.oc1..aaaa\n")
}

// validateConfiguration checks the configuration once, before any request.
// Suffixes may be left empty for migrateemail; they are prompted for later.
func validateConfiguration(config *Config) error {
	valid := false
	for _, a := range validActions {
		if config.Action == a {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid action: %q (must be one of: %s)", config.Action, strings.Join(validActions, ", "))
	}

	fields := map[string]string{
		"-tenancy":     config.TenancyOCID,
		"-user":        config.UserOCID,
		"-fingerprint": config.Fingerprint,
		"-keyfile":     config.KeyFile,
		"-region":      config.Region,
		"-clientid":    config.ClientID,
		"-secret":      config.ClientSecret,
	}
	required := []string{"-tenancy", "-user", "-fingerprint", "-keyfile", "-region"}
	if config.Action != ActionListDomains {
		required = append(required, "-clientid", "-secret")
	}
	if config.Action == ActionListUsers {
		fields["-oldsuffix"] = config.OldSuffix
		required = append(required, "-oldsuffix")
	}
	if err := validation.ValidateRequired(fields, required); err != nil {
		return err
	}

	if err := validation.ValidateOCID(config.TenancyOCID, "tenancy", "-tenancy"); err != nil {
		return err
	}
	if err := validation.ValidateOCID(config.UserOCID, "user", "-user"); err != nil {
		return err
	}
	if err := validation.ValidateFilePath(config.KeyFile, "-keyfile"); err != nil {
		return err
	}
	if strings.HasPrefix(config.Domain, "ocid1.") {
		if err := validation.ValidateOCID(config.Domain, "domain", "-domain"); err != nil {
			return err
		}
	}

	if config.OldSuffix != "" {
		if err := validation.ValidateSuffix(config.OldSuffix, "-oldsuffix"); err != nil {
			return err
		}
	}
	if config.NewSuffix != "" {
		if err := validation.ValidateSuffix(config.NewSuffix, "-newsuffix"); err != nil {
			return err
		}
	}
	if config.OldSuffix != "" && config.OldSuffix == config.NewSuffix {
		return fmt.Errorf("-oldsuffix and -newsuffix are identical")
	}

	if config.BatchSize < 1 || config.BatchSize > 1000 {
		return fmt.Errorf("-batchsize must be between 1 and 1000 (got %d)", config.BatchSize)
	}
	if config.RateLimit < 0 {
		return fmt.Errorf("-ratelimit must not be negative")
	}
	if _, err := logger.ParseLogFormat(config.LogFormat); err != nil {
		return err
	}
	switch strings.ToUpper(config.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("invalid -loglevel %q (valid: DEBUG, INFO, WARN, ERROR)", config.LogLevel)
	}
	return nil
}
