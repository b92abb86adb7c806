// Command codeshift serves the conversion API or runs one of the
// interactive terminal modes.
//
//	codeshift -config codeshift.yaml            # HTTP server
//	codeshift -mode chat                        # chat with the assistant
//	codeshift -mode convert                     # convert pasted source code
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/teilomillet/codeshift/config"
	"github.com/teilomillet/codeshift/conversation"
	"github.com/teilomillet/codeshift/conversion"
	"github.com/teilomillet/codeshift/errors"
	"github.com/teilomillet/codeshift/server"
	"github.com/teilomillet/codeshift/server/provider"
)

const Version = "v0.1.0"

type options struct {
	configFile string
	validate   bool
	version    bool
	mode       string
	envFile    string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	set := flag.NewFlagSet("codeshift", flag.ContinueOnError)
	set.SetOutput(stderr)
	set.StringVar(&opts.configFile, "config", "", "Path to configuration file (defaults and environment when empty)")
	set.BoolVar(&opts.validate, "validate", false, "Validate configuration and exit")
	set.BoolVar(&opts.version, "version", false, "Print version and exit")
	set.StringVar(&opts.mode, "mode", "serve", "Run mode: serve, chat or convert")
	set.StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before the configuration")
	return opts, set.Parse(args)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes codeshift and returns its exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "codeshift %s\n", Version)
		return 0
	}

	if err := godotenv.Load(opts.envFile); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "Failed to load %s: %v\n", opts.envFile, err)
		return 1
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}

	if opts.validate {
		fmt.Fprintln(stdout, "Configuration is valid")
		return 0
	}

	logger, level, err := cfg.Logging.NewLogger()
	if err != nil {
		fmt.Fprintf(stderr, "Critical error: Failed to create logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()
	errors.SetLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch opts.mode {
	case "serve":
		err = serve(ctx, cfg, opts.configFile, level, logger)
	case "chat":
		err = chat(ctx, cfg, logger)
	case "convert":
		err = convert(ctx, cfg, logger)
	default:
		err = fmt.Errorf("unknown mode %q", opts.mode)
	}
	if err != nil {
		logger.Error("codeshift failed", zap.String("mode", opts.mode), zap.Error(err))
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.LoadFile(path)
}

func serve(ctx context.Context, cfg *config.Config, configFile string, level zap.AtomicLevel, logger *zap.Logger) error {
	if configFile != "" {
		watcher, err := config.NewConfigWatcher(configFile, logger)
		if err != nil {
			return err
		}
		defer watcher.Close()
		go config.FollowLogLevel(ctx, watcher, level, logger)
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("server initialization failed: %w", err)
	}

	logger.Info("Starting codeshift",
		zap.String("version", Version),
		zap.String("address", cfg.Server.Addr()),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
	)
	return srv.Start(ctx)
}

func chat(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	backend, err := provider.NewBackend(cfg.LLM, logger)
	if err != nil {
		return err
	}
	client, err := conversation.New(conversation.Config{
		SystemPrompt: cfg.LLM.SystemPrompt,
		Model:        cfg.LLM.Model,
		APIKey:       cfg.LLM.APIKey,
	}, backend, conversation.WithLogger(logger))
	if err != nil {
		return err
	}
	return runChat(ctx, os.Stdin, os.Stdout, client)
}

func convert(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	backend, err := provider.NewBackend(cfg.LLM, logger)
	if err != nil {
		return err
	}
	converter, err := conversion.NewConverter(conversion.Config{
		SourceLanguage:       cfg.Converter.SourceLanguage,
		TargetLanguage:       cfg.Converter.TargetLanguage,
		SystemPromptTemplate: cfg.Converter.SystemPrompt,
		DirectiveTemplate:    cfg.Converter.Directive,
	}, conversation.Config{
		Model:  cfg.LLM.Model,
		APIKey: cfg.LLM.APIKey,
	}, backend, conversation.WithLogger(logger))
	if err != nil {
		return err
	}
	return runConvert(ctx, os.Stdin, os.Stdout, converter, cfg.Converter)
}
