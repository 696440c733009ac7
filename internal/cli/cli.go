// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/codeweaver/internal/config"
	"github.com/temirov/codeweaver/internal/output"
	"github.com/temirov/codeweaver/internal/services/clipboard"
	"github.com/temirov/codeweaver/internal/tokenizer"
	"github.com/temirov/codeweaver/internal/types"
	"github.com/temirov/codeweaver/internal/utils"
)

const (
	versionFlagName      = "version"
	verboseFlagName      = "verbose"
	configFlagName       = "config"
	versionTemplate      = "codeweaver version: %s\n"
	defaultPath          = "."
	rootUse              = "codeweaver"
	rootShortDescription = "codeweaver packs a codebase into a single Markdown document"
	rootLongDescription  = `codeweaver walks a directory, honours .gitignore and built-in ignore rules,
and writes one Markdown document holding the directory tree and every text file.
Use pack to produce a document and serve to expose packing as a tool over HTTP.`
	versionFlagDescription = "display application version"
	verboseFlagDescription = "enable debug logging"
	configFlagDescription  = "path to a configuration file (defaults to ./config.yaml)"

	packUse              = "pack [path]"
	packAlias            = "p"
	packShortDescription = "pack a directory into Markdown (" + packAlias + ")"
	packLongDescription  = `Pack every included file under path (default ".") into one Markdown document.
Built-in ignores (node_modules, .git, build output and similar) always apply.
The root .gitignore applies unless --include-gitignored is set; "!pattern" lines re-include files.`
	packUsageExample = `  # Print the document for the current directory
  codeweaver pack

  # Write the document for ./service to a file, skipping fixtures
  codeweaver pack ./service -o service.md -e "**/testdata/**"

  # Estimate tokens and copy the document to the clipboard
  codeweaver pack --tokens --copy`

	serveUse              = "serve"
	serveAlias            = "mcp"
	serveShortDescription = "serve the pack tool over HTTP (" + serveAlias + ")"
	serveLongDescription  = `Start an HTTP tool server exposing ` + types.ToolPackCodebase + `.
GET /capabilities lists the tool and POST /tools/` + types.ToolPackCodebase + ` invokes it.`

	initUse              = "init"
	initShortDescription = "write a default configuration file"

	outputFlagName             = "output"
	outputFlagShorthand        = "o"
	includeGitignoredFlagName  = "include-gitignored"
	ignoreFlagName             = "ignore"
	ignoreFlagShorthand        = "e"
	tokensFlagName             = "tokens"
	modelFlagName              = "model"
	copyFlagName               = "copy"
	concurrencyFlagName        = "concurrency"
	addressFlagName            = "address"
	globalFlagName             = "global"
	forceFlagName              = "force"
	outputFlagDescription      = "write the document to this file instead of stdout"
	includeGitignoredFlagUsage = "include files excluded by the root .gitignore"
	ignoreFlagDescription      = "additional ignore pattern (repeatable, gitignore syntax)"
	tokensFlagDescription      = "estimate the token count of the document"
	modelFlagDescription       = "tokenizer model used for the estimate"
	copyFlagDescription        = "copy the document to the system clipboard"
	concurrencyFlagDescription = "maximum number of files read in parallel"
	addressFlagDescription     = "listen address of the tool server"
	globalFlagDescription      = "write the configuration under the home directory"
	forceFlagDescription       = "overwrite an existing configuration file"

	defaultShutdownTimeout      = 5 * time.Second
	configurationWrittenFormat  = "Configuration written to %s\n"
	clipboardFailedMessage      = "failed to copy document to clipboard"
	tokenizerFailedMessage      = "token estimate unavailable"
	tokenEstimateMessage        = "token estimate"
	unreadableFilesMessage      = "files embedded as placeholders"
	errorLoadConfigurationFmt   = "load configuration: %w"
	errorParseShutdownFormat    = "resolve shutdown timeout: %w"
	errorInvalidConcurrencyFmt  = "--%s must be positive, got %d"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	writeFailedCommandFormat    = "Error writing output file %s: %w"
)

// counterFactory resolves a token counter for a model name.
type counterFactory func(model string) (tokenizer.Counter, string, error)

func newTokenCounter(model string) (tokenizer.Counter, string, error) {
	return tokenizer.NewCounter(tokenizer.Config{Model: model})
}

// applicationOptions carries the collaborators of the CLI; zero values select production defaults.
type applicationOptions struct {
	Logger           *zap.Logger
	Stdout           io.Writer
	Copier           clipboard.Copier
	CounterFactory   counterFactory
	WorkingDirectory string
}

type application struct {
	logger           *zap.Logger
	stdout           io.Writer
	copier           clipboard.Copier
	counterFactory   counterFactory
	workingDirectory string
	configPath       string
	verbose          bool
}

func newApplication(options applicationOptions) *application {
	instance := &application{
		logger:           utils.LoggerOrNop(options.Logger),
		stdout:           options.Stdout,
		copier:           options.Copier,
		counterFactory:   options.CounterFactory,
		workingDirectory: options.WorkingDirectory,
	}
	if instance.stdout == nil {
		instance.stdout = os.Stdout
	}
	if instance.copier == nil {
		instance.copier = clipboard.NewService()
	}
	if instance.counterFactory == nil {
		instance.counterFactory = newTokenCounter
	}
	return instance
}

// Execute runs the codeweaver application. Cancelling ctx stops a running server.
func Execute(ctx context.Context, logger *zap.Logger) error {
	instance := newApplication(applicationOptions{Logger: logger})
	rootCommand := instance.rootCommand()
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// rootCommand builds the root Cobra command.
func (instance *application) rootCommand() *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Fprintf(instance.stdout, versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
			if instance.verbose {
				verboseLogger, loggerErr := utils.NewApplicationLogger(true)
				if loggerErr != nil {
					return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerErr)
				}
				instance.logger = verboseLogger
			}
			return nil
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&instance.verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.PersistentFlags().StringVar(&instance.configPath, configFlagName, "", configFlagDescription)
	rootCommand.AddCommand(
		instance.packCommand(),
		instance.serveCommand(),
		instance.initCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func (instance *application) loadConfiguration() (config.ApplicationConfiguration, error) {
	configuration, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: instance.workingDirectory,
		ExplicitFilePath: instance.configPath,
	})
	if loadErr != nil {
		return config.ApplicationConfiguration{}, fmt.Errorf(errorLoadConfigurationFmt, loadErr)
	}
	return configuration, nil
}

// packOptions stores the values of the pack command flags.
type packOptions struct {
	output            string
	includeGitignored bool
	ignorePatterns    []string
	tokens            bool
	model             string
	copyToClipboard   bool
	concurrency       int
}

// applyConfiguration fills every option whose flag was not given explicitly from configuration.
func (options *packOptions) applyConfiguration(command *cobra.Command, configuration config.PackConfiguration) {
	flags := command.Flags()
	if !flags.Changed(outputFlagName) && configuration.Output != "" {
		options.output = configuration.Output
	}
	if !flags.Changed(includeGitignoredFlagName) && configuration.IncludeGitignored != nil {
		options.includeGitignored = *configuration.IncludeGitignored
	}
	if !flags.Changed(ignoreFlagName) && len(configuration.IgnorePatterns) > 0 {
		options.ignorePatterns = append([]string{}, configuration.IgnorePatterns...)
	}
	if !flags.Changed(tokensFlagName) && configuration.Tokens.Enabled != nil {
		options.tokens = *configuration.Tokens.Enabled
	}
	if !flags.Changed(modelFlagName) && configuration.Tokens.Model != "" {
		options.model = configuration.Tokens.Model
	}
	if !flags.Changed(copyFlagName) && configuration.Clipboard != nil {
		options.copyToClipboard = *configuration.Clipboard
	}
	if !flags.Changed(concurrencyFlagName) && configuration.Concurrency != nil {
		options.concurrency = *configuration.Concurrency
	}
}

func (instance *application) packCommand() *cobra.Command {
	var options packOptions

	packCommand := &cobra.Command{
		Use:     packUse,
		Aliases: []string{packAlias},
		Short:   packShortDescription,
		Long:    packLongDescription,
		Example: packUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, loadErr := instance.loadConfiguration()
			if loadErr != nil {
				return loadErr
			}
			options.applyConfiguration(command, configuration.Pack)
			if options.concurrency <= 0 {
				return fmt.Errorf(errorInvalidConcurrencyFmt, concurrencyFlagName, options.concurrency)
			}
			rootPath := defaultPath
			if len(arguments) == 1 {
				rootPath = arguments[0]
			}
			return instance.runPackCommand(command.Context(), rootPath, options)
		},
	}
	packCommand.Flags().StringVarP(&options.output, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	registerBooleanFlag(packCommand.Flags(), &options.includeGitignored, includeGitignoredFlagName, "", false, includeGitignoredFlagUsage)
	packCommand.Flags().StringArrayVarP(&options.ignorePatterns, ignoreFlagName, ignoreFlagShorthand, nil, ignoreFlagDescription)
	registerBooleanFlag(packCommand.Flags(), &options.tokens, tokensFlagName, "", false, tokensFlagDescription)
	packCommand.Flags().StringVar(&options.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	registerBooleanFlag(packCommand.Flags(), &options.copyToClipboard, copyFlagName, "", false, copyFlagDescription)
	packCommand.Flags().IntVar(&options.concurrency, concurrencyFlagName, output.DefaultConcurrency, concurrencyFlagDescription)
	return packCommand
}

// runPackCommand packs rootPath and delivers the document to stdout, a file and the clipboard.
// Unlike the tool transport, failures are returned so the process exits non-zero.
func (instance *application) runPackCommand(ctx context.Context, rootPath string, options packOptions) error {
	runner := instance.packRunner(options.concurrency)
	outcome := runner.run(ctx, packInvocation{
		request: types.PackRequest{
			RootPath:          rootPath,
			IncludeGitignored: options.includeGitignored,
			IgnorePatterns:    options.ignorePatterns,
			OutputPath:        options.output,
		},
		tokens: options.tokens,
		model:  options.model,
	})
	if outcome.writeErr != nil {
		if _, writeErr := io.WriteString(instance.stdout, outcome.result.Document); writeErr != nil {
			return writeErr
		}
		return fmt.Errorf(writeFailedCommandFormat, options.output, outcome.writeErr)
	}
	if outcome.isError {
		return packFailure{message: outcome.text}
	}

	if len(outcome.result.UnreadableFiles) > 0 {
		instance.logger.Info(unreadableFilesMessage, zap.Strings("files", outcome.result.UnreadableFiles))
	}
	if outcome.result.TokenModel != "" {
		instance.logger.Info(tokenEstimateMessage, zap.Int("tokens", outcome.result.Tokens), zap.String("model", outcome.result.TokenModel))
	}
	if options.copyToClipboard {
		if copyErr := instance.copier.Copy(outcome.result.Document); copyErr != nil {
			instance.logger.Warn(clipboardFailedMessage, zap.Error(copyErr))
		}
	}

	text := outcome.text
	if outcome.written {
		text += "\n"
	}
	_, writeErr := io.WriteString(instance.stdout, text)
	return writeErr
}

func (instance *application) packRunner(concurrency int) packRunner {
	return packRunner{
		logger:         instance.logger,
		counterFactory: instance.counterFactory,
		concurrency:    concurrency,
	}
}

// packFailure carries a user-facing failure text unchanged to the process exit path.
type packFailure struct {
	message string
}

func (failure packFailure) Error() string {
	return failure.message
}

func (instance *application) serveCommand() *cobra.Command {
	var address string

	serveCommand := &cobra.Command{
		Use:     serveUse,
		Aliases: []string{serveAlias},
		Short:   serveShortDescription,
		Long:    serveLongDescription,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration, loadErr := instance.loadConfiguration()
			if loadErr != nil {
				return loadErr
			}
			settings := serverSettings{address: address, concurrency: output.DefaultConcurrency}
			if !command.Flags().Changed(addressFlagName) && configuration.Serve.Address != "" {
				settings.address = configuration.Serve.Address
			}
			if configuration.Pack.Concurrency != nil && *configuration.Pack.Concurrency > 0 {
				settings.concurrency = *configuration.Pack.Concurrency
			}
			shutdownTimeout, timeoutErr := configuration.Serve.ShutdownTimeoutDuration(defaultShutdownTimeout)
			if timeoutErr != nil {
				return fmt.Errorf(errorParseShutdownFormat, timeoutErr)
			}
			settings.shutdownTimeout = shutdownTimeout
			return instance.startMCPServer(command.Context(), instance.stdout, settings)
		},
	}
	serveCommand.Flags().StringVar(&address, addressFlagName, defaultServeAddress, addressFlagDescription)
	return serveCommand
}

func (instance *application) initCommand() *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			workingDirectory := instance.workingDirectory
			if workingDirectory == "" {
				currentDirectory, err := os.Getwd()
				if err != nil {
					return fmt.Errorf(workingDirectoryErrorFormat, err)
				}
				workingDirectory = currentDirectory
			}
			destinationPath, initErr := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: workingDirectory,
			})
			if initErr != nil {
				return initErr
			}
			_, writeErr := fmt.Fprintf(instance.stdout, configurationWrittenFormat, destinationPath)
			return writeErr
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, "", false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, "", false, forceFlagDescription)
	return initCommand
}
