// Package cli provides the docsrag command line, built on cobra.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsrag/internal/config"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
	"github.com/custodia-labs/docsrag/internal/logger"
)

// version is set at build time via -ldflags "-X ...cli.version=...".
var version = "dev"

// ConfigWatcher reloads configuration when its file changes.
type ConfigWatcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Services holds everything the commands drive.
type Services struct {
	Docs     driving.DocsService
	Chat     driving.ChatService
	Config   driven.ConfigStore
	Prompts  driven.PromptStore
	Watcher  ConfigWatcher
	Settings config.Settings

	// Status publishes retrieval progress to long-running commands. Optional.
	Status driving.StatusSource

	// Close releases storage handles. Optional.
	Close func() error
}

// Bootstrap builds the services for a data directory.
type Bootstrap func(home string) (*Services, error)

var (
	docsService   driving.DocsService
	chatService   driving.ChatService
	configStore   driven.ConfigStore
	promptStore   driven.PromptStore
	configWatcher ConfigWatcher
	settings      config.Settings
	statusSource  driving.StatusSource
	closeServices func() error

	bootstrap Bootstrap

	verbose  bool
	homeFlag string
)

// errNoDocsService is returned by commands run without a docs service.
var errNoDocsService = errors.New("docs service not configured")

// errNoChatService is returned by commands run without a chat service.
var errNoChatService = errors.New("chat service not configured")

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "docsrag",
	Short: "Documentation retrieval and chat",
	Long: `docsrag crawls documentation sites into a local index, ranks excerpts
for a question and grounds a Gemini chat agent in them.

Name a known source (PydanticAI, FastAPI, LangChain, LangGraph) or paste a
URL in your question to pull in documentation context.`,
	SilenceUsage:      true,
	PersistentPreRunE: preRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", "", "data directory (default $DOCSRAG_HOME or ~/.docsrag)")
}

// SetServices injects the services used by every command.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	docsService = s.Docs
	chatService = s.Chat
	configStore = s.Config
	promptStore = s.Prompts
	configWatcher = s.Watcher
	settings = s.Settings
	statusSource = s.Status
	closeServices = s.Close
}

// SetBootstrap registers the function that builds services once flags
// are parsed.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version printed by `docsrag version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
	}
	return err
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}
	if bootstrap == nil || docsService != nil {
		return nil
	}

	home, err := config.ResolveHome(homeFlag)
	if err != nil {
		return err
	}
	services, err := bootstrap(home)
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}
