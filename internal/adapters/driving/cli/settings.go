package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docsrag/internal/config"
)

// passwordReader reads a secret from the terminal. Replaced in tests.
var passwordReader = readPassword

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View configuration and manage the Gemini API key and web search.

Other options live in config.toml under the data directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Store your own Gemini API key",
	Long: `Stores a Gemini API key, which replaces the shared guest key and its
message limit. Without an argument the key is read from the terminal
without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsSetKey,
}

var settingsClearKeyCmd = &cobra.Command{
	Use:   "clear-key",
	Short: "Remove your Gemini API key and return to guest mode",
	Args:  cobra.NoArgs,
	RunE:  runSettingsClearKey,
}

var settingsWebSearchCmd = &cobra.Command{
	Use:       "web-search on|off",
	Short:     "Toggle the web search tool for weak documentation matches",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runSettingsWebSearch,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsClearKeyCmd)
	settingsCmd.AddCommand(settingsWebSearchCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errNoChatService
	}
	ctx := cmd.Context()

	cmd.Println("[General]")
	cmd.Printf("  Home: %s\n", settings.Home)
	if configStore != nil {
		cmd.Printf("  Config: %s\n", configStore.Path())
	}
	cmd.Println()

	cmd.Println("[Fetch Proxy]")
	cmd.Printf("  Endpoint: %s\n", settings.Proxy.Endpoint)
	cmd.Printf("  Rate: %.1f req/s\n", settings.Proxy.Rate)
	cmd.Printf("  Timeout: %s\n", settings.Proxy.Timeout)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Max age: %s\n", settings.Cache.MaxAge)
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	if chatService.HasAPIKey(ctx) {
		cmd.Printf("  API Key: your own key\n")
	} else {
		if settings.Chat.DefaultAPIKey != "" {
			cmd.Printf("  API Key: guest %s\n", maskAPIKey(settings.Chat.DefaultAPIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
		cmd.Printf("  Guest messages left: %d\n", chatService.GuestMessagesLeft(ctx))
	}
	webSearch := "off"
	if chatService.WebSearch() {
		webSearch = "on"
	}
	cmd.Printf("  Web search: %s\n", webSearch)
	cmd.Println()

	if !chatService.HasAPIKey(ctx) && settings.Chat.DefaultAPIKey == "" {
		cmd.Printf("Warning: no API key. Run 'docsrag settings set-key' or set %s.\n", config.EnvAPIKey)
	}
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNoChatService
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		cmd.Print("Gemini API key: ")
		key = passwordReader()
		cmd.Println()
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("API key is required")
	}

	if err := chatService.SetAPIKey(cmd.Context(), key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	cmd.Printf("API key saved: %s\n", maskAPIKey(strings.TrimSpace(key)))
	return nil
}

func runSettingsClearKey(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errNoChatService
	}
	if err := chatService.ClearAPIKey(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear API key: %w", err)
	}
	cmd.Println("API key removed. Using the guest key.")
	return nil
}

func runSettingsWebSearch(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNoChatService
	}

	var enabled bool
	switch strings.ToLower(args[0]) {
	case "on", "true", "yes":
		enabled = true
	case "off", "false", "no":
		enabled = false
	default:
		return fmt.Errorf("invalid value %q: use on or off", args[0])
	}

	chatService.SetWebSearch(enabled)
	if configStore != nil {
		if err := configStore.Set(config.KeyChatWebSearch, enabled); err != nil {
			return fmt.Errorf("failed to save setting: %w", err)
		}
	}

	if enabled {
		cmd.Println("Web search enabled.")
	} else {
		cmd.Println("Web search disabled.")
	}
	return nil
}

func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
