package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the chat agent one question",
	Long: `Sends one message to the chat agent. Questions naming a documentation
source or containing a URL are grounded in ranked excerpts; weak matches
let the model read pages or search the web itself.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNoChatService
	}

	reply, err := chatService.Ask(cmd.Context(), strings.Join(args, " "), statusPrinter{w: cmd.ErrOrStderr()})
	if reply != nil {
		if reply.Failed {
			cmd.PrintErrln(reply.Text)
		} else {
			cmd.Println(reply.Text)
			if reply.Docs != nil {
				cmd.Printf("\nSources: %s (%d excerpts)\n", reply.Docs.SourceLabel, reply.Docs.ChunkCount)
			}
		}
	}
	return err
}
