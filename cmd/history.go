package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legalintel/counsel/pkg/chat"
	"github.com/legalintel/counsel/pkg/config"
	"github.com/legalintel/counsel/pkg/logger"
	"github.com/legalintel/counsel/pkg/store"
	"github.com/legalintel/counsel/pkg/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the persisted chat history for the configured user",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Close()

		cfg := config.Get()
		if cfg.Chat.Owner == "" {
			return fmt.Errorf("no user configured; set --user or chat.owner to read history")
		}

		log, err := store.NewNATSLog(cmd.Context(), cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to chat log: %w", err)
		}
		defer log.Close()

		records, err := log.ReadAll(cmd.Context(), cfg.Chat.Owner)
		if err != nil {
			return fmt.Errorf("failed to read chat log: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("You have no chat history yet.")
			return nil
		}

		entries := make([]chat.Entry, 0, len(records))
		for i, rec := range records {
			entries = append(entries, chat.Entry{
				ID:      rec.ID,
				Role:    rec.Role,
				Content: rec.Content,
				Origin:  chat.OriginPersisted,
				Stamp:   chat.ServerStamp(rec.Time),
				Status:  chat.StatusComplete,
				Seq:     uint64(i),
			})
		}
		chat.SortEntries(entries, records[len(records)-1].Time)

		renderer := tui.NewRenderer(100)
		fmt.Println(renderer.RenderTranscript(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
