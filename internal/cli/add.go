package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/retain/internal/config"
	"github.com/rcliao/retain/internal/extract"
	"github.com/rcliao/retain/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add items to the review schedule",
		Long: "Add a single item via flags, or extract items from study notes with --notes.\n" +
			"Notes extraction calls an OpenAI-compatible API (RETAIN_OPENAI_API_KEY).",
		Run: runAdd,
	}

	cmd.Flags().StringP("topic", "t", "", "Topic name")
	cmd.Flags().StringP("prompt", "p", "", "Review question")
	cmd.Flags().StringP("answer", "a", "", "Expected answer")
	cmd.Flags().Int("difficulty", 3, "Difficulty 1-5")
	cmd.Flags().String("tags", "", "Comma-separated tags")
	cmd.Flags().String("notes", "", "Study notes file to extract items from (- for stdin)")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	topic, _ := cmd.Flags().GetString("topic")
	prompt, _ := cmd.Flags().GetString("prompt")
	answer, _ := cmd.Flags().GetString("answer")
	difficulty, _ := cmd.Flags().GetInt("difficulty")
	tagsStr, _ := cmd.Flags().GetString("tags")
	notes, _ := cmd.Flags().GetString("notes")

	cfg := loadConfig()

	var drafts []model.ItemDraft
	var sessionTopic string
	if notes != "" {
		drafts = extractDrafts(cmd, cfg, notes)
		sessionTopic = topic
	} else {
		if topic == "" || prompt == "" {
			exitErr("add", fmt.Errorf("--topic and --prompt are required (or use --notes)"))
		}
		drafts = []model.ItemDraft{{
			Topic:      topic,
			Prompt:     prompt,
			Answer:     answer,
			Difficulty: difficulty,
			Tags:       splitTags(tagsStr),
		}}
		sessionTopic = topic
	}

	repo := openRepo(cfg)
	defer repo.Close()
	sched := newScheduler(repo, cfg)
	ctx := cmd.Context()

	items, err := repo.AddItems(ctx, drafts)
	if err != nil {
		exitErr("add items", err)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, err := sched.Initialize(ctx, item.ID); err != nil {
			exitErr("initialize schedule", err)
		}
		ids = append(ids, item.ID)
	}

	_, err = repo.CreateSession(ctx, model.SessionDraft{
		Topic:   sessionTopic,
		Summary: fmt.Sprintf("ingested %d item(s)", len(items)),
		ItemIDs: ids,
		Method:  model.MethodIngest,
	})
	if err != nil {
		exitErr("record session", err)
	}

	printJSON(items)
}

func extractDrafts(cmd *cobra.Command, cfg *config.Config, notes string) []model.ItemDraft {
	var text []byte
	var err error
	if notes == "-" {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = os.ReadFile(notes)
	}
	if err != nil {
		exitErr("read notes", err)
	}

	if cfg.OpenAIAPIKey == "" {
		exitErr("extract", fmt.Errorf("RETAIN_OPENAI_API_KEY is required for --notes"))
	}

	extractor := extract.NewOpenAI(extract.Config{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.OpenAITimeout,
	})

	drafts, err := extractor.Extract(cmd.Context(), string(text))
	if err != nil {
		exitErr("extract", err)
	}
	return drafts
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
