package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cvinsight/cv-insight/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var questionPrompt = promptui.Prompt{
	Label: "Question about the CV",
	Validate: func(input string) error {
		if strings.TrimSpace(input) == "" {
			return fmt.Errorf("question must not be empty")
		}
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <file> [question]",
	Short: "Ask a question about a CV file",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(_ *cobra.Command, args []string) {
		question := ""
		if len(args) > 1 {
			question = args[1]
		}
		ask(args[0], question)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func ask(path, question string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	app, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("building application", zap.Error(err))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading the document", zap.Error(err))
	}

	filename := filepath.Base(path)
	text, err := app.loader.Load(ctx, filename, data)
	if err != nil {
		logger.Fatal("decoding the document", zap.Error(err))
	}

	if question == "" {
		question, err = questionPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	id := app.pipeline.Upload(text, filename)

	reply, err := app.agent.Ask(ctx, id, question)
	if err != nil {
		logger.Fatal("answering failed", zap.Error(err))
	}

	fmt.Println(reply.Answer)
	if len(reply.ToolsUsed) > 0 {
		fmt.Printf("\n[tools used: %s]\n", strings.Join(reply.ToolsUsed, ", "))
	}
}
