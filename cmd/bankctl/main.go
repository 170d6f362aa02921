package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/smartstudy/backend/internal/authoring"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bankctl",
		Short:        "Maintain the question bank files",
		SilenceUsage: true,
	}
	root.AddCommand(newManifestCmd(), newFixTopicsCmd(), newImportCmd())
	return root
}

func newManifestCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Regenerate questions/manifestquestions.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := authoring.WriteManifest(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manifest updated! (%d files)\n", len(entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "questions", "question bank directory")
	return cmd
}

func newFixTopicsCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "fix-topics",
		Short: "Humanize ids, topics and tags in every question file",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := authoring.FixDir(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range report.Updated {
				fmt.Fprintf(out, "Updated id/topic/tags in: %s\n", p)
			}
			fmt.Fprintf(out, "%d files scanned, %d updated, %d failed\n", report.Scanned, len(report.Updated), len(report.Failed))
			if len(report.Failed) > 0 {
				return fmt.Errorf("could not parse: %s", strings.Join(report.Failed, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "questions", "question bank directory")
	return cmd
}

func newImportCmd() *cobra.Command {
	config := authoring.DefaultImportConfig()
	var answers, out string
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "import-xlsx FILE",
		Short: "Convert a spreadsheet (.xlsx or .csv) into a question file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.FilePath = args[0]
			config.AnswerColumns = strings.Split(answers, ",")

			result, err := authoring.ImportQuestions(config)
			if err != nil {
				return err
			}
			for _, e := range result.Errors {
				log.Printf("WARN: %s", e)
			}
			if result.Created == 0 {
				return fmt.Errorf("no questions imported from %s", config.FilePath)
			}
			if err := authoring.WriteQuestions(out, result.Questions); err != nil {
				return err
			}

			summary, _ := json.Marshal(result)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nWrote %s\n", summary, out)

			if regenerate {
				if _, err := authoring.WriteManifest(filepath.Dir(out)); err != nil {
					return fmt.Errorf("update manifest: %w", err)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&config.SheetName, "sheet", "", "sheet name (default: first sheet)")
	f.IntVar(&config.StartRow, "start-row", config.StartRow, "first data row, 1-based")
	f.StringVar(&config.IDColumn, "id-col", config.IDColumn, "id column; blank ids are generated")
	f.StringVar(&config.TopicColumn, "topic-col", config.TopicColumn, "topic column")
	f.StringVar(&config.QuestionColumn, "question-col", config.QuestionColumn, "question column")
	f.StringVar(&answers, "answer-cols", strings.Join(config.AnswerColumns, ","), "comma-separated answer columns")
	f.StringVar(&config.CorrectColumn, "correct-col", config.CorrectColumn, "correct answer column (letter or 1-based number)")
	f.StringVar(&config.ExplanationColumn, "explanation-col", config.ExplanationColumn, "explanation column")
	f.StringVar(&config.DifficultyColumn, "difficulty-col", config.DifficultyColumn, "difficulty column")
	f.StringVar(&config.DefaultTopic, "topic", "", "topic for rows with a blank topic cell")
	f.StringVarP(&out, "out", "o", "", "output question file")
	f.BoolVar(&regenerate, "manifest", false, "regenerate the manifest in the output directory")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
