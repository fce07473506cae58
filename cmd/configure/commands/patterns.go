package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/config"
	"github.com/kcarante/thinktasker/internal/database"
	"github.com/kcarante/thinktasker/internal/models"
	"github.com/kcarante/thinktasker/internal/validation"
	"github.com/spf13/cobra"
)

// NewPatternsCmd creates the pattern management command group
func NewPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Manage actionable patterns",
		Long:  "List, add, enable, disable and delete the patterns that mark a message as actionable",
	}

	cmd.AddCommand(newPatternsListCmd())
	cmd.AddCommand(newPatternsAddCmd())
	cmd.AddCommand(newPatternsSetActiveCmd("enable", true))
	cmd.AddCommand(newPatternsSetActiveCmd("disable", false))
	cmd.AddCommand(newPatternsDeleteCmd())

	return cmd
}

func newPatternsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := patternRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			patterns, err := repo.List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list patterns: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPATTERN\tTYPE\tLABEL\tACTIVE")
			for _, p := range patterns {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", p.ID, p.Pattern, p.PatternType, p.Label, p.IsActive)
			}
			return w.Flush()
		},
	}
}

func newPatternsAddCmd() *cobra.Command {
	var patternType, label, priorityHint string

	cmd := &cobra.Command{
		Use:   "add <pattern>",
		Short: "Add a new pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := args[0]

			if err := validation.ValidatePatternType(patternType); err != nil {
				return err
			}
			pt := models.PatternType(patternType)
			if err := validation.ValidatePattern(pattern, pt); err != nil {
				return err
			}
			if priorityHint != "" {
				if err := validation.ValidateTaskPriority(priorityHint); err != nil {
					return err
				}
			}

			repo, closeDB, err := patternRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			p := &models.ActionablePattern{
				ID:           uuid.New(),
				Pattern:      pattern,
				PatternType:  pt,
				Label:        label,
				PriorityHint: models.TaskPriority(priorityHint),
				IsActive:     true,
			}
			if err := repo.Create(context.Background(), p); err != nil {
				return fmt.Errorf("failed to create pattern: %w", err)
			}

			fmt.Printf("Created pattern %s (%s)\n", p.ID, p.Pattern)
			return nil
		},
	}

	cmd.Flags().StringVar(&patternType, "type", "word", "Pattern type: word, phrase or regex")
	cmd.Flags().StringVar(&label, "label", "", "Optional human-readable label")
	cmd.Flags().StringVar(&priorityHint, "priority-hint", "", "Optional priority hint (Urgent, Important, Medium, Low)")

	return cmd
}

func newPatternsSetActiveCmd(name string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <pattern-id>",
		Short: name + " a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid pattern id: %w", err)
			}

			repo, closeDB, err := patternRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.SetActive(context.Background(), id, active); err != nil {
				return err
			}

			fmt.Printf("Pattern %s is_active=%t\n", id, active)
			return nil
		},
	}
}

func newPatternsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pattern-id>",
		Short: "Delete a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid pattern id: %w", err)
			}

			repo, closeDB, err := patternRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.Delete(context.Background(), id); err != nil {
				return err
			}

			fmt.Printf("Deleted pattern %s\n", id)
			return nil
		},
	}
}

// patternRepo opens the database from the environment configuration and
// returns a pattern repository plus a close function.
func patternRepo() (*database.PatternRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}

	return database.NewPatternRepository(db), closeDB, nil
}
