package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/config"
	"github.com/kcarante/thinktasker/internal/database"
	"github.com/kcarante/thinktasker/internal/engine"
	"github.com/kcarante/thinktasker/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedDocument is one corpus entry in a seed file
type seedDocument struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// seedFile is the YAML layout accepted by `corpus seed -f`
type seedFile struct {
	Documents []seedDocument `yaml:"documents"`
}

// NewCorpusCmd creates the reference corpus command group
func NewCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the reference corpus",
		Long:  "Seed and inspect the reference corpus that backs relevance scoring",
	}

	cmd.AddCommand(newCorpusSeedCmd())
	cmd.AddCommand(newCorpusCountCmd())

	return cmd
}

func newCorpusSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the corpus from a YAML file",
		Long:  "Load reference documents from a YAML file. Seeding is idempotent: documents already present are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("required flag: --file")
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}

			var seed seedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("failed to parse seed file: %w", err)
			}
			if len(seed.Documents) == 0 {
				return fmt.Errorf("seed file contains no documents")
			}

			repo, closeDB, err := referenceRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			normalizer := engine.NewNormalizer()
			ctx := context.Background()
			for _, d := range seed.Documents {
				text := d.Subject + " " + d.Body
				doc := &models.ReferenceDocument{
					ID:      uuid.New(),
					Subject: d.Subject,
					Body:    normalizer.StripMarkup(d.Body),
					Tokens:  normalizer.Normalize(text),
				}
				if err := repo.Add(ctx, doc); err != nil {
					return fmt.Errorf("failed to add document %q: %w", d.Subject, err)
				}
			}

			fmt.Printf("Seeded %d documents from %s\n", len(seed.Documents), file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (required)")

	return cmd
}

func newCorpusCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the number of corpus documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := referenceRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			count, err := repo.Count(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("%d documents\n", count)
			return nil
		},
	}
}

func referenceRepo() (*database.ReferenceRepository, func(), error) {
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

	return database.NewReferenceRepository(db), closeDB, nil
}
