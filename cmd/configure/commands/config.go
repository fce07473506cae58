package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kcarante/thinktasker/internal/config"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config inspection command group
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the configuration resolved from the environment",
		Long:  "Print the effective configuration. Secrets and connection credentials are redacted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			workHours := "default"
			if len(cfg.WorkHours) > 0 {
				parts := make([]string, len(cfg.WorkHours))
				for i, h := range cfg.WorkHours {
					parts[i] = fmt.Sprintf("%d", h)
				}
				workHours = strings.Join(parts, ",")
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "database_url\t%s\n", redactURL(cfg.DatabaseURL))
			fmt.Fprintf(w, "rabbitmq_url\t%s\n", redactURL(cfg.RabbitMQURL))
			fmt.Fprintf(w, "redis_url\t%s\n", redactURL(cfg.RedisURL))
			fmt.Fprintf(w, "server_port\t%s\n", cfg.ServerPort)
			fmt.Fprintf(w, "base_url\t%s\n", cfg.BaseURL)
			fmt.Fprintf(w, "allowed_origins\t%s\n", cfg.AllowedOrigins)
			fmt.Fprintf(w, "rate_limit_rate\t%s\n", cfg.RateLimitRate)
			fmt.Fprintf(w, "oidc_issuer\t%s\n", cfg.OIDCIssuer)
			fmt.Fprintf(w, "oidc_audience\t%s\n", cfg.OIDCAudience)
			fmt.Fprintf(w, "graph_tenant_id\t%s\n", cfg.GraphTenantID)
			fmt.Fprintf(w, "graph_client_id\t%s\n", cfg.GraphClientID)
			fmt.Fprintf(w, "graph_client_secret\t%s\n", redactValue(cfg.GraphClientSecret))
			fmt.Fprintf(w, "openai_api_key\t%s\n", redactValue(cfg.OpenAIKey))
			fmt.Fprintf(w, "ai_provider\t%s\n", cfg.AIProvider)
			fmt.Fprintf(w, "ai_model\t%s\n", cfg.AIModel)
			fmt.Fprintf(w, "task_list_name\t%s\n", cfg.TaskListName)
			fmt.Fprintf(w, "sync_interval_minutes\t%d\n", cfg.SyncIntervalMinutes)
			fmt.Fprintf(w, "work_hours\t%s\n", workHours)
			fmt.Fprintf(w, "max_lookahead_days\t%d\n", cfg.MaxLookaheadDays)
			fmt.Fprintf(w, "otel_enabled\t%t\n", cfg.OTELEnabled)
			return w.Flush()
		},
	}
}

// redactURL hides everything between the scheme and the host separator
// so credentials embedded in connection URLs never print.
func redactURL(rawURL string) string {
	if rawURL == "" {
		return "(not set)"
	}
	schemeEnd := strings.Index(rawURL, "://")
	if schemeEnd == -1 {
		return "(set, redacted)"
	}
	at := strings.LastIndex(rawURL, "@")
	if at == -1 {
		return rawURL
	}
	return rawURL[:schemeEnd+3] + "***" + rawURL[at:]
}

func redactValue(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "(set, redacted)"
}
