// Package main is the entry point for the taskmesh binary. It provides a
// CLI for initialising orchestrator configuration, running queries through
// the orchestration core and inspecting its health.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taskmesh/taskmesh/pkg/agent"
	"github.com/taskmesh/taskmesh/pkg/config"
	"github.com/taskmesh/taskmesh/pkg/domain"
	"github.com/taskmesh/taskmesh/pkg/orchestrator"
	"github.com/taskmesh/taskmesh/pkg/storage"
	"github.com/taskmesh/taskmesh/pkg/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskmesh",
		Short: "Multi-agent task orchestrator",
		Long: `Taskmesh routes task requests to registered agents with automatic
agent selection, compliance guardrails and bounded retries.

Example:
  taskmesh run "Summarize the Q3 report" --agent-type bedrock`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newInitCmd(), newRunCmd(), newHealthCmd(), newAgentsCmd())
	return rootCmd
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// loadConfig resolves the effective configuration: the given file when set,
// otherwise the built-in sample so the CLI works out of the box.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	cfg.Name = "cli-orchestrator"
	cfg.Agents = sampleAgents()
	return cfg, nil
}

func sampleAgents() []config.AgentConfig {
	return []config.AgentConfig{
		{
			Name:        "BedrockAgent",
			Type:        "bedrock",
			Description: "AI agent powered by a foundation model",
			Endpoint:    "arn:aws:lambda:us-east-1:123456789:function:bedrock-agent",
			Timeout:     60,
			Metadata:    map[string]string{"model_id": "anthropic.claude-v2"},
		},
		{
			Name:        "AnalyticsAgent",
			Type:        "analytics",
			Description: "Data analytics and insights",
			Endpoint:    "arn:aws:lambda:us-east-1:123456789:function:analytics-agent",
			Timeout:     45,
		},
	}
}

// buildOrchestrator assembles the orchestration core from a loaded
// configuration. The CLI always runs against the in-process invoker.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger) (*orchestrator.Orchestrator, error) {
	descs, err := cfg.Descriptors()
	if err != nil {
		return nil, err
	}
	opts := orchestrator.Options{
		Name:               cfg.Name,
		Agents:             descs,
		Guardrails:         cfg.GuardrailConfig(),
		MaxConcurrentTasks: cfg.MaxConcurrentTasks,
		DefaultTimeout:     cfg.DefaultTimeoutDuration(),
		Sink:               telemetry.NewSlogSink(logger),
	}
	if cfg.EnableCaching {
		opts.Cache = storage.NewMemoryCache()
	}
	return orchestrator.New(&agent.LocalInvoker{Delay: 100 * time.Millisecond}, opts)
}

func newInitCmd() *cobra.Command {
	var (
		name   string
		region string
		output string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new orchestrator configuration",
		Long:  "Creates a sample configuration file with example agents and guardrails.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			cfg.Name = name
			cfg.Region = region
			cfg.Agents = sampleAgents()

			if err := cfg.Validate(); err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write configuration: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration created: %s\n", output)
			fmt.Fprintf(cmd.OutOrStdout(), "  Orchestrator name: %s\n", cfg.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "  Region:            %s\n", cfg.Region)
			fmt.Fprintf(cmd.OutOrStdout(), "  Agents:            %d\n", len(cfg.Agents))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "my-orchestrator", "Orchestrator name")
	cmd.Flags().StringVar(&region, "region", "us-east-1", "Deployment region")
	cmd.Flags().StringVarP(&output, "output", "o", "taskmesh.yaml", "Output configuration file")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		userID    string
		agentType string
	)
	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Execute a query using the orchestrator",
		Long: `Process a single query through the multi-agent system with
automatic agent selection and compliance guardrails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel, _ := cmd.Flags().GetString("log-level")
			configPath, _ := cmd.Flags().GetString("config")
			logger := newLogger(logLevel)
			slog.SetDefault(logger)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
				ServiceName: cfg.Name,
				Endpoint:    cfg.Telemetry.OTLPEndpoint,
				Insecure:    cfg.Telemetry.Insecure,
			})
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(shutdownCtx)
			}()

			o, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}

			var taskOpts []domain.TaskOption
			if agentType != "" {
				preferred, err := domain.ParseAgentType(agentType)
				if err != nil {
					return err
				}
				taskOpts = append(taskOpts, domain.WithPreferredAgent(preferred))
			}

			req, err := domain.NewTaskRequest(userID, args[0], taskOpts...)
			if err != nil {
				return err
			}

			resp := o.ProcessTask(ctx, req)
			printResponse(cmd, resp)
			if resp.Status != domain.StatusSuccess {
				return fmt.Errorf("task %s: %s", resp.Status, resp.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "cli-user", "User ID")
	cmd.Flags().StringVar(&agentType, "agent-type", "", "Preferred agent type (bedrock, analytics, notification, custom)")
	return cmd
}

func printResponse(cmd *cobra.Command, resp domain.TaskResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Task Result")
	fmt.Fprintf(out, "  Task ID:        %s\n", resp.TaskID)
	fmt.Fprintf(out, "  Agent:          %s\n", resp.AgentName)
	fmt.Fprintf(out, "  Status:         %s\n", resp.Status)
	fmt.Fprintf(out, "  Execution Time: %.3fs\n", resp.ExecutionTime.Seconds())
	if resp.Result != nil {
		if answer, ok := resp.Result["response"]; ok {
			fmt.Fprintf(out, "  Result:         %v\n", answer)
		}
	}
	if resp.Error != "" {
		fmt.Fprintf(out, "  Error:          %s\n", resp.Error)
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check orchestrator health status",
		Long: `Displays the current health status of the orchestrator including
active agents and system uptime.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logLevel, _ := cmd.Flags().GetString("log-level")
			configPath, _ := cmd.Flags().GetString("config")

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			o, err := buildOrchestrator(cfg, newLogger(logLevel))
			if err != nil {
				return err
			}

			health := o.HealthCheck()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Health Check")
			fmt.Fprintf(out, "  Status:        %s\n", health.Status)
			fmt.Fprintf(out, "  Active Agents: %d\n", health.AgentsActive)
			fmt.Fprintf(out, "  Total Agents:  %d\n", health.AgentsTotal)
			fmt.Fprintf(out, "  Uptime:        %.2fs\n", health.Uptime.Seconds())
			return nil
		},
	}
}

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List all available agent types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available Agent Types")
			fmt.Fprintf(out, "  %-14s %s\n", "bedrock", "AI agent powered by a foundation model")
			fmt.Fprintf(out, "  %-14s %s\n", "analytics", "Data analytics and insights")
			fmt.Fprintf(out, "  %-14s %s\n", "notification", "Notification management")
			fmt.Fprintf(out, "  %-14s %s\n", "custom", "Custom agent implementation")
			return nil
		},
	}
}
