package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func buildRootCmd(o *Options) *cobra.Command {
	root := &cobra.Command{
		Use:   "deephelper",
		Short: "DeepHelper AI chat server",
		Long: "deephelper serves a small chat page and JSON API backed by a pretrained\n" +
			"language model. Without a subcommand it runs the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCmd(cmd, o)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.ConfigPath, "config", "c", "", "config file (.yaml, .yml, .json or .toml); defaults to $DEEPHELPER_CONFIG")
	pf.StringVar(&o.EnvFile, "env-file", "", "dotenv file to load before reading DEEPHELPER_* variables (default .env if present)")
	pf.StringVar(&o.flags.LogLevel, "log-level", "", "log level: debug|info|warn|error")
	pf.StringVar(&o.flags.LogFormat, "log-format", "", "log format: auto|console|json")

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP server (default)",
		Args:    cobra.NoArgs,
		Example: "  deephelper serve --provider subprocess --models-dir ~/models/llm\n  deephelper --server-url http://127.0.0.1:8081",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCmd(cmd, o)
		},
	}
	addServerFlags(root, o)
	addServerFlags(serveCmd, o)
	root.AddCommand(serveCmd)

	chatCmd := &cobra.Command{
		Use:     "chat [message...]",
		Short:   "Send a message to a running server and print the reply",
		Example: "  deephelper chat '2+2=?'\n  echo 'hello' | deephelper chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, o, args)
		},
	}
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, o)
		},
	}
	for _, c := range []*cobra.Command{chatCmd, statusCmd} {
		addClientFlags(c, o)
	}
	statusCmd.Flags().BoolVar(&o.JSON, "json", false, "print the raw JSON response")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List *.gguf models in the models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd, o)
		},
	}
	modelsCmd.Flags().StringVar(&o.flags.ModelsDir, "models-dir", "", "directory to scan for *.gguf files")
	modelsCmd.Flags().BoolVar(&o.Remote, "remote", false, "ask the running server instead of scanning locally")
	modelsCmd.Flags().BoolVar(&o.JSON, "json", false, "print JSON")
	addClientFlags(modelsCmd, o)

	root.AddCommand(chatCmd, statusCmd, modelsCmd)
	return root
}

func addServerFlags(cmd *cobra.Command, o *Options) {
	f := cmd.Flags()
	f.StringVar(&o.flags.Addr, "addr", "", "HTTP listen address (default 0.0.0.0:5000)")
	f.StringVar(&o.flags.Provider, "provider", "", "model provider: server|subprocess|llama (default server)")
	f.StringVar(&o.flags.ModelID, "model-id", "", "model identifier to load (default microsoft/DialoGPT-medium)")
	f.StringVar(&o.flags.ModelsDir, "models-dir", "", "directory to scan for *.gguf files (default ~/models/llm)")
	f.StringVar(&o.flags.ServerURL, "server-url", "", "llama.cpp server base URL for the server provider")
	f.StringVar(&o.flags.LlamaBin, "llama-bin", "", "llama-server binary for the subprocess provider")
	f.IntVar(&o.flags.LlamaCtx, "llama-ctx", 0, "context size for local providers")
	f.IntVar(&o.flags.LlamaThreads, "llama-threads", 0, "threads for local providers")
	f.StringVar(&o.flags.Persona, "persona", "", "system persona placed before every message")
	f.Int64Var(&o.flags.ChatTimeoutSeconds, "chat-timeout", 0, "seconds before a chat times out (0 disables)")
	f.IntVar(&o.flags.MaxConcurrent, "max-concurrent", 0, "concurrent generations")
	f.IntVar(&o.flags.MaxQueueDepth, "max-queue-depth", 0, "chats allowed to wait for a generation slot")
	f.Int64Var(&o.flags.MaxWaitSeconds, "max-wait", 0, "seconds a chat may wait for admission")
	f.BoolVar(&o.warmup, "warmup", false, "load the model at startup instead of on the first chat")
	f.BoolVar(&o.cors, "cors", true, "enable CORS")
	f.StringVar(&o.corsOrigins, "cors-origins", "", "comma-separated allowed CORS origins (default *)")
}

func addClientFlags(cmd *cobra.Command, o *Options) {
	cmd.Flags().StringVar(&o.Server, "server", "http://127.0.0.1:5000", "base URL of a running deephelper server")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 5*time.Minute, "request timeout")
}
