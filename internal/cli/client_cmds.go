package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"deephelper/internal/client"
	"deephelper/internal/registry"
	"deephelper/pkg/types"
)

var stdin io.Reader = os.Stdin

func runChat(cmd *cobra.Command, o *Options, args []string) error {
	msg := strings.TrimSpace(strings.Join(args, " "))
	if msg == "" {
		b, err := io.ReadAll(bufio.NewReader(stdin))
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		msg = strings.TrimSpace(string(b))
	}
	if msg == "" {
		return fmt.Errorf("no message given")
	}
	c := client.New(o.Server, o.Timeout)
	reply, err := c.Chat(ctxOf(cmd), msg)
	if err != nil {
		return err
	}
	fmt.Fprintln(o.Stdout, reply)
	return nil
}

func runStatus(cmd *cobra.Command, o *Options) error {
	st, err := client.New(o.Server, o.Timeout).Status(ctxOf(cmd))
	if err != nil {
		return err
	}
	if o.JSON {
		return writeJSON(o.Stdout, st)
	}
	loaded := "not loaded"
	if st.ModelLoaded {
		loaded = "loaded"
	}
	fmt.Fprintf(o.Stdout, "%s: %s, model %s %s\n", st.Name, st.Status, st.Model, loaded)
	return nil
}

func runModels(cmd *cobra.Command, o *Options) error {
	var (
		models []types.Model
		err    error
	)
	if o.Remote {
		models, err = client.New(o.Server, o.Timeout).Models(ctxOf(cmd))
	} else {
		if lerr := loadEnvFile(o.EnvFile); lerr != nil {
			return lerr
		}
		cfg, cerr := resolveConfig(o, cmd.Flags(), fnLookupEnv)
		if cerr != nil {
			return cerr
		}
		models, err = registry.LoadDir(cfg.ModelsDir)
	}
	if err != nil {
		return err
	}
	if o.JSON {
		return writeJSON(o.Stdout, types.ModelsResponse{Models: models})
	}
	tw := tabwriter.NewWriter(o.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUANT\tSIZE")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Quant, humanBytes(m.SizeBytes))
	}
	return tw.Flush()
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
