package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gemmad/internal/bridge"
	"gemmad/internal/channel"
	"gemmad/internal/engine"
	"gemmad/pkg/types"
)

func newAskCmd(opts *cliOptions) *cobra.Command {
	var (
		stream    bool
		modelPath string
	)
	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Run one generateText call in-process and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(opts.cfg, engine.NewLlamaLoader(), opts.log)
			if err != nil {
				return err
			}
			defer a.close()
			return ask(cmd.Context(), a, strings.Join(args, " "), modelPath, stream, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "engine mode: use generateTextStream and print chunks")
	cmd.Flags().StringVar(&modelPath, "model", "", "engine mode: model path (default: located bundle)")
	return cmd
}

// ask drives the handler exactly as a channel client would.
func ask(ctx context.Context, a *app, prompt, modelPath string, stream bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	h := a.handler
	if a.sess != nil {
		if modelPath == "" {
			p, ok := a.loc.Locate()
			if !ok {
				return fmt.Errorf("model not found; pass --model or run 'gemmad locate'")
			}
			modelPath = p
		}
		res := channel.Dispatch(ctx, h, types.MethodCall{Method: bridge.MethodInitializeModel, Args: map[string]any{"modelPath": modelPath}}, nil, h.FallbackCode())
		if res.Error != nil {
			return fmt.Errorf("%s: %s", res.Error.Code, res.Error.Message)
		}
	}

	method := bridge.MethodGenerateText
	var sink channel.EventSink
	if stream && a.sess != nil {
		method = bridge.MethodGenerateTextStream
		sink = channel.SinkFunc(func(e types.Event) error {
			if e.Method == types.EventStreamChunk {
				if s, _ := e.Args.(string); s != "" {
					fmt.Fprintf(out, "\r%s", s)
				}
			}
			return nil
		})
	}
	reply := channel.Dispatch(ctx, h, types.MethodCall{Method: method, Args: map[string]any{"prompt": prompt}}, sink, h.FallbackCode())
	if reply.Error != nil {
		return fmt.Errorf("%s: %s", reply.Error.Code, reply.Error.Message)
	}
	if s, ok := reply.Result.(string); ok {
		fmt.Fprintln(out, s)
	} else {
		fmt.Fprintln(out)
	}
	return nil
}
