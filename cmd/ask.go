package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/kb-resolver/internal/model"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the knowledge base",
	Long:  "Answers the question given as arguments. With no arguments, reads one question per line from stdin until EOF or \"exit\".",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "ask")
		if err != nil {
			return err
		}
		defer env.Close()

		if len(args) > 0 {
			resp := env.Dispatcher.Ask(ctx, strings.Join(args, " "))
			return printResponse(os.Stdout, resp, askJSON)
		}
		return askLoop(ctx, os.Stdin, os.Stdout, env.Dispatcher.Ask, askJSON)
	},
}

// askLoop answers one question per input line.
func askLoop(ctx context.Context, in io.Reader, out io.Writer, ask func(context.Context, string) model.DispatchResponse, asJSON bool) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := printResponse(out, ask(ctx, line), asJSON); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func printResponse(out io.Writer, resp model.DispatchResponse, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	_, _ = fmt.Fprintln(out, resp.Answer)
	_, _ = fmt.Fprintf(out, "  [%s | %s | %s | %s | %dms]\n",
		resp.Intent, resp.BrainUsed, resp.Provenance, resp.Confidence, resp.ElapsedMS)
	for _, ref := range resp.SourceRefs {
		if ref.Date != "" {
			_, _ = fmt.Fprintf(out, "  source: %s (%s)\n", ref.DocumentID, ref.Date)
		} else {
			_, _ = fmt.Fprintf(out, "  source: %s\n", ref.DocumentID)
		}
	}
	return nil
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response envelope as JSON")
	rootCmd.AddCommand(askCmd)
}
