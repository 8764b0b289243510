package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/signalcall/internal/types"
)

var serverURL string

func init() {
	rootCmd.AddCommand(callCmd, sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionAnalyzeCmd)

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "signalcall server URL")

	callCmd.Flags().String("name", "", "prospect name (required)")
	callCmd.Flags().String("company", "", "prospect company (required)")
	callCmd.Flags().String("phone", "", "prospect phone in E.164 form (required)")
	callCmd.Flags().String("signal", "", "intent signal that triggered the call (required)")
	callCmd.Flags().String("pain-point", "", "known pain point")
	callCmd.Flags().String("persona", "", "prospect persona")
	_ = callCmd.MarkFlagRequired("name")
	_ = callCmd.MarkFlagRequired("company")
	_ = callCmd.MarkFlagRequired("phone")
	_ = callCmd.MarkFlagRequired("signal")
}

// postJSON sends a request to the running daemon and decodes the response
// into out. Non-2xx responses are surfaced as errors with the server's
// error body.
func postJSON(path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	resp, err := http.Post(serverURL+path, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("contact server at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func getJSON(path string, out any) error {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("contact server at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server error (status %d)", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Start an outbound call to a prospect",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		company, _ := cmd.Flags().GetString("company")
		phone, _ := cmd.Flags().GetString("phone")
		signal, _ := cmd.Flags().GetString("signal")
		painPoint, _ := cmd.Flags().GetString("pain-point")
		persona, _ := cmd.Flags().GetString("persona")

		req := types.CallRequest{
			Name:      name,
			Company:   company,
			Phone:     phone,
			Signal:    signal,
			PainPoint: painPoint,
			Persona:   persona,
		}
		var resp types.CallResponse
		if err := postJSON("/call", req, &resp); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Session %s: %s (%s)\n", resp.SessionID, resp.Status, resp.Message)
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect call sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var sessions []struct {
			SessionID      string `json:"session_id"`
			Status         string `json:"status"`
			Company        string `json:"company"`
			ProviderCallID string `json:"provider_call_id"`
			CreatedAt      string `json:"created_at"`
			HasTranscript  bool   `json:"has_transcript"`
		}
		if err := getJSON("/api/sessions", &sessions); err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tCOMPANY\tTRANSCRIPT\tCREATED")
		for _, s := range sessions {
			transcript := "no"
			if s.HasTranscript {
				transcript = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				s.SessionID,
				s.Status,
				s.Company,
				transcript,
				s.CreatedAt,
			)
		}
		return w.Flush()
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session's current state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var view types.SessionView
		if err := getJSON("/session/"+args[0], &view); err != nil {
			return err
		}
		return printSessionView(view)
	},
}

var sessionAnalyzeCmd = &cobra.Command{
	Use:   "analyze <id>",
	Short: "Run intent analysis on a session's transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result types.AnalysisResult
		if err := postJSON("/session/"+args[0]+"/analyze", nil, &result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Intent:   %d\n", result.IntentScore)
		fmt.Fprintf(os.Stdout, "Summary:  %s\n", result.Summary)
		fmt.Fprintf(os.Stdout, "Next:     %s\n", result.NextStep)
		return nil
	},
}

func printSessionView(view types.SessionView) error {
	fmt.Fprintf(os.Stdout, "Session:  %s\n", view.SessionID)
	fmt.Fprintf(os.Stdout, "Status:   %s\n", view.Status)
	if view.IntentScore != nil {
		fmt.Fprintf(os.Stdout, "Intent:   %d\n", *view.IntentScore)
	}
	if view.Summary != "" {
		fmt.Fprintf(os.Stdout, "Summary:  %s\n", view.Summary)
	}
	if view.NextStep != "" {
		fmt.Fprintf(os.Stdout, "Next:     %s\n", view.NextStep)
	}
	if view.Transcript != "" {
		fmt.Fprintf(os.Stdout, "\nTranscript:\n%s\n", view.Transcript)
	}
	return nil
}
