package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "celledger-cli",
		Short: "CelLedger CLI tool",
		Long:  `A command line interface for interacting with the CelLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the CelLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(journalCmd())
	rootCmd.AddCommand(accountCmd())
	rootCmd.AddCommand(templateCmd())
	rootCmd.AddCommand(postCmd())
	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(eventsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Journal operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create [name]",
		Short: "Create a journal",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/v1/journals", map[string]any{"name": args[0]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [id]",
		Short: "Get a journal by id",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/journals/"+args[0], nil)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List journals",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/journals", nil)
		},
	})

	return cmd
}

func accountCmd() *cobra.Command {
	var balanceType string

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	createCmd := &cobra.Command{
		Use:   "create [code] [name]",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodPost, "/api/v1/accounts", map[string]any{
				"code":                args[0],
				"name":                args[1],
				"normal_balance_type": balanceType,
			})
		},
	}
	createCmd.Flags().StringVar(&balanceType, "balance-type", "DEBIT", "Normal balance type (DEBIT or CREDIT)")
	cmd.AddCommand(createCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "get [id]",
		Short: "Get an account by id",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/accounts/"+args[0], nil)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/accounts", nil)
		},
	})

	return cmd
}

func templateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Transaction template operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create [file]",
		Short: "Create a template from a JSON file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Printf("Failed to read template file: %v\n", err)
				os.Exit(1)
			}
			doRaw(http.MethodPost, "/api/v1/templates", payload)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [code]",
		Short: "Get a template by code",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doJSON(http.MethodGet, "/api/v1/templates/"+args[0], nil)
		},
	})

	return cmd
}

func postCmd() *cobra.Command {
	var paramsJSON string

	cmd := &cobra.Command{
		Use:   "post [template]",
		Short: "Post a transaction from a template",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			params, err := parseParams(paramsJSON)
			if err != nil {
				fmt.Printf("Invalid params: %v\n", err)
				os.Exit(1)
			}
			doJSON(http.MethodPost, "/api/v1/transactions", map[string]any{
				"template": args[0],
				"params":   params,
			})
		},
	}
	cmd.Flags().StringVar(&paramsJSON, "params", "{}", "Template parameters as a JSON object")

	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [journal-id] [account-id] [currency]",
		Short: "Get an account balance",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			path := fmt.Sprintf("/api/v1/journals/%s/accounts/%s/balances/%s", args[0], args[1], args[2])
			doJSON(http.MethodGet, path, nil)
		},
	}
}

func eventsCmd() *cobra.Command {
	var afterID int64
	var follow bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List or follow ledger events",
		Run: func(cmd *cobra.Command, args []string) {
			if follow {
				streamEvents(afterID)
				return
			}
			doJSON(http.MethodGet, fmt.Sprintf("/api/v1/events?after_id=%d", afterID), nil)
		},
	}
	cmd.Flags().Int64Var(&afterID, "after-id", 0, "Only events with a greater id")
	cmd.Flags().BoolVar(&follow, "follow", false, "Stream events as they are recorded")

	return cmd
}

// parseParams decodes the --params flag into a JSON object.
func parseParams(raw string) (map[string]any, error) {
	params := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, err
	}
	return params, nil
}

func doJSON(method, path string, body any) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
	}
	doRaw(method, path, payload)
}

func doRaw(method, path string, payload []byte) {
	client := &http.Client{Timeout: timeout}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Println(string(body))
		return
	}
	printJSON(result)
}

// streamEvents tails the SSE endpoint and prints one line per event.
func streamEvents(afterID int64) {
	// No client timeout: the stream stays open until interrupted.
	client := &http.Client{}

	url := fmt.Sprintf("%s/api/v1/events/stream?after_id=%d", baseURL, afterID)
	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("Stream failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			fmt.Println(truncate(strings.TrimPrefix(line, "data: "), 200))
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Stream ended: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
