package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/socialgate/internal/security/apikey"
	"github.com/dropDatabas3/socialgate/internal/security/secretbox"
	"github.com/dropDatabas3/socialgate/internal/webhook"
)

type client struct {
	BaseURL   string
	AdminKey  string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if c.AdminKey != "" {
		req.Header.Set("X-Admin-Key", c.AdminKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL  = envOr("SOCIALGATE_URL", "http://localhost:8080")
		adminKey = envOr("SOCIALGATE_ADMIN_KEY", "")
		out      = envOr("SOCIALGATE_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "socialgatectl",
		Short: "Operator CLI for the socialgate service",
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "Base URL of the service (env SOCIALGATE_URL)")
	root.PersistentFlags().StringVar(&adminKey, "admin-key", adminKey, "Admin API key (env SOCIALGATE_ADMIN_KEY)")
	root.PersistentFlags().StringVar(&out, "out", out, "Output format: json|text")

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cl.BaseURL, cl.AdminKey, cl.OutFormat = baseURL, adminKey, out
	}

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/healthz", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("ping failed: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	claimsCmd := &cobra.Command{
		Use:   "claims",
		Short: "Code claim store operations",
	}

	var olderThanHours int
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete claims past retention (requires admin key)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cl.AdminKey == "" {
				return fmt.Errorf("missing admin key (flag --admin-key or env SOCIALGATE_ADMIN_KEY)")
			}
			payload, _ := json.Marshal(map[string]int{"older_than_hours": olderThanHours})
			status, body, err := cl.do("POST", "/admin/claims/purge", payload)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("purge failed: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	purgeCmd.Flags().IntVar(&olderThanHours, "older-than-hours", 0, "Override the configured retention")
	claimsCmd.AddCommand(purgeCmd)

	hashKeyCmd := &cobra.Command{
		Use:   "hash-key <key>",
		Short: "Produce the bcrypt hash of an admin key for admin.api_key_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := apikey.Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Println(h)
			return nil
		},
	}

	encryptCmd := &cobra.Command{
		Use:   "encrypt-secret <plaintext>",
		Short: "Encrypt a provider secret for config (requires SECRETBOX_MASTER_KEY)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := secretbox.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Println("enc:" + enc)
			return nil
		},
	}

	var signSecret string
	signCmd := &cobra.Command{
		Use:   "sign-webhook <body-file|->",
		Short: "Produce a signature header for a webhook body, for testing intake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if signSecret == "" {
				return fmt.Errorf("missing --secret")
			}
			var body []byte
			var err error
			if args[0] == "-" {
				body, err = io.ReadAll(os.Stdin)
			} else {
				body, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			v := webhook.NewVerifier(signSecret, 0)
			fmt.Println(v.Sign(time.Now(), body))
			return nil
		},
	}
	signCmd.Flags().StringVar(&signSecret, "secret", "", "Webhook shared secret")

	root.AddCommand(pingCmd, claimsCmd, hashKeyCmd, encryptCmd, signCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
