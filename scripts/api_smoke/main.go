package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"

	transporthttp "github.com/vovakirdan/commlog-server/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		log.Printf("api_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("addr", "http://localhost:8080", "server base URL")
	email := flag.String("email", "smoke@example.com", "email_to to log")
	mobile := flag.String("mobile", "+15550100", "mobile number for sms and whatsapp")
	text := flag.String("text", "hello from smoke test", "message text to send")
	keep := flag.Bool("keep", false, "keep created records instead of deleting them")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := &client{base: *base, http: &http.Client{}}

	var before transporthttp.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/stats/", nil, http.StatusOK, &before); err != nil {
		return err
	}
	fmt.Printf("Stats before: emails=%d sms=%d whatsapp=%d\n", before.Emails, before.SMS, before.WhatsApp)

	if err := c.do(ctx, http.MethodPost, "/api/email/", map[string]string{"email_to": *email}, http.StatusCreated, nil); err != nil {
		return err
	}
	for _, kind := range []string{"sms", "whatsapp"} {
		body := map[string]string{"mobile_number": *mobile, "message": *text}
		if err := c.do(ctx, http.MethodPost, "/api/"+kind+"/", body, http.StatusCreated, nil); err != nil {
			return err
		}
	}

	var after transporthttp.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/stats/", nil, http.StatusOK, &after); err != nil {
		return err
	}
	fmt.Printf("Stats after: emails=%d sms=%d whatsapp=%d\n", after.Emails, after.SMS, after.WhatsApp)
	if after.Emails != before.Emails+1 || after.SMS != before.SMS+1 || after.WhatsApp != before.WhatsApp+1 {
		return fmt.Errorf("unexpected counts after create")
	}

	if *keep {
		return nil
	}

	var emails []transporthttp.EmailResponse
	if err := c.do(ctx, http.MethodGet, "/api/email/", nil, http.StatusOK, &emails); err != nil {
		return err
	}
	if len(emails) == 0 {
		return fmt.Errorf("email list is empty after create")
	}
	fmt.Printf("Newest email: id=%d email_to=%s created_at=%s\n", emails[0].ID, emails[0].EmailTo, emails[0].CreatedAt)

	var deleted transporthttp.DeleteResponse
	body := map[string]any{"type": "email", "id": emails[0].ID}
	if err := c.do(ctx, http.MethodPost, "/api/delete/", body, http.StatusOK, &deleted); err != nil {
		return err
	}
	fmt.Printf("Deleted: %d\n", deleted.Deleted)

	for _, kind := range []string{"sms", "whatsapp"} {
		var msgs []transporthttp.MessageResponse
		if err := c.do(ctx, http.MethodGet, "/api/"+kind+"/", nil, http.StatusOK, &msgs); err != nil {
			return err
		}
		if len(msgs) == 0 {
			return fmt.Errorf("%s list is empty after create", kind)
		}
		body := map[string]any{"type": kind, "id": msgs[0].ID}
		if err := c.do(ctx, http.MethodPost, "/api/delete/", body, http.StatusOK, &deleted); err != nil {
			return err
		}
		fmt.Printf("Deleted %s: %d\n", kind, deleted.Deleted)
	}

	return nil
}

type client struct {
	base string
	http *http.Client
}

func (c *client) do(ctx context.Context, method, path string, in any, wantStatus int, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("unmarshal %s: %w", path, err)
		}
	}
	return nil
}
